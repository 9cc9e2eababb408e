package settings

import (
	"errors"
	"os"
	"slices"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequiredSettings(t *testing.T) {
	t.Setenv("foo", "localhost")
	t.Setenv("bar", "8080")

	type mySettings struct {
		Foo string `env:"foo,required"`
		Bar string `env:"bar,required"`
	}

	s, err := Construct[mySettings](nil)
	if err != nil {
		t.Fatalf("Construct returned error: %v", err)
	}
	if s.Foo != "localhost" || s.Bar != "8080" {
		t.Fatalf("unexpected settings: %+v", s)
	}
}

func TestRequiredSettingsMissing(t *testing.T) {
	t.Setenv("foo", "asdfghjkl")

	type mySettings struct {
		Foo string `env:"foo,required"`
		Bar string `env:"bar,required"`
	}

	_, err := Construct[mySettings](nil)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := MissingFields(err); !slices.Equal(got, []string{"bar"}) {
		t.Fatalf("unexpected missing fields: %v", got)
	}
}

func TestMissingFieldsAreAggregated(t *testing.T) {
	type mySettings struct {
		Foo string `env:"foo,required"`
		Bar string `env:"bar,required"`
		Baz int    `env:"baz"`
	}

	_, err := Construct[mySettings](nil, WithEnviron(map[string]string{"baz": "nope"}))
	if err == nil {
		t.Fatalf("expected validation error")
	}
	missing := MissingFields(err)
	slices.Sort(missing)
	if !slices.Equal(missing, []string{"bar", "foo"}) {
		t.Fatalf("unexpected missing fields: %v", missing)
	}
	if got := CoercionFailures(err); len(got) != 1 {
		t.Fatalf("expected one coercion failure, got %v", got)
	}
}

func TestDefaultsAndPartialEnvironment(t *testing.T) {
	t.Setenv("bar", "22")

	type mySettings struct {
		Foo string `env:"foo" envDefault:"127.0.0.1"`
		Bar string `env:"bar,required"`
	}

	s, err := Construct[mySettings](nil)
	if err != nil {
		t.Fatalf("Construct returned error: %v", err)
	}
	if s.Foo != "127.0.0.1" || s.Bar != "22" {
		t.Fatalf("unexpected settings: %+v", s)
	}
}

func TestTypedRequiredSettings(t *testing.T) {
	t.Setenv("foo", "172.17.0.1")
	t.Setenv("bar", "6472")
	t.Setenv("baz", "123.456")

	type mySettings struct {
		Foo string  `env:"foo,required"`
		Bar int     `env:"bar,required"`
		Baz float64 `env:"baz,required"`
	}

	s, err := Construct[mySettings](nil)
	if err != nil {
		t.Fatalf("Construct returned error: %v", err)
	}
	if s.Foo != "172.17.0.1" || s.Bar != 6472 || s.Baz != 123.456 {
		t.Fatalf("unexpected settings: %+v", s)
	}
}

func TestEnvironmentOverridesTypedDefaults(t *testing.T) {
	t.Setenv("foo", "192.168.0.1")
	t.Setenv("bar", "8088")

	type mySettings struct {
		Foo string `env:"foo" envDefault:"127.0.0.1"`
		Bar int    `env:"bar" envDefault:"22"`
	}

	s, err := Construct[mySettings](nil)
	if err != nil {
		t.Fatalf("Construct returned error: %v", err)
	}
	if s.Foo != "192.168.0.1" || s.Bar != 8088 {
		t.Fatalf("unexpected settings: %+v", s)
	}
}

func TestDefaultsOnly(t *testing.T) {
	type mySettings struct {
		Foo string `env:"foo" envDefault:"10.0.0.1"`
		Bar int    `env:"bar" envDefault:"3306"`
	}

	s, err := Construct[mySettings](nil, WithEnviron(map[string]string{}))
	if err != nil {
		t.Fatalf("Construct returned error: %v", err)
	}
	if s.Foo != "10.0.0.1" || s.Bar != 3306 {
		t.Fatalf("unexpected settings: %+v", s)
	}
}

func TestCoercionFailure(t *testing.T) {
	type mySettings struct {
		Port int `env:"port" envDefault:"22"`
	}

	_, err := Construct[mySettings](nil, WithEnviron(map[string]string{"port": "twenty"}))
	if err == nil {
		t.Fatalf("expected coercion error")
	}
	if !IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(CoercionFailures(err)) != 1 {
		t.Fatalf("expected one coercion failure, got %v", CoercionFailures(err))
	}
	if len(MissingFields(err)) != 0 {
		t.Fatalf("expected no missing fields, got %v", MissingFields(err))
	}
}

func TestEnvironmentBeatsOverrides(t *testing.T) {
	type mySettings struct {
		Host string `env:"host,required"`
		Port int    `env:"port" envDefault:"1"`
	}

	overrides := map[string]string{"host": "from-caller", "port": "2"}
	s, err := Construct[mySettings](overrides, WithEnviron(map[string]string{"host": "from-env"}))
	if err != nil {
		t.Fatalf("Construct returned error: %v", err)
	}
	if s.Host != "from-env" {
		t.Fatalf("expected environment to win, got %q", s.Host)
	}
	if s.Port != 2 {
		t.Fatalf("expected override to apply, got %d", s.Port)
	}
	if overrides["host"] != "from-caller" {
		t.Fatalf("overrides map must not be modified")
	}
}

func TestOverridesSatisfyRequiredFields(t *testing.T) {
	type mySettings struct {
		User string `env:"user,required"`
	}

	s, err := Construct[mySettings](map[string]string{"user": "root"}, WithEnviron(map[string]string{}))
	if err != nil {
		t.Fatalf("Construct returned error: %v", err)
	}
	if s.User != "root" {
		t.Fatalf("unexpected user %q", s.User)
	}
}

func TestCaseInsensitiveMatching(t *testing.T) {
	t.Setenv("my_FOO", "0.0.0.0")
	t.Setenv("MY_bar", "5000")
	t.Setenv("MY_Baz", "baz")

	type mySettings struct {
		MyFoo string `env:"my_foo,required"`
		MyBar string `env:"my_bar,required"`
		MyBaz string `env:"my_baz,required"`
	}

	if _, err := Construct[mySettings](nil); err == nil {
		t.Fatalf("expected case sensitive lookup to fail")
	}

	s, err := Construct[mySettings](nil, WithCaseInsensitive(true))
	if err != nil {
		t.Fatalf("Construct returned error: %v", err)
	}
	if s.MyFoo != "0.0.0.0" || s.MyBar != "5000" || s.MyBaz != "baz" {
		t.Fatalf("unexpected settings: %+v", s)
	}
}

func TestPrefixMatching(t *testing.T) {
	t.Setenv("TESTAPP_FOO", "192.168.0.0")
	t.Setenv("TESTAPP_BAR", "254")

	type mySettings struct {
		Foo string `env:"foo,required"`
		Bar string `env:"bar,required"`
	}

	s, err := Construct[mySettings](nil, WithEnvPrefix("TESTAPP_"))
	if err != nil {
		t.Fatalf("Construct returned error: %v", err)
	}
	if s.Foo != "192.168.0.0" || s.Bar != "254" {
		t.Fatalf("unexpected settings: %+v", s)
	}
}

func TestPrefixedValueLosesToOverride(t *testing.T) {
	type mySettings struct {
		Foo string `env:"foo,required"`
	}

	environ := map[string]string{"APP_FOO": "prefixed"}
	s, err := Construct[mySettings](map[string]string{"foo": "override"}, WithEnviron(environ), WithEnvPrefix("APP_"))
	if err != nil {
		t.Fatalf("Construct returned error: %v", err)
	}
	if s.Foo != "override" {
		t.Fatalf("expected override to beat prefixed variable, got %q", s.Foo)
	}
}

func TestExactNameBeatsPrefixedName(t *testing.T) {
	type mySettings struct {
		Foo string `env:"foo,required"`
	}

	environ := map[string]string{"foo": "exact", "APP_FOO": "prefixed"}
	s, err := Construct[mySettings](nil, WithEnviron(environ), WithEnvPrefix("APP_"))
	if err != nil {
		t.Fatalf("Construct returned error: %v", err)
	}
	if s.Foo != "exact" {
		t.Fatalf("expected exact name to win, got %q", s.Foo)
	}
}

func TestCaseInsensitiveTieBreaksLexically(t *testing.T) {
	type mySettings struct {
		Foo string `env:"foo,required"`
	}

	environ := map[string]string{"app_Foo": "second", "APP_FOO": "first"}
	opts := []Option{WithEnviron(environ), WithEnvPrefix("app_"), WithCaseInsensitive(true)}
	for range 5 {
		s, err := Construct[mySettings](nil, opts...)
		if err != nil {
			t.Fatalf("Construct returned error: %v", err)
		}
		if s.Foo != "first" {
			t.Fatalf("expected lexically first match, got %q", s.Foo)
		}
	}
}

func TestOptionalPointerStaysNil(t *testing.T) {
	type mySettings struct {
		Password string  `env:"api_password,required"`
		Token    *string `env:"api_token"`
	}

	s, err := Construct[mySettings](nil, WithEnviron(map[string]string{"api_password": "secret"}))
	if err != nil {
		t.Fatalf("Construct returned error: %v", err)
	}
	if s.Token != nil {
		t.Fatalf("expected nil token, got %q", *s.Token)
	}
}

func TestRequiredIfNoDef(t *testing.T) {
	type mySettings struct {
		Host string `env:"host"`
		Port int    `env:"port" envDefault:"5432"`
	}

	_, err := Construct[mySettings](nil, WithEnviron(map[string]string{}), WithRequiredIfNoDef(true))
	if got := MissingFields(err); !slices.Equal(got, []string{"host"}) {
		t.Fatalf("unexpected missing fields: %v (err %v)", got, err)
	}
}

func TestLoadRejectsInvalidTargets(t *testing.T) {
	var s struct{}
	n := 3
	cases := map[string]any{
		"nil":         nil,
		"non-pointer": s,
		"non-struct":  &n,
	}
	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			if err := Load(target, nil); !errors.Is(err, ErrInvalidTarget) {
				t.Fatalf("expected ErrInvalidTarget, got %v", err)
			}
		})
	}
}

func TestFields(t *testing.T) {
	type mySettings struct {
		Server string `env:"DATABASE_SERVER" envDefault:"127.0.0.1"`
		Port   int    `env:"DATABASE_PORT" envDefault:"3306"`
		User   string `env:"DATABASE_USER,required"`
		Ignore string
	}

	got, err := Fields(&mySettings{})
	if err != nil {
		t.Fatalf("Fields returned error: %v", err)
	}
	if want := []string{"DATABASE_SERVER", "DATABASE_PORT", "DATABASE_USER"}; !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestLoggerReportsSources(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	type mySettings struct {
		A string `env:"a"`
		B string `env:"b"`
		C string `env:"c"`
	}

	environ := map[string]string{"a": "1", "X_C": "3"}
	_, err := Construct[mySettings](map[string]string{"b": "2"},
		WithEnviron(environ),
		WithEnvPrefix("X_"),
		WithLogger(zap.New(core)),
	)
	if err != nil {
		t.Fatalf("Construct returned error: %v", err)
	}

	sources := map[string]string{}
	for _, entry := range logs.FilterMessage("field resolved").All() {
		fields := entry.ContextMap()
		sources[fields["field"].(string)] = fields["source"].(string)
	}
	want := map[string]string{"a": sourceEnvironment, "b": sourceOverride, "c": sourcePolicy}
	for k, v := range want {
		if sources[k] != v {
			t.Fatalf("field %s: expected source %s, got %s", k, v, sources[k])
		}
	}
}

func TestUnsetOptionIsRejected(t *testing.T) {
	t.Setenv("api_secret", "s3cr3t")

	type mySettings struct {
		Secret string `env:"api_secret,unset"`
	}

	if _, err := Construct[mySettings](nil); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget, got %v", err)
	}
	if value, ok := os.LookupEnv("api_secret"); !ok || value != "s3cr3t" {
		t.Fatalf("environment variable must survive construction, got %q (set=%v)", value, ok)
	}
}

func TestConstructionIsReadOnlyAndRepeatable(t *testing.T) {
	t.Setenv("host", "db.internal")
	t.Setenv("SVC_PORT", "5433")
	t.Setenv("svc_Ratio", "0.5")
	t.Setenv("SVC_USER", "ignored-by-override")

	type mySettings struct {
		Host  string  `env:"host,required"`
		Port  int     `env:"port" envDefault:"5432"`
		Ratio float64 `env:"ratio,required"`
		User  string  `env:"user,required"`
		Name  string  `env:"name" envDefault:"app"`
	}

	before := os.Environ()
	slices.Sort(before)

	overrides := map[string]string{"user": "admin", "host": "from-caller"}
	opts := []Option{WithEnvPrefix("SVC_"), WithCaseInsensitive(true)}

	first, err := Construct[mySettings](overrides, opts...)
	if err != nil {
		t.Fatalf("Construct returned error: %v", err)
	}
	second, err := Construct[mySettings](overrides, opts...)
	if err != nil {
		t.Fatalf("Construct returned error: %v", err)
	}

	if first != second {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
	want := mySettings{Host: "db.internal", Port: 5433, Ratio: 0.5, User: "admin", Name: "app"}
	if first != want {
		t.Fatalf("expected %+v, got %+v", want, first)
	}

	after := os.Environ()
	slices.Sort(after)
	if !slices.Equal(before, after) {
		t.Fatalf("environment changed during construction")
	}
}

func TestPrefixWithoutCaseInsensitivityNeedsUpperCase(t *testing.T) {
	type mySettings struct {
		Foo string `env:"foo,required"`
	}

	environ := map[string]string{"TESTAPP_foo": "mixed"}
	_, err := Construct[mySettings](nil, WithEnviron(environ), WithEnvPrefix("TESTAPP_"))
	if got := MissingFields(err); !slices.Equal(got, []string{"foo"}) {
		t.Fatalf("expected foo to be missing, got %v (err %v)", got, err)
	}

	s, err := Construct[mySettings](nil, WithEnviron(environ), WithEnvPrefix("TESTAPP_"), WithCaseInsensitive(true))
	if err != nil || s.Foo != "mixed" {
		t.Fatalf("expected case-insensitive match, got %q (%v)", s.Foo, err)
	}
}
