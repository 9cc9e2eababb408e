package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"

	"github.com/eugenenazirov/envsettings/internal/config"
	"github.com/eugenenazirov/envsettings/internal/render"
	"github.com/eugenenazirov/envsettings/pkg/dotenv"
	"github.com/eugenenazirov/envsettings/pkg/settings"
)

// App encapsulates the dependencies of one envsettings run.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	out     io.Writer
	environ func() []string
}

// Option configures App behaviour.
type Option func(*App)

// WithEnviron overrides the process environment source, primarily for tests.
func WithEnviron(environ func() []string) Option {
	return func(a *App) {
		a.environ = environ
	}
}

// New initializes the application from the provided configuration.
func New(cfg config.Config, logger *zap.Logger, out io.Writer, opts ...Option) *App {
	a := &App{
		cfg:     cfg,
		logger:  logger,
		out:     out,
		environ: os.Environ,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run constructs the settings declared by the schema and writes them to the
// output. Validation errors from the settings package are returned unchanged
// after being logged.
func (a *App) Run() error {
	schemaPath, err := resolveProjectPath(a.cfg.SchemaFile)
	if err != nil {
		return fmt.Errorf("locate schema: %w", err)
	}
	schemaFile, err := settings.LoadSchema(schemaPath)
	if err != nil {
		return err
	}

	environ, err := a.snapshot()
	if err != nil {
		return err
	}

	opts := append(schemaFile.Options(),
		settings.WithEnviron(environ),
		settings.WithLogger(a.logger),
	)
	if a.cfg.EnvPrefix != nil {
		opts = append(opts, settings.WithEnvPrefix(*a.cfg.EnvPrefix))
	}
	if a.cfg.CaseInsensitive != nil {
		opts = append(opts, settings.WithCaseInsensitive(*a.cfg.CaseInsensitive))
	}

	values, err := schemaFile.Schema().Construct(a.cfg.Overrides, opts...)
	if err != nil {
		if settings.IsValidationError(err) {
			a.logger.Error("settings validation failed",
				zap.String("schema", schemaPath),
				zap.Strings("missing", settings.MissingFields(err)),
				zap.Strings("invalid", settings.CoercionFailures(err)),
			)
		}
		return err
	}

	a.logger.Info("settings constructed",
		zap.String("schema", schemaPath),
		zap.Int("fields", len(values.Names())),
	)
	return render.Write(a.out, a.cfg.Format, values)
}

// snapshot merges .env files under the process environment without
// modifying it.
func (a *App) snapshot() (map[string]string, error) {
	files := a.cfg.EnvFiles
	if len(files) == 0 {
		path, err := resolveProjectPath(dotenv.DefaultFile)
		if err != nil {
			a.logger.Debug("no dotenv file found")
		} else {
			files = []string{path}
		}
	}

	base := env.ToMap(a.environ())
	if len(files) == 0 {
		return base, nil
	}

	fileVars, err := dotenv.Read(files...)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("dotenv files read", zap.Strings("files", files), zap.Int("variables", len(fileVars)))
	return dotenv.Merge(base, fileVars), nil
}

// resolveProjectPath locates a file relative to the working directory by
// walking up the directory tree. Absolute paths are returned as is.
func resolveProjectPath(relative string) (string, error) {
	if filepath.IsAbs(relative) {
		return relative, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, relative)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("unable to locate %s", relative)
}
