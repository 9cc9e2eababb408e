package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/envsettings/internal/app"
	"github.com/eugenenazirov/envsettings/internal/config"
	"github.com/eugenenazirov/envsettings/internal/logging"
	"github.com/eugenenazirov/envsettings/pkg/settings"
)

const (
	exitOK         = 0
	exitValidation = 1
	exitUsage      = 2
)

var newLogger = logging.New

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	kingpinApp := kingpin.New("envsettings", "Builds validated settings from environment variables, .env files and overrides")
	kingpinApp.UsageWriter(stderr)
	kingpinApp.ErrorWriter(stderr)
	terminated := false
	kingpinApp.Terminate(func(int) { terminated = true })

	var prefixSet, caseSet bool
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	schema := kingpinApp.Flag("schema", "Path to the YAML settings schema").Short('s').String()
	envFiles := kingpinApp.Flag("env-file", "Dotenv file to read (repeatable, later files win)").Short('e').Strings()
	prefix := kingpinApp.Flag("prefix", "Prefix used when matching environment variables").IsSetByUser(&prefixSet).String()
	caseInsensitive := kingpinApp.Flag("case-insensitive", "Match prefixed environment variables ignoring case").IsSetByUser(&caseSet).Bool()
	format := kingpinApp.Flag("format", "Output format: json, yaml or dotenv").Short('f').String()
	set := kingpinApp.Flag("set", "Override a setting, KEY=VALUE (repeatable)").StringMap()
	logLevel := kingpinApp.Flag("log-level", "Log level: debug, info, warn or error").String()

	_, err := kingpinApp.Parse(args)
	if terminated {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "envsettings: %v\n", err)
		return exitUsage
	}

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
		SchemaFile: schema,
		EnvFiles:   *envFiles,
		Format:     format,
		LogLevel:   logLevel,
		Set:        *set,
	}

	if prefixSet {
		overrides.EnvPrefix = prefix
	}

	if caseSet {
		overrides.CaseInsensitive = caseInsensitive
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		fmt.Fprintf(stderr, "envsettings: failed to load configuration: %v\n", err)
		return exitUsage
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "envsettings: failed to initialize logger: %v\n", err)
		return exitUsage
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := app.New(cfg, logger, stdout).Run(); err != nil {
		fmt.Fprintf(stderr, "envsettings: %v\n", err)
		if settings.IsValidationError(err) {
			return exitValidation
		}
		logger.Error("run failed", zap.Error(err))
		return exitUsage
	}

	return exitOK
}
