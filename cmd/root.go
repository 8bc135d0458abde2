package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/walkabout/internal/config"
	"github.com/zjrosen/walkabout/internal/log"
	"github.com/zjrosen/walkabout/internal/manifest"
	"github.com/zjrosen/walkabout/internal/presentation"
	"github.com/zjrosen/walkabout/internal/tracing"
)

const defaultConfigPath = ".walkabout/config.yaml"

var version = "dev"

// app carries the state shared by every subcommand of one invocation.
type app struct {
	v        *viper.Viper
	cfgFile  string
	noColor  bool
	cfg      config.Config
	provider *tracing.Provider
	cleanup  []func()
}

// newRootCmd builds the walkabout command tree and the state its commands share.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "walkabout",
		Short: "Predicate dispatch over YAML manifests",
		Long: `Walkabout elects candidates by predicate-based multi-dispatch.

A manifest declares subject kinds, predicates and candidates. Commands load
the manifest, compile every candidate's predicate values and consult the
dispatch table selected by the subjects' capabilities.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "",
		"config file (default: "+defaultConfigPath+" or ~/.config/walkabout/config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "write debug logs to log.path")
	rootCmd.PersistentFlags().StringP("format", "o", "", "output format: text or json")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	_ = a.v.BindPFlag("log.debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = a.v.BindPFlag("output.format", rootCmd.PersistentFlags().Lookup("format"))

	rootCmd.AddCommand(
		newOrderCmd(a),
		newElectCmd(a),
		newExplainCmd(a),
		newConfigCmd(a),
	)
	return rootCmd, a
}

func (a *app) setDefaults() {
	defaults := config.Defaults()
	a.v.SetDefault("manifest", defaults.Manifest)
	a.v.SetDefault("sorter.after", defaults.Sorter.After)
	a.v.SetDefault("sorter.before", defaults.Sorter.Before)
	a.v.SetDefault("log.debug", defaults.Log.Debug)
	a.v.SetDefault("log.path", defaults.Log.Path)
	a.v.SetDefault("log.level", defaults.Log.Level)
	a.v.SetDefault("output.format", defaults.Output.Format)
	a.v.SetDefault("output.color", defaults.Output.Color)
	a.v.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	a.v.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	a.v.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	a.v.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	a.v.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	a.v.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)
}

// loadConfig reads the config file and WALKABOUT_* environment variables.
// A missing config file is not an error unless it was named with --config.
func (a *app) loadConfig() error {
	a.setDefaults()
	a.v.SetEnvPrefix("WALKABOUT")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		// Config lookup order:
		// 1. .walkabout/config.yaml (current directory)
		// 2. ~/.config/walkabout/config.yaml (user config)
		if _, err := os.Stat(defaultConfigPath); err == nil {
			a.v.SetConfigFile(defaultConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			a.v.AddConfigPath(filepath.Join(home, ".config", "walkabout"))
			a.v.SetConfigName("config")
			a.v.SetConfigType("yaml")
		}
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	if err := a.v.Unmarshal(&a.cfg); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	if a.noColor {
		a.cfg.Output.Color = false
	}
	return nil
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if a.cfg.Log.Debug {
		closeLog, err := log.Init(a.cfg.Log.Path)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		a.cleanup = append(a.cleanup, closeLog)
		if a.cfg.Log.Level != "" {
			level, _ := log.ParseLevel(a.cfg.Log.Level) // validated above
			log.SetMinLevel(level)
		}
	}
	log.Debug(log.CatCLI, "Command starting", "command", cmd.CommandPath(),
		"config", a.v.ConfigFileUsed())

	provider, err := tracing.NewProvider(a.cfg.Tracing, tracing.WithStdoutWriter(cmd.ErrOrStderr()))
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}
	a.provider = provider
	a.cleanup = append(a.cleanup, func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			log.ErrorErr(log.CatCLI, "Tracing shutdown failed", err)
		}
	})
	return nil
}

// close runs cleanups in reverse order.
func (a *app) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}

func (a *app) formatter(cmd *cobra.Command) *presentation.Formatter {
	return presentation.NewFormatter(cmd.OutOrStdout(),
		presentation.WithFormat(a.cfg.Output.Format),
		presentation.WithColor(a.cfg.Output.Color),
	)
}

// manifestPath resolves path, or the configured manifest when path is
// empty, to an absolute path.
func (a *app) manifestPath(path string) (string, error) {
	if path == "" {
		path = a.cfg.Manifest
	}
	if path == "" {
		return "", errors.New("no manifest given and none configured")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	return abs, nil
}

// catalog loads and builds the manifest at path.
func (a *app) catalog(path string) (*manifest.Catalog, error) {
	abs, err := a.manifestPath(path)
	if err != nil {
		return nil, err
	}
	f, err := manifest.Load(os.DirFS(filepath.Dir(abs)), filepath.Base(abs))
	if err != nil {
		return nil, err
	}
	return manifest.Build(f, a.cfg.Sorter.Options()...)
}

func (a *app) tracer() *tracing.Provider {
	if a.provider == nil {
		// commands run without setup (tests) still get a no-op tracer
		a.provider, _ = tracing.NewProvider(tracing.Config{})
	}
	return a.provider
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// Execute runs the root command
func Execute() error {
	rootCmd, a := newRootCmd()
	return execute(context.Background(), rootCmd, a)
}

func execute(ctx context.Context, rootCmd *cobra.Command, a *app) error {
	defer a.close()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
}
