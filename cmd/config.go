package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/walkabout/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the walkabout configuration file",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "init [path]",
			Short: "Write a default config file",
			Long: `Write a commented default config file.

The default path is ` + defaultConfigPath + `. An existing file is left alone.`,
			Args: cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				path := firstArg(args)
				if path == "" {
					path = defaultConfigPath
				}
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists", path)
				}
				if err := config.WriteDefaultConfig(path); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
				return err
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Set a config value",
			Long: `Set a dotted config key in the active config file, keeping its comments.

Examples:
  walkabout config set output.format json
  walkabout config set sorter.after "[FIRST]"`,
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				path := a.configPath()
				if err := config.SetValue(path, args[0], args[1]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "set %s in %s\n", args[0], path)
				return err
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				encoder := yaml.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent(2)
				if err := encoder.Encode(a.cfg); err != nil {
					return err
				}
				return encoder.Close()
			},
		},
	)
	return cmd
}

// configPath is the file config set edits: --config, else the file that
// was loaded, else the project default.
func (a *app) configPath() string {
	if a.cfgFile != "" {
		return a.cfgFile
	}
	if used := a.v.ConfigFileUsed(); used != "" {
		return used
	}
	return defaultConfigPath
}
