package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/citeflow/internal/config"
)

func init() {
	configCmd.AddCommand(configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
	Long: `Show the effective configuration, merged from the config file and
CITE_* environment variables.

Keys: ` + fmt.Sprint(config.Keys),
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()
		if !humanOutput {
			return outputJSON(cfg)
		}
		fmt.Printf("%s %s\n", labelColor.Sprint("File:"), configFile())
		for _, key := range config.Keys {
			v, _ := cfg.Get(key)
			if v == "" {
				v = "(unset)"
			}
			fmt.Printf("  %-18s %s\n", key, v)
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()
		v, err := cfg.Get(args[0])
		if err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		if humanOutput {
			fmt.Println(v)
			return nil
		}
		return outputJSON(map[string]string{args[0]: v})
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in the config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFile()
		// Load the file alone so environment overrides are not persisted.
		cfg, err := config.LoadFile(path)
		if err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		if err := cfg.Set(args[0], args[1]); err != nil {
			code := ExitDataError
			if errors.Is(err, config.ErrUnknownKey) {
				code = ExitConfigError
			}
			exitWithError(code, "%v", err)
		}
		if err := cfg.Save(path); err != nil {
			exitWithError(ExitError, "saving config: %v", err)
		}
		if humanOutput {
			successColor.Printf("Set %s in %s\n", args[0], path)
			return nil
		}
		return outputJSON(StatusResponse{Status: "updated", Path: path})
	},
}

func configFile() string {
	if configPath != "" {
		return configPath
	}
	return config.Path()
}
