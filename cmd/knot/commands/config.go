package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/knotlang/knot/config"
	"github.com/knotlang/knot/display"
	"github.com/knotlang/knot/errors"
)

// ConfigCmd represents the config command
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage knot configuration",
	Long: `Display and manage knot configuration settings.

Configuration sources (in order of precedence):
1. Environment variables (KNOT_* prefix)
2. Project config (./knot.toml, searched up the directory tree)
3. User config (~/.knot/knot.toml)
4. System config (/etc/knot/config.toml)
5. Default values

Examples:
  knot config show                       # Show current configuration
  knot config show --format json         # Show configuration as JSON
  knot config get compress.default_level # Get a specific value
  knot config validate                   # Validate current configuration
  knot config init                       # Write the defaults to ~/.knot/knot.toml`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the current knot configuration from all sources",
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., compress.default_level, expand.max_depth)",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	Long:  "Validate that the current knot configuration is valid",
	RunE:  runConfigValidate,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to the user config file",
	Long:  "Write the built-in defaults to ~/.knot/knot.toml so they can be edited. Refuses to overwrite an existing file.",
	RunE:  runConfigInit,
}

var configWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the user config file and revalidate on change",
	Long:  "Watch ~/.knot/knot.toml for edits, reload the merged configuration on every change, and report whether it is still valid. Runs until interrupted.",
	RunE:  runConfigWatch,
}

var configFormat string

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configGetCmd)
	ConfigCmd.AddCommand(configValidateCmd)
	ConfigCmd.AddCommand(configInitCmd)
	ConfigCmd.AddCommand(configWatchCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	switch configFormat {
	case "json":
		return display.OutputJSON(cfg, true)

	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Printf("# knot configuration\n%s", string(data))

	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to TOML")
		}
		fmt.Printf("# knot configuration\n%s", string(data))

	default:
		return errors.Newf("unsupported format: %s (supported: toml, json, yaml)", configFormat)
	}

	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	v := config.GetViper()
	if !v.IsSet(key) {
		return errors.Newf("configuration key %q not found", key)
	}

	fmt.Println(config.Get(key))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}

	fmt.Println("configuration is valid")
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.UserConfigPath()
	if path == "" {
		return errors.New("could not determine home directory")
	}
	if _, err := os.Stat(path); err == nil {
		return errors.Newf("%s already exists, not overwriting", path)
	}

	v := config.GetViper()
	var cfg config.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return errors.Wrap(err, "failed to assemble defaults")
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal defaults")
	}
	if err := os.MkdirAll(config.UserConfigDir(), config.DefaultDirPermissions); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}
	if err := os.WriteFile(path, data, config.DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}

	fmt.Printf("wrote %s\n", path)
	return nil
}

func runConfigWatch(cmd *cobra.Command, args []string) error {
	if _, err := config.Load(); err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	path := config.UserConfigPath()
	if path == "" {
		return errors.New("could not determine home directory")
	}
	if _, err := os.Stat(path); err != nil {
		return errors.Wrapf(err, "nothing to watch; run `knot config init` first")
	}

	watcher, err := config.NewConfigWatcher(path)
	if err != nil {
		return errors.Wrap(err, "failed to create config watcher")
	}
	defer watcher.Stop()
	config.SetGlobalWatcher(watcher)

	watcher.OnReload(func(cfg *config.Config) error {
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "config invalid: %v\n", err)
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "config reloaded: %s\n", cfg)
		return nil
	})
	watcher.Start()

	fmt.Fprintf(cmd.OutOrStdout(), "watching %s (interrupt to stop)\n", path)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	return nil
}
