package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"

	"github.com/autopeer-io/rover/pkg/log"
)

const configFlagName = "config"

// ReloadFunc receives the options decoded from a changed config file after
// they passed validation. The options the command started with stay as they
// were.
type ReloadFunc func(opts NamedFlagSetOptions)

func (a *App) addConfigFlag(fs *pflag.FlagSet) {
	fs.StringVarP(&a.configFile, configFlagName, "c", a.configFile,
		"Read options from this file (yaml, json or toml). Flags override file values.")
}

func (a *App) prefix() string {
	p := a.envPrefix
	if p == "" {
		p = a.name
	}
	return strings.ToUpper(strings.ReplaceAll(p, "-", "_"))
}

// loadConfig merges, from low to high precedence, defaults, the config file,
// ROVER_* style environment variables and explicitly set flags into the options.
func (a *App) loadConfig(fs *pflag.FlagSet) error {
	v := a.viper
	v.SetEnvPrefix(a.prefix())
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if a.configFile != "" {
		v.SetConfigFile(a.configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %q: %w", a.configFile, err)
		}
	}

	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == configFlagName {
			return
		}
		errs = append(errs, v.BindPFlag(f.Name, f))
	})
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	if err := v.Unmarshal(a.options); err != nil {
		return fmt.Errorf("failed to decode options: %w", err)
	}
	return nil
}

func (a *App) watchConfig() {
	if a.onReload == nil || a.newOptions == nil || a.configFile == "" {
		return
	}

	a.viper.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Config file changed", "file", e.Name, "op", e.Op.String())
		opts, err := a.reloadOptions()
		if err != nil {
			log.Error(err, "Ignoring reloaded config")
			return
		}
		a.onReload(opts)
	})
	a.viper.WatchConfig()
	log.Info("Watching config file", "file", a.configFile)
}

// reloadOptions decodes the current config into a fresh options value.
func (a *App) reloadOptions() (NamedFlagSetOptions, error) {
	opts := a.newOptions()
	if err := a.viper.Unmarshal(opts); err != nil {
		return nil, fmt.Errorf("failed to decode reloaded config: %w", err)
	}
	if err := opts.Complete(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("reloaded config is invalid: %w", err)
	}
	return opts, nil
}
