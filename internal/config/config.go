// Package config loads alsaroute settings from an optional YAML file,
// ALSAROUTE_* environment variables and command line flags.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/michaelquigley/alsaroute"
)

const (
	configName = "alsaroute"
	configType = "yaml"
	envPrefix  = "ALSAROUTE"

	KeyCard       = "card"
	KeyCardIDPath = "card_id_path"
	KeyUSBAudio   = "usb_audio"
	KeyLogLevel   = "log_level"
	KeyVerbose    = "verbose"
)

// SearchPaths are the directories searched for alsaroute.yaml
var SearchPaths = []string{".", "/etc/alsaroute"}

// flagKeys maps command line flag names to config keys
var flagKeys = map[string]string{
	"card":         KeyCard,
	"card-id-path": KeyCardIDPath,
	"usb":          KeyUSBAudio,
	"log-level":    KeyLogLevel,
	"verbose":      KeyVerbose,
}

// Config is the resolved configuration
type Config struct {
	Card       int
	CardIDPath string
	USBAudio   bool
	LogLevel   string
	Verbose    bool

	// File is the config file used, empty when none was found
	File string
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType(configType)

	v.SetDefault(KeyCard, 0)
	v.SetDefault(KeyCardIDPath, alsaroute.CardIDPath)
	v.SetDefault(KeyUSBAudio, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyVerbose, false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load resolves the configuration. An explicit path must exist; otherwise
// alsaroute.yaml is looked up in SearchPaths and may be absent. Flags that
// were set on the command line take precedence over everything else.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		for _, p := range SearchPaths {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "bind flag %s", name)
				}
			}
		}
	}

	cfg := &Config{
		Card:       v.GetInt(KeyCard),
		CardIDPath: v.GetString(KeyCardIDPath),
		USBAudio:   v.GetBool(KeyUSBAudio),
		LogLevel:   v.GetString(KeyLogLevel),
		Verbose:    v.GetBool(KeyVerbose),
		File:       v.ConfigFileUsed(),
	}
	if cfg.Card < 0 {
		return nil, errors.Errorf("card %d out of range", cfg.Card)
	}
	return cfg, nil
}
