// Package config loads the configuration for the pyr0demo CLI: flags,
// environment variables, and defaults merged through viper, exactly as
// cmd/davinci-sequencer/config.go does for the sequencer. The composition
// core itself (claim, image, inputbuilder, receipt, prover, composer) takes
// no environment variables; this package only serves the demo process.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultBackend    = "cpu"
	defaultLogLevel   = "info"
	defaultLogOutput  = "stdout"
	defaultDatadir    = ".pyr0demo" // prefixed with the user's home directory
	defaultStoreCap   = 1000
	defaultProveLimit = 2 * time.Minute
)

// Config holds the pyr0demo process configuration.
type Config struct {
	Prover  ProverConfig
	Log     LogConfig
	Store   StoreConfig
	Datadir string
}

// ProverConfig selects and tunes the Prover backend.
type ProverConfig struct {
	Backend    string        `mapstructure:"backend"`    // "cpu" or "fake"
	ProveLimit time.Duration `mapstructure:"proveLimit"` // context timeout applied to each Prove call
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Output string `mapstructure:"output"`
}

// StoreConfig holds receiptstore configuration.
type StoreConfig struct {
	Capacity int    `mapstructure:"capacity"` // in-memory LRU capacity
	DiskPath string `mapstructure:"diskPath"` // optional pebble directory, empty disables the disk tier
}

// Load reads configuration from flags, environment variables, and defaults,
// mirroring loadConfig in cmd/davinci-sequencer/config.go.
func Load() (*Config, error) {
	v := viper.New()

	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		userHomeDir = "."
	}
	defaultDatadirPath := filepath.Join(userHomeDir, defaultDatadir)

	v.SetDefault("prover.backend", defaultBackend)
	v.SetDefault("prover.proveLimit", defaultProveLimit)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.output", defaultLogOutput)
	v.SetDefault("store.capacity", defaultStoreCap)
	v.SetDefault("store.diskPath", "")
	v.SetDefault("datadir", defaultDatadirPath)

	flag.String("prover.backend", defaultBackend, "prover backend to use (cpu, fake)")
	flag.Duration("prover.proveLimit", defaultProveLimit, "context timeout applied to each prove call")
	flag.StringP("log.level", "l", defaultLogLevel, "log level (debug, info, warn, error, fatal)")
	flag.StringP("log.output", "o", defaultLogOutput, "log output (stdout, stderr or filepath)")
	flag.Int("store.capacity", defaultStoreCap, "in-memory receipt store capacity")
	flag.String("store.diskPath", "", "optional pebble directory for the receipt store's disk tier")
	flag.StringP("datadir", "d", defaultDatadirPath, "data directory for the on-disk receipt store")

	if !flag.Parsed() {
		flag.Parse()
	}
	if err := v.BindPFlags(flag.CommandLine); err != nil {
		return nil, fmt.Errorf("config: bind flags: %w", err)
	}

	v.SetEnvPrefix("PYR0")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}
