// Package config loads the handful of tunables a Storage needs at Open
// time: bloom sizing, the sticky compression flag, the hot read-cache
// size, and the network name used to resolve a codec.GenesisTable entry.
// It also carries a shard depth, which store.Config has no field for: the
// blob store always shards on the first byte of the hash. It mirrors the teacher's pkg/config loader
// (spf13/viper, YAML files merged by environment name, env var overlay)
// but the storage engine itself never reads a file or an environment
// variable on its own — per spec.md §6, the storage root directory is its
// sole configuration. This package is how an embedder produces a Config
// value before calling store.Open.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Version is the semantic version of this configuration loader.
const Version = "v1.0.0"

// Config is the unified, unmarshalable configuration for an adastore root.
type Config struct {
	Storage struct {
		Root              string  `mapstructure:"root" json:"root"`
		Compression       bool    `mapstructure:"compression" json:"compression"`
		ShardDepth        int     `mapstructure:"shard_depth" json:"shard_depth"`
		BloomTargetFP     float64 `mapstructure:"bloom_target_fp" json:"bloom_target_fp"`
		CacheEntries      int     `mapstructure:"cache_entries" json:"cache_entries"`
		Network           string  `mapstructure:"network" json:"network"`
	} `mapstructure:"storage" json:"storage"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
	} `mapstructure:"logging" json:"logging"`
}

// Default returns a Config populated with the engine's built-in defaults,
// used when no config file is present.
func Default(root string) Config {
	var c Config
	c.Storage.Root = root
	c.Storage.Compression = false
	c.Storage.ShardDepth = 1
	c.Storage.BloomTargetFP = 0.01
	c.Storage.CacheEntries = 4096
	c.Storage.Network = "mainnet"
	c.Logging.Level = "info"
	return c
}

// Load reads "<path>/default.yaml" and, if env is non-empty, merges
// "<path>/<env>.yaml" on top, then layers any matching environment
// variables (prefixed ADASTORE_). path is a directory containing the YAML
// files; an empty path searches the current working directory.
func Load(path, env string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("default")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	} else {
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: load default: %w", err)
	}

	if env != "" {
		v.SetConfigName(env)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("config: merge %s: %w", env, err)
		}
	}

	v.SetEnvPrefix("ADASTORE")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}
