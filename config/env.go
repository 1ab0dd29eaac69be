package config

import "os"

// EnvOrDefault returns the value of the environment variable identified by
// key, or fallback if it is unset or empty. Embedders use it to pick which
// profile name to pass as Load's env argument, e.g.
// config.Load(path, config.EnvOrDefault("ADASTORE_PROFILE", "")).
func EnvOrDefault(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
