package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar overrides the config file location.
const PathEnvVar = "DOCRANK_CONFIG"

// EnvPrefix scopes environment overrides: DOCRANK_RANKING_DECAY_FACTOR
// sets ranking.decay_factor.
const EnvPrefix = "DOCRANK_"

// DefaultPaths are searched in order when no explicit path is given.
var DefaultPaths = []string{
	"docrank.yaml",
	"docrank.yml",
}

// Load layers defaults, an optional YAML file and DOCRANK_* environment
// variables, then validates the result. An explicit path that does not
// exist is an error; a missing default file is not.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := Default()
	if err := k.Load(structs.Provider(&defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	configPath, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if path == "" {
		path = os.Getenv(PathEnvVar)
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return path, nil
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

// envKey maps DOCRANK_SECTION_SOME_KEY to section.some_key. The config
// path variable itself is not a setting.
func envKey(name string) string {
	if name == PathEnvVar {
		return ""
	}
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok || rest == "" {
		return ""
	}
	return section + "." + rest
}
