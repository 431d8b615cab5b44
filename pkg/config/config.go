/*
Package config manages TOML config for SeedServe services.
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/bastiangx/seedserve/internal/utils"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Search SearchConfig `toml:"search"`
	Server ServerConfig `toml:"server"`
	CLI    CliConfig    `toml:"cli"`
}

// SearchConfig holds the default neighborhood parameters.
type SearchConfig struct {
	Matrix    string `toml:"matrix"`
	Alphabet  string `toml:"alphabet"`
	WordSize  int    `toml:"word_size"`
	Threshold int    `toml:"threshold"`
	Threads   int    `toml:"threads"`
	DataDir   string `toml:"data_dir"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	MaxQueryLen  int `toml:"max_query_len"`
	MaxWordSize  int `toml:"max_word_size"`
	CacheEntries int `toml:"cache_entries"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit int  `toml:"default_limit"`
	Color        bool `toml:"color"`
}

const appName = "seedserve"

// GetDefaultConfigPath returns the default path for config.toml with fallback priority:
// 1. the platform config dir (XDG_CONFIG_HOME, APPDATA or ~/.config)
// 2. ~/.seedserve
// 3. the temp dir
// 4. the executable dir
func GetDefaultConfigPath() (string, error) {
	pr, err := utils.NewPathResolver(appName)
	if err != nil {
		log.Errorf("Failed to resolve config location: %v", err)
		return "", err
	}
	return pr.GetConfigPath("config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/seedserve/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			Matrix:    "BLOSUM62",
			Alphabet:  "ACDEFGHIKLMNPQRSTVWY",
			WordSize:  3,
			Threshold: 11,
			Threads:   0,
		},
		Server: ServerConfig{
			MaxQueryLen:  10000,
			MaxWordSize:  6,
			CacheEntries: 32,
		},
		CLI: CliConfig{
			DefaultLimit: 10,
			Color:        true,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		log.Debugf("Strict parse of %s failed: %v", configPath, err)
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse keeps every section that still decodes and defaults the rest
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "search"); ok {
		extractSearchConfig(section, &config.Search)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	return config, nil
}

func extractSearchConfig(data map[string]any, search *SearchConfig) {
	if val, ok := utils.ExtractString(data, "matrix"); ok {
		search.Matrix = val
	}
	if val, ok := utils.ExtractString(data, "alphabet"); ok {
		search.Alphabet = val
	}
	if val, ok := utils.ExtractInt64(data, "word_size"); ok {
		search.WordSize = val
	}
	if val, ok := utils.ExtractInt64(data, "threshold"); ok {
		search.Threshold = val
	}
	if val, ok := utils.ExtractInt64(data, "threads"); ok {
		search.Threads = val
	}
	if val, ok := utils.ExtractString(data, "data_dir"); ok {
		search.DataDir = val
	}
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_query_len"); ok {
		server.MaxQueryLen = val
	}
	if val, ok := utils.ExtractInt64(data, "max_word_size"); ok {
		server.MaxWordSize = val
	}
	if val, ok := utils.ExtractInt64(data, "cache_entries"); ok {
		server.CacheEntries = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		cli.DefaultLimit = val
	}
	if val, ok := utils.ExtractBool(data, "color"); ok {
		cli.Color = val
	}
}

// ApplyEnv overrides search settings from SEEDSERVE_* environment variables.
// Values that do not parse are ignored with a warning.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SEEDSERVE_MATRIX"); v != "" {
		c.SetMatrix(v)
	}
	if v := os.Getenv("SEEDSERVE_ALPHABET"); v != "" {
		c.Search.Alphabet = v
	}
	if v := os.Getenv("SEEDSERVE_DATA"); v != "" {
		c.Search.DataDir = v
	}
	envInt("SEEDSERVE_WORD_SIZE", &c.Search.WordSize)
	envInt("SEEDSERVE_THRESHOLD", &c.Search.Threshold)
	envInt("SEEDSERVE_THREADS", &c.Search.Threads)
}

// SetMatrix switches the search matrix. The alphabet restriction belongs to the
// previous matrix and is dropped when the name changes.
func (c *Config) SetMatrix(name string) {
	if !strings.EqualFold(name, c.Search.Matrix) {
		c.Search.Alphabet = ""
	}
	c.Search.Matrix = name
}

func envInt(key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warnf("Ignoring %s=%q: %v", key, v, err)
		return
	}
	*dst = n
}

// Validate reports settings no run could use.
func (c *Config) Validate() error {
	switch {
	case c.Search.WordSize < 1:
		return fmt.Errorf("search.word_size must be at least 1, got %d", c.Search.WordSize)
	case c.Search.Threads < 0:
		return fmt.Errorf("search.threads must not be negative, got %d", c.Search.Threads)
	case c.Server.MaxWordSize > 0 && c.Search.WordSize > c.Server.MaxWordSize:
		return fmt.Errorf("search.word_size %d exceeds server.max_word_size %d", c.Search.WordSize, c.Server.MaxWordSize)
	case c.Server.CacheEntries < 0:
		return fmt.Errorf("server.cache_entries must not be negative, got %d", c.Server.CacheEntries)
	}
	return nil
}

// EffectiveThreads resolves threads = 0 to the number of CPUs.
// Negative counts are returned as is for the engine to reject.
func (s SearchConfig) EffectiveThreads() int {
	if s.Threads == 0 {
		return runtime.NumCPU()
	}
	return s.Threads
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
