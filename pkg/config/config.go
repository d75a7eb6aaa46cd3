/*
Package config manages TOML config for typr.

The config file is created with defaults when missing. A file that fails to
decode as a whole is salvaged section by section, and anything still missing
falls back to the builtin defaults.

	[trigger]
	character_regex = "a-zA-ZöäüÖÄÜß"
	max_look_back_distance = 50
	min_word_trigger_length = 3

	[words]
	insertion_mode = "ignore-case-replace"

	[llm]
	endpoint = "https://api.openai.com/v1/chat/completions"
	temperature = 0.7
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/bastiangx/typr/internal/utils"
	"github.com/charmbracelet/log"
)

// InsertionMode controls how dictionary matches are compared and inserted.
type InsertionMode string

const (
	MatchCaseReplace  InsertionMode = "match-case-replace"
	IgnoreCaseReplace InsertionMode = "ignore-case-replace"
	IgnoreCaseAppend  InsertionMode = "ignore-case-append"
)

// IgnoresCase is true for both ignore-case modes.
func (m InsertionMode) IgnoresCase() bool {
	return m == IgnoreCaseReplace || m == IgnoreCaseAppend
}

// Valid reports whether m is one of the known modes.
func (m InsertionMode) Valid() bool {
	switch m {
	case MatchCaseReplace, IgnoreCaseReplace, IgnoreCaseAppend:
		return true
	}
	return false
}

// Config holds the entire config structure
type Config struct {
	Trigger   TriggerConfig   `toml:"trigger"`
	Words     WordsConfig     `toml:"words"`
	Providers ProvidersConfig `toml:"providers"`
	LLM       LLMConfig       `toml:"llm"`
	Server    ServerConfig    `toml:"server"`
	CLI       CliConfig       `toml:"cli"`
}

// TriggerConfig holds popup trigger and insertion options.
type TriggerConfig struct {
	CharacterRegex           string `toml:"character_regex"`
	MaxLookBackDistance      int    `toml:"max_look_back_distance"`
	AutoTrigger              bool   `toml:"auto_trigger"`
	AutoFocus                bool   `toml:"auto_focus"`
	MinWordLength            int    `toml:"min_word_length"`
	MinWordTriggerLength     int    `toml:"min_word_trigger_length"`
	InsertSpaceAfterComplete bool   `toml:"insert_space_after_complete"`
}

// WordsConfig holds dictionary matching options.
type WordsConfig struct {
	InsertionMode                 InsertionMode `toml:"insertion_mode"`
	IgnoreDiacriticsWhenFiltering bool          `toml:"ignore_diacritics_when_filtering"`
}

// ProvidersConfig toggles each provider.
type ProvidersConfig struct {
	FrontMatter           bool     `toml:"frontmatter"`
	Callout               bool     `toml:"callout"`
	Latex                 bool     `toml:"latex"`
	LLM                   bool     `toml:"llm"`
	FileScanner           bool     `toml:"file_scanner"`
	WordList              bool     `toml:"word_list"`
	WordLists             []string `toml:"word_lists"`
	LatexRequireMathBlock bool     `toml:"latex_require_math_block"`
}

// LLMConfig holds the remote completion endpoint options.
type LLMConfig struct {
	Endpoint        string  `toml:"endpoint"`
	APIKey          string  `toml:"api_key"`
	Model           string  `toml:"model"`
	Temperature     float64 `toml:"temperature"`
	TimeoutMs       int     `toml:"timeout_ms"`
	MaxContextChars int     `toml:"max_context_chars"`
	MaxSuggestions  int     `toml:"max_suggestions"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	MaxText        int `toml:"max_text"`
	MaxSuggestions int `toml:"max_suggestions"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit int `toml:"default_limit"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Trigger: TriggerConfig{
			CharacterRegex:           "a-zA-ZöäüÖÄÜß",
			MaxLookBackDistance:      50,
			AutoTrigger:              true,
			AutoFocus:                true,
			MinWordLength:            2,
			MinWordTriggerLength:     3,
			InsertSpaceAfterComplete: false,
		},
		Words: WordsConfig{
			InsertionMode:                 IgnoreCaseReplace,
			IgnoreDiacriticsWhenFiltering: false,
		},
		Providers: ProvidersConfig{
			FrontMatter:           true,
			Callout:               true,
			Latex:                 true,
			LLM:                   false,
			FileScanner:           true,
			WordList:              true,
			LatexRequireMathBlock: true,
		},
		LLM: LLMConfig{
			Temperature:     0.7,
			TimeoutMs:       5000,
			MaxContextChars: 1500,
			MaxSuggestions:  5,
		},
		Server: ServerConfig{
			MaxText:        1 << 20,
			MaxSuggestions: 64,
		},
		CLI: CliConfig{
			DefaultLimit: 24,
		},
	}
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/typr
// 2. current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", "typr")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/typr/config.toml
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
		return tryPartialParse(configPath)
	}
	config.sanitize()
	return config, nil
}

// sanitize replaces values that would break matching with their defaults.
func (c *Config) sanitize() {
	def := DefaultConfig()
	if !c.Words.InsertionMode.Valid() {
		log.Warnf("Unknown insertion_mode %q, using %q", c.Words.InsertionMode, def.Words.InsertionMode)
		c.Words.InsertionMode = def.Words.InsertionMode
	}
	if c.Trigger.CharacterRegex == "" {
		c.Trigger.CharacterRegex = def.Trigger.CharacterRegex
	}
	if c.Trigger.MaxLookBackDistance <= 0 {
		c.Trigger.MaxLookBackDistance = def.Trigger.MaxLookBackDistance
	}
}

// tryPartialParse attempts to parse a TOML file
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "trigger"); ok {
		extractTriggerConfig(section, &config.Trigger)
	}
	if section, ok := utils.ExtractSection(tempConfig, "words"); ok {
		extractWordsConfig(section, &config.Words)
	}
	if section, ok := utils.ExtractSection(tempConfig, "providers"); ok {
		extractProvidersConfig(section, &config.Providers)
	}
	if section, ok := utils.ExtractSection(tempConfig, "llm"); ok {
		extractLLMConfig(section, &config.LLM)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		if val, ok := utils.ExtractInt64(section, "default_limit"); ok {
			config.CLI.DefaultLimit = val
		}
	}
	config.sanitize()
	return config, nil
}

func extractTriggerConfig(data map[string]any, t *TriggerConfig) {
	if val, ok := utils.ExtractString(data, "character_regex"); ok {
		t.CharacterRegex = val
	}
	if val, ok := utils.ExtractInt64(data, "max_look_back_distance"); ok {
		t.MaxLookBackDistance = val
	}
	if val, ok := utils.ExtractBool(data, "auto_trigger"); ok {
		t.AutoTrigger = val
	}
	if val, ok := utils.ExtractBool(data, "auto_focus"); ok {
		t.AutoFocus = val
	}
	if val, ok := utils.ExtractInt64(data, "min_word_length"); ok {
		t.MinWordLength = val
	}
	if val, ok := utils.ExtractInt64(data, "min_word_trigger_length"); ok {
		t.MinWordTriggerLength = val
	}
	if val, ok := utils.ExtractBool(data, "insert_space_after_complete"); ok {
		t.InsertSpaceAfterComplete = val
	}
}

func extractWordsConfig(data map[string]any, w *WordsConfig) {
	if val, ok := utils.ExtractString(data, "insertion_mode"); ok {
		w.InsertionMode = InsertionMode(val)
	}
	if val, ok := utils.ExtractBool(data, "ignore_diacritics_when_filtering"); ok {
		w.IgnoreDiacriticsWhenFiltering = val
	}
}

func extractProvidersConfig(data map[string]any, p *ProvidersConfig) {
	flags := map[string]*bool{
		"frontmatter":              &p.FrontMatter,
		"callout":                  &p.Callout,
		"latex":                    &p.Latex,
		"llm":                      &p.LLM,
		"file_scanner":             &p.FileScanner,
		"word_list":                &p.WordList,
		"latex_require_math_block": &p.LatexRequireMathBlock,
	}
	for key, dst := range flags {
		if val, ok := utils.ExtractBool(data, key); ok {
			*dst = val
		}
	}
	if val, ok := utils.ExtractStrings(data, "word_lists"); ok {
		p.WordLists = val
	}
}

func extractLLMConfig(data map[string]any, l *LLMConfig) {
	if val, ok := utils.ExtractString(data, "endpoint"); ok {
		l.Endpoint = val
	}
	if val, ok := utils.ExtractString(data, "api_key"); ok {
		l.APIKey = val
	}
	if val, ok := utils.ExtractString(data, "model"); ok {
		l.Model = val
	}
	if val, ok := utils.ExtractFloat(data, "temperature"); ok {
		l.Temperature = val
	}
	if val, ok := utils.ExtractInt64(data, "timeout_ms"); ok {
		l.TimeoutMs = val
	}
	if val, ok := utils.ExtractInt64(data, "max_context_chars"); ok {
		l.MaxContextChars = val
	}
	if val, ok := utils.ExtractInt64(data, "max_suggestions"); ok {
		l.MaxSuggestions = val
	}
}

func extractServerConfig(data map[string]any, s *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_text"); ok {
		s.MaxText = val
	}
	if val, ok := utils.ExtractInt64(data, "max_suggestions"); ok {
		s.MaxSuggestions = val
	}
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
