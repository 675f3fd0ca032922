package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"fidelfix/internal/lexicon"
)

type Config struct {
	LLMProvider       string   `yaml:"llm_provider"`
	LLMModel          string   `yaml:"llm_model"`
	LLMFallbackModels []string `yaml:"llm_fallback_models"`
	AnthropicAPIKey   string   `yaml:"anthropic_api_key"`
	OpenAIAPIKey      string   `yaml:"openai_api_key"`

	MaxSuggestions     int     `yaml:"max_suggestions"`
	AutoApplyThreshold float64 `yaml:"auto_apply_threshold"`
	ForceTargetScript  bool    `yaml:"force_target_script"`
	EnableLexiconHints bool    `yaml:"enable_lexicon_hints"`
	LexiconPath        string  `yaml:"lexicon_path"`

	DBPath          string `yaml:"db_path"`
	WatchDir        string `yaml:"watch_dir"`
	ScanSchedule    string `yaml:"scan_schedule"`
	ReportOutputDir string `yaml:"report_output_dir"`
	ProjectName     string `yaml:"project_name"`

	SlackBotToken   string `yaml:"slack_bot_token"`
	ReportChannelID string `yaml:"report_channel_id"`
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverrideInt(&cfg.MaxSuggestions, "MAX_SUGGESTIONS")
	envOverrideFloat(&cfg.AutoApplyThreshold, "AUTO_APPLY_THRESHOLD")
	envOverrideBool(&cfg.ForceTargetScript, "FORCE_TARGET_SCRIPT")
	envOverrideBool(&cfg.EnableLexiconHints, "ENABLE_LEXICON_HINTS")
	envOverride(&cfg.LexiconPath, "LEXICON_PATH")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.WatchDir, "WATCH_DIR")
	envOverride(&cfg.ScanSchedule, "SCAN_SCHEDULE")
	envOverride(&cfg.ReportOutputDir, "REPORT_OUTPUT_DIR")
	envOverride(&cfg.ProjectName, "PROJECT_NAME")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.ReportChannelID, "REPORT_CHANNEL_ID")

	if models := os.Getenv("LLM_FALLBACK_MODELS"); models != "" {
		cfg.LLMFallbackModels = nil
		for _, m := range strings.Split(models, ",") {
			m = strings.TrimSpace(m)
			if m != "" {
				cfg.LLMFallbackModels = append(cfg.LLMFallbackModels, m)
			}
		}
	}

	// Defaults
	if cfg.MaxSuggestions == 0 {
		cfg.MaxSuggestions = 20
	}
	if cfg.AutoApplyThreshold == 0 {
		cfg.AutoApplyThreshold = 0.9
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./fidelfix.db"
	}
	if cfg.ReportOutputDir == "" {
		cfg.ReportOutputDir = "./reports"
	}
	if cfg.ProjectName == "" {
		cfg.ProjectName = "fidelfix"
	}

	// Validate: an explicitly requested provider without its credential is a
	// hard startup failure, never a silent downgrade to local rules.
	switch cfg.LLMProvider {
	case "":
		// Oracle disabled; the local rule strategy still works.
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Fatalf("anthropic_api_key is required when llm_provider=anthropic")
		}
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Fatalf("openai_api_key is required when llm_provider=openai")
		}
	default:
		log.Fatalf("llm_provider must be 'anthropic' or 'openai', got '%s'", cfg.LLMProvider)
	}

	if cfg.MaxSuggestions < 1 {
		log.Fatalf("invalid max_suggestions '%d': must be >= 1", cfg.MaxSuggestions)
	}
	// Zero means unset and was defaulted above; apply-everything is
	// expressed as a small positive threshold, not zero.
	if cfg.AutoApplyThreshold <= 0 || cfg.AutoApplyThreshold > 1 {
		log.Fatalf("invalid auto_apply_threshold '%f': must be in (0, 1]", cfg.AutoApplyThreshold)
	}
	if len(cfg.LLMFallbackModels) > 2 {
		log.Printf("llm_fallback_models truncated to 2 (got %d)", len(cfg.LLMFallbackModels))
		cfg.LLMFallbackModels = cfg.LLMFallbackModels[:2]
	}
	// A missing lexicon file is fine (add-term creates it on demand); a
	// present but unparseable one is a startup failure.
	if cfg.LexiconPath != "" {
		if _, err := lexicon.Load(cfg.LexiconPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Fatalf("invalid lexicon_path '%s': %v", cfg.LexiconPath, err)
		}
	}

	return cfg
}

// OracleConfigured reports whether the effective provider has a credential.
func (c Config) OracleConfigured() bool {
	switch c.LLMProvider {
	case "openai":
		return c.OpenAIAPIKey != ""
	case "anthropic":
		return c.AnthropicAPIKey != ""
	default:
		return false
	}
}

func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.ReportChannelID != ""
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideFloat(field *float64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideBool(field *bool, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
