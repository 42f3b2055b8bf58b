package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds settings for the generation workflow. It is persisted as
// JSON under .gbforge/config.json in the user's home directory, with a
// project-local file of the same name taking precedence.
type Config struct {
	EditingModel   string `json:"editing_model"`
	SelectionModel string `json:"selection_model"`
	ReviewModel    string `json:"review_model"`
	AnalysisModel  string `json:"analysis_model"`

	OracleBaseURL string `json:"oracle_base_url,omitempty"`
	OracleKeyEnv  string `json:"oracle_key_env"`

	MaxStepRetries int `json:"max_step_retries"`
	// MaxReviewRetries bounds the total number of review passes for one
	// run, including the first.
	MaxReviewRetries int `json:"max_review_retries"`
	BuildTimeoutSecs int `json:"build_timeout_secs"`

	MaxEditTokens      int `json:"max_edit_tokens"`
	MaxSelectionTokens int `json:"max_selection_tokens"`
	MaxReviewTokens    int `json:"max_review_tokens"`

	// ReviewStrictMode makes the review gate fail closed when the
	// reviewer itself errors. Default is fail open.
	ReviewStrictMode bool `json:"review_strict_mode"`

	SkipPrompt bool `json:"-"`
}

const configDirName = ".gbforge"

// Default returns a config with the stock model and budget settings.
func Default() *Config {
	return &Config{
		EditingModel:       "gpt-4o",
		SelectionModel:     "gpt-4o-mini",
		ReviewModel:        "gpt-4o",
		AnalysisModel:      "gpt-4o",
		OracleKeyEnv:       "OPENAI_API_KEY",
		MaxStepRetries:     3,
		MaxReviewRetries:   2,
		BuildTimeoutSecs:   60,
		MaxEditTokens:      8192,
		MaxSelectionTokens: 512,
		MaxReviewTokens:    4096,
	}
}

// Load reads the config, preferring a project-local .gbforge/config.json
// over the home-directory one. Missing files are not an error; defaults
// are returned and fields absent from the file keep their default values.
func Load() (*Config, error) {
	cfg := Default()

	home, err := os.UserHomeDir()
	if err == nil {
		if err := mergeFile(cfg, filepath.Join(home, configDirName, "config.json")); err != nil {
			return nil, err
		}
	}
	if err := mergeFile(cfg, filepath.Join(configDirName, "config.json")); err != nil {
		return nil, err
	}
	cfg.applyFloors()
	return cfg, nil
}

// Save writes the config to the project-local .gbforge directory.
func (c *Config) Save() error {
	if err := os.MkdirAll(configDirName, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	return os.WriteFile(filepath.Join(configDirName, "config.json"), data, 0644)
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// applyFloors resets out-of-range values so a hand-edited config cannot
// disable retries or the build timeout entirely.
func (c *Config) applyFloors() {
	d := Default()
	if c.MaxStepRetries < 1 {
		c.MaxStepRetries = d.MaxStepRetries
	}
	if c.MaxReviewRetries < 1 {
		c.MaxReviewRetries = d.MaxReviewRetries
	}
	if c.BuildTimeoutSecs < 1 {
		c.BuildTimeoutSecs = d.BuildTimeoutSecs
	}
	if c.MaxEditTokens < 256 {
		c.MaxEditTokens = d.MaxEditTokens
	}
	if c.MaxSelectionTokens < 64 {
		c.MaxSelectionTokens = d.MaxSelectionTokens
	}
	if c.MaxReviewTokens < 256 {
		c.MaxReviewTokens = d.MaxReviewTokens
	}
}
