package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 3, cfg.MaxStepRetries)
	assert.Equal(t, 2, cfg.MaxReviewRetries)
	assert.Equal(t, 60, cfg.BuildTimeoutSecs)
	assert.Equal(t, "OPENAI_API_KEY", cfg.OracleKeyEnv)
	assert.False(t, cfg.ReviewStrictMode)
	assert.NotEmpty(t, cfg.EditingModel)
	assert.NotEmpty(t, cfg.SelectionModel)
}

func TestApplyFloors(t *testing.T) {
	cfg := Default()
	cfg.MaxStepRetries = 0
	cfg.MaxReviewRetries = -1
	cfg.BuildTimeoutSecs = 0
	cfg.MaxEditTokens = 10

	cfg.applyFloors()

	d := Default()
	assert.Equal(t, d.MaxStepRetries, cfg.MaxStepRetries)
	assert.Equal(t, d.MaxReviewRetries, cfg.MaxReviewRetries)
	assert.Equal(t, d.BuildTimeoutSecs, cfg.BuildTimeoutSecs)
	assert.Equal(t, d.MaxEditTokens, cfg.MaxEditTokens)
}

func TestApplyFloorsKeepsValidValues(t *testing.T) {
	cfg := Default()
	cfg.MaxStepRetries = 5
	cfg.MaxReviewRetries = 1

	cfg.applyFloors()

	assert.Equal(t, 5, cfg.MaxStepRetries)
	// A single review pass is a valid choice: review once, never re-run.
	assert.Equal(t, 1, cfg.MaxReviewRetries)
}
