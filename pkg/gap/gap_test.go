package gap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gbforge/gbforge/pkg/oracle"
)

type fakeOracle struct {
	response oracle.Response
	err      error
}

func (f *fakeOracle) Generate(ctx context.Context, system, prompt string, mode oracle.Mode) (oracle.Response, error) {
	if f.err != nil {
		return oracle.Response{}, f.err
	}
	return f.response, nil
}

func TestAnalyzeParsesPlan(t *testing.T) {
	client := &fakeOracle{response: oracle.Response{Text: "```json\n" + `{
		"steps": [
			{"order": 2, "title": "wire input", "description": "read the joypad", "feature": "pause", "file_hints": ["src/input.c"]},
			{"order": 1, "title": "add state", "description": "add pause state enum", "feature": "pause"}
		]
	}` + "\n```"}}

	units, err := NewOracleAnalyzer(client).Analyze(context.Background(), "state", "add pause")
	require.NoError(t, err)
	require.Len(t, units, 2)

	// Sorted by order and renumbered contiguously.
	assert.Equal(t, "add state", units[0].Title)
	assert.Equal(t, 1, units[0].Order)
	assert.Equal(t, "wire input", units[1].Title)
	assert.Equal(t, 2, units[1].Order)
	assert.Equal(t, []string{"src/input.c"}, units[1].FileHints)
}

func TestAnalyzeDropsEmptySteps(t *testing.T) {
	client := &fakeOracle{response: oracle.Response{Text: `{"steps": [
		{"order": 1, "title": "", "description": ""},
		{"order": 2, "title": "real step", "description": "do something"}
	]}`}}

	units, err := NewOracleAnalyzer(client).Analyze(context.Background(), "state", "request")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "real step", units[0].Title)
	assert.Equal(t, 1, units[0].Order)
}

func TestAnalyzeTruncatedResponse(t *testing.T) {
	client := &fakeOracle{response: oracle.Response{Text: "{", Truncated: true}}
	_, err := NewOracleAnalyzer(client).Analyze(context.Background(), "state", "request")
	assert.Error(t, err)
}

func TestAnalyzeOracleError(t *testing.T) {
	client := &fakeOracle{err: errors.New("down")}
	_, err := NewOracleAnalyzer(client).Analyze(context.Background(), "state", "request")
	assert.Error(t, err)
}

func TestAnalyzeGarbageResponse(t *testing.T) {
	client := &fakeOracle{response: oracle.Response{Text: "no json here"}}
	_, err := NewOracleAnalyzer(client).Analyze(context.Background(), "state", "request")
	assert.Error(t, err)
}
