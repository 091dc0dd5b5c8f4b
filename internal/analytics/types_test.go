package analytics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider(t *testing.T) {
	assert.True(t, ProviderGemini.IsValid())
	assert.False(t, Provider("mistral").IsValid())
	assert.False(t, Provider("").IsValid())

	assert.Equal(t, "claude-3-5-sonnet-20241022", ProviderClaude.DefaultModel())
	assert.Equal(t, "gpt-4", ProviderOpenAI.DefaultModel())
	assert.Equal(t, "gemini-pro", ProviderGemini.DefaultModel())
	assert.Empty(t, Provider("mistral").DefaultModel())
}

func TestQueryRequest_ApplyDefaults(t *testing.T) {
	q := QueryRequest{Query: "q", DatasetID: "d"}
	q.ApplyDefaults()
	assert.Equal(t, 100, q.Limit)
	assert.Equal(t, ProviderClaude, q.ModelProvider)

	q = QueryRequest{Limit: 5, ModelProvider: ProviderGemini}
	q.ApplyDefaults()
	assert.Equal(t, 5, q.Limit)
	assert.Equal(t, ProviderGemini, q.ModelProvider)
}

func TestRow_KeepsColumnOrder(t *testing.T) {
	var rows []Row
	require.NoError(t, json.Unmarshal([]byte(`[{"region":"EU","total":12.5,"year":2024},{"region":"US","total":7,"year":2024}]`), &rows))
	require.Len(t, rows, 2)

	assert.Equal(t, []string{"region", "total", "year"}, rows[0].Columns)
	assert.Equal(t, "US", rows[1].Get("region"))
	assert.Equal(t, json.Number("12.5"), rows[0].Get("total"))

	out, err := json.Marshal(rows[0])
	require.NoError(t, err)
	assert.Equal(t, `{"region":"EU","total":12.5,"year":2024}`, string(out))
}

func TestRow_RejectsNonObject(t *testing.T) {
	var r Row
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &r))
}
