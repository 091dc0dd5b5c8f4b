package analytics

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Provider names a language model vendor the analytics backend can use.
type Provider string

const (
	ProviderClaude Provider = "claude"
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// DefaultProvider is used when a query names none.
const DefaultProvider = ProviderClaude

// DefaultQueryLimit is the row limit applied when a query sets none.
const DefaultQueryLimit = 100

var defaultModels = map[Provider]string{
	ProviderClaude: "claude-3-5-sonnet-20241022",
	ProviderOpenAI: "gpt-4",
	ProviderGemini: "gemini-pro",
}

// Providers lists the supported providers in display order.
func Providers() []Provider {
	return []Provider{ProviderClaude, ProviderOpenAI, ProviderGemini}
}

func (p Provider) String() string {
	return string(p)
}

func (p Provider) IsValid() bool {
	_, ok := defaultModels[p]
	return ok
}

// DefaultModel returns the model preselected for p, or "" for unknown providers.
func (p Provider) DefaultModel() string {
	return defaultModels[p]
}

// Dataset is one BigQuery dataset as listed by the analytics backend.
type Dataset struct {
	ProjectID  string `json:"project_id"`
	DatasetID  string `json:"dataset_id"`
	TableCount int    `json:"table_count"`
	Location   string `json:"location,omitempty"`
}

// DatasetList is the body of GET /api/datasets.
type DatasetList struct {
	Datasets []Dataset `json:"datasets"`
}

// QueryRequest is the body forwarded to POST /api/query.
type QueryRequest struct {
	Query         string   `json:"query"`
	DatasetID     string   `json:"dataset_id"`
	ProjectID     string   `json:"project_id,omitempty"`
	Limit         int      `json:"limit"`
	ModelProvider Provider `json:"model_provider"`
	ModelName     string   `json:"model_name,omitempty"`
	APIKey        string   `json:"api_key,omitempty"`
}

// ApplyDefaults fills in the row limit and provider when the caller left them out.
func (q *QueryRequest) ApplyDefaults() {
	if q.Limit == 0 {
		q.Limit = DefaultQueryLimit
	}
	if q.ModelProvider == "" {
		q.ModelProvider = DefaultProvider
	}
}

// QueryResponse is a successful answer from POST /api/query.
type QueryResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	SQL       string `json:"sql,omitempty"`
	Data      []Row  `json:"data,omitempty"`
	RowCount  int    `json:"row_count,omitempty"`
	ModelUsed string `json:"model_used,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ModelConfig is a per-user model selection stored by the analytics backend.
type ModelConfig struct {
	UserID    string   `json:"user_id"`
	Provider  Provider `json:"provider"`
	ModelName string   `json:"model_name"`
	APIKey    string   `json:"api_key"`
}

// Row is a result row that remembers the column order of the upstream JSON object.
type Row struct {
	Columns []string
	Values  map[string]any
}

// Get returns the value of column name.
func (r Row) Get(name string) any {
	return r.Values[name]
}

func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("row must be a JSON object")
	}

	r.Columns = r.Columns[:0]
	r.Values = make(map[string]any)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)

		var v any
		if err := dec.Decode(&v); err != nil {
			return err
		}
		if _, seen := r.Values[key]; !seen {
			r.Columns = append(r.Columns, key)
		}
		r.Values[key] = v
	}

	_, err = dec.Token()
	return err
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.Values[col])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
