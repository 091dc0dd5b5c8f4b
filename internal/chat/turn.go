package chat

import (
	"errors"
	"fmt"
	"time"

	"bqadmin/internal/analytics"
)

// MaxDisplayRows is how many result rows are shown under an assistant turn.
const MaxDisplayRows = 10

var ErrInvalidTurn = errors.New("invalid turn")

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Turn is one entry of a conversation. Only assistant turns carry SQL,
// rows and the model that answered.
type Turn struct {
	Role      Role            `json:"role"`
	Content   string          `json:"content"`
	SQL       string          `json:"sql,omitempty"`
	Data      []analytics.Row `json:"data,omitempty"`
	RowCount  int             `json:"row_count,omitempty"`
	ModelUsed string          `json:"model_used,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Validate checks the shape rules every stored turn must satisfy.
func (t Turn) Validate() error {
	if !t.Role.IsValid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidTurn, t.Role)
	}
	if t.Role != RoleAssistant && (t.SQL != "" || len(t.Data) > 0 || t.RowCount != 0 || t.ModelUsed != "") {
		return fmt.Errorf("%w: %s turn carries query results", ErrInvalidTurn, t.Role)
	}
	if t.RowCount != 0 && t.RowCount < len(t.Data) {
		return fmt.Errorf("%w: row_count %d below %d attached rows", ErrInvalidTurn, t.RowCount, len(t.Data))
	}
	return nil
}

// VisibleRows returns the rows shown for the turn.
func (t Turn) VisibleRows() []analytics.Row {
	if len(t.Data) <= MaxDisplayRows {
		return t.Data
	}
	return t.Data[:MaxDisplayRows]
}

// Truncated reports whether some attached rows are hidden.
func (t Turn) Truncated() bool {
	return len(t.Data) > MaxDisplayRows
}

// TruncationNote returns the footer shown under a truncated result table,
// or "" when every row is visible.
func (t Turn) TruncationNote() string {
	if !t.Truncated() {
		return ""
	}
	total := t.RowCount
	if total < len(t.Data) {
		total = len(t.Data)
	}
	return fmt.Sprintf("Showing %d of %d rows", MaxDisplayRows, total)
}

// Columns returns the column names of the first row.
func (t Turn) Columns() []string {
	if len(t.Data) == 0 {
		return nil
	}
	return t.Data[0].Columns
}
