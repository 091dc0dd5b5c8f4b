package chat

import (
	"fmt"
	"time"

	"bqadmin/internal/analytics"
)

var now = time.Now

// upstream timestamps may lack a zone
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return now()
}

// UserTurn records a question typed by the user.
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content, Timestamp: now()}
}

// SystemTurn records a status line.
func SystemTurn(content string) Turn {
	return Turn{Role: RoleSystem, Content: content, Timestamp: now()}
}

// DatasetsLoadedTurn announces a freshly fetched dataset list.
func DatasetsLoadedTurn(count int) Turn {
	return SystemTurn(fmt.Sprintf("Found %d datasets. Please select one to start querying.", count))
}

// DatasetsFailedTurn replaces the dataset announcement when the list could not be loaded.
func DatasetsFailedTurn() Turn {
	return SystemTurn("Error loading datasets. Please refresh the page.")
}

// DatasetSelectedTurn confirms a dataset selection.
func DatasetSelectedTurn(datasetID string) Turn {
	return SystemTurn(fmt.Sprintf("Selected dataset: %s. You can now ask questions about your data!", datasetID))
}

// AssistantTurn converts a query answer into a turn. Answers with
// success=false become an error turn without results.
func AssistantTurn(resp analytics.QueryResponse) Turn {
	if !resp.Success {
		return AssistantErrorTurn(resp.Error)
	}

	rowCount := resp.RowCount
	if rowCount < len(resp.Data) {
		rowCount = len(resp.Data)
	}

	ts := now()
	if resp.Timestamp != "" {
		ts = parseTimestamp(resp.Timestamp)
	}

	return Turn{
		Role:      RoleAssistant,
		Content:   resp.Message,
		SQL:       resp.SQL,
		Data:      resp.Data,
		RowCount:  rowCount,
		ModelUsed: resp.ModelUsed,
		Timestamp: ts,
	}
}

// AssistantErrorTurn reports a failed query. An empty message means the
// request itself failed.
func AssistantErrorTurn(message string) Turn {
	content := "Sorry, there was an error processing your request."
	if message != "" {
		content = "Error: " + message
	}
	return Turn{Role: RoleAssistant, Content: content, Timestamp: now()}
}
