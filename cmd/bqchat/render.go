package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"bqadmin/internal/analytics"
	"bqadmin/internal/chat"
	"bqadmin/internal/models"
)

const glamourStyle = "dark"

var (
	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))
	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
	systemStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("244"))
	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)
	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)
)

// renderer prints conversation turns and listings. With markdown enabled the
// assistant answer and its SQL go through glamour.
type renderer struct {
	out      io.Writer
	markdown bool
	width    int
}

func newRenderer(out io.Writer, markdown bool) *renderer {
	return &renderer{out: out, markdown: markdown, width: 100}
}

func (r *renderer) Turn(t chat.Turn) {
	switch t.Role {
	case chat.RoleUser:
		fmt.Fprintln(r.out, userStyle.Render("you> ")+t.Content)
	case chat.RoleSystem:
		fmt.Fprintln(r.out, systemStyle.Render(t.Content))
	case chat.RoleAssistant:
		r.assistant(t)
	}
}

func (r *renderer) assistant(t chat.Turn) {
	fmt.Fprintln(r.out, assistantStyle.Render(r.markdownBlock(t)))

	if len(t.Data) > 0 {
		fmt.Fprintln(r.out, r.rowsTable(t))
		if note := t.TruncationNote(); note != "" {
			fmt.Fprintln(r.out, metaStyle.Render(note))
		}
	}
	if t.ModelUsed != "" {
		fmt.Fprintln(r.out, metaStyle.Render("Model: "+t.ModelUsed))
	}
}

func (r *renderer) markdownBlock(t chat.Turn) string {
	var md strings.Builder
	md.WriteString(t.Content)
	if t.SQL != "" {
		md.WriteString("\n\n```sql\n")
		md.WriteString(t.SQL)
		md.WriteString("\n```\n")
	}
	if !r.markdown {
		return md.String()
	}

	gr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(glamourStyle),
		glamour.WithWordWrap(r.width),
	)
	if err != nil {
		return md.String()
	}
	out, err := gr.Render(md.String())
	if err != nil {
		return md.String()
	}
	return strings.TrimRight(out, "\n")
}

func (r *renderer) rowsTable(t chat.Turn) string {
	cols := t.Columns()
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(metaStyle).
		Headers(cols...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, row := range t.VisibleRows() {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = formatValue(row.Get(c))
		}
		tbl.Row(cells...)
	}
	return tbl.String()
}

// formatValue renders a cell, showing "-" for null or empty values.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case string:
		if val == "" {
			return "-"
		}
		return val
	case json.Number:
		return val.String()
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}

func (r *renderer) Datasets(datasets []analytics.Dataset) {
	if len(datasets) == 0 {
		fmt.Fprintln(r.out, systemStyle.Render("No datasets found."))
		return
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(metaStyle).
		Headers("DATASET", "PROJECT", "TABLES", "LOCATION").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, ds := range datasets {
		tbl.Row(ds.DatasetID, ds.ProjectID, fmt.Sprintf("%d", ds.TableCount), formatValue(ds.Location))
	}
	fmt.Fprintln(r.out, tbl.String())
}

func (r *renderer) Users(users []*models.User) {
	if len(users) == 0 {
		fmt.Fprintln(r.out, systemStyle.Render("No users."))
		return
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(metaStyle).
		Headers("ID", "EMAIL", "NAME", "ROLE", "CREATED").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, u := range users {
		name := "-"
		if u.Name != nil && *u.Name != "" {
			name = *u.Name
		}
		tbl.Row(u.ID, u.Email, name, u.Role.String(), u.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(r.out, tbl.String())
}

func (r *renderer) Error(err error) {
	fmt.Fprintln(r.out, errorStyle.Render("error: "+err.Error()))
}

func (r *renderer) Info(msg string) {
	fmt.Fprintln(r.out, systemStyle.Render(msg))
}
