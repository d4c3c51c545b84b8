// package formatter renders backend records as CSV, Markdown, JSON or a plain text table
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/desertthunder/gestaopro/internal/models"
	"github.com/desertthunder/gestaopro/internal/shared"
)

// Format names an output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatTable    Format = "table"
)

// ParseFormat validates s; "md" is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatMarkdown, FormatTable:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
}

// Extension returns the file extension used for f, with the dot.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	case FormatTable:
		return ".txt"
	default:
		return ".json"
	}
}

// costField is the product field holding a JSON cost breakdown.
const costField = "cost_details"

// Columns returns the union of keys across records, "id" first and the rest sorted.
func Columns(records []models.Record) []string {
	seen := map[string]struct{}{}
	for _, r := range records {
		for k := range r {
			seen[k] = struct{}{}
		}
	}

	cols := make([]string, 0, len(seen))
	_, hasID := seen["id"]
	for k := range seen {
		if k != "id" {
			cols = append(cols, k)
		}
	}
	sort.Strings(cols)
	if hasID {
		cols = append([]string{"id"}, cols...)
	}
	return cols
}

// CellValue renders one field for tabular output. Nested values are compact JSON.
func CellValue(key string, v any) string {
	if key == costField {
		if items := models.ParseCostItems(v); len(items) > 0 {
			return FormatCostItems(items)
		}
	}

	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}

// FormatCostItems renders a cost breakdown as "desc: cost; ... (total: n)".
func FormatCostItems(items []models.CostItem) string {
	parts := make([]string, len(items))
	var total float64
	for i, item := range items {
		parts[i] = fmt.Sprintf("%s: %.2f", item.Description, item.Cost)
		total += item.Cost
	}
	return fmt.Sprintf("%s (total: %.2f)", strings.Join(parts, "; "), total)
}

func rows(records []models.Record, cols []string) [][]string {
	out := make([][]string, len(records))
	for i, r := range records {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = CellValue(c, r[c])
		}
		out[i] = row
	}
	return out
}

// RecordsToCSV converts records to CSV with a header row from [Columns].
func RecordsToCSV(records []models.Record) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	cols := Columns(records)
	if err := writer.Write(cols); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	if err := writer.WriteAll(rows(records, cols)); err != nil {
		return nil, fmt.Errorf("failed to write CSV record: %w", err)
	}

	return buf.Bytes(), nil
}

// RecordsToMarkdown converts records to a Markdown document with a title and a table.
func RecordsToMarkdown(title string, records []models.Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Records**: %d\n\n", len(records)))

	if len(records) == 0 {
		return buf.Bytes(), nil
	}

	cols := Columns(records)
	buf.WriteString("| " + strings.Join(escapeCells(cols), " | ") + " |\n")
	buf.WriteString("|" + strings.Repeat(" --- |", len(cols)) + "\n")
	for _, row := range rows(records, cols) {
		buf.WriteString("| " + strings.Join(escapeCells(row), " | ") + " |\n")
	}

	return buf.Bytes(), nil
}

func escapeCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		c = strings.ReplaceAll(c, "|", `\|`)
		out[i] = strings.ReplaceAll(c, "\n", " ")
	}
	return out
}

// RecordsToJSON converts records to an indented JSON array; nil becomes [].
func RecordsToJSON(records []models.Record) ([]byte, error) {
	if records == nil {
		records = []models.Record{}
	}
	return shared.MarshalJSON(records, true)
}

// RecordsToTable renders records as aligned plain text columns for terminal output.
func RecordsToTable(records []models.Record) ([]byte, error) {
	var buf bytes.Buffer
	if len(records) == 0 {
		buf.WriteString("No records.\n")
		return buf.Bytes(), nil
	}

	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	cols := Columns(records)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(cols, "\t")))
	for _, row := range rows(records, cols) {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to render table: %w", err)
	}
	return buf.Bytes(), nil
}

// Render converts records to format. title is used by Markdown only.
func Render(format Format, title string, records []models.Record) ([]byte, error) {
	switch format {
	case FormatCSV:
		return RecordsToCSV(records)
	case FormatMarkdown:
		return RecordsToMarkdown(title, records)
	case FormatTable:
		return RecordsToTable(records)
	default:
		return RecordsToJSON(records)
	}
}

// WriteRecords renders records and writes them to basePath plus the format's extension.
//
// Returns the path written.
func WriteRecords(format Format, title string, records []models.Record, basePath string) (string, error) {
	data, err := Render(format, title, records)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", format, err)
	}

	path := basePath + format.Extension()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return path, nil
}

// WriteManifest writes v as indented JSON to path.
func WriteManifest(v any, path string) error {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
