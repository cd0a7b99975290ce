package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

// ParseOutputFormat validates a user supplied format name
func ParseOutputFormat(format string) (OutputFormat, error) {
	switch OutputFormat(format) {
	case "", OutputFormatTable:
		return OutputFormatTable, nil
	case OutputFormatJSON:
		return OutputFormatJSON, nil
	case OutputFormatYAML, "yml":
		return OutputFormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s (use table, json or yaml)", format)
	}
}

// DataWriter handles formatted output of structured data
type DataWriter struct {
	output io.Writer
	format OutputFormat
}

// NewDataWriter creates a new DataWriter. Unknown formats fall back to table.
func NewDataWriter(output io.Writer, format string) *DataWriter {
	of, err := ParseOutputFormat(format)
	if err != nil {
		of = OutputFormatTable
	}
	return &DataWriter{
		output: output,
		format: of,
	}
}

// Format returns the format the writer renders
func (dw *DataWriter) Format() OutputFormat {
	return dw.format
}

// WriteKeyValue writes key-value pairs in the specified format. Keys listed
// in order are printed first, in that order.
func (dw *DataWriter) WriteKeyValue(title string, data map[string]interface{}, order ...string) error {
	switch dw.format {
	case OutputFormatJSON:
		return dw.writeJSON(data)
	case OutputFormatYAML:
		return dw.writeYAML(data)
	case OutputFormatTable:
		return dw.writeKeyValueTable(title, data, order)
	default:
		return fmt.Errorf("unsupported output format: %s", dw.format)
	}
}

// WriteTable writes tabular data with headers
func (dw *DataWriter) WriteTable(headers []string, rows [][]string) error {
	switch dw.format {
	case OutputFormatJSON, OutputFormatYAML:
		// Convert to array of objects
		records := make([]map[string]string, 0, len(rows))
		for _, row := range rows {
			obj := make(map[string]string)
			for i, header := range headers {
				if i < len(row) {
					obj[header] = row[i]
				}
			}
			records = append(records, obj)
		}
		if dw.format == OutputFormatYAML {
			return dw.writeYAML(records)
		}
		return dw.writeJSON(records)
	case OutputFormatTable:
		return dw.writeTabularData(headers, rows)
	default:
		return fmt.Errorf("unsupported output format: %s", dw.format)
	}
}

// WriteStruct writes a struct in the specified format
func (dw *DataWriter) WriteStruct(data interface{}) error {
	switch dw.format {
	case OutputFormatJSON:
		return dw.writeJSON(data)
	case OutputFormatYAML:
		return dw.writeYAML(data)
	case OutputFormatTable:
		return fmt.Errorf("table format not supported for arbitrary structs - use WriteKeyValue or WriteTable")
	default:
		return fmt.Errorf("unsupported output format: %s", dw.format)
	}
}

// writeJSON writes data as JSON
func (dw *DataWriter) writeJSON(data interface{}) error {
	encoder := json.NewEncoder(dw.output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// writeYAML writes data as YAML
func (dw *DataWriter) writeYAML(data interface{}) error {
	encoder := yaml.NewEncoder(dw.output)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}

// writeKeyValueTable writes key-value pairs as an aligned table
func (dw *DataWriter) writeKeyValueTable(title string, data map[string]interface{}, order []string) error {
	if title != "" {
		_, _ = fmt.Fprintln(dw.output)
		_, _ = fmt.Fprintln(dw.output, title)
	}

	w := tabwriter.NewWriter(dw.output, 0, 0, 2, ' ', 0)

	printed := make(map[string]bool, len(order))
	for _, key := range order {
		printed[key] = true
		if value, exists := data[key]; exists && value != nil && value != "" {
			_, _ = fmt.Fprintf(w, "  %s:\t%v\t\n", key, value)
		}
	}

	// Print any remaining keys in a stable order
	rest := make([]string, 0, len(data))
	for key := range data {
		if !printed[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		if value := data[key]; value != nil && value != "" {
			_, _ = fmt.Fprintf(w, "  %s:\t%v\t\n", key, value)
		}
	}

	_ = w.Flush()
	_, _ = fmt.Fprintln(dw.output)
	return nil
}

// writeTabularData writes headers and rows as a table
func (dw *DataWriter) writeTabularData(headers []string, rows [][]string) error {
	_, _ = fmt.Fprintln(dw.output)

	w := tabwriter.NewWriter(dw.output, 0, 0, 2, ' ', 0)

	for i, header := range headers {
		_, _ = fmt.Fprint(w, header)
		if i < len(headers)-1 {
			_, _ = fmt.Fprint(w, "\t")
		}
	}
	_, _ = fmt.Fprintln(w, "\t") // Trailing tab for proper termination

	for _, row := range rows {
		for i, cell := range row {
			_, _ = fmt.Fprint(w, cell)
			if i < len(row)-1 {
				_, _ = fmt.Fprint(w, "\t")
			}
		}
		_, _ = fmt.Fprintln(w, "\t")
	}

	_ = w.Flush()
	_, _ = fmt.Fprintln(dw.output)
	return nil
}

// TableBuilder helps build table data incrementally
type TableBuilder struct {
	headers []string
	rows    [][]string
}

// NewTableBuilder creates a new TableBuilder
func NewTableBuilder(headers ...string) *TableBuilder {
	return &TableBuilder{
		headers: headers,
		rows:    [][]string{},
	}
}

// AddRow adds a row to the table
func (tb *TableBuilder) AddRow(values ...string) *TableBuilder {
	tb.rows = append(tb.rows, values)
	return tb
}

// Write outputs the table using the DataWriter
func (tb *TableBuilder) Write(dw *DataWriter) error {
	return dw.WriteTable(tb.headers, tb.rows)
}

// KeyValueBuilder helps build key-value data
type KeyValueBuilder struct {
	title string
	data  map[string]interface{}
	order []string
}

// NewKeyValueBuilder creates a new KeyValueBuilder
func NewKeyValueBuilder(title string) *KeyValueBuilder {
	return &KeyValueBuilder{
		title: title,
		data:  make(map[string]interface{}),
	}
}

// Add adds a key-value pair
func (kvb *KeyValueBuilder) Add(key string, value interface{}) *KeyValueBuilder {
	if _, exists := kvb.data[key]; !exists {
		kvb.order = append(kvb.order, key)
	}
	kvb.data[key] = value
	return kvb
}

// AddIf conditionally adds a key-value pair
func (kvb *KeyValueBuilder) AddIf(condition bool, key string, value interface{}) *KeyValueBuilder {
	if condition {
		kvb.Add(key, value)
	}
	return kvb
}

// Write outputs the key-value data using the DataWriter
func (kvb *KeyValueBuilder) Write(dw *DataWriter) error {
	return dw.WriteKeyValue(kvb.title, kvb.data, kvb.order...)
}
