package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/medlens/dataset"
	"github.com/YuminosukeSato/medlens/pkg/errors"
)

// printResult writes data as JSON or YAML, or calls text for the default
// format.
func printResult(w io.Writer, data interface{}, text func(io.Writer) error) error {
	switch f := format(); f {
	case "json":
		return printJSON(w, data)
	case "yaml":
		return printYAML(w, data)
	case "text":
		return text(w)
	default:
		return errors.NewValidationError("output", "must be text, json or yaml", f)
	}
}

// printJSON outputs data as indented JSON
func printJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return errors.Wrap(err, "encode JSON")
	}
	return nil
}

// printYAML outputs data as YAML
func printYAML(w io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return errors.Wrap(err, "encode YAML")
	}
	return encoder.Close()
}

// namedTable is the structured form of a printed frame.
type namedTable struct {
	Name string           `json:"name" yaml:"name"`
	Rows []map[string]any `json:"rows" yaml:"rows"`
}

// printTables writes frames as aligned text tables under their names, or as
// a list of records for json and yaml.
func printTables(w io.Writer, names []string, frames []*dataset.Frame) error {
	tables := make([]namedTable, len(frames))
	for i, f := range frames {
		tables[i] = namedTable{Name: names[i], Rows: f.Records()}
	}
	return printResult(w, tables, func(w io.Writer) error {
		for i, f := range frames {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "== %s (%d rows)\n", names[i], f.NRows())
			if err := f.WriteTable(w); err != nil {
				return err
			}
		}
		return nil
	})
}
