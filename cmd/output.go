package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/conneroisu/sitepanel/internal/pagination"
	"gopkg.in/yaml.v3"
)

// listOutput is the machine-readable form of one page of a list command.
type listOutput[T any] struct {
	Items      []T `json:"items" yaml:"items"`
	Page       int `json:"page" yaml:"page"`
	Size       int `json:"size" yaml:"size"`
	Total      int `json:"total" yaml:"total"`
	TotalPages int `json:"total_pages" yaml:"total_pages"`
}

func newListOutput[T any](p *pagination.Page[T]) listOutput[T] {
	items := p.Items.Slice()
	if items == nil {
		items = []T{}
	}
	return listOutput[T]{
		Items:      items,
		Page:       p.Number,
		Size:       p.Size,
		Total:      p.Total,
		TotalPages: p.TotalPages(),
	}
}

// writeOutput writes v as JSON or YAML, or calls table for the table format.
func writeOutput(out io.Writer, format string, v interface{}, table func(w *tabwriter.Writer)) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case "yaml":
		return writeYAML(out, v)
	case "table", "":
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		table(w)
		return w.Flush()
	default:
		return ValidateOutputFormat(format)
	}
}

func writeYAML(out io.Writer, v interface{}) error {
	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}

// pageFooter describes which slice of the list a table shows.
func pageFooter[T any](w io.Writer, p *pagination.Page[T], noun string) {
	if p.Total == 0 {
		fmt.Fprintf(w, "No %s\n", noun)
		return
	}
	if p.Items.Len() == 0 {
		fmt.Fprintf(w, "Page %d is past the end (%d %s in %d pages)\n", p.Number, p.Total, noun, p.TotalPages())
		return
	}
	fmt.Fprintf(w, "Showing %d-%d of %d %s (page %d of %d)\n",
		p.FirstIndex(), p.LastIndex(), p.Total, noun, p.Number, p.TotalPages())
}
