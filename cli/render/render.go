// Package render provides centralized output rendering for the smelt CLI.
//
// Format selection rules:
//   - If output is a TTY, default to table
//   - If output is not a TTY, default to json
//   - --format flag always overrides defaults
//   - Invalid formats are errors
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/smelt-io/smelt/aggregate"
	"github.com/smelt-io/smelt/types"
)

// Format represents an output format.
type Format string

// Supported formats.
const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format string, returning an error for invalid formats.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "table":
		return FormatTable, nil
	case "yaml":
		return FormatYAML, nil
	case "":
		return "", nil // Let caller decide default
	default:
		return "", fmt.Errorf("invalid format: %q (must be json, table, or yaml)", s)
	}
}

// Renderer handles output formatting.
type Renderer struct {
	format Format
	out    io.Writer
}

// NewRenderer creates a renderer from CLI context, applying the TTY
// default when no format flag is set.
func NewRenderer(c *cli.Context) (*Renderer, error) {
	format, err := ParseFormat(c.String("format"))
	if err != nil {
		return nil, err
	}

	if format == "" {
		if isTTY(os.Stdout) {
			format = FormatTable
		} else {
			format = FormatJSON
		}
	}

	return &Renderer{format: format, out: os.Stdout}, nil
}

// NewRendererWithWriter creates a renderer with a custom writer (for testing).
func NewRendererWithWriter(format Format, out io.Writer) *Renderer {
	return &Renderer{format: format, out: out}
}

// Format returns the renderer's resolved output format.
func (r *Renderer) Format() Format {
	return r.format
}

// Render outputs the data in the configured format.
func (r *Renderer) Render(data any) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		return enc.Encode(data)
	case FormatTable:
		return r.renderTable(data)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

// RenderEvent writes a single decoded event in the configured format.
// Table format prints one line per event; json and yaml emit one
// document per event (JSON lines style for json).
func (r *Renderer) RenderEvent(event types.Event) error {
	switch r.format {
	case FormatJSON:
		return json.NewEncoder(r.out).Encode(event)
	case FormatYAML:
		enc := yaml.NewEncoder(r.out)
		if err := enc.Encode(event); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable:
		fmt.Fprintln(r.out, eventRow(event))
		return nil
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

func (r *Renderer) renderTable(data any) error {
	switch v := data.(type) {
	case *aggregate.Document:
		return r.renderDocument(v)
	case aggregate.Document:
		return r.renderDocument(&v)
	case []types.Event:
		return r.renderEvents(v)
	default:
		return r.renderKV(data)
	}
}

func (r *Renderer) renderDocument(doc *aggregate.Document) error {
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "BUILD\tCOMPLETED\tARTIFACTS\tFILES")
	for _, b := range doc.Builds {
		files := 0
		for _, a := range b.Artifacts {
			files += len(a.Files)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", b.Name, b.CompletedAt, len(b.Artifacts), files)
	}
	if len(doc.Builds) == 0 {
		fmt.Fprintln(w, "(no builds)\t\t\t")
	}

	if len(doc.Messages) > 0 {
		fmt.Fprintln(w, "\nTIMESTAMP\tLEVEL\tMESSAGE")
		for _, m := range doc.Messages {
			fmt.Fprintf(w, "%s\t%s\t%s\n", m.Timestamp, m.Level, m.Text)
		}
	}

	return nil
}

func (r *Renderer) renderEvents(events []types.Event) error {
	if len(events) == 0 {
		fmt.Fprintln(r.out, "(no events)")
		return nil
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "TIMESTAMP\tKIND\tBUILD\tDETAIL")
	for _, e := range events {
		fmt.Fprintln(w, eventRow(e))
	}
	return nil
}

// eventRow formats one event as a tab-separated row.
func eventRow(e types.Event) string {
	detail := ""
	switch e.Kind {
	case types.EventKindMessage:
		if e.Message != nil {
			detail = fmt.Sprintf("[%s] %s", e.Message.Level, e.Message.Text)
		}
	case types.EventKindArtifact:
		if e.Artifact != nil {
			id := ""
			if e.Artifact.ID != nil {
				id = *e.Artifact.ID
			}
			detail = fmt.Sprintf("%s/%s: %s (%d files)",
				e.Artifact.BuilderID, id, e.Artifact.Description, len(e.Artifact.Files))
		}
	case types.EventKindBuild:
		if e.Build != nil {
			detail = fmt.Sprintf("%d artifacts", len(e.Build.Artifacts))
		}
	}
	return fmt.Sprintf("%s\t%s\t%s\t%s", e.Timestamp, e.Kind, e.BuildName, detail)
}

// renderKV prints any struct as sorted key: value lines, going through
// JSON marshaling so field names match the json output.
func (r *Renderer) renderKV(data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		// Not an object (scalar, array) — print as-is
		fmt.Fprintf(r.out, "%v\n", data)
		return nil
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	defer w.Flush()
	for _, k := range keys {
		fmt.Fprintf(w, "%s:\t%v\n", k, m[k])
	}
	return nil
}

// isTTY returns true if the writer is a TTY.
func isTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
