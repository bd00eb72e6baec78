package format

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alnah/medreport/internal/dispatch"
)

// ErrUnknownFormat indicates an output format name is not supported.
var ErrUnknownFormat = errors.New("unknown output format")

// Format is an output format for report batches.
type Format string

// Supported formats.
const (
	Text     Format = "text"
	Markdown Format = "markdown"
	JSON     Format = "json"
	YAML     Format = "yaml"
)

var formats = []Format{Text, Markdown, JSON, YAML}

// aliases maps accepted spellings to formats.
var aliases = map[string]Format{
	"text": Text, "txt": Text,
	"markdown": Markdown, "md": Markdown,
	"json": JSON,
	"yaml": YAML, "yml": YAML,
}

// Parse returns the Format for name (case-insensitive).
// Returns an error wrapping ErrUnknownFormat otherwise.
func Parse(name string) (Format, error) {
	if f, ok := aliases[strings.ToLower(name)]; ok {
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (valid: %v): %w", name, Names(), ErrUnknownFormat)
}

// Names returns the canonical format names.
func Names() []string {
	out := make([]string, len(formats))
	for i, f := range formats {
		out[i] = string(f)
	}
	return out
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case Markdown:
		return ".md"
	case JSON:
		return ".json"
	case YAML:
		return ".yaml"
	default:
		return ".txt"
	}
}

// reportView is the encoded shape of one report.
type reportView struct {
	Kind   string `json:"kind" yaml:"kind"`
	Title  string `json:"title,omitempty" yaml:"title,omitempty"`
	Status string `json:"status" yaml:"status"`
	Model  string `json:"model,omitempty" yaml:"model,omitempty"`
	Cached bool   `json:"cached" yaml:"cached"`
	Text   string `json:"text" yaml:"text"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

type batchView struct {
	Reports []reportView `json:"reports" yaml:"reports"`
}

func newBatchView(reports []dispatch.Report) batchView {
	views := make([]reportView, len(reports))
	for i, r := range reports {
		views[i] = reportView{
			Kind:   r.Name,
			Title:  r.Title,
			Status: r.Status.String(),
			Model:  r.Model,
			Cached: r.Cached,
			Text:   r.Text,
			Error:  r.ErrorText(),
		}
	}
	return batchView{Reports: views}
}

// Render writes reports to w in format f.
func Render(w io.Writer, f Format, reports []dispatch.Report) error {
	switch f {
	case Text:
		return renderText(w, reports)
	case Markdown:
		return renderMarkdown(w, reports)
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(newBatchView(reports))
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newBatchView(reports)); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("cannot render %q: %w", string(f), ErrUnknownFormat)
}

// heading returns the display heading of r, falling back to the requested name.
func heading(r dispatch.Report) string {
	if r.Title != "" {
		return r.Title
	}
	if r.Name == "" {
		return "(empty report type)"
	}
	return r.Name
}

func renderText(w io.Writer, reports []dispatch.Report) error {
	var b strings.Builder
	for i, r := range reports {
		if i > 0 {
			b.WriteString("\n")
		}
		h := heading(r)
		b.WriteString(h + "\n")
		b.WriteString(strings.Repeat("=", len([]rune(h))) + "\n\n")
		b.WriteString(strings.TrimRight(r.Text, "\n") + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func renderMarkdown(w io.Writer, reports []dispatch.Report) error {
	var b strings.Builder
	b.WriteString("# Medical Reports\n")
	for _, r := range reports {
		fmt.Fprintf(&b, "\n## %s\n\n", heading(r))
		if !r.OK() {
			fmt.Fprintf(&b, "> **%s**\n", r.Text)
			continue
		}
		b.WriteString(strings.TrimRight(r.Text, "\n") + "\n")
		if r.Model != "" {
			fmt.Fprintf(&b, "\n_Model: %s_\n", r.Model)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
