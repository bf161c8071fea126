package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sample() *Result {
	type row struct {
		Name  string `json:"name" yaml:"name"`
		State string `json:"state" yaml:"state"`
	}
	items := []row{{"Game Mode", "on"}, {"Nagle, off", "off"}}
	r := &Result{
		Title:   "Sample",
		Columns: []string{"NAME", "STATE"},
		Data:    items,
		Summary: []string{"2 rows"},
	}
	for _, it := range items {
		r.Rows = append(r.Rows, []string{it.Name, it.State})
		r.Items = append(r.Items, it)
	}
	return r
}

func TestRegistry(t *testing.T) {
	t.Run("builtins registered", func(t *testing.T) {
		for _, name := range []string{"json", "jsonl", "yaml", "plain", "tsv", "csv", "markdown", "pretty", "template"} {
			f, err := Get(name)
			require.NoError(t, err, name)
			assert.NotNil(t, f)
		}
	})

	t.Run("unknown formatter", func(t *testing.T) {
		_, err := Get("xml")
		assert.ErrorContains(t, err, "unknown formatter")
	})

	t.Run("available is sorted", func(t *testing.T) {
		names := Available()
		for i := 1; i < len(names); i++ {
			assert.Less(t, names[i-1], names[i])
		}
	})

	t.Run("custom registry", func(t *testing.T) {
		reg := NewRegistry()
		reg.Register("x", func() Formatter { return &PlainFormatter{} })
		assert.Equal(t, []string{"x"}, reg.Available())
	})
}

func TestJSONFormatter(t *testing.T) {
	out, err := Render("json", sample())
	require.NoError(t, err)

	var got []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Game Mode", got[0]["name"])
}

func TestJSONLFormatter(t *testing.T) {
	t.Run("one line per item", func(t *testing.T) {
		out, err := Render("jsonl", sample())
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		assert.Len(t, lines, 2)
	})

	t.Run("single value without items", func(t *testing.T) {
		out, err := Render("jsonl", &Result{Data: map[string]int{"a": 1}})
		require.NoError(t, err)
		assert.Equal(t, "{\"a\":1}\n", out)
	})
}

func TestYAMLFormatter(t *testing.T) {
	out, err := Render("yaml", sample())
	require.NoError(t, err)

	var got []map[string]string
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, "off", got[1]["state"])
}

func TestTabularFormatters(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		contains []string
	}{
		{"plain aligns columns", "plain", []string{"NAME", "Game Mode", "on"}},
		{"tsv", "tsv", []string{"NAME\tSTATE\n", "Game Mode\ton\n"}},
		{"markdown", "markdown", []string{"### Sample", "| NAME | STATE |", "| --- | --- |", "| Game Mode | on |"}},
		{"template default", "template", []string{"Game Mode\ton"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Render(tt.format, sample())
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestCSVQuotesCommas(t *testing.T) {
	out, err := Render("csv", sample())
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Nagle, off", records[2][0])
}

func TestMarkdownEscapesPipes(t *testing.T) {
	out, err := Render("markdown", &Result{Columns: []string{"A"}, Rows: [][]string{{"x|y"}}})
	require.NoError(t, err)
	assert.Contains(t, out, `x\|y`)
}

func TestPrettyFormatter(t *testing.T) {
	t.Run("table with footer", func(t *testing.T) {
		out, err := Render("pretty", sample())
		require.NoError(t, err)
		assert.Contains(t, out, "Sample")
		assert.Contains(t, out, "Game Mode")
		assert.Contains(t, out, "2 rows")
	})

	t.Run("empty message", func(t *testing.T) {
		out, err := Render("pretty", &Result{Columns: []string{"A"}, Empty: "Nothing here"})
		require.NoError(t, err)
		assert.Contains(t, out, "Nothing here")
	})

	t.Run("pairs without columns", func(t *testing.T) {
		out, err := Render("pretty", &Result{Rows: [][]string{{"CPU", "fast"}, {"Memory", "lots"}}})
		require.NoError(t, err)
		assert.Contains(t, out, "CPU:")
		assert.Contains(t, out, "lots")
	})

	t.Run("warnings", func(t *testing.T) {
		r := sample()
		r.Warnings = []string{"careful"}
		out, err := Render("pretty", r)
		require.NoError(t, err)
		assert.Contains(t, out, "Warnings:")
		assert.Contains(t, out, "careful")
	})
}

func TestTemplateFormatter(t *testing.T) {
	t.Run("custom template", func(t *testing.T) {
		f := NewTemplateFormatter(`{{.Title}}:{{len .Rows}}`)
		var buf bytes.Buffer
		require.NoError(t, f.Format(&buf, sample()))
		assert.Equal(t, "Sample:2", buf.String())
	})

	t.Run("set template recompiles", func(t *testing.T) {
		f := NewTemplateFormatter(`a`)
		var buf bytes.Buffer
		require.NoError(t, f.Format(&buf, sample()))
		f.SetTemplate(`b`)
		buf.Reset()
		require.NoError(t, f.Format(&buf, sample()))
		assert.Equal(t, "b", buf.String())
	})

	t.Run("parse error", func(t *testing.T) {
		f := NewTemplateFormatter(`{{.Title`)
		var buf bytes.Buffer
		assert.Error(t, f.Format(&buf, sample()))
	})
}
