package main

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/jamesainslie/boost/pkg/boost/gateway"
	"github.com/jamesainslie/boost/pkg/boost/output"
	"github.com/jamesainslie/boost/pkg/boost/profile"
)

var (
	// Output flags
	outputFormat string
	templateStr  string

	quiet       bool
	verbose     bool
	noAutoStart bool
)

// render writes r in the selected output format.
func render(r *output.Result) error {
	s, err := renderString(outputFormat, templateStr, r)
	if err != nil {
		return err
	}
	fmt.Print(s)
	return nil
}

func renderString(format, tmpl string, r *output.Result) (string, error) {
	if format == "template" || tmpl != "" {
		if tmpl == "" {
			return "", fmt.Errorf("--output template needs --template")
		}
		var buf bytes.Buffer
		if err := output.NewTemplateFormatter(tmpl).Format(&buf, r); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	return output.Render(format, r)
}

// priorityValue is a pflag.Value for process priorities.
type priorityValue struct {
	p *gateway.Priority
}

var _ pflag.Value = priorityValue{}

func newPriorityValue(def gateway.Priority, p *gateway.Priority) priorityValue {
	*p = def
	return priorityValue{p: p}
}

func (v priorityValue) String() string {
	if v.p == nil {
		return gateway.Normal.String()
	}
	return v.p.String()
}

func (v priorityValue) Set(s string) error {
	p, err := gateway.ParsePriority(s)
	if err != nil {
		return err
	}
	*v.p = p
	return nil
}

func (v priorityValue) Type() string { return "priority" }

// priorityNames lists the accepted priorities for help text.
func priorityNames() string {
	names := make([]string, len(gateway.Priorities))
	for i, p := range gateway.Priorities {
		names[i] = p.String()
	}
	return strings.Join(names, ", ")
}

// parseSubProcesses parses "name" or "name:priority" items. A bare name
// gets Normal priority.
func parseSubProcesses(items []string) ([]profile.Process, error) {
	out := make([]profile.Process, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, prio, found := strings.Cut(item, ":")
		p := profile.Process{Name: strings.TrimSpace(name), Priority: gateway.Normal}
		if found {
			parsed, err := gateway.ParsePriority(prio)
			if err != nil {
				return nil, fmt.Errorf("sub-process %q: %w", item, err)
			}
			p.Priority = parsed
		}
		out = append(out, p)
	}
	return out, nil
}

// parseID parses a profile id argument.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid profile id %q", s)
	}
	return id, nil
}

// isTerminal reports whether stdin is an interactive terminal.
func isTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
