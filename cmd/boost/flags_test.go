package main

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/jamesainslie/boost/pkg/boost/gateway"
	"github.com/jamesainslie/boost/pkg/boost/output"
	"github.com/jamesainslie/boost/pkg/boost/profile"
)

func TestPriorityFlag(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    gateway.Priority
		wantErr bool
	}{
		{name: "default", args: nil, want: gateway.High},
		{name: "exact name", args: []string{"--priority", "Realtime"}, want: gateway.Realtime},
		{name: "lowercase", args: []string{"--priority", "low"}, want: gateway.Low},
		{name: "separated", args: []string{"--priority", "above-normal"}, want: gateway.AboveNormal},
		{name: "unknown", args: []string{"--priority", "turbo"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p gateway.Priority
			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			fs.Var(newPriorityValue(gateway.High, &p), "priority", "")

			err := fs.Parse(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if p != tt.want {
				t.Errorf("priority = %s, want %s", p, tt.want)
			}
			if got := fs.Lookup("priority").Value.String(); got != tt.want.String() {
				t.Errorf("String() = %q, want %q", got, tt.want.String())
			}
		})
	}
}

func TestParseSubProcesses(t *testing.T) {
	tests := []struct {
		name    string
		items   []string
		want    []profile.Process
		wantErr bool
	}{
		{
			name:  "bare name gets normal",
			items: []string{"vgc.exe"},
			want:  []profile.Process{{Name: "vgc.exe", Priority: gateway.Normal}},
		},
		{
			name:  "explicit priority",
			items: []string{"EasyAntiCheat.exe:High", " discord.exe : low "},
			want: []profile.Process{
				{Name: "EasyAntiCheat.exe", Priority: gateway.High},
				{Name: "discord.exe", Priority: gateway.Low},
			},
		},
		{
			name:  "blank items skipped",
			items: []string{"", "  "},
			want:  []profile.Process{},
		},
		{
			name:    "bad priority",
			items:   []string{"x.exe:fast"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSubProcesses(tt.items)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"17", 17, false},
		{" 3 ", 3, false},
		{"0", 0, true},
		{"-2", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseID(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseID(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPriorityNames(t *testing.T) {
	got := priorityNames()
	if !strings.HasPrefix(got, "Realtime, High") || !strings.HasSuffix(got, "Low") {
		t.Errorf("priorityNames() = %q", got)
	}
}

func TestRenderString(t *testing.T) {
	r := &output.Result{
		Columns: []string{"ID", "NAME"},
		Rows:    [][]string{{"1", "Valorant"}, {"2", "Apex"}},
	}

	t.Run("template", func(t *testing.T) {
		got, err := renderString("pretty", `{{range .Rows}}{{index . 1}};{{end}}`, r)
		if err != nil {
			t.Fatal(err)
		}
		if got != "Valorant;Apex;" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("template without text", func(t *testing.T) {
		if _, err := renderString("template", "", r); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("csv", func(t *testing.T) {
		got, err := renderString("csv", "", r)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(got, "2,Apex") {
			t.Errorf("got %q", got)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := renderString("xml", "", r); err == nil {
			t.Error("expected error")
		}
	})
}

func TestEnvOverrides(t *testing.T) {
	env := []string{"HOME=/root", "BOOST_GATEWAY_MOCK=true", "BOOST_ACTIVITY_DISPLAY_LIMIT=5", "PATH=/bin"}
	got := envOverrides(env)
	want := []string{"BOOST_ACTIVITY_DISPLAY_LIMIT=5", "BOOST_GATEWAY_MOCK=true"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    string
		want string
	}{
		{"42s", "42s"},
		{"3m7s", "3m 7s"},
		{"2h5m", "2h 5m"},
		{"50h", "2d 2h"},
	}
	for _, tt := range tests {
		d, _ := time.ParseDuration(tt.d)
		if got := formatDuration(d); got != tt.want {
			t.Errorf("formatDuration(%s) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestDashboardMode(t *testing.T) {
	if !dashboardMode(rootCmd) {
		t.Error("root command should run in dashboard mode")
	}
	if dashboardMode(daemonStatusCmd) {
		t.Error("daemon status should not run in dashboard mode")
	}
	if rootCmd.PersistentPreRunE == nil {
		t.Error("root command has no setup hook")
	}
}
