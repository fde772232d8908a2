package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	root := newRootCmd()

	want := map[string]bool{
		"version":   false,
		"browse":    false,
		"search":    false,
		"detail":    false,
		"favorites": false,
		"status":    false,
		"serve":     false,
		"mcp-serve": false,
		"config":    false,
	}

	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}

	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	root := newRootCmd()
	flag := root.PersistentFlags().Lookup("config")
	if flag == nil {
		t.Fatal("--config flag not registered")
	}
	if flag.DefValue != "" {
		t.Errorf("--config default = %q, want empty", flag.DefValue)
	}
	if flag.Shorthand != "c" {
		t.Errorf("--config shorthand = %q, want %q", flag.Shorthand, "c")
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newVersionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.Run(cmd, nil)
	if !strings.Contains(out.String(), version) {
		t.Errorf("version output = %q, want it to contain %q", out.String(), version)
	}
}

func TestSearchCommand_RequiresArgs(t *testing.T) {
	cmd := newSearchCmd()
	if err := cmd.Args(cmd, []string{}); err == nil {
		t.Error("search command should require at least 1 argument")
	}
	if err := cmd.Args(cmd, []string{"fight", "club"}); err != nil {
		t.Errorf("search command should accept args: %v", err)
	}
	if flag := cmd.Flags().Lookup("page"); flag == nil || flag.DefValue != "1" {
		t.Error("search command should have --page defaulting to 1")
	}
}

func TestDetailCommand_RequiresOneArg(t *testing.T) {
	cmd := newDetailCmd()
	if err := cmd.Args(cmd, []string{}); err == nil {
		t.Error("detail command should require an argument")
	}
	if err := cmd.Args(cmd, []string{"1", "2"}); err == nil {
		t.Error("detail command should reject two arguments")
	}
}

func TestDetailCommand_AcceptsBaseFields(t *testing.T) {
	cmd := newDetailCmd()
	for _, name := range []string{"title", "original-title", "overview", "poster-path", "backdrop-path", "rating", "release-date"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("detail command missing --%s", name)
		}
	}
	if err := cmd.ParseFlags([]string{"--title", "The Matrix", "--rating", "8.2"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if got, _ := cmd.Flags().GetString("title"); got != "The Matrix" {
		t.Errorf("title = %q", got)
	}
}

func TestFavoritesCommand_HasSubcommands(t *testing.T) {
	cmd := newFavoritesCmd()
	found := map[string]bool{}
	for _, sub := range cmd.Commands() {
		found[sub.Name()] = true
	}
	for _, name := range []string{"add", "remove"} {
		if !found[name] {
			t.Errorf("favorites command missing %q subcommand", name)
		}
	}
}

func TestConfigCommand_HasSubcommands(t *testing.T) {
	cmd := newConfigCmd()
	found := map[string]bool{}
	for _, sub := range cmd.Commands() {
		found[sub.Name()] = true
	}
	for _, name := range []string{"validate", "init"} {
		if !found[name] {
			t.Errorf("config command missing %q subcommand", name)
		}
	}
}

func TestParseMovieID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"550", 550, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := parseMovieID(tt.raw)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseMovieID(%q) = %d, %v; want %d, err=%v", tt.raw, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestBrowseCommand_RejectsSearchMode(t *testing.T) {
	cmd := newBrowseCmd()
	cmd.SetArgs([]string{"--mode", "search"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Error("browse should reject the search mode")
	}
}
