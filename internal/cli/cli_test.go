package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/netlayout/pkg/cache"
	"github.com/matzehuels/netlayout/pkg/circuit"
	"github.com/matzehuels/netlayout/pkg/errors"
)

const divider = "* divider\nV1 n1 0 DC 5\nR1 n1 n2 1k\nR2 n2 0 1k\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSplitList(t *testing.T) {
	got := splitList([]string{"V1,V2", " V3 ", "", "V4,,"})
	if want := []string{"V1", "V2", "V3", "V4"}; !slices.Equal(got, want) {
		t.Errorf("splitList() = %v, want %v", got, want)
	}
}

func TestParseFormats(t *testing.T) {
	if got := parseFormats("", "json"); !slices.Equal(got, []string{"json"}) {
		t.Errorf("parseFormats(\"\") = %v, want [json]", got)
	}
	if got := parseFormats("svg,dot", "json"); !slices.Equal(got, []string{"svg", "dot"}) {
		t.Errorf("parseFormats(svg,dot) = %v", got)
	}
}

func parsedFlags(t *testing.T, args ...string) (*cobra.Command, *layoutFlags) {
	t.Helper()
	var f layoutFlags
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags(%v) error: %v", args, err)
	}
	return cmd, &f
}

func TestLayoutFlagsDefaults(t *testing.T) {
	cmd, f := parsedFlags(t, "--seed", "V1,V2", "--anneal")
	opts, err := f.options(cmd, "in.cir")
	if err != nil {
		t.Fatalf("options() error: %v", err)
	}
	if opts.Path != "in.cir" || !slices.Equal(opts.Seeds, []string{"V1", "V2"}) {
		t.Errorf("path/seeds = %q %v", opts.Path, opts.Seeds)
	}
	if !opts.Anneal || opts.Mode != "none" || opts.RowDeviceFactor != 2 || opts.InterleaveGap != 2 {
		t.Errorf("opts = %+v, want defaults with annealing on", opts)
	}
}

func TestLayoutFlagsConfigPrecedence(t *testing.T) {
	cfg := writeFile(t, "netlayout.toml", "seeds = [\"R1\"]\nmode = \"grounded\"\ninterleave_gap = 3\n")
	cmd, f := parsedFlags(t, "--config", cfg, "--mode", "all")
	opts, err := f.options(cmd, "in.cir")
	if err != nil {
		t.Fatalf("options() error: %v", err)
	}
	if opts.Mode != "all" {
		t.Errorf("Mode = %q, want flag value all", opts.Mode)
	}
	if !slices.Equal(opts.Seeds, []string{"R1"}) || opts.InterleaveGap != 3 {
		t.Errorf("seeds = %v gap = %d, want config values", opts.Seeds, opts.InterleaveGap)
	}
	if opts.RowDeviceFactor != 2 {
		t.Errorf("RowDeviceFactor = %d, want default 2", opts.RowDeviceFactor)
	}
}

func TestLayoutFlagsBadConfig(t *testing.T) {
	cfg := writeFile(t, "netlayout.toml", "moed = \"all\"\n")
	cmd, f := parsedFlags(t, "--config", cfg)
	if _, err := f.options(cmd, "in.cir"); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("options() error = %v, want INVALID_CONFIG", err)
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	artifacts := map[string][]byte{"json": []byte("{}"), "dot": []byte("digraph G {}")}

	paths, err := writeArtifacts(artifacts, []string{"json", "dot"}, filepath.Join(dir, "amp.cir"), "")
	if err != nil {
		t.Fatalf("writeArtifacts() error: %v", err)
	}
	want := []string{filepath.Join(dir, "amp.layout.json"), filepath.Join(dir, "amp.layout.dot")}
	if !slices.Equal(paths, want) {
		t.Errorf("paths = %v, want %v", paths, want)
	}

	single := filepath.Join(dir, "out.json")
	paths, err = writeArtifacts(artifacts, []string{"json"}, "amp.cir", single)
	if err != nil {
		t.Fatalf("writeArtifacts() error: %v", err)
	}
	if !slices.Equal(paths, []string{single}) {
		t.Errorf("paths = %v, want [%s]", paths, single)
	}
}

func seedGraph(t *testing.T) *circuit.Graph {
	t.Helper()
	g := circuit.New()
	for _, d := range []struct {
		typ            circuit.DeviceType
		name, pos, neg string
	}{
		{circuit.VoltageSource, "V1", "n1", "0"},
		{circuit.Resistor, "R1", "n1", "n2"},
		{circuit.Resistor, "R2", "n2", "0"},
	} {
		if _, err := g.InsertDevice(d.typ, d.name, d.pos, d.neg, 1); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestSeedListModel(t *testing.T) {
	m := NewSeedListModel(seedGraph(t))
	if got := m.Selected(); !slices.Equal(got, []string{"V1"}) {
		t.Fatalf("preselected = %v, want [V1]", got)
	}

	var model tea.Model = m
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyDown},
		{Type: tea.KeySpace, Runes: []rune{' '}},
		{Type: tea.KeyUp},
		{Type: tea.KeySpace, Runes: []rune{' '}},
	} {
		model, _ = model.Update(key)
	}
	m = model.(SeedListModel)
	if got := m.Selected(); !slices.Equal(got, []string{"R1"}) {
		t.Errorf("selected = %v, want [R1]", got)
	}
	if !strings.Contains(m.View(), "R2") {
		t.Error("View() does not list R2")
	}

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !model.(SeedListModel).Confirmed || cmd == nil {
		t.Error("enter with a selection should confirm and quit")
	}
}

func TestSeedListModelEmptySelection(t *testing.T) {
	var model tea.Model = NewSeedListModel(seedGraph(t))
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if model.(SeedListModel).Confirmed || cmd != nil {
		t.Error("enter without a selection should do nothing")
	}
}

func TestRootCommand(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"layout", "levels", "render", "serve", "cache", "completion"} {
		if !slices.Contains(names, want) {
			t.Errorf("subcommand %q not registered (have %v)", want, names)
		}
	}
}

func TestLayoutCommand(t *testing.T) {
	in := writeFile(t, "divider.cir", divider)
	out := filepath.Join(filepath.Dir(in), "divider.json")

	root := New(io.Discard, log.ErrorLevel).RootCommand()
	root.SetArgs([]string{"layout", in, "--no-cache", "-o", out, "--seed", "V1"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("layout command error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var res struct {
		Devices []struct {
			Name  string `json:"name"`
			Level int    `json:"level"`
		} `json:"devices"`
	}
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(res.Devices) != 3 || res.Devices[2].Name != "R2" || res.Devices[2].Level != 2 {
		t.Errorf("devices = %+v", res.Devices)
	}
}

func TestLayoutCommandUnknownSeed(t *testing.T) {
	in := writeFile(t, "divider.cir", divider)
	root := New(io.Discard, log.ErrorLevel).RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"layout", in, "--no-cache", "--seed", "V9"})
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Error("layout with unknown seed succeeded")
	}
}

func TestCacheCommands(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)
	dir := filepath.Join(xdg, "netlayout")

	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"layout:a", "artifact:b"} {
		if err := fc.Set(context.Background(), k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		root := New(io.Discard, log.ErrorLevel).RootCommand()
		root.SetOut(&out)
		root.SetErr(io.Discard)
		root.SetArgs(args)
		err := root.ExecuteContext(context.Background())
		return out.String(), err
	}

	if out, err := run("cache", "path"); err != nil || strings.TrimSpace(out) != dir {
		t.Errorf("cache path = %q, %v, want %q", out, err, dir)
	}
	if _, err := run("cache", "clear", "--kind", "tracks"); err == nil {
		t.Error("cache clear accepted an unknown kind")
	}
	if _, err := run("cache", "clear", "--kind", "layout"); err != nil {
		t.Fatalf("cache clear error: %v", err)
	}
	counts, err := fc.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if counts["layout"] != 0 || counts["artifact"] != 1 {
		t.Errorf("entries after clear --kind layout = %v", counts)
	}
}
