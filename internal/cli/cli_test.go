package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func newTestCLI() *CLI {
	return &CLI{
		Logger: newLogger(io.Discard, log.ErrorLevel),
		Config: DefaultConfig(),
	}
}

func TestRootCommand(t *testing.T) {
	root := newTestCLI().RootCommand()

	if root.Use != appName {
		t.Errorf("Use = %q, want %q", root.Use, appName)
	}

	want := map[string]bool{
		"partition":  false,
		"visualize":  false,
		"browse":     false,
		"serve":      false,
		"cache":      false,
		"completion": false,
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

func TestPartitionCommand(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	dir := t.TempDir()
	table := filepath.Join(dir, "flows.csv")
	csv := "id,to\n20429540,20427704\n20427704,20427622\n20427622,0\n"
	if err := os.WriteFile(table, []byte(csv), 0o644); err != nil {
		t.Fatalf("write table: %v", err)
	}
	output := filepath.Join(dir, "topo.json")

	root := newTestCLI().RootCommand()
	root.SetArgs([]string{"partition", table, "-o", output})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	if err := root.Execute(); err != nil {
		t.Fatalf("partition failed: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var doc struct {
		Networks []struct {
			Tailwater int64     `json:"tailwater"`
			Reaches   [][]int64 `json:"reaches"`
		} `json:"networks"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal document: %v", err)
	}
	if len(doc.Networks) != 1 {
		t.Fatalf("networks = %d, want 1", len(doc.Networks))
	}
	if doc.Networks[0].Tailwater != 20427622 {
		t.Errorf("tailwater = %d, want 20427622", doc.Networks[0].Tailwater)
	}
}

func TestPartitionCommandBadColumn(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	table := filepath.Join(t.TempDir(), "flows.csv")
	if err := os.WriteFile(table, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatalf("write table: %v", err)
	}

	root := newTestCLI().RootCommand()
	root.SetArgs([]string{"partition", table})
	var errBuf bytes.Buffer
	root.SetOut(io.Discard)
	root.SetErr(&errBuf)

	if err := root.Execute(); err == nil {
		t.Fatal("partition should fail on missing columns")
	}
}

func TestVisualizeCommandDOT(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	dir := t.TempDir()
	table := filepath.Join(dir, "flows.csv")
	if err := os.WriteFile(table, []byte("id,to\n1,3\n2,3\n3,0\n"), 0o644); err != nil {
		t.Fatalf("write table: %v", err)
	}
	output := filepath.Join(dir, "rivers.dot")

	root := newTestCLI().RootCommand()
	root.SetArgs([]string{"visualize", table, "-f", "dot", "-o", output})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	if err := root.Execute(); err != nil {
		t.Fatalf("visualize failed: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Contains(data, []byte("digraph rivers")) {
		t.Errorf("output is not DOT: %s", data[:min(len(data), 40)])
	}
}

func TestVisualizeCommandBadFormat(t *testing.T) {
	root := newTestCLI().RootCommand()
	root.SetArgs([]string{"visualize", "whatever.json", "-f", "bmp"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	if err := root.Execute(); err == nil {
		t.Fatal("visualize should reject unknown formats")
	}
}

func TestNewCacheBackends(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	ctx := context.Background()
	c := newTestCLI()

	if _, err := c.newCache(ctx, true); err != nil {
		t.Errorf("noCache backend error = %v", err)
	}

	c.Config.Cache.Backend = "none"
	if _, err := c.newCache(ctx, false); err != nil {
		t.Errorf("none backend error = %v", err)
	}

	c.Config.Cache.Backend = "file"
	if _, err := c.newCache(ctx, false); err != nil {
		t.Errorf("file backend error = %v", err)
	}

	c.Config.Cache.Backend = "bogus"
	if _, err := c.newCache(ctx, false); err == nil {
		t.Error("unknown backend should fail")
	}
}

func TestNewCacheRedisUnreachable(t *testing.T) {
	c := newTestCLI()
	c.Config.Cache.Backend = "redis"
	c.Config.Cache.RedisAddr = "127.0.0.1:1" // Nothing listens here

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := c.newCache(ctx, false); err == nil {
		t.Error("unreachable redis should fail the connection ping")
	}
}
