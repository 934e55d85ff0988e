package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"steamgog/internal/catalog"
)

// writeTestConfig lays out a config file whose paths all live under a fresh
// temp directory and returns its location.
func writeTestConfig(t *testing.T) (configPath, baseDir string) {
	t.Helper()

	base := t.TempDir()
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
dump_dir = %q

[steam]
api_key = "test"
steam_id = "76561198000000000"
`,
		filepath.Join(base, "data"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "dumps"),
	)

	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}
	return path, base
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when target exists without --overwrite")
	}
	if _, err := runCLI(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestMatchCommandReportsMetrics(t *testing.T) {
	configPath, base := writeTestConfig(t)

	// Seed the database the commands will open.
	store, err := catalog.OpenPath(filepath.Join(base, "data", "steamgog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	ctx := context.Background()
	if _, err := store.UpsertLibraryGames(ctx, []catalog.LibraryGame{{AppID: 620, Name: "Portal 2"}}); err != nil {
		t.Fatalf("upsert library games: %v", err)
	}
	err = store.Batch(ctx, func(b *catalog.Batch) error {
		return b.UpsertProduct(ctx, catalog.Product{GOGID: 100, Title: "Portal 2", Type: "game"})
	})
	if err != nil {
		t.Fatalf("upsert product: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	out, err := runCLI(t, "--config", configPath, "gog", "match")
	if err != nil {
		t.Fatalf("gog match: %v", err)
	}
	requireContains(t, out, "Matched (exact)")

	reportOut, err := runCLI(t, "--config", configPath, "report")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	requireContains(t, reportOut, "1 matched")
}

func TestIngestCommandLoadsDump(t *testing.T) {
	configPath, base := writeTestConfig(t)

	dumpRoot := filepath.Join(base, "dumps", "gogdb_2024-06-15")
	productDir := filepath.Join(dumpRoot, "products", "100")
	if err := os.MkdirAll(productDir, 0o755); err != nil {
		t.Fatalf("mkdir product dir: %v", err)
	}
	productJSON := `{"title": "Portal 2", "type": "game"}`
	if err := os.WriteFile(filepath.Join(productDir, "product.json"), []byte(productJSON), 0o644); err != nil {
		t.Fatalf("write product.json: %v", err)
	}

	out, err := runCLI(t, "--config", configPath, "gog", "ingest")
	if err != nil {
		t.Fatalf("gog ingest: %v", err)
	}
	requireContains(t, out, "Products: 1")
}

func TestIngestCommandFailsWithoutDump(t *testing.T) {
	configPath, _ := writeTestConfig(t)

	if _, err := runCLI(t, "--config", configPath, "gog", "ingest"); err == nil {
		t.Fatal("expected error when no dump is available")
	}
}
