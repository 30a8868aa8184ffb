package main

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/tipgen/internal/store"
)

func TestGenerateWritesFileAndCatalogs(t *testing.T) {
	tmpDir := isolateHome(t)
	output := filepath.Join(tmpDir, "orders.csv")

	var res generateResult
	decodeJSON(t, mustRunCLI(t, "generate", "--rows", "50", "--seed", "7", "-o", output, "--name", "smoke", "--json"), &res)

	if res.Rows != 50 {
		t.Errorf("Rows = %d, want 50", res.Rows)
	}
	if res.Seed == nil || *res.Seed != 7 {
		t.Errorf("Seed = %v, want 7", res.Seed)
	}
	if res.Format != "csv" {
		t.Errorf("Format = %q, want csv", res.Format)
	}
	if res.DatasetID == "" {
		t.Error("expected a dataset ID when saving to the catalog")
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("output file not written: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 51 {
		t.Errorf("csv has %d lines, want header + 50", len(lines))
	}

	var list struct {
		Datasets []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			Rows int    `json:"rows"`
		} `json:"datasets"`
		Count int `json:"count"`
	}
	decodeJSON(t, mustRunCLI(t, "datasets", "list", "--json"), &list)
	if list.Count != 1 {
		t.Fatalf("catalog count = %d, want 1", list.Count)
	}
	if list.Datasets[0].ID != res.DatasetID || list.Datasets[0].Name != "smoke" || list.Datasets[0].Rows != 50 {
		t.Errorf("catalog entry = %+v, want id %s name smoke rows 50", list.Datasets[0], res.DatasetID)
	}
}

func TestGenerateNoSave(t *testing.T) {
	tmpDir := isolateHome(t)

	var res generateResult
	decodeJSON(t, mustRunCLI(t, "generate", "-n", "10", "--no-save", "-o", filepath.Join(tmpDir, "a.csv"), "--json"), &res)
	if res.DatasetID != "" {
		t.Errorf("DatasetID = %q, want none with --no-save", res.DatasetID)
	}
	if res.Seed != nil {
		t.Errorf("Seed = %d, want nil without --seed", *res.Seed)
	}

	out := mustRunCLI(t, "datasets", "list")
	if !strings.Contains(out, "No datasets") {
		t.Errorf("expected empty catalog, got:\n%s", out)
	}
}

func TestGenerateSeedIsReproducible(t *testing.T) {
	tmpDir := isolateHome(t)
	a := filepath.Join(tmpDir, "a.parquet")
	b := filepath.Join(tmpDir, "b.csv")
	c := filepath.Join(tmpDir, "c.csv")

	mustRunCLI(t, "generate", "-n", "25", "--seed", "99", "--no-save", "--format", "csv", "-o", a)
	mustRunCLI(t, "generate", "-n", "25", "--seed", "99", "--no-save", "-o", b)
	mustRunCLI(t, "generate", "-n", "25", "--seed", "100", "--no-save", "-o", c)

	dataA, _ := os.ReadFile(a)
	dataB, _ := os.ReadFile(b)
	dataC, _ := os.ReadFile(c)
	if len(dataA) == 0 {
		t.Fatal("no output written")
	}
	if !bytes.Equal(dataA, dataB) {
		t.Error("same seed produced different files")
	}
	if bytes.Equal(dataA, dataC) {
		t.Error("different seeds produced identical files")
	}
}

func TestGenerateDefaultOutput(t *testing.T) {
	tmpDir := isolateHome(t)
	t.Chdir(tmpDir)

	out := mustRunCLI(t, "generate", "-n", "5", "--no-save")
	if !strings.Contains(out, "Generated 5 orders") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "synthetic_delivery_data.csv")); err != nil {
		t.Errorf("default output file missing: %v", err)
	}
}

func TestGenerateFormats(t *testing.T) {
	tmpDir := isolateHome(t)

	for _, format := range []string{"csv", "parquet", "arrow", "snapshot"} {
		t.Run(format, func(t *testing.T) {
			output := filepath.Join(tmpDir, "orders-"+format)
			var res generateResult
			decodeJSON(t, mustRunCLI(t, "generate", "-n", "20", "--seed", "3", "--no-save", "--format", format, "-o", output, "--json"), &res)
			if res.Format != format {
				t.Errorf("Format = %q, want %q", res.Format, format)
			}

			var desc struct {
				Rows int `json:"rows"`
			}
			decodeJSON(t, mustRunCLI(t, "describe", output, "--format", format, "--json"), &desc)
			if desc.Rows != 20 {
				t.Errorf("read back %d rows, want 20", desc.Rows)
			}
		})
	}
}

func TestGenerateZeroRows(t *testing.T) {
	tmpDir := isolateHome(t)
	output := filepath.Join(tmpDir, "empty.csv")

	var res generateResult
	decodeJSON(t, mustRunCLI(t, "generate", "-n", "0", "--no-save", "-o", output, "--json"), &res)
	if res.Rows != 0 {
		t.Errorf("Rows = %d, want 0", res.Rows)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Split(strings.TrimSpace(string(data)), "\n"); len(lines) != 1 {
		t.Errorf("expected header only, got %d lines", len(lines))
	}
}

func TestGenerateRejectsInvalidInput(t *testing.T) {
	tmpDir := isolateHome(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown format", []string{"--format", "xml"}},
		{"negative rows", []string{"--rows=-1"}},
		{"positional argument", []string{"extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"generate", "--no-save", "-o", filepath.Join(tmpDir, "x.csv")}, tt.args...)
			if _, err := runCLI(t, args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestGenerateWritesRunLogAtDebug(t *testing.T) {
	tmpDir := isolateHome(t)

	mustRunCLI(t, "generate", "-n", "5", "--no-save", "--log-level", "debug", "-o", filepath.Join(tmpDir, "a.csv"))

	data, err := os.ReadFile(filepath.Join(tmpDir, "data", "runs.jsonl"))
	if err != nil {
		t.Fatalf("run log not written at debug level: %v", err)
	}
	if !strings.Contains(string(data), `"source":"cli"`) {
		t.Errorf("run log entry missing source: %s", data)
	}
}

func TestGenerateCatalogUnavailableLeavesNoFile(t *testing.T) {
	tmpDir := isolateHome(t)
	notDir := filepath.Join(tmpDir, "data-file")
	if err := os.WriteFile(notDir, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TIPGEN_DATA_DIR", notDir)

	output := filepath.Join(tmpDir, "orders.csv")
	_, err := runCLI(t, "generate", "-n", "5", "-o", output)
	if err == nil || !strings.Contains(err.Error(), "catalog") {
		t.Fatalf("error = %v, want a catalog error", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Errorf("output file exists after catalog failure: %v", statErr)
	}
}

func TestGenerateCatalogInsertFailureRemovesFile(t *testing.T) {
	tmpDir := isolateHome(t)
	dataDir := filepath.Join(tmpDir, "data")

	s, err := store.Open(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	dbPath := s.Path()
	s.Close()

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	_, err = db.Exec(`CREATE TRIGGER reject_datasets BEFORE INSERT ON datasets
		BEGIN SELECT RAISE(ABORT, 'catalog is read-only'); END`)
	db.Close()
	if err != nil {
		t.Fatalf("creating trigger: %v", err)
	}

	output := filepath.Join(tmpDir, "orders.csv")
	_, err = runCLI(t, "generate", "-n", "5", "-o", output)
	if err == nil || !strings.Contains(err.Error(), "failed to record dataset") {
		t.Fatalf("error = %v, want a record failure", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Errorf("output file exists after catalog failure: %v", statErr)
	}
}
