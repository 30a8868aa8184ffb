package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// generateFixture writes a seeded dataset to dir and catalogs it.
func generateFixture(t *testing.T, dir string, rows string) (string, generateResult) {
	t.Helper()
	output := filepath.Join(dir, "fixture.csv")
	var res generateResult
	decodeJSON(t, mustRunCLI(t, "generate", "-n", rows, "--seed", "11", "-o", output, "--json"), &res)
	return output, res
}

func TestDescribeFromFile(t *testing.T) {
	tmpDir := isolateHome(t)
	path, _ := generateFixture(t, tmpDir, "100")

	out := mustRunCLI(t, "describe", path)
	for _, want := range []string{"100 rows", "tip_percent", "distance_miles", "25%"} {
		if !strings.Contains(out, want) {
			t.Errorf("describe output missing %q:\n%s", want, out)
		}
	}
}

func TestDescribeJSONWithExtras(t *testing.T) {
	tmpDir := isolateHome(t)
	_, res := generateFixture(t, tmpDir, "100")

	var got struct {
		Source  string `json:"source"`
		Rows    int    `json:"rows"`
		Summary []struct {
			Column string   `json:"column"`
			Mean   *float64 `json:"mean"`
		} `json:"summary"`
		Correlation *struct {
			Columns []string `json:"columns"`
		} `json:"correlation"`
		Groups map[string][]struct {
			Category string `json:"category"`
			Count    int    `json:"count"`
		} `json:"groups"`
	}
	decodeJSON(t, mustRunCLI(t, "describe", "--dataset", res.DatasetID, "--correlation", "--groups", "--json"), &got)

	if got.Source != res.DatasetID || got.Rows != 100 {
		t.Errorf("source/rows = %s/%d, want %s/100", got.Source, got.Rows, res.DatasetID)
	}
	if len(got.Summary) == 0 {
		t.Fatal("empty summary")
	}
	for _, s := range got.Summary {
		if s.Mean == nil {
			t.Errorf("column %s has no mean", s.Column)
		}
	}
	if got.Correlation == nil || len(got.Correlation.Columns) != len(got.Summary) {
		t.Errorf("correlation should cover every summarized column")
	}

	weather, ok := got.Groups["weather"]
	if !ok {
		t.Fatalf("groups missing weather: %v", got.Groups)
	}
	total := 0
	for _, g := range weather {
		total += g.Count
	}
	if total != 100 {
		t.Errorf("weather group counts sum to %d, want 100", total)
	}
}

func TestDescribeInputErrors(t *testing.T) {
	tmpDir := isolateHome(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no input", []string{"describe"}, "specify a data file"},
		{"file and dataset", []string{"describe", "a.csv", "--dataset", "ds-1"}, "not both"},
		{"missing file", []string{"describe", filepath.Join(tmpDir, "missing.csv")}, "failed to read"},
		{"unknown dataset", []string{"describe", "--dataset", "ds-404"}, "failed to load dataset"},
		{"bad format", []string{"describe", "a.csv", "--format", "xls"}, "unsupported format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestTrain(t *testing.T) {
	tmpDir := isolateHome(t)
	path, _ := generateFixture(t, tmpDir, "300")

	var report struct {
		TrainRows int      `json:"train_rows"`
		TestRows  int      `json:"test_rows"`
		Features  []string `json:"features"`
		Results   []struct {
			Model string  `json:"model"`
			MAE   float64 `json:"mae"`
		} `json:"results"`
		Best  string `json:"best"`
		Sweep []struct {
			Model string  `json:"model"`
			Alpha float64 `json:"alpha"`
		} `json:"sweep"`
	}
	decodeJSON(t, mustRunCLI(t, "train", path, "--sweep", "0.1,1", "--json"), &report)

	if report.TrainRows+report.TestRows != 300 {
		t.Errorf("train+test = %d, want 300", report.TrainRows+report.TestRows)
	}
	if len(report.Results) != 3 {
		t.Errorf("got %d model results, want linear, ridge and lasso", len(report.Results))
	}
	if report.Best == "" {
		t.Error("no best model reported")
	}
	if len(report.Sweep) != 4 {
		t.Errorf("sweep has %d entries, want 2 alphas x 2 models", len(report.Sweep))
	}

	out := mustRunCLI(t, "train", path, "--degree", "2")
	for _, want := range []string{"Best model:", "Coefficients", "intercept"} {
		if !strings.Contains(out, want) {
			t.Errorf("train output missing %q:\n%s", want, out)
		}
	}
}

func TestTrainRejectsBadOptions(t *testing.T) {
	tmpDir := isolateHome(t)
	path, _ := generateFixture(t, tmpDir, "50")

	if _, err := runCLI(t, "train", path, "--test-ratio", "1.5"); err == nil {
		t.Error("expected an error for test ratio above 1")
	}
	if _, err := runCLI(t, "train", path, "--degree", "5"); err == nil {
		t.Error("expected an error for unsupported degree")
	}
}

func TestPlot(t *testing.T) {
	tmpDir := isolateHome(t)
	path, _ := generateFixture(t, tmpDir, "80")
	plotDir := filepath.Join(tmpDir, "plots")

	var got struct {
		Dir   string   `json:"dir"`
		Files []string `json:"files"`
	}
	decodeJSON(t, mustRunCLI(t, "plot", path, "--out", plotDir, "--json"), &got)

	if len(got.Files) == 0 {
		t.Fatal("no plots written")
	}
	for _, f := range got.Files {
		info, err := os.Stat(f)
		if err != nil {
			t.Errorf("plot %s missing: %v", f, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("plot %s is empty", f)
		}
		if filepath.Ext(f) != ".png" {
			t.Errorf("plot %s is not a PNG", f)
		}
	}
}
