package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/san-kum/fmusim/internal/fmu"
)

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	run := Run{
		Model:   "org.demo.Model",
		Kind:    "sweep",
		Inputs:  []string{"x", "u"},
		Outputs: []string{"y"},
		Results: []fmu.Result{
			{Inputs: []float64{1, 2}, Outputs: []float64{5}, Stats: fmu.Stats{"aux": map[string]any{"p": 2.0}}},
			{Inputs: []float64{0.5, -1}, Err: errors.New("fmu: exitInitializationMode returned discard")},
		},
	}

	runID, err := st.Save(run)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Model != "org.demo.Model" || meta.Kind != "sweep" {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Points != 2 || meta.Failed != 1 {
		t.Errorf("expected 2 points with 1 failure, got %d/%d", meta.Points, meta.Failed)
	}

	results, err := st.LoadResults(runID)
	if err != nil {
		t.Fatalf("load results failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Outputs[0] != 5 || results[0].Inputs[1] != 2 {
		t.Errorf("unexpected first result %+v", results[0])
	}
	if results[1].Err == nil || results[1].Outputs != nil {
		t.Errorf("failed point should carry its error, got %+v", results[1])
	}

	stats, err := st.LoadStats(runID)
	if err != nil {
		t.Fatalf("load stats failed: %v", err)
	}
	if aux := stats[0]["aux"].(map[string]any); aux["p"] != 2.0 {
		t.Errorf("expected aux p = 2, got %v", aux["p"])
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != runID {
		t.Errorf("expected one run %s, got %+v", runID, runs)
	}
}

func TestListMissingDir(t *testing.T) {
	st := New(t.TempDir() + "/missing")
	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty list, got %v %v", runs, err)
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	err := ExportJSON(&buf, "demo", []string{"x"}, []float64{1}, []string{"y"}, []float64{3}, nil)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var got ExportData
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.Model != "demo" || got.Outputs["y"] != 3.0 || got.Inputs["x"] != 1.0 {
		t.Errorf("unexpected export %+v", got)
	}
}
