package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"poolScope/internal/engine"
	"poolScope/internal/model"
	"poolScope/internal/orchestrator"
)

func sampleResult() *orchestrator.RunResult {
	pools := []model.Pool{
		{DexName: "UniV3", Chain: "ethereum", Token0: "0xa", Token1: "0xb", Reserve0: 1, Reserve1: 2, Fee: 30},
		{DexName: "Curve", Chain: "ethereum", Token0: "0xa", Token1: "0xc", Reserve0: 3, Reserve1: 4, Fee: 4},
		{DexName: "Sushi", Chain: "polygon", Token0: "0xb", Token1: "0xc", Reserve0: 5, Reserve1: 6, Fee: 30},
	}
	ranked := &engine.RankedReport{
		Backend: "heuristic",
		Schema:  "pool-v1",
		Ranked: []engine.ScoredPool{
			{Score: 3, Index: 2, Pool: &pools[2]},
			{Score: 2, Index: 1, Pool: &pools[1]},
			{Score: 1, Index: 0, Pool: &pools[0]},
		},
		Skipped: []engine.PoolSkip{},
	}
	return &orchestrator.RunResult{
		RunID: "run-1",
		Outcomes: []orchestrator.Outcome{
			{Engine: "summary", Report: &engine.SummaryReport{Tokens: 3, Pools: 3}, Duration: 1500 * time.Microsecond},
			{Engine: "scoring", Err: errors.New("scoring unavailable")},
			{Engine: "ranked", Report: ranked},
		},
	}
}

func TestRecords(t *testing.T) {
	records := Records(sampleResult(), 2)
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	if records[0].Status != statusOK || records[0].Summary != "3 tokens, 3 pools" {
		t.Fatalf("unexpected summary record: %+v", records[0])
	}
	if records[0].DurationMS != 1.5 {
		t.Fatalf("expected 1.5ms, got %v", records[0].DurationMS)
	}
	if records[1].Status != statusError || records[1].Error != "scoring unavailable" || records[1].Report != nil {
		t.Fatalf("unexpected error record: %+v", records[1])
	}

	ranked, ok := records[2].Report.(*engine.RankedReport)
	if !ok {
		t.Fatalf("expected ranked report, got %T", records[2].Report)
	}
	if len(ranked.Ranked) != 2 || ranked.Ranked[0].Index != 2 {
		t.Fatalf("expected top 2 entries, got %+v", ranked.Ranked)
	}
	for _, rec := range records {
		if rec.RunID != "run-1" {
			t.Fatalf("missing run id: %+v", rec)
		}
	}
}

func TestRecordsWithoutTruncation(t *testing.T) {
	result := sampleResult()
	records := Records(result, 0)
	ranked := records[2].Report.(*engine.RankedReport)
	if len(ranked.Ranked) != 3 {
		t.Fatalf("expected full ranking, got %d", len(ranked.Ranked))
	}
}

func TestJsonlStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.jsonl")
	sink, err := New(FormatJSONL, path, nil)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if err := sink.PutRun(Records(sampleResult(), 0)); err != nil {
		t.Fatalf("put run: %v", err)
	}
	if err := sink.PutRun(Records(sampleResult(), 0)); err != nil {
		t.Fatalf("append run: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var line map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		lines = append(lines, line)
	}
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d", len(lines))
	}
	if lines[1]["status"] != "error" || lines[1]["error"] != "scoring unavailable" {
		t.Fatalf("unexpected error line: %v", lines[1])
	}
	report, ok := lines[0]["report"].(map[string]interface{})
	if !ok || report["pools"] != float64(3) {
		t.Fatalf("unexpected summary report: %v", lines[0]["report"])
	}
	ranked := lines[2]["report"].(map[string]interface{})["ranked"].([]interface{})
	first := ranked[0].(map[string]interface{})["pool"].(map[string]interface{})
	if first["dexName"] != "Sushi" {
		t.Fatalf("expected dexName wire key, got %v", first)
	}
}

func TestJsonlRequiresPath(t *testing.T) {
	if _, err := New(FormatJSONL, "", nil); err == nil {
		t.Fatalf("expected error without path")
	}
}

func TestYAMLSink(t *testing.T) {
	var buf bytes.Buffer
	sink, err := New(FormatYAML, "", &buf)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if err := sink.PutRun(Records(sampleResult(), 1)); err != nil {
		t.Fatalf("put run: %v", err)
	}

	var doc struct {
		RunID    string `yaml:"run_id"`
		Outcomes []struct {
			Engine string                 `yaml:"engine"`
			Status string                 `yaml:"status"`
			Report map[string]interface{} `yaml:"report"`
		} `yaml:"outcomes"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if doc.RunID != "run-1" || len(doc.Outcomes) != 3 {
		t.Fatalf("unexpected doc: %+v", doc)
	}
	if doc.Outcomes[1].Status != "error" {
		t.Fatalf("expected error status, got %q", doc.Outcomes[1].Status)
	}
	ranked, ok := doc.Outcomes[2].Report["ranked"].([]interface{})
	if !ok || len(ranked) != 1 {
		t.Fatalf("expected one ranked entry, got %v", doc.Outcomes[2].Report["ranked"])
	}
}

func TestTextSink(t *testing.T) {
	var buf bytes.Buffer
	sink, err := New(FormatText, "", &buf)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if err := sink.PutRun(Records(sampleResult(), 0)); err != nil {
		t.Fatalf("put run: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"summary: 3 tokens, 3 pools",
		"scoring: FAILED: scoring unavailable",
		"1. Sushi",
		"3. UniV3",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestUnknownFormat(t *testing.T) {
	if _, err := New("xml", "", nil); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestJsonlStorageKeepsMarkup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.jsonl")
	records := []OutcomeRecord{{RunID: "run-2", Engine: "<nil>", Status: statusError, Error: "engine is nil"}}
	if err := NewJsonlStorage(path).PutRun(records); err != nil {
		t.Fatalf("put run: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `"engine":"<nil>"`) || !strings.HasSuffix(string(data), "\n") {
		t.Fatalf("unexpected line: %s", data)
	}
}
