package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/styx8114/threatlens/internal/model"
)

// stubAnalyzer records the inputs it was given.
type stubAnalyzer struct {
	failOn string
}

func (s *stubAnalyzer) Analyze(ctx context.Context, input string) (*model.Report, error) {
	if input == s.failOn {
		return nil, errors.New("analysis failed")
	}
	return &model.Report{DocumentID: input}, nil
}

func TestBatchProcess(t *testing.T) {
	b := NewBatchProcessor(&stubAnalyzer{}, 4)

	inputs := []string{"a.txt", "b.txt", "c.txt"}
	results := b.Process(context.Background(), inputs)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	got := make([]string, 0, len(results))
	for _, r := range results {
		if r.GetError() != nil {
			t.Errorf("%s: %v", r.Input, r.GetError())
		}
		got = append(got, r.Input)
	}
	sort.Strings(got)
	for i, want := range inputs {
		if got[i] != want {
			t.Errorf("results[%d] = %s, want %s", i, got[i], want)
		}
	}
}

func TestBatchProcessManyInputs(t *testing.T) {
	// Input lists far larger than the worker count must complete.
	b := NewBatchProcessor(&stubAnalyzer{}, 2)

	inputs := make([]string, 120)
	for i := range inputs {
		inputs[i] = fmt.Sprintf("report-%03d.txt", i)
	}
	results := b.Process(context.Background(), inputs)

	if len(results) != len(inputs) {
		t.Fatalf("expected %d results, got %d", len(inputs), len(results))
	}
	seen := make(map[string]bool, len(results))
	for _, r := range results {
		if r.GetError() != nil {
			t.Errorf("%s: %v", r.Input, r.GetError())
		}
		seen[r.Input] = true
	}
	if len(seen) != len(inputs) {
		t.Errorf("expected %d distinct inputs processed, got %d", len(inputs), len(seen))
	}
}

func TestBatchProcessPartialFailure(t *testing.T) {
	b := NewBatchProcessor(&stubAnalyzer{failOn: "bad.txt"}, 2)

	results := b.Process(context.Background(), []string{"good.txt", "bad.txt"})
	failures := 0
	for _, r := range results {
		if r.GetError() != nil {
			failures++
			if r.Input != "bad.txt" {
				t.Errorf("wrong input failed: %s", r.Input)
			}
		}
	}
	if failures != 1 {
		t.Errorf("expected 1 failure, got %d", failures)
	}
}

func TestBatchProcessEmpty(t *testing.T) {
	b := NewBatchProcessor(&stubAnalyzer{}, 2)
	results := b.Process(context.Background(), nil)
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestReadInputsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inputs.txt")
	content := `# threat reports to analyze
report-1.txt

report-2.txt
report-1.txt
https://example.com/apt-report
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	inputs, err := ReadInputsFromFile(path)
	if err != nil {
		t.Fatalf("ReadInputsFromFile: %v", err)
	}

	want := []string{"report-1.txt", "report-2.txt", "https://example.com/apt-report"}
	if fmt.Sprint(inputs) != fmt.Sprint(want) {
		t.Errorf("inputs = %v, want %v", inputs, want)
	}
}

func TestReadInputsMissingFile(t *testing.T) {
	if _, err := ReadInputsFromFile("/nonexistent/inputs.txt"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
