package id

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1.String() == id2.String() {
		t.Error("Generated IDs should be unique")
	}
}

func TestGenerateString(t *testing.T) {
	gen := NewGenerator()

	id := gen.GenerateString()

	if len(id) != 26 {
		t.Errorf("ULID should be 26 characters, got %d", len(id))
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator()

	tests := []struct {
		prefix string
	}{
		{TracePrefix},
		{StepPrefix},
		{EvalPrefix},
		{RunPrefix},
	}

	for _, tt := range tests {
		id := gen.GenerateWithPrefix(tt.prefix)

		if !strings.HasPrefix(id, tt.prefix+"_") {
			t.Errorf("ID should start with '%s_', got: %s", tt.prefix, id)
		}

		parts := strings.Split(id, "_")
		if len(parts) != 2 {
			t.Errorf("Prefixed ID should have format 'prefix_ulid', got: %s", id)
		}

		if !IsValid(parts[1]) {
			t.Errorf("ULID part should be valid: %s", parts[1])
		}
	}
}

func TestTypedGenerators(t *testing.T) {
	traceID := NewTraceID()
	if !strings.HasPrefix(traceID.String(), "trace_") {
		t.Errorf("Trace ID should have trace_ prefix: %s", traceID)
	}

	stepID := NewStepID()
	if !strings.HasPrefix(stepID.String(), "step_") {
		t.Errorf("Step ID should have step_ prefix: %s", stepID)
	}

	evalID := NewEvalID()
	if !strings.HasPrefix(evalID.String(), "eval_") {
		t.Errorf("Eval ID should have eval_ prefix: %s", evalID)
	}
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator()
	const workers = 10
	const perWorker = 100

	var mu sync.Mutex
	seen := make(map[string]bool)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				id := gen.GenerateString()
				mu.Lock()
				if seen[id] {
					t.Errorf("Duplicate ID generated: %s", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("Expected %d unique IDs, got %d", workers*perWorker, len(seen))
	}
}

func TestTimestampExtraction(t *testing.T) {
	gen := NewGenerator()
	before := time.Now().Add(-time.Second)

	id := gen.GenerateString()

	ts, err := Timestamp(id)
	if err != nil {
		t.Fatalf("Timestamp extraction failed: %v", err)
	}

	if ts.Before(before) || ts.After(time.Now().Add(time.Second)) {
		t.Errorf("Extracted timestamp out of range: %v", ts)
	}
}

func TestBase36Millis(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	got := Base36Millis(at)
	if got != "loyw3v28" {
		t.Errorf("Base36Millis(1700000000000) = %s, want loyw3v28", got)
	}
}
