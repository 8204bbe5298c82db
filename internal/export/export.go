// Package export extracts failed steps from stored traces and renders
// them as downloadable CSV or JSON reports.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/competitor-xray/backend/internal/xray"
)

// ErrorLog is one failed step flattened for export. Timestamps are
// RFC 3339 strings so both output formats render them identically.
type ErrorLog struct {
	TraceID        string `json:"traceId"`
	WorkflowName   string `json:"workflowName"`
	StepID         string `json:"stepId"`
	StepName       string `json:"stepName"`
	StepType       string `json:"stepType"`
	ErrorMessage   string `json:"errorMessage"`
	Timestamp      string `json:"timestamp"`
	TraceCreatedAt string `json:"traceCreatedAt"`
	StepDurationMs int64  `json:"stepDurationMs"`
	StepInput      string `json:"stepInput"`
	StepReasoning  string `json:"stepReasoning"`
}

// Metadata describes one export run.
type Metadata struct {
	ExportDate  string `json:"exportDate"`
	TotalErrors int    `json:"totalErrors"`
	Format      string `json:"format"`
}

// Report is the JSON export envelope.
type Report struct {
	Metadata Metadata   `json:"metadata"`
	Errors   []ErrorLog `json:"errors"`
}

// ExtractErrorLogs walks every step of every trace and collects those
// whose output carries an error marker, in storage order.
func ExtractErrorLogs(traces []xray.Trace) []ErrorLog {
	var logs []ErrorLog
	for _, trace := range traces {
		for _, step := range trace.Steps {
			msg := step.ErrorMessage()
			if msg == "" {
				continue
			}
			logs = append(logs, ErrorLog{
				TraceID:        orUnknown(trace.ID),
				WorkflowName:   orUnknown(trace.WorkflowName),
				StepID:         orUnknown(step.ID),
				StepName:       orUnknown(step.Name),
				StepType:       orUnknown(string(step.Type)),
				ErrorMessage:   msg,
				Timestamp:      formatTime(step.Timestamp, trace.CreatedAt),
				TraceCreatedAt: formatTime(trace.CreatedAt, time.Time{}),
				StepDurationMs: step.DurationMs,
				StepInput:      marshalInput(step.Input),
				StepReasoning:  step.Reasoning,
			})
		}
	}
	return logs
}

// CSVHeaders is the column order of the CSV export.
var CSVHeaders = []string{
	"Trace ID",
	"Workflow Name",
	"Step ID",
	"Step Name",
	"Step Type",
	"Error Message",
	"Step Timestamp",
	"Trace Created At",
	"Step Duration (ms)",
	"Step Input",
	"Step Reasoning",
}

// ToCSV renders the logs as a CSV document. An empty log set yields a
// human-readable placeholder instead of a bare header row.
func ToCSV(logs []ErrorLog) (string, error) {
	if len(logs) == 0 {
		return "No error logs found", nil
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(CSVHeaders); err != nil {
		return "", fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, log := range logs {
		record := []string{
			log.TraceID,
			log.WorkflowName,
			log.StepID,
			log.StepName,
			log.StepType,
			log.ErrorMessage,
			log.Timestamp,
			log.TraceCreatedAt,
			strconv.FormatInt(log.StepDurationMs, 10),
			log.StepInput,
			log.StepReasoning,
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to write csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}
	return sb.String(), nil
}

// NewReport wraps the logs in the JSON export envelope.
func NewReport(logs []ErrorLog, now time.Time) Report {
	if logs == nil {
		logs = []ErrorLog{}
	}
	return Report{
		Metadata: Metadata{
			ExportDate:  now.UTC().Format(time.RFC3339),
			TotalErrors: len(logs),
			Format:      "json",
		},
		Errors: logs,
	}
}

// Filename returns the attachment filename for the given format and day.
func Filename(format string, now time.Time) string {
	return fmt.Sprintf("error-logs-%s.%s", now.UTC().Format("2006-01-02"), format)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func formatTime(t, fallback time.Time) string {
	if t.IsZero() {
		t = fallback
	}
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339)
}

// marshalInput serializes a step input for the flat export row. Inputs
// that cannot marshal degrade to their Go string form rather than
// aborting the export.
func marshalInput(input interface{}) string {
	if input == nil {
		return "{}"
	}
	b, err := json.Marshal(input)
	if err != nil {
		return fmt.Sprintf("%v", input)
	}
	return string(b)
}
