package xray

import "time"

// StepType classifies the kind of work a step performed.
type StepType string

const (
	StepLLM     StepType = "llm"
	StepAPI     StepType = "api"
	StepFilter  StepType = "filter"
	StepRanking StepType = "ranking"
	StepGeneric StepType = "generic"
)

// Status is the overall outcome of a trace.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Evaluation is one candidate's pass/fail verdict within a step.
// Ordering is insertion order and is significant (top-N displays).
type Evaluation struct {
	ID       string      `json:"id"`
	Label    string      `json:"label"`
	Passed   bool        `json:"passed"`
	Reason   string      `json:"reason"`
	Metadata interface{} `json:"metadata,omitempty"`
}

// Step records one pipeline stage's execution.
type Step struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Type        StepType     `json:"type"`
	Input       interface{}  `json:"input"`
	Output      interface{}  `json:"output"`
	Reasoning   string       `json:"reasoning"`
	Evaluations []Evaluation `json:"evaluations,omitempty"`
	DurationMs  int64        `json:"durationMs"`
	Timestamp   time.Time    `json:"timestamp"`
}

// Trace is the full record of one pipeline run.
type Trace struct {
	ID           string      `json:"id"`
	WorkflowName string      `json:"workflowName"`
	InitialInput interface{} `json:"initialInput"`
	Steps        []Step      `json:"steps"`
	Status       Status      `json:"status"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// ErrorOutput is the error marker a failed step carries as its output.
type ErrorOutput struct {
	Error string `json:"error"`
}

// Failed reports whether the step's output carries an error marker.
// Outputs that round-tripped through JSON arrive as maps, so both the
// native and decoded shapes are recognized.
func (s Step) Failed() bool {
	return s.ErrorMessage() != ""
}

// ErrorMessage returns the step's error message, or "" on success.
func (s Step) ErrorMessage() string {
	switch out := s.Output.(type) {
	case ErrorOutput:
		return out.Error
	case *ErrorOutput:
		if out != nil {
			return out.Error
		}
	case map[string]interface{}:
		if msg, ok := out["error"].(string); ok {
			return msg
		}
	case map[string]string:
		return out["error"]
	}
	return ""
}

// Failed reports whether any step in the trace failed.
func (t Trace) Failed() bool {
	for _, s := range t.Steps {
		if s.Failed() {
			return true
		}
	}
	return false
}
