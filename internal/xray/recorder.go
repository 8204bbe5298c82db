package xray

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/competitor-xray/backend/internal/logging"
	"github.com/competitor-xray/backend/internal/shared/id"
)

// StepSpec describes a unit of work before it runs. Input is captured at
// call time and serialized when the trace is read, not copied.
type StepSpec struct {
	Name  string
	Type  StepType
	Input interface{}
}

// StepLogger is the capability handed to step work functions.
type StepLogger struct {
	reasoning string
	evals     []Evaluation
}

// LogReasoning records the step's reasoning. Last write wins; a step keeps
// exactly one reasoning string.
func (l *StepLogger) LogReasoning(msg string) {
	l.reasoning = msg
}

// LogEval appends a candidate evaluation to the step. Missing IDs are
// filled in so every evaluation is addressable.
func (l *StepLogger) LogEval(e Evaluation) {
	if e.ID == "" {
		e.ID = id.NewEvalID().String()
	}
	l.evals = append(l.evals, e)
}

// Recorder captures the steps of one pipeline run. A run executes its
// stages strictly sequentially; the mutex only guards against misuse, it is
// not a license to run steps concurrently.
type Recorder struct {
	workflowName string
	initialInput interface{}
	logger       *logging.Logger

	mu    sync.Mutex
	steps []Step
}

// NewRecorder creates a recorder for one pipeline run.
func NewRecorder(workflowName string, initialInput interface{}, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Recorder{
		workflowName: workflowName,
		initialInput: initialInput,
		logger:       logger.Named("xray"),
	}
}

// WorkFunc is one unit of traced work.
type WorkFunc func(ctx context.Context, log *StepLogger) (interface{}, error)

// Step executes work, records exactly one step regardless of outcome, and
// passes the work's result or error through unchanged.
//
// On success the step holds the returned value as its output. On failure
// the step's output is ErrorOutput{err.Error()} and, when the work logged
// no reasoning, a "Step failed: ..." default; the original error is
// returned so the caller decides whether to halt the pipeline.
func (r *Recorder) Step(ctx context.Context, spec StepSpec, work WorkFunc) (interface{}, error) {
	start := time.Now()
	stepLog := &StepLogger{}

	out, err := work(ctx, stepLog)

	step := Step{
		ID:         id.NewStepID().String(),
		Name:       spec.Name,
		Type:       spec.Type,
		Input:      spec.Input,
		Reasoning:  stepLog.reasoning,
		DurationMs: time.Since(start).Milliseconds(),
		Timestamp:  time.Now(),
	}

	if err != nil {
		step.Output = ErrorOutput{Error: err.Error()}
		if step.Reasoning == "" {
			step.Reasoning = "Step failed: " + err.Error()
		}
		// Evaluations logged before the failure are dropped with the
		// output they annotated; the error marker is the step's payload.
	} else {
		step.Output = out
		step.Evaluations = stepLog.evals
	}

	r.append(step)

	fields := []zap.Field{
		zap.String("step_id", step.ID),
		zap.String("step", spec.Name),
		zap.String("type", string(spec.Type)),
		zap.Int64("duration_ms", step.DurationMs),
	}
	if err != nil {
		r.logger.Warn("step failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	r.logger.Debug("step completed", fields...)
	return out, nil
}

func (r *Recorder) append(step Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, step)
}

// Steps returns a snapshot of the recorded steps in execution order.
func (r *Recorder) Steps() []Step {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Step, len(r.steps))
	copy(out, r.steps)
	return out
}

// Finalize assembles the completed trace. The trace is failed iff at least
// one step carries an error marker. Call once, after the last step.
func (r *Recorder) Finalize() *Trace {
	r.mu.Lock()
	defer r.mu.Unlock()

	steps := make([]Step, len(r.steps))
	copy(steps, r.steps)

	status := StatusSuccess
	for _, s := range steps {
		if s.Failed() {
			status = StatusFailed
			break
		}
	}

	return &Trace{
		ID:           id.NewTraceID().String(),
		WorkflowName: r.workflowName,
		InitialInput: r.initialInput,
		Steps:        steps,
		Status:       status,
		CreatedAt:    time.Now(),
	}
}

// Run executes typed work through the recorder, preserving the result type
// so pipeline stages can chain without assertions.
func Run[T any](ctx context.Context, r *Recorder, spec StepSpec, work func(ctx context.Context, log *StepLogger) (T, error)) (T, error) {
	out, err := r.Step(ctx, spec, func(ctx context.Context, log *StepLogger) (interface{}, error) {
		return work(ctx, log)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out.(T), nil
}
