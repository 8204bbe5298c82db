// Package xray is the tracing SDK for multi-stage decision pipelines.
//
// A Recorder wraps each unit of work in a pipeline run, timing it and
// capturing its input, output, free-text reasoning, and per-candidate
// evaluations. Failures are recorded into the step and re-raised unchanged,
// so the pipeline owner decides whether to halt. Finalize assembles the
// completed Trace for submission to the trace store.
//
// Example Usage:
//
//	rec := xray.NewRecorder("Competitor Analysis", input, logger)
//	keywords, err := xray.Run(ctx, rec, xray.StepSpec{
//		Name: "Generate Search Keywords",
//		Type: xray.StepLLM,
//		Input: input.Title,
//	}, func(ctx context.Context, log *xray.StepLogger) ([]string, error) {
//		log.LogReasoning("Extracted core product attributes.")
//		return []string{"insulated bottle"}, nil
//	})
//	...
//	trace := rec.Finalize()
package xray
