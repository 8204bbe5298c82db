// Package workflow runs the five-stage competitor selection pipeline over
// the xray tracing SDK.
//
// Stages run strictly in order: keyword generation, candidate retrieval,
// business filtering, relevance evaluation, ranking. A stage failure,
// whether injected by the test case or natural (an empty filter result),
// aborts the remaining stages but never the trace: the runner catches the
// error at the pipeline boundary and always finalizes and submits the
// trace, so a failed run is fully visible in the store with the failing
// step last.
//
// The simulated LLM relevance judgment draws from an injectable, seedable
// randomness source so tests can assert exact outcomes.
package workflow
