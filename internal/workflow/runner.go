package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/competitor-xray/backend/internal/catalog"
	"github.com/competitor-xray/backend/internal/logging"
	"github.com/competitor-xray/backend/internal/xray"
)

// TraceSink receives finalized traces. Satisfied by the trace store.
type TraceSink interface {
	Append(*xray.Trace) string
}

// Metrics receives pipeline measurements. Satisfied by the monitoring
// package; nil-safe.
type Metrics interface {
	RecordRun(status string, duration time.Duration)
	RecordStage(stage string, stepType string, duration time.Duration, failed bool)
}

// CategoryContext supplies category-specific keyword and mock-candidate
// lookups. *catalog.Category satisfies it; nil falls back to the generic
// datasets.
type CategoryContext interface {
	Name() string
	Keywords(catalog.Item) []string
	Candidates(catalog.Item) []catalog.Candidate
}

// Stage numbers for failure injection.
const (
	stageKeywords = 1 + iota
	stageRetrieve
	stageFilter
	stageRelevance
	stageRanking
)

// Per-stage default messages when a test case injects a failure without a
// reason.
var stageDefaults = map[int]string{
	stageKeywords:  "LLM service unavailable",
	stageRetrieve:  "API service unavailable",
	stageFilter:    "Filter service unavailable",
	stageRelevance: "LLM evaluation service unavailable",
	stageRanking:   "Ranking service unavailable",
}

var stageActions = map[int]string{
	stageKeywords:  "generate keywords",
	stageRetrieve:  "retrieve candidates",
	stageFilter:    "apply filters",
	stageRelevance: "evaluate relevance",
	stageRanking:   "rank candidates",
}

// Runner executes competitor selection pipelines. One Runner serves
// concurrent runs; each run owns its own Recorder and only shares the
// trace sink and randomness source.
type Runner struct {
	sink    TraceSink
	logger  *logging.Logger
	metrics Metrics
	rand    Rand
}

// Option configures a Runner.
type Option func(*Runner)

// WithRand overrides the randomness source for the relevance stage.
func WithRand(r Rand) Option {
	return func(rn *Runner) { rn.rand = r }
}

// WithMetrics wires pipeline metrics.
func WithMetrics(m Metrics) Option {
	return func(rn *Runner) { rn.metrics = m }
}

// NewRunner creates a pipeline runner writing into sink.
func NewRunner(sink TraceSink, logger *logging.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{
		sink:   sink,
		logger: logger.Named("workflow"),
		rand:   NewTimeSeededRand(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunCompetitorSelection runs the five-stage pipeline for one item and
// always submits a finalized trace, failed or not. The returned trace
// carries the ID it was stored under.
func (r *Runner) RunCompetitorSelection(ctx context.Context, item catalog.Item, category CategoryContext) *xray.Trace {
	workflowName := "Amazon Competitor Selection"
	if category != nil {
		workflowName = category.Name() + " - Competitor Analysis"
	}

	runID := uuid.New().String()
	runLog := r.logger.With(zap.String("run_id", runID), zap.String("item", item.Title))
	start := time.Now()

	rec := xray.NewRecorder(workflowName, item, r.logger)

	if err := r.runStages(ctx, rec, item, category); err != nil {
		// Already captured in the failing step; the trace records the
		// failure, so the error stops here.
		runLog.Info("pipeline aborted", zap.Error(err))
	}

	trace := rec.Finalize()
	trace.ID = r.sink.Append(trace)

	if r.metrics != nil {
		r.metrics.RecordRun(string(trace.Status), time.Since(start))
		for _, step := range trace.Steps {
			r.metrics.RecordStage(step.Name, string(step.Type),
				time.Duration(step.DurationMs)*time.Millisecond, step.Failed())
		}
	}
	runLog.Info("pipeline finished",
		zap.String("trace_id", trace.ID),
		zap.String("status", string(trace.Status)),
		zap.Int("steps", len(trace.Steps)),
	)
	return trace
}

// runStages chains the five stages; the first error aborts the rest.
func (r *Runner) runStages(ctx context.Context, rec *xray.Recorder, item catalog.Item, category CategoryContext) error {
	keywords, err := r.generateKeywords(ctx, rec, item, category)
	if err != nil {
		return err
	}

	candidates, err := r.retrieveCandidates(ctx, rec, item, category, keywords)
	if err != nil {
		return err
	}

	filtered, err := r.applyBusinessFilters(ctx, rec, item, candidates)
	if err != nil {
		return err
	}

	evaluated, err := r.evaluateRelevance(ctx, rec, item, filtered)
	if err != nil {
		return err
	}

	_, err = r.rankAndSelect(ctx, rec, item, evaluated)
	return err
}

// injected returns the forced error for this stage, if the item carries
// one, after logging the attempted action.
func injected(item catalog.Item, stage int, log *xray.StepLogger) error {
	if item.FailureStep != stage {
		return nil
	}
	reason := item.FailureReason
	if reason == "" {
		reason = stageDefaults[stage]
	}
	log.LogReasoning(fmt.Sprintf("Attempted to %s but encountered error: %s", stageActions[stage], reason))
	return errors.New(reason)
}

// Stage 1: derive search keywords from the item title.
func (r *Runner) generateKeywords(ctx context.Context, rec *xray.Recorder, item catalog.Item, category CategoryContext) ([]string, error) {
	return xray.Run(ctx, rec, xray.StepSpec{
		Name:  "Generate Search Keywords",
		Type:  xray.StepLLM,
		Input: item.Title,
	}, func(ctx context.Context, log *xray.StepLogger) ([]string, error) {
		if err := injected(item, stageKeywords, log); err != nil {
			return nil, err
		}

		keywords := genericKeywords
		if category != nil {
			keywords = category.Keywords(item)
		}

		log.LogReasoning("Extracted core product attributes while stripping brand name and promotional phrases.")
		return keywords, nil
	})
}

// Stage 2: mock search API returning candidate products.
func (r *Runner) retrieveCandidates(ctx context.Context, rec *xray.Recorder, item catalog.Item, category CategoryContext, keywords []string) ([]catalog.Candidate, error) {
	return xray.Run(ctx, rec, xray.StepSpec{
		Name:  "Retrieve Candidates",
		Type:  xray.StepAPI,
		Input: map[string]interface{}{"keywords": keywords},
	}, func(ctx context.Context, log *xray.StepLogger) ([]catalog.Candidate, error) {
		if err := injected(item, stageRetrieve, log); err != nil {
			return nil, err
		}

		candidates := genericCandidates
		if category != nil {
			candidates = category.Candidates(item)
		}

		log.LogReasoning(fmt.Sprintf("Search returned %d items from the indexed catalog.", len(candidates)))
		return candidates, nil
	})
}

// Stage 3: retain candidates inside the price band with sufficient rating
// and review volume. Every candidate gets an evaluation with exactly one
// reason, chosen by priority: price low, price high, rating, reviews.
func (r *Runner) applyBusinessFilters(ctx context.Context, rec *xray.Recorder, item catalog.Item, candidates []catalog.Candidate) ([]catalog.Candidate, error) {
	return xray.Run(ctx, rec, xray.StepSpec{
		Name:  "Apply Business Filters",
		Type:  xray.StepFilter,
		Input: map[string]interface{}{"count": len(candidates)},
	}, func(ctx context.Context, log *xray.StepLogger) ([]catalog.Candidate, error) {
		if err := injected(item, stageFilter, log); err != nil {
			return nil, err
		}

		// Expensive items get a wider band below the prospect's price.
		threshold := 0.5
		if item.Price >= 1000 {
			threshold = 0.4
		}
		lowBound := item.Price * threshold
		highBound := item.Price * 1.5

		var filtered []catalog.Candidate
		for _, c := range candidates {
			rightPrice := c.Price >= lowBound && c.Price <= highBound
			highRating := c.Rating >= 4.0
			popular := c.Reviews > 100
			passed := rightPrice && highRating && popular

			var reason string
			switch {
			case c.Price < lowBound:
				reason = "Price point too low to be a direct competitor"
			case c.Price > highBound:
				reason = "Price point too high to be a direct competitor"
			case !highRating:
				reason = "Rating below quality threshold"
			case !popular:
				reason = "Insufficient market data (reviews < 100)"
			default:
				reason = "Strong competitor match"
			}

			log.LogEval(xray.Evaluation{
				ID:     c.ID,
				Label:  c.Title,
				Passed: passed,
				Reason: reason,
			})

			if passed {
				filtered = append(filtered, c)
			}
		}

		log.LogReasoning(fmt.Sprintf(
			"Narrowed %d candidates down to %d based on price range (%s-%s), rating threshold (≥4.0), and review count (≥100).",
			len(candidates), len(filtered), formatPrice(lowBound), formatPrice(highBound)))

		if len(filtered) == 0 {
			return nil, errors.New("No candidates passed the business filters")
		}
		return filtered, nil
	})
}

// Stage 4: simulated LLM relevance judgment over each filtered candidate.
// Acceptance is drawn at 80% probability; accepted candidates score in
// [0.7, 1.0), rejected in [0, 0.3).
func (r *Runner) evaluateRelevance(ctx context.Context, rec *xray.Recorder, item catalog.Item, filtered []catalog.Candidate) ([]EvaluatedCandidate, error) {
	titles := make([]string, len(filtered))
	for i, c := range filtered {
		titles[i] = c.Title
	}

	return xray.Run(ctx, rec, xray.StepSpec{
		Name:  "LLM Relevance Evaluation",
		Type:  xray.StepLLM,
		Input: map[string]interface{}{"prospect": item.Title, "candidates": titles},
	}, func(ctx context.Context, log *xray.StepLogger) ([]EvaluatedCandidate, error) {
		if err := injected(item, stageRelevance, log); err != nil {
			return nil, err
		}

		var relevant []EvaluatedCandidate
		eliminated := 0
		for _, c := range filtered {
			isRelevant := r.rand.Float64() > 0.2
			score := r.rand.Float64() * 0.3
			if isRelevant {
				score += 0.7
			}

			reason := fmt.Sprintf("Product is a false positive - different use case or category mismatch. Relevance score: %.2f", score)
			if isRelevant {
				reason = fmt.Sprintf("Product matches core attributes and use case. Semantic similarity score: %.2f", score)
			}

			log.LogEval(xray.Evaluation{
				ID:     c.ID,
				Label:  c.Title,
				Passed: isRelevant,
				Reason: reason,
			})

			if isRelevant {
				relevant = append(relevant, EvaluatedCandidate{
					Candidate:      c,
					RelevanceScore: score,
					Relevant:       true,
				})
			} else {
				eliminated++
			}
		}

		log.LogReasoning(fmt.Sprintf(
			"LLM evaluation eliminated %d false positives. %d candidates remain with high semantic relevance.",
			eliminated, len(relevant)))

		if len(relevant) == 0 {
			return nil, errors.New("All candidates eliminated as false positives by LLM evaluation")
		}
		return relevant, nil
	})
}

// Stage 5: rank survivors by composite score and select the winner.
// Weights: relevance 40%, reviews 30% (normalized at 20k), rating 20%,
// price proximity 10%.
func (r *Runner) rankAndSelect(ctx context.Context, rec *xray.Recorder, item catalog.Item, evaluated []EvaluatedCandidate) (RankedCandidate, error) {
	return xray.Run(ctx, rec, xray.StepSpec{
		Name:  "Rank and Select Best Competitor",
		Type:  xray.StepRanking,
		Input: map[string]interface{}{"count": len(evaluated)},
	}, func(ctx context.Context, log *xray.StepLogger) (RankedCandidate, error) {
		if err := injected(item, stageRanking, log); err != nil {
			return RankedCandidate{}, err
		}

		ranked := make([]RankedCandidate, 0, len(evaluated))
		for _, c := range evaluated {
			relevanceWeight := c.RelevanceScore * 0.4
			reviewsWeight := min(float64(c.Reviews)/20000, 1) * 0.3
			ratingWeight := c.Rating / 5 * 0.2
			priceMatchWeight := (1 - abs(c.Price-item.Price)/item.Price) * 0.1

			ranked = append(ranked, RankedCandidate{
				EvaluatedCandidate: c,
				CompositeScore:     relevanceWeight + reviewsWeight + ratingWeight + priceMatchWeight,
				RankingFactors: RankingFactors{
					Relevance:  formatFactor(relevanceWeight),
					Reviews:    formatFactor(reviewsWeight),
					Rating:     formatFactor(ratingWeight),
					PriceMatch: formatFactor(priceMatchWeight),
				},
			})
		}

		// Ties keep insertion order.
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].CompositeScore > ranked[j].CompositeScore
		})

		for i, c := range ranked {
			if i >= 3 {
				break
			}
			log.LogEval(xray.Evaluation{
				ID:     c.ID,
				Label:  fmt.Sprintf("%d. %s", i+1, c.Title),
				Passed: i == 0,
				Reason: fmt.Sprintf("Composite score: %.3f (relevance: %s, reviews: %s, rating: %s, price: %s)",
					c.CompositeScore, c.RankingFactors.Relevance, c.RankingFactors.Reviews,
					c.RankingFactors.Rating, c.RankingFactors.PriceMatch),
			})
		}

		winner := ranked[0]
		log.LogReasoning(fmt.Sprintf(
			"Selected %q as the best competitor with composite score of %.3f.",
			winner.Title, winner.CompositeScore))
		return winner, nil
	})
}

func formatFactor(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// formatPrice renders a price bound the way the original dashboard showed
// it: shortest decimal form, no trailing zeros.
func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
