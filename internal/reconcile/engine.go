package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"steamgog/internal/catalog"
	"steamgog/internal/logging"
	"steamgog/internal/titlenorm"
)

// Options tune a reconciliation run.
type Options struct {
	// MinSubstringLen is the shortest normalized title the containment tier
	// will consider. Short keys like "rez" match half the catalog.
	MinSubstringLen int
}

// DefaultMinSubstringLen guards the containment tier against trivially
// common keys.
const DefaultMinSubstringLen = 6

// Metrics summarizes what one reconciliation run changed.
type Metrics struct {
	Seeded            int64
	MatchedExact      int
	MatchedNormalized int
	MatchedSubstring  int
	SkippedAmbiguous  int
	StillUnmatched    int64
}

// Matched is the total number of claims this run made across all tiers.
func (m Metrics) Matched() int {
	return m.MatchedExact + m.MatchedNormalized + m.MatchedSubstring
}

// Engine runs the tiered matching passes over the catalog store.
//
// Tiers run strictest first: raw-title equality, then normalized-title
// equality, then unique normalized containment. A row claimed by one tier is
// invisible to every later tier, and each claimed product can back at most
// one assignment.
type Engine struct {
	store  *catalog.Store
	logger *slog.Logger
	opts   Options
}

// NewEngine builds an engine over the given store.
func NewEngine(store *catalog.Store, logger *slog.Logger, opts Options) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.MinSubstringLen <= 0 {
		opts.MinSubstringLen = DefaultMinSubstringLen
	}
	return &Engine{
		store:  store,
		logger: logging.WithComponent(logger, "reconcile"),
		opts:   opts,
	}
}

// Run executes a full reconciliation: seed assignments for new library rows,
// refresh the normalization cache, then the three matching tiers. Each step
// commits as its own transaction, so a failed tier leaves earlier tiers'
// claims in place and the run can simply be repeated.
func (e *Engine) Run(ctx context.Context) (Metrics, error) {
	runID := uuid.NewString()
	logger := e.logger.With(logging.FieldRunID, runID)

	var metrics Metrics

	err := e.store.Batch(ctx, func(b *catalog.Batch) error {
		seeded, err := b.SeedAssignments(ctx)
		if err != nil {
			return err
		}
		metrics.Seeded = seeded
		return nil
	})
	if err != nil {
		return metrics, fmt.Errorf("seed assignments: %w", err)
	}
	logger.Info("assignments seeded", "new_rows", metrics.Seeded)

	if err := e.refreshNormalizedTitles(ctx, logger); err != nil {
		return metrics, err
	}

	if err := e.runExactPass(ctx, logger, &metrics); err != nil {
		return metrics, fmt.Errorf("exact pass: %w", err)
	}
	if err := e.runNormalizedPass(ctx, logger, &metrics); err != nil {
		return metrics, fmt.Errorf("normalized pass: %w", err)
	}
	if err := e.runSubstringPass(ctx, logger, &metrics); err != nil {
		return metrics, fmt.Errorf("substring pass: %w", err)
	}

	err = e.store.Batch(ctx, func(b *catalog.Batch) error {
		unmatched, err := b.CountUnmatched(ctx)
		if err != nil {
			return err
		}
		metrics.StillUnmatched = unmatched
		return nil
	})
	if err != nil {
		return metrics, fmt.Errorf("count unmatched: %w", err)
	}

	logger.Info("reconciliation finished",
		"seeded", metrics.Seeded,
		"exact", metrics.MatchedExact,
		"normalized", metrics.MatchedNormalized,
		"substring", metrics.MatchedSubstring,
		"ambiguous", metrics.SkippedAmbiguous,
		"unmatched", metrics.StillUnmatched)
	return metrics, nil
}

// refreshNormalizedTitles fills the normalization cache for products that
// lack one, including products whose title changed on re-ingest.
func (e *Engine) refreshNormalizedTitles(ctx context.Context, logger *slog.Logger) error {
	var refreshed int
	err := e.store.Batch(ctx, func(b *catalog.Batch) error {
		products, err := b.ProductsMissingNormalizedTitle(ctx)
		if err != nil {
			return err
		}
		for _, product := range products {
			if err := b.SetNormalizedTitle(ctx, product.GOGID, titlenorm.Normalize(product.Title)); err != nil {
				return err
			}
			refreshed++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("refresh normalized titles: %w", err)
	}
	if refreshed > 0 {
		logger.Info("normalized titles refreshed", "products", refreshed)
	}
	return nil
}

func (e *Engine) runExactPass(ctx context.Context, logger *slog.Logger, metrics *Metrics) error {
	return e.store.Batch(ctx, func(b *catalog.Batch) error {
		pending, err := b.UnmatchedAssignments(ctx)
		if err != nil {
			return err
		}
		for _, assignment := range pending {
			gogID, found, err := b.ExactCandidate(ctx, assignment.Title)
			if err != nil {
				return err
			}
			if !found {
				continue
			}
			claimed, err := b.Claim(ctx, assignment.AppID, gogID, catalog.MethodExact, catalog.ScoreExact)
			if err != nil {
				return err
			}
			if claimed {
				metrics.MatchedExact++
				logger.Debug("exact match", "appid", assignment.AppID, "gog_id", gogID)
			}
		}
		return nil
	})
}

// runNormalizedPass matches on normalized-title equality. The candidate
// query counts claimed products too: if a library title normalizes to a key
// shared by two products, claiming one of them earlier must not make the
// other look unique here.
func (e *Engine) runNormalizedPass(ctx context.Context, logger *slog.Logger, metrics *Metrics) error {
	return e.store.Batch(ctx, func(b *catalog.Batch) error {
		pending, err := b.UnmatchedAssignments(ctx)
		if err != nil {
			return err
		}
		for _, assignment := range pending {
			key := titlenorm.Normalize(assignment.Title)
			if key == "" {
				continue
			}
			candidates, err := b.NormalizedCandidates(ctx, key, 2)
			if err != nil {
				return err
			}
			if len(candidates) != 1 {
				continue
			}
			claimed, err := b.IsClaimed(ctx, candidates[0])
			if err != nil {
				return err
			}
			if claimed {
				continue
			}
			landed, err := b.Claim(ctx, assignment.AppID, candidates[0], catalog.MethodNormalized, catalog.ScoreNormalized)
			if err != nil {
				return err
			}
			if landed {
				metrics.MatchedNormalized++
				logger.Debug("normalized match", "appid", assignment.AppID, "gog_id", candidates[0])
			}
		}
		return nil
	})
}

// runSubstringPass matches when exactly one unclaimed product's normalized
// title contains the library game's normalized title. Two or more containing
// products means the key is ambiguous and the row stays unmatched.
func (e *Engine) runSubstringPass(ctx context.Context, logger *slog.Logger, metrics *Metrics) error {
	return e.store.Batch(ctx, func(b *catalog.Batch) error {
		pending, err := b.UnmatchedAssignments(ctx)
		if err != nil {
			return err
		}
		for _, assignment := range pending {
			key := titlenorm.Normalize(assignment.Title)
			if len(key) < e.opts.MinSubstringLen {
				continue
			}
			candidates, err := b.SubstringCandidates(ctx, key, 2)
			if err != nil {
				return err
			}
			switch len(candidates) {
			case 0:
				continue
			case 1:
				landed, err := b.Claim(ctx, assignment.AppID, candidates[0], catalog.MethodSubstring, catalog.ScoreSubstring)
				if err != nil {
					return err
				}
				if landed {
					metrics.MatchedSubstring++
					logger.Debug("substring match", "appid", assignment.AppID, "gog_id", candidates[0])
				}
			default:
				metrics.SkippedAmbiguous++
				logger.Debug("ambiguous substring key", "appid", assignment.AppID, "key", key)
			}
		}
		return nil
	})
}
