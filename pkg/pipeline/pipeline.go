// Package pipeline runs the amendment ingestion stages over one batch:
// rows are normalized concurrently, then, once every row is done, the
// batch is enriched, merged with the discussion order and sorted.
package pipeline

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MelodieDahi/zam/pkg/amendement"
	"github.com/MelodieDahi/zam/pkg/errs"
	"github.com/MelodieDahi/zam/pkg/reconcile"
)

// DiscussionRow is one amendment of a discussion-order feed with the
// label of the subdivision it is listed under.
type DiscussionRow struct {
	Subdivision string
	Row         amendement.Row
}

// Input is one batch of raw rows for a single scope.
type Input struct {
	Deposits   []amendement.Row
	Discussion []DiscussionRow
	Registry   amendement.Registry
	Normalizer amendement.Normalizer
}

// Source tells which feed a row came from.
type Source string

const (
	SourceDeposit    Source = "deposit"
	SourceDiscussion Source = "discussion"
)

// RowError is a row that could not be normalized.
type RowError struct {
	Source Source
	Index  int
	// Num is the raw numbering token of the row, for display.
	Num string
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s row %d (%s): %v", e.Source, e.Index, e.Num, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Report accounts for every row of a batch.
type Report struct {
	Rows         int
	Normalized   int
	ParseErrors  []RowError
	LookupMisses []errs.LookupMiss
}

// Err combines the row errors, or returns nil when there are none.
func (r Report) Err() error {
	var combined error
	for _, rowErr := range r.ParseErrors {
		combined = multierr.Append(combined, rowErr)
	}
	return combined
}

// Errored returns the numbering tokens of the deposit rows that failed.
func (r Report) Errored() []string {
	var errored []string
	for _, rowErr := range r.ParseErrors {
		if rowErr.Source == SourceDeposit {
			errored = append(errored, rowErr.Num)
		}
	}
	return errored
}

// Fields renders the report as structured log fields.
func (r Report) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("rows", r.Rows),
		zap.Int("normalized", r.Normalized),
		zap.Int("parse_errors", len(r.ParseErrors)),
		zap.Int("lookup_misses", len(r.LookupMisses)),
	}
}

// Result is the reconciled batch in canonical order.
type Result struct {
	Amendements []amendement.Amendement
	Report      Report
}

// Pipeline holds the settings of a run.
type Pipeline struct {
	// Workers bounds concurrent normalization; zero means GOMAXPROCS.
	Workers int
	Logger  *zap.Logger
	Options reconcile.Options
}

// New returns a pipeline with the given worker bound.
func New(workers int, logger *zap.Logger, opts reconcile.Options) *Pipeline {
	return &Pipeline{Workers: workers, Logger: logger, Options: opts}
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

type normalized struct {
	amendement amendement.Amendement
	err        error
}

// Run normalizes every row, then enriches, merges and sorts the batch.
// Row-level failures are reported, never returned; only cancellation of
// ctx aborts the run.
func (p *Pipeline) Run(ctx context.Context, input Input) (*Result, error) {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	deposits := make([]normalized, len(input.Deposits))
	scheduled := make([]normalized, len(input.Discussion))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for rowIndex, row := range input.Deposits {
		group.Go(func() error {
			if ctxErr := groupCtx.Err(); ctxErr != nil {
				return ctxErr
			}
			a, parseErr := input.Normalizer.FromDeposit(row)
			deposits[rowIndex] = normalized{amendement: a, err: parseErr}
			return nil
		})
	}
	for position, discussionRow := range input.Discussion {
		group.Go(func() error {
			if ctxErr := groupCtx.Err(); ctxErr != nil {
				return ctxErr
			}
			a, parseErr := input.Normalizer.FromDiscussion(discussionRow.Row, position, discussionRow.Subdivision)
			scheduled[position] = normalized{amendement: a, err: parseErr}
			return nil
		})
	}
	if waitErr := group.Wait(); waitErr != nil {
		return nil, fmt.Errorf("normalizing amendements of %s: %w", input.Normalizer.Scope(), waitErr)
	}

	report := Report{Rows: len(input.Deposits) + len(input.Discussion)}
	depositAmendements := collect(deposits, SourceDeposit, amendement.ColNumero, input.Deposits, &report)
	discussionRows := make([]amendement.Row, len(input.Discussion))
	for position, discussionRow := range input.Discussion {
		discussionRows[position] = discussionRow.Row
	}
	discussionAmendements := collect(scheduled, SourceDiscussion, amendement.KeyNum, discussionRows, &report)

	enriched, misses := reconcile.EnrichGroups(depositAmendements, input.Registry)
	report.LookupMisses = misses
	merged := reconcile.Merge(enriched, discussionAmendements, p.Options)
	sorted := reconcile.SortWith(merged, discussionAmendements, p.Options)

	p.logger().Info("amendements reconciled",
		append(report.Fields(), zap.Stringer("scope", input.Normalizer.Scope()))...)
	for _, rowErr := range report.ParseErrors {
		p.logger().Warn("skipping malformed row", zap.Error(rowErr))
	}
	for _, miss := range report.LookupMisses {
		p.logger().Debug("auteur not in registry", zap.String("matricule", miss.Key), zap.String("num", miss.Context))
	}

	return &Result{Amendements: sorted, Report: report}, nil
}

func collect(results []normalized, source Source, numColumn string, rows []amendement.Row, report *Report) []amendement.Amendement {
	amendements := make([]amendement.Amendement, 0, len(results))
	for rowIndex, result := range results {
		if result.err != nil {
			report.ParseErrors = append(report.ParseErrors, RowError{
				Source: source,
				Index:  rowIndex,
				Num:    rows[rowIndex].String(numColumn),
				Err:    result.err,
			})
			continue
		}
		amendements = append(amendements, result.amendement)
		report.Normalized++
	}
	return amendements
}

// Reconcile diffs a pipeline result against the persisted snapshot of its
// scope.
func Reconcile(result *Result, persisted map[amendement.Key]amendement.Amendement, opts reconcile.DiffOptions) (*reconcile.Diff, error) {
	return reconcile.DiffAndUpsert(result.Amendements, persisted, opts)
}
