package worker

import (
	"context"
	"fmt"

	"github.com/ppiankov/partsync/internal/aggregate"
	"github.com/ppiankov/partsync/internal/align"
	"github.com/ppiankov/partsync/internal/model"
)

// AlignJob aligns one document against a shared, read-only base
type AlignJob struct {
	Position int
	Base     model.Document
	Other    model.Document
	Params   aggregate.Params
}

// Execute runs the alignment
func (j *AlignJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &AlignOutcome{Position: j.Position, Error: err}
	}
	res, err := align.Align(j.Base, j.Other, j.Params.MinAnchorLen, j.Params.MaxLookahead)
	if err != nil {
		err = fmt.Errorf("align %q: %w", j.Other.ID, err)
	}
	return &AlignOutcome{Position: j.Position, Result: res, Error: err}
}

// AlignOutcome is the result of an AlignJob
type AlignOutcome struct {
	Position int
	Result   *align.Result
	Error    error
}

// GetError returns the alignment error, if any
func (o *AlignOutcome) GetError() error {
	return o.Error
}

// AlignAll aligns others against base on up to workers goroutines and
// returns the results in input order
func AlignAll(ctx context.Context, base model.Document, others []model.Document, params aggregate.Params, workers int) ([]*align.Result, error) {
	if params.MinAnchorLen < 0 || params.MaxLookahead < 0 {
		return nil, fmt.Errorf("%w: min anchor %d, lookahead %d", align.ErrInvalidArgument, params.MinAnchorLen, params.MaxLookahead)
	}

	jobs := make([]Job, len(others))
	for k, other := range others {
		jobs[k] = &AlignJob{Position: k, Base: base, Other: other, Params: params}
	}

	results := make([]*align.Result, len(others))
	for _, r := range run(ctx, workers, jobs) {
		outcome := r.(*AlignOutcome)
		if outcome.Error != nil {
			return nil, outcome.Error
		}
		results[outcome.Position] = outcome.Result
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("align batch: %w", err)
	}
	return results, nil
}
