// Package aggregate answers multi-document questions about a base page by
// aligning it against a batch of sibling pages.
package aggregate

import (
	"fmt"
	"strings"

	"github.com/ppiankov/partsync/internal/align"
	"github.com/ppiankov/partsync/internal/model"
)

// Params are the aligner tuning parameters
type Params struct {
	MinAnchorLen int
	MaxLookahead int
}

// Aggregator holds the alignments of a batch of documents against one base.
// It is read-only once built.
type Aggregator struct {
	base    model.Document
	others  []model.Document
	results []*align.Result
}

// New aligns every other document against base, in input order
func New(base model.Document, others []model.Document, params Params) (*Aggregator, error) {
	results := make([]*align.Result, len(others))
	for k, other := range others {
		res, err := align.Align(base, other, params.MinAnchorLen, params.MaxLookahead)
		if err != nil {
			return nil, fmt.Errorf("align %q: %w", other.ID, err)
		}
		results[k] = res
	}
	return &Aggregator{base: base, others: others, results: results}, nil
}

// FromResults builds an aggregator from alignments computed by the caller.
// results[k] must be the alignment of others[k] against base.
func FromResults(base model.Document, others []model.Document, results []*align.Result) (*Aggregator, error) {
	if len(results) != len(others) {
		return nil, fmt.Errorf("%w: %d results for %d documents", align.ErrInvalidArgument, len(results), len(others))
	}
	for k, res := range results {
		if res == nil {
			return nil, fmt.Errorf("%w: missing result for document %d", align.ErrInvalidArgument, k)
		}
		if res.Len() != base.Len() {
			return nil, fmt.Errorf("%w: result %d covers %d parts, base has %d", align.ErrInvalidArgument, k, res.Len(), base.Len())
		}
	}
	return &Aggregator{base: base, others: others, results: results}, nil
}

// Base returns the base document
func (a *Aggregator) Base() model.Document { return a.base }

// Others returns the other documents in input order
func (a *Aggregator) Others() []model.Document { return a.others }

// Results returns the alignments in input order
func (a *Aggregator) Results() []*align.Result { return a.results }

// CompareIndexes maps each TextReal base index to its match in every other
// document. Weak matches carry the absolute index in that document.
func (a *Aggregator) CompareIndexes() map[int][]IndexMatch {
	return textFold(a, func(_ model.Document, j int) int {
		return j
	})
}

// CompareStrings maps each TextReal base index to its match in every other
// document. Weak matches carry the text of the paired part; identical
// matches carry nothing.
func (a *Aggregator) CompareStrings() map[int][]TextMatch {
	return textFold(a, func(other model.Document, j int) string {
		return other.Parts[j].Text
	})
}

// textFold walks (index, result) pairs for every TextReal base part and
// builds one match per other document; weak decides the payload.
func textFold[T any](a *Aggregator, weak func(other model.Document, j int) T) map[int][]Match[T] {
	out := make(map[int][]Match[T])
	for i, p := range a.base.Parts {
		if p.Kind != model.KindTextReal {
			continue
		}
		row := make([]Match[T], len(a.results))
		for k, res := range a.results {
			j, kind := res.OtherIndex(i)
			switch {
			case kind == align.MatchStrong:
				row[k] = IdenticalMatch[T]()
			case kind == align.MatchWeak && j >= 0 && j < a.others[k].Len():
				row[k] = WeakMatch(weak(a.others[k], j))
			default:
				row[k] = UnmatchedMatch[T]()
			}
		}
		out[i] = row
	}
	return out
}

// FindRareElements returns the indices of base elements named tagName that
// fewer than commonThreshold other documents match exactly.
func (a *Aggregator) FindRareElements(tagName string, commonThreshold int) ([]int, error) {
	if commonThreshold <= 0 {
		return nil, fmt.Errorf("%w: common threshold must be positive, got %d", align.ErrInvalidArgument, commonThreshold)
	}
	tagName = strings.ToLower(tagName)

	rare := []int{}
	for i, p := range a.base.Parts {
		if p.Kind != model.KindHTMLElement || p.IsEndTag() || p.TagName() != tagName {
			continue
		}
		if a.strongCount(i, commonThreshold) < commonThreshold {
			rare = append(rare, i)
		}
	}
	return rare, nil
}

// Classify labels every base part as common, unique or ignored
func (a *Aggregator) Classify(commonThreshold int) ([]PartClass, error) {
	if commonThreshold <= 0 {
		return nil, fmt.Errorf("%w: common threshold must be positive, got %d", align.ErrInvalidArgument, commonThreshold)
	}

	classes := make([]PartClass, a.base.Len())
	for i, p := range a.base.Parts {
		switch {
		case a.strongCount(i, commonThreshold) >= commonThreshold:
			classes[i] = ClassCommon
		case p.Kind == model.KindTextReal || p.Kind == model.KindHTMLElement:
			classes[i] = ClassUnique
		default:
			classes[i] = ClassIgnored
		}
	}
	return classes, nil
}

// strongCount counts other documents matching base index i exactly,
// stopping once limit is reached
func (a *Aggregator) strongCount(i, limit int) int {
	n := 0
	for _, res := range a.results {
		if res.Strong[i].Valid {
			n++
			if n >= limit {
				break
			}
		}
	}
	return n
}

func build(base model.Document, others []model.Document, params Params, precomputed []*align.Result) (*Aggregator, error) {
	if precomputed != nil {
		return FromResults(base, others, precomputed)
	}
	return New(base, others, params)
}

// CompareIndexes aligns others against base (or reuses precomputed results
// when non-nil) and returns the per-text-part index matches.
func CompareIndexes(base model.Document, others []model.Document, params Params, precomputed []*align.Result) (map[int][]IndexMatch, error) {
	a, err := build(base, others, params, precomputed)
	if err != nil {
		return nil, err
	}
	return a.CompareIndexes(), nil
}

// CompareStrings is CompareIndexes with text payloads
func CompareStrings(base model.Document, others []model.Document, params Params, precomputed []*align.Result) (map[int][]TextMatch, error) {
	a, err := build(base, others, params, precomputed)
	if err != nil {
		return nil, err
	}
	return a.CompareStrings(), nil
}

// FindRareElements aligns others against base and reports rare tagName elements
func FindRareElements(base model.Document, others []model.Document, params Params, tagName string, commonThreshold int) ([]int, error) {
	if commonThreshold <= 0 {
		return nil, fmt.Errorf("%w: common threshold must be positive, got %d", align.ErrInvalidArgument, commonThreshold)
	}
	a, err := New(base, others, params)
	if err != nil {
		return nil, err
	}
	return a.FindRareElements(tagName, commonThreshold)
}
