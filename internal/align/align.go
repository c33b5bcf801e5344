// Package align pairs the parts of a base document with the parts of a
// second document that share its template.
//
// The scan walks the base once and keeps a cursor into the other document
// that only moves forward. Distinctive parts (anchors) are searched for in a
// bounded window ahead of the cursor; short or empty parts are only compared
// 1:1 while the two documents are known to be in sync.
package align

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/ppiankov/partsync/internal/model"
)

// ErrInvalidArgument is returned for negative tuning parameters
var ErrInvalidArgument = errors.New("invalid argument")

// noOffset marks "no strong anchor seen yet"
const noOffset = int(^uint(0) >> 1)

// Align aligns other against base.
//
// minAnchorLen is the minimum text length (in characters) of a part that may
// open a forward search; maxLookahead bounds that search, in parts.
func Align(base, other model.Document, minAnchorLen, maxLookahead int) (*Result, error) {
	if minAnchorLen < 0 {
		return nil, fmt.Errorf("%w: min anchor length %d is negative", ErrInvalidArgument, minAnchorLen)
	}
	if maxLookahead < 0 {
		return nil, fmt.Errorf("%w: max lookahead %d is negative", ErrInvalidArgument, maxLookahead)
	}

	bp, op := base.Parts, other.Parts
	res := newResult(len(bp))

	cursor := 0
	inSync := true
	lastStrong := noOffset
	lastBreak := -1

	for i, p := range bp {
		if cursor >= len(op) {
			continue
		}

		if !anchorEligible(p, minAnchorLen) {
			if !inSync {
				continue
			}
			q := op[cursor]
			if p.Equal(q) {
				res.setStrong(i, cursor-i, p)
				cursor++
				continue
			}
			if p.Kind == model.KindTextReal && q.Kind == model.KindTextReal {
				res.addWeak(i, cursor-i)
			}
			inSync = false
			continue
		}

		j := search(op, p, cursor, maxLookahead)
		if j < 0 {
			if inSync && p.Kind == model.KindTextReal && op[cursor].Kind == model.KindTextReal {
				// Paired with whatever the cursor points at, without consuming it.
				res.addWeak(i, cursor-i)
			}
			if p.Kind == model.KindHTMLElement {
				lastBreak = i
			}
			inSync = false
			continue
		}

		offset := j - i
		res.setStrong(i, offset, p)
		inSync = true
		cursor = j + 1

		if offset == lastStrong {
			res.backfill(bp, op, lastBreak, i, offset)
		} else {
			lastStrong = offset
		}
		lastBreak = i
	}

	return res, nil
}

// anchorEligible reports whether p may open a forward search
func anchorEligible(p model.Part, minAnchorLen int) bool {
	if p.Kind == model.KindTextEmpty {
		return false
	}
	return utf8.RuneCountInString(p.Text) >= minAnchorLen
}

// search returns the first index j in op[from .. min(from+window, len-1)]
// equal to p, or -1
func search(op []model.Part, p model.Part, from, window int) int {
	last := len(op) - 1
	if window < last-from {
		last = from + window
	}
	for j := from; j <= last; j++ {
		if op[j].Equal(p) {
			return j
		}
	}
	return -1
}
