package align

import "github.com/ppiankov/partsync/internal/model"

// Offset is an optional shift from a base index to an other index
type Offset struct {
	Delta int
	Valid bool
}

// Some returns a valid offset
func Some(delta int) Offset {
	return Offset{Delta: delta, Valid: true}
}

// None is the absent offset
var None = Offset{}

// Get returns the delta and whether it is set
func (o Offset) Get() (int, bool) {
	return o.Delta, o.Valid
}

// MatchKind says how a base part is linked to the other document
type MatchKind int

const (
	MatchNone   MatchKind = iota // No pairing
	MatchStrong                  // Exact, confirmed match
	MatchWeak                    // Plausible pairing, not verified identical
)

func (k MatchKind) String() string {
	switch k {
	case MatchStrong:
		return "strong"
	case MatchWeak:
		return "weak"
	default:
		return "none"
	}
}

// Result is the alignment of one other document against a base document.
// It is not modified after Align returns.
type Result struct {
	// Strong has one entry per base part. Strong[i] = Some(d) means
	// other.Parts[i+d] equals base.Parts[i].
	Strong []Offset

	// Weak maps base indices to offsets of likely, unverified pairings.
	// An index never appears in both Strong and Weak.
	Weak map[int]int

	IdenticalText int // TextReal parts linked by exact match
	OtherText     int // TextReal parts linked weakly
}

func newResult(n int) *Result {
	return &Result{
		Strong: make([]Offset, n),
		Weak:   make(map[int]int),
	}
}

func (r *Result) setStrong(i, offset int, p model.Part) {
	r.Strong[i] = Some(offset)
	if p.Kind == model.KindTextReal {
		r.IdenticalText++
	}
}

func (r *Result) addWeak(i, offset int) {
	if _, ok := r.Weak[i]; ok {
		return
	}
	r.Weak[i] = offset
	r.OtherText++
}

// backfill adds weak pairings at offset for unlinked TextReal parts strictly
// between from and to.
func (r *Result) backfill(bp, op []model.Part, from, to, offset int) {
	for k := from + 1; k < to; k++ {
		if r.Strong[k].Valid {
			continue
		}
		if _, ok := r.Weak[k]; ok {
			continue
		}
		o := k + offset
		if o < 0 || o >= len(op) {
			continue
		}
		if bp[k].Kind == model.KindTextReal && op[o].Kind == model.KindTextReal {
			r.addWeak(k, offset)
		}
	}
}

// Len returns the number of base parts covered
func (r *Result) Len() int {
	return len(r.Strong)
}

// OtherIndex resolves the index in the other document paired with base
// index i, if any.
func (r *Result) OtherIndex(i int) (int, MatchKind) {
	if i < 0 || i >= len(r.Strong) {
		return -1, MatchNone
	}
	if d, ok := r.Strong[i].Get(); ok {
		return i + d, MatchStrong
	}
	if d, ok := r.Weak[i]; ok {
		return i + d, MatchWeak
	}
	return -1, MatchNone
}

// StrongCount returns the number of strongly matched base parts
func (r *Result) StrongCount() int {
	n := 0
	for _, o := range r.Strong {
		if o.Valid {
			n++
		}
	}
	return n
}

// WeakCount returns the number of weakly paired base parts
func (r *Result) WeakCount() int {
	return len(r.Weak)
}

// Similarity is the share of linked TextReal parts that matched exactly
func (r *Result) Similarity() float64 {
	total := r.IdenticalText + r.OtherText
	if total == 0 {
		return 0
	}
	return float64(r.IdenticalText) / float64(total)
}
