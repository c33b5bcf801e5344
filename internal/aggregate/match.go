package aggregate

import "fmt"

// MatchKind tags a per-document match
type MatchKind int

const (
	Unmatched MatchKind = iota // Nothing paired in the other document
	Identical                  // Exact match, no payload needed
	Weak                       // Plausible pairing, payload set
)

func (k MatchKind) String() string {
	switch k {
	case Identical:
		return "identical"
	case Weak:
		return "weak"
	default:
		return "unmatched"
	}
}

// Match is the state of one base part against one other document. Value is
// only meaningful for Weak matches.
type Match[T any] struct {
	Kind  MatchKind
	Value T
}

// IndexMatch carries the absolute index in the other document
type IndexMatch = Match[int]

// TextMatch carries the text of the paired part in the other document
type TextMatch = Match[string]

// IdenticalMatch returns an Identical match
func IdenticalMatch[T any]() Match[T] {
	return Match[T]{Kind: Identical}
}

// WeakMatch returns a Weak match carrying v
func WeakMatch[T any](v T) Match[T] {
	return Match[T]{Kind: Weak, Value: v}
}

// UnmatchedMatch returns an Unmatched match
func UnmatchedMatch[T any]() Match[T] {
	return Match[T]{Kind: Unmatched}
}

func (m Match[T]) String() string {
	if m.Kind == Weak {
		return fmt.Sprintf("weak(%v)", m.Value)
	}
	return m.Kind.String()
}

// PartClass is the template classification of a base part
type PartClass int

const (
	ClassIgnored PartClass = iota // Whitespace, style or script below threshold
	ClassCommon                   // Shared with enough other pages to be template
	ClassUnique                   // Candidate unique content
)

func (c PartClass) String() string {
	switch c {
	case ClassCommon:
		return "common"
	case ClassUnique:
		return "unique"
	default:
		return "ignored"
	}
}
