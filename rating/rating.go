// Package rating scores how well a candidate name matches typed text.
package rating

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Rating orders match quality; a larger value is a better match.
type Rating int

const (
	NoMatch Rating = iota
	PrefixFold
	Prefix
	ExactFold
	Exact
)

func (r Rating) String() string {
	switch r {
	case NoMatch:
		return "no match"
	case PrefixFold:
		return "case-insensitive prefix"
	case Prefix:
		return "prefix"
	case ExactFold:
		return "case-insensitive exact"
	case Exact:
		return "exact"
	default:
		return "unknown"
	}
}

// Rate scores candidate against typed. It is NoMatch exactly when the
// candidate starts with typed neither case-sensitively nor
// case-insensitively.
func Rate(candidate, typed string) Rating {
	switch {
	case candidate == typed:
		return Exact
	case strings.EqualFold(candidate, typed):
		return ExactFold
	case strings.HasPrefix(candidate, typed):
		return Prefix
	case hasPrefixFold(candidate, typed):
		return PrefixFold
	default:
		return NoMatch
	}
}

func hasPrefixFold(s, prefix string) bool {
	for _, p := range prefix {
		r, size := utf8.DecodeRuneInString(s)
		if size == 0 || !strings.EqualFold(string(r), string(p)) {
			return false
		}
		s = s[size:]
	}
	return true
}

// Best returns the indexes of the names sharing the highest rating above
// NoMatch, in their original order, together with that rating.
func Best(names []string, typed string) ([]int, Rating) {
	top := NoMatch
	var idx []int
	for i, name := range names {
		r := Rate(name, typed)
		switch {
		case r == NoMatch || r < top:
		case r > top:
			top = r
			idx = append(idx[:0], i)
		default:
			idx = append(idx, i)
		}
	}
	return idx, top
}

// Closest suggests the name the user most likely meant by typed. It is
// used for hints only and never affects resolution.
func Closest(typed string, names []string) (string, bool) {
	if typed == "" || len(names) == 0 {
		return "", false
	}

	ranks := fuzzy.RankFindFold(typed, names)
	if len(ranks) > 0 {
		sort.Stable(ranks)
		return ranks[0].Target, true
	}

	best, bestDist := "", -1
	limit := max(1, len(typed)/3)
	for _, name := range names {
		d := fuzzy.LevenshteinDistance(strings.ToLower(typed), strings.ToLower(name))
		if d <= limit && (bestDist < 0 || d < bestDist) {
			best, bestDist = name, d
		}
	}
	return best, bestDist >= 0
}
