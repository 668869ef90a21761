// Package match scores fuzzy similarity between person names.
package match

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
	"golang.org/x/text/cases"

	"github.com/sells-group/lead-enrich/internal/model"
)

// DefaultThreshold is the minimum score BestMatch accepts.
const DefaultThreshold = 80

// InDel distance: substitutions cost an insert plus a delete.
var indel = levenshtein.NewParams().SubCost(2)

// BestMatch returns the person whose name scores highest against candidate,
// and that score, if it reaches threshold. Ties keep the earliest person.
// It returns nil when nothing qualifies.
func BestMatch(candidate string, persons []model.PersonInfo, threshold float64) (*model.PersonInfo, float64) {
	c := normalize(candidate)
	if c == "" {
		return nil, 0
	}

	best, bestScore := -1, 0.0
	for i := range persons {
		s := score(c, normalize(persons[i].Name))
		if s > bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 || bestScore < threshold {
		return nil, 0
	}
	return &persons[best], bestScore
}

// Score is the best of Ratio, PartialRatio and TokenSortRatio after case
// folding and trimming both names.
func Score(a, b string) float64 {
	return score(normalize(a), normalize(b))
}

func score(a, b string) float64 {
	return max(ratio(a, b), partialRatio(a, b), tokenSortRatio(a, b))
}

// Ratio is the normalized InDel similarity of a and b on a 0-100 scale.
func Ratio(a, b string) float64 {
	return ratio(normalize(a), normalize(b))
}

// PartialRatio is the best Ratio of the shorter string against any
// equal-length window of the longer one.
func PartialRatio(a, b string) float64 {
	return partialRatio(normalize(a), normalize(b))
}

// TokenSortRatio is the Ratio of both strings after sorting their words.
func TokenSortRatio(a, b string) float64 {
	return tokenSortRatio(normalize(a), normalize(b))
}

func ratio(a, b string) float64 {
	total := len([]rune(a)) + len([]rune(b))
	if total == 0 || a == "" || b == "" {
		return 0
	}
	d := levenshtein.Distance(a, b, indel)
	return 100 * (1 - float64(d)/float64(total))
}

// partialRatio is the best Ratio of the shorter string against any window
// of the longer one, including windows that hang off either end. Equal
// lengths are scored in both directions.
func partialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}

	best := windowRatio(short, long)
	if len(short) == len(long) && best < 100 {
		best = max(best, windowRatio(long, short))
	}
	return best
}

func windowRatio(short, long []rune) float64 {
	n, m := len(short), len(long)
	s := string(short)
	var best float64
	score := func(w []rune) bool {
		if r := ratio(s, string(w)); r > best {
			best = r
		}
		return best == 100
	}

	// Prefixes shorter than short.
	for k := 1; k < n; k++ {
		if score(long[:k]) {
			return best
		}
	}
	for i := 0; i+n <= m; i++ {
		if score(long[i : i+n]) {
			return best
		}
	}
	// Suffixes shorter than short.
	for i := m - n + 1; i < m; i++ {
		if score(long[i:]) {
			return best
		}
	}
	return best
}

func tokenSortRatio(a, b string) float64 {
	return ratio(sortTokens(a), sortTokens(b))
}

func sortTokens(s string) string {
	f := strings.Fields(s)
	sort.Strings(f)
	return strings.Join(f, " ")
}

func normalize(s string) string {
	// cases.Caser is stateful; build one per call.
	return strings.Join(strings.Fields(cases.Fold().String(s)), " ")
}
