// Package langid resolves language tags to canonical babel locale names.
//
// Resolution order: exact table lookup, unique case-insensitive prefix
// lookup, then a bigram Dice-coefficient ranking against every known
// canonical name. The 0.9 similarity cutoff and the "exactly one prefix
// match" tie-break are compatibility-critical; changing either changes which
// locale a given tag resolves to.
package langid

import (
	"sort"
	"strings"
	"sync"
)

// MatchThreshold is the minimum similarity score for a fuzzy match to win.
const MatchThreshold = 0.9

// Match is one ranked candidate from Closest.
type Match struct {
	Name  string
	Score float64
}

type group struct {
	codes []string // language tags that map to this group, lowercase
	names []string // canonical locale names, first is preferred
}

// The table is keyed by lowercased tags; territory-qualified tags get their
// own entries so that e.g. "en-gb" lands on british rather than english.
var groups = []group{
	{codes: []string{"en", "eng", "en-us"}, names: []string{"english", "american", "usenglish"}},
	{codes: []string{"en-gb"}, names: []string{"british", "ukenglish"}},
	{codes: []string{"en-au"}, names: []string{"australian"}},
	{codes: []string{"en-ca"}, names: []string{"canadian"}},
	{codes: []string{"en-nz"}, names: []string{"newzealand"}},
	{codes: []string{"af"}, names: []string{"afrikaans"}},
	{codes: []string{"ar"}, names: []string{"arabic"}},
	{codes: []string{"eu"}, names: []string{"basque"}},
	{codes: []string{"bg"}, names: []string{"bulgarian"}},
	{codes: []string{"ca"}, names: []string{"catalan"}},
	{codes: []string{"hr"}, names: []string{"croatian"}},
	{codes: []string{"cs"}, names: []string{"czech"}},
	{codes: []string{"da"}, names: []string{"danish"}},
	{codes: []string{"nl"}, names: []string{"dutch"}},
	{codes: []string{"et"}, names: []string{"estonian"}},
	{codes: []string{"fi"}, names: []string{"finnish"}},
	{codes: []string{"fr", "fr-fr"}, names: []string{"french", "francais"}},
	{codes: []string{"fr-ca"}, names: []string{"canadien"}},
	{codes: []string{"gl"}, names: []string{"galician"}},
	{codes: []string{"de", "de-de"}, names: []string{"german", "ngerman"}},
	{codes: []string{"de-at"}, names: []string{"austrian", "naustrian"}},
	{codes: []string{"el"}, names: []string{"greek"}},
	{codes: []string{"he"}, names: []string{"hebrew"}},
	{codes: []string{"hu"}, names: []string{"hungarian", "magyar"}},
	{codes: []string{"is"}, names: []string{"icelandic"}},
	{codes: []string{"it"}, names: []string{"italian"}},
	{codes: []string{"ja"}, names: []string{"japanese"}},
	{codes: []string{"lv"}, names: []string{"latvian"}},
	{codes: []string{"lt"}, names: []string{"lithuanian"}},
	{codes: []string{"no", "nb"}, names: []string{"norsk"}},
	{codes: []string{"nn"}, names: []string{"nynorsk"}},
	{codes: []string{"pl"}, names: []string{"polish"}},
	{codes: []string{"pt", "pt-pt"}, names: []string{"portuguese", "portuges"}},
	{codes: []string{"pt-br"}, names: []string{"brazilian", "brazil"}},
	{codes: []string{"ro"}, names: []string{"romanian"}},
	{codes: []string{"ru"}, names: []string{"russian"}},
	{codes: []string{"sr"}, names: []string{"serbian"}},
	{codes: []string{"sk"}, names: []string{"slovak"}},
	{codes: []string{"sl"}, names: []string{"slovene", "slovenian"}},
	{codes: []string{"es", "es-es"}, names: []string{"spanish"}},
	{codes: []string{"sv"}, names: []string{"swedish"}},
	{codes: []string{"th"}, names: []string{"thai"}},
	{codes: []string{"tr"}, names: []string{"turkish"}},
	{codes: []string{"uk"}, names: []string{"ukrainian"}},
	{codes: []string{"vi"}, names: []string{"vietnamese"}},
}

// english is the closed set of locale names for which title-case conversion
// is semantically meaningful.
var english = map[string]bool{
	"american":   true,
	"australian": true,
	"british":    true,
	"canadian":   true,
	"english":    true,
	"newzealand": true,
	"ukenglish":  true,
	"usenglish":  true,
}

var (
	byCode    = map[string]string{} // tag -> preferred canonical name
	allNames  []string              // every canonical name, for ranking
	nameGroup = map[string]int{}    // canonical name -> group index

	mu          sync.Mutex
	closestMemo = map[string][]Match{}
	prefixMemo  = map[string]prefixResult{}
)

type prefixResult struct {
	name string
	ok   bool
}

func init() {
	for gi, g := range groups {
		for _, c := range g.codes {
			byCode[c] = g.names[0]
		}
		for _, n := range g.names {
			allNames = append(allNames, n)
			nameGroup[n] = gi
		}
	}
	sort.Strings(allNames)
}

// IsEnglish reports whether the canonical locale name belongs to the
// English family.
func IsEnglish(name string) bool {
	return english[strings.ToLower(name)]
}

// Lookup returns the preferred canonical name for an exact tag match.
func Lookup(tag string) (string, bool) {
	name, ok := byCode[strings.ToLower(tag)]
	return name, ok
}

// bigrams returns the sorted bigram multiset of s.
func bigrams(s string) []string {
	if len(s) < 2 {
		return nil
	}
	grams := make([]string, 0, len(s)-1)
	for i := 0; i+2 <= len(s); i++ {
		grams = append(grams, s[i:i+2])
	}
	sort.Strings(grams)
	return grams
}

// Similarity computes the Dice coefficient over bigram multisets:
// 2*matches/(len(a)+len(b)), counting each bigram occurrence at most once
// per side via a sorted two-pointer merge. Symmetric by construction.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ga, gb := bigrams(a), bigrams(b)
	if len(ga)+len(gb) == 0 {
		return 0
	}
	matches := 0
	for i, j := 0, 0; i < len(ga) && j < len(gb); {
		switch {
		case ga[i] == gb[j]:
			matches++
			i++
			j++
		case ga[i] < gb[j]:
			i++
		default:
			j++
		}
	}
	return 2 * float64(matches) / float64(len(ga)+len(gb))
}

// Closest ranks every canonical locale name by similarity to code,
// descending. Results are memoized per distinct code.
func Closest(code string) []Match {
	code = strings.ToLower(code)

	mu.Lock()
	defer mu.Unlock()
	if m, ok := closestMemo[code]; ok {
		return m
	}

	matches := make([]Match, 0, len(allNames))
	for _, name := range allNames {
		matches = append(matches, Match{Name: name, Score: Similarity(code, name)})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	closestMemo[code] = matches
	return matches
}

// FromPrefix resolves code if it is a case-insensitive prefix of canonical
// names in exactly one name group. A prefix spanning two or more groups is
// ambiguous and resolves to nothing. Memoized per distinct code.
func FromPrefix(code string) (string, bool) {
	code = strings.ToLower(code)
	if code == "" {
		return "", false
	}

	mu.Lock()
	defer mu.Unlock()
	if r, ok := prefixMemo[code]; ok {
		return r.name, r.ok
	}

	matched := -1
	name := ""
	for _, n := range allNames {
		if !strings.HasPrefix(n, code) {
			continue
		}
		gi := nameGroup[n]
		if matched >= 0 && gi != matched {
			prefixMemo[code] = prefixResult{}
			return "", false
		}
		if matched < 0 {
			matched = gi
			name = groups[gi].names[0]
		}
	}
	ok := matched >= 0
	if !ok {
		name = ""
	}
	prefixMemo[code] = prefixResult{name: name, ok: ok}
	return name, ok
}

// Resolve normalizes a language tag (lowercase, underscores to hyphens) and
// resolves it to a canonical locale name: exact lookup first, then unique
// prefix, then best fuzzy match at or above MatchThreshold, each retried on
// the bare primary subtag. Returns ok=false when nothing reaches the
// threshold; callers then treat the literal tag as an opaque locale name.
func Resolve(tag string) (string, bool) {
	tag = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(tag), "_", "-"))
	if tag == "" {
		return "", false
	}

	candidates := []string{tag}
	if base, _, found := strings.Cut(tag, "-"); found {
		candidates = append(candidates, base)
	}
	for _, c := range candidates {
		if name, ok := Lookup(c); ok {
			return name, true
		}
		if name, ok := FromPrefix(c); ok {
			return name, true
		}
		if ranked := Closest(c); len(ranked) > 0 && ranked[0].Score >= MatchThreshold {
			return ranked[0].Name, true
		}
	}
	return "", false
}
