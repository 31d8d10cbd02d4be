// Package eprint extracts arXiv identifiers from loosely formatted
// free-text values such as "arXiv:0707.3168v2 [hep-th]".
package eprint

import (
	"regexp"
	"strings"
)

// ID is a parsed arXiv identifier.
type ID struct {
	Raw          string // the matched input, trimmed
	Eprint       string // identifier proper, e.g. "0707.3168" or "math/0211159"
	PrimaryClass string // optional category, e.g. "hep-th"
}

// The three accepted shapes, tried in order; first match wins.
//
//	new-style: arXiv:YYYY.NNNNN[vN] [category]
//	old-style: arXiv:archive-name/YYMMNNN[vN] [category]
//	bare:      arXiv:token
var (
	reNew  = regexp.MustCompile(`(?i)^arxiv:\s*(\d{4}\.\d{4,5}(?:v\d+)?)(?:\s+\[([^\]]+)\])?$`)
	reOld  = regexp.MustCompile(`(?i)^arxiv:\s*([a-z][a-z.-]*\/\d{7}(?:v\d+)?)(?:\s+\[([^\]]+)\])?$`)
	reBare = regexp.MustCompile(`(?i)^arxiv:\s*(\S+)$`)
)

// Parse extracts an arXiv identifier from s. It never fails hard: a value
// that matches none of the known shapes (including empty input) yields
// ok=false.
func Parse(s string) (ID, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ID{}, false
	}

	for _, re := range []*regexp.Regexp{reNew, reOld, reBare} {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		id := ID{Raw: s, Eprint: m[1]}
		if len(m) > 2 {
			id.PrimaryClass = m[2]
		}
		return id, true
	}
	return ID{}, false
}
