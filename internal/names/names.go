// Package names splits structured personal names into family, given,
// particle, and suffix parts following bibliographic conventions: lowercase
// particles attached to the family name ("van Beethoven") are non-dropping,
// particles trailing the given name ("Ludwig van") are dropping, and
// generational suffixes are split off the given name after a comma.
package names

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Parsed is a personal name split into its bibliographic parts.
type Parsed struct {
	Family              string
	Given               string
	NonDroppingParticle string
	DroppingParticle    string
	Suffix              string
}

// particles are name fragments treated as particles when lowercase.
var particles = map[string]bool{
	"al": true, "auf": true, "bin": true, "da": true, "das": true,
	"de": true, "degli": true, "dei": true, "del": true, "della": true,
	"delle": true, "dem": true, "den": true, "der": true, "des": true,
	"di": true, "dos": true, "du": true, "el": true, "ibn": true,
	"la": true, "le": true, "lo": true, "ten": true, "ter": true,
	"van": true, "von": true, "zu": true, "zur": true,
}

// suffixes are generational suffixes kept as a separate name part.
var suffixes = map[string]bool{
	"jr": true, "jr.": true, "sr": true, "sr.": true,
	"ii": true, "iii": true, "iv": true, "v": true,
}

func isParticle(word string) bool {
	if word == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(word)
	if !unicode.IsLower(r) {
		return false
	}
	return particles[strings.ToLower(strings.TrimSuffix(word, "."))] ||
		particles[strings.ToLower(word)]
}

func isSuffix(word string) bool {
	return suffixes[strings.ToLower(word)]
}

// Split parses a family/given pair into its parts. Leading lowercase
// particle words of the family become the non-dropping particle; trailing
// particle words of the given name become the dropping particle; a suffix
// after a comma (or a bare trailing suffix word) in the given name is split
// off. Particle fields keep their trailing space so callers can detect
// deliberate spacing.
func Split(family, given string) Parsed {
	p := Parsed{Family: strings.TrimSpace(family), Given: strings.TrimSpace(given)}

	// Non-dropping particles: leading lowercase particle run of the family.
	words := strings.Fields(p.Family)
	var nd []string
	for len(words) > 1 && isParticle(words[0]) {
		nd = append(nd, words[0])
		words = words[1:]
	}
	if len(nd) > 0 {
		p.NonDroppingParticle = strings.Join(nd, " ") + " "
		p.Family = strings.Join(words, " ")
	}

	// Suffix: "Given, Jr." or a bare trailing suffix word.
	if given, suffix, found := strings.Cut(p.Given, ","); found {
		if s := strings.TrimSpace(suffix); isSuffix(s) {
			p.Suffix = s
			p.Given = strings.TrimSpace(given)
		}
	} else {
		gw := strings.Fields(p.Given)
		if len(gw) > 1 && isSuffix(gw[len(gw)-1]) {
			p.Suffix = gw[len(gw)-1]
			p.Given = strings.Join(gw[:len(gw)-1], " ")
		}
	}

	// Dropping particles: trailing lowercase particle run of the given name.
	gw := strings.Fields(p.Given)
	var dp []string
	for len(gw) > 1 && isParticle(gw[len(gw)-1]) {
		dp = append([]string{gw[len(gw)-1]}, dp...)
		gw = gw[:len(gw)-1]
	}
	if len(dp) > 0 {
		p.DroppingParticle = strings.Join(dp, " ") + " "
		p.Given = strings.Join(gw, " ")
	}

	return p
}
