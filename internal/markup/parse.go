package markup

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrMalformedVerbatim reports a verbatim subtree with a shape other than
// zero or one text child. This means the input markup itself is broken and
// must not be silently repaired.
var ErrMalformedVerbatim = errors.New("markup: malformed verbatim node")

// Options controls one normalization run.
type Options struct {
	// CaseConversion enables tokenization and the title-case pass.
	CaseConversion bool
	// ProtectCaps wraps runs of already-capitalized words in protected
	// spans so the title-caser leaves them alone.
	ProtectCaps bool
	// Locale is the canonical locale name driving the title-caser.
	Locale string
	// Csquotes holds locale quote characters in positional pairs: the rune
	// at even index opens, the following rune closes. Occurrences in the
	// input become explicit quote spans before parsing.
	Csquotes string
}

// knownTags is the whitelist of recognized markup tags; any other
// angle-bracket sequence is treated as literal text.
var knownTags = map[string]bool{
	"i": true, "em": true, "italic": true,
	"b": true, "strong": true,
	"sup": true, "sub": true,
	"sc": true, "smallcaps": true,
	"span": true, "nc": true,
	"pre": true, "script": true,
}

// Parse normalizes one rich-text field value into a node tree.
func Parse(input string, opt Options) (*Node, error) {
	src := markQuotes(input, opt.Csquotes)
	src = escapeUnknownTags(src)

	frag, err := html.ParseFragment(strings.NewReader(src), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return nil, fmt.Errorf("parsing markup: %w", err)
	}

	root := NewElement("root")
	root.Raw = input
	for _, n := range frag {
		c, err := convert(n)
		if err != nil {
			return nil, err
		}
		if c != nil {
			root.Children = append(root.Children, c)
		}
	}

	if opt.CaseConversion {
		tk := &tokenizer{protectCaps: opt.ProtectCaps, sentenceStart: true}
		tokenizeTree(root, tk, false)
		titleCaseTree(root, opt.Locale)
	}

	flattenProtection(root)
	stripWrappers(root)
	return root, nil
}

// markQuotes rewrites locale quote characters into explicit quote spans.
func markQuotes(s, csquotes string) string {
	if csquotes == "" {
		return s
	}
	pairs := []rune(csquotes)
	var b strings.Builder
	for _, r := range s {
		idx := -1
		for i, q := range pairs {
			if q == r {
				idx = i
				break
			}
		}
		switch {
		case idx < 0:
			b.WriteRune(r)
		case idx%2 == 0:
			b.WriteString(`<span class="enquote">`)
		default:
			b.WriteString(`</span>`)
		}
	}
	return b.String()
}

// escapeUnknownTags neutralizes angle brackets that do not open or close a
// whitelisted tag, so stray "<" in titles survives as text.
func escapeUnknownTags(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '<' {
			b.WriteByte(c)
			continue
		}
		if isKnownTagAt(s, i) {
			b.WriteByte(c)
			continue
		}
		b.WriteString("&lt;")
	}
	return b.String()
}

// isKnownTagAt reports whether s[i:] starts a whitelisted open or close tag.
func isKnownTagAt(s string, i int) bool {
	j := i + 1
	if j < len(s) && s[j] == '/' {
		j++
	}
	start := j
	for j < len(s) && (s[j] >= 'a' && s[j] <= 'z' || s[j] >= 'A' && s[j] <= 'Z') {
		j++
	}
	if start == j || !knownTags[strings.ToLower(s[start:j])] {
		return false
	}
	// The name must be followed by attributes, "/>", or ">".
	return j < len(s) && (s[j] == '>' || s[j] == ' ' || s[j] == '\t' || s[j] == '/')
}

// convert maps an html node to the normalized tree. Container tags collapse
// to a generic span; emphasis becomes italic; the small-caps tag becomes a
// flagged span; script/pre become verbatim leaves.
func convert(h *html.Node) (*Node, error) {
	switch h.Type {
	case html.TextNode:
		return NewText(h.Data), nil
	case html.ElementNode, html.DocumentNode:
		// Handled below.
	default:
		return nil, nil // comments, doctypes
	}

	n := NewElement("span")
	name := strings.ToLower(h.Data)
	switch name {
	case "i", "em", "italic":
		n.Name = "i"
	case "b", "strong":
		n.Name = "b"
	case "sup", "sub":
		n.Name = name
	case "sc", "smallcaps":
		n.SmallCaps = true
	case "pre", "script":
		n.Name = "pre"
		n.Verbatim = true
	case "nc":
		n.NoCase = true
	}

	for _, a := range h.Attr {
		if n.Attr == nil {
			n.Attr = map[string]string{}
		}
		n.Attr[a.Key] = a.Val
		switch a.Key {
		case "class":
			classes := strings.Fields(a.Val)
			for _, cl := range classes {
				switch cl {
				case "nocase", "notitlecase":
					n.NoCase = true
				case "nodecor", "relax":
					n.Relax = true
				case "enquote", "csl-quote":
					n.Enquote = true
				case "smallcaps":
					n.SmallCaps = true
				}
			}
		case "relax":
			n.Relax = true
		case "style":
			if strings.Contains(strings.ReplaceAll(a.Val, " ", ""), "font-variant:small-caps") {
				n.SmallCaps = true
			}
		}
	}

	for c := h.FirstChild; c != nil; c = c.NextSibling {
		cn, err := convert(c)
		if err != nil {
			return nil, err
		}
		if cn != nil {
			n.Children = append(n.Children, cn)
		}
	}

	if n.Verbatim {
		if len(n.Children) > 1 || (len(n.Children) == 1 && !n.Children[0].IsText()) {
			return nil, fmt.Errorf("%w: %d non-text children under %s", ErrMalformedVerbatim, len(n.Children), h.Data)
		}
	}
	return n, nil
}

// tokenizeTree replaces text leaves with tokenized node sequences, skipping
// subtrees that are already case-protected or verbatim.
func tokenizeTree(n *Node, tk *tokenizer, protected bool) {
	if n.NoCase || n.Verbatim {
		protected = true
	}
	var out []*Node
	for _, c := range n.Children {
		if c.IsText() && !protected {
			out = append(out, tk.tokenize(c.Text)...)
			continue
		}
		if !c.IsText() {
			tokenizeTree(c, tk, protected)
		}
		out = append(out, c)
	}
	n.Children = out
}

// titleCaseTree runs the locale-aware title-caser over the concatenated
// text of the tree and splices the result back into unprotected leaves by
// rune offset. Verbatim leaves contribute a same-length filler so the
// offset math stays aligned while their content stays exempt.
func titleCaseTree(root *Node, locale string) {
	type leafref struct {
		leaf      *Node
		off, len  int // rune offsets
		protected bool
	}
	var leaves []leafref
	var buf []rune

	var collect func(n *Node, protected bool)
	collect = func(n *Node, protected bool) {
		if n.NoCase || n.Name == "sup" || n.Name == "sub" {
			protected = true
		}
		if n.Verbatim {
			for _, c := range n.Children {
				if c.IsText() {
					filler := []rune(strings.Repeat("x", len([]rune(c.Text))))
					leaves = append(leaves, leafref{leaf: c, off: len(buf), len: len(filler), protected: true})
					buf = append(buf, filler...)
				}
			}
			return
		}
		for _, c := range n.Children {
			if c.IsText() {
				r := []rune(c.Text)
				leaves = append(leaves, leafref{leaf: c, off: len(buf), len: len(r), protected: protected})
				buf = append(buf, r...)
				continue
			}
			collect(c, protected)
		}
	}
	collect(root, false)

	cased := []rune(TitleCase(string(buf), locale))
	if len(cased) != len(buf) {
		// The caser is rune-count preserving; bail out rather than splice
		// misaligned slices.
		return
	}
	for _, lr := range leaves {
		if lr.protected {
			lr.leaf.TitleCased = lr.leaf.Text
			continue
		}
		lr.leaf.TitleCased = string(cased[lr.off : lr.off+lr.len])
	}
}

// flattenProtection merges protection boundaries: nested protected spans
// collapse into their outermost ancestor, a single protected child is
// lifted out of a non-protecting parent, and runs of adjacent protected
// spans merge into one, so protection never nests or straddles in the
// rendered output.
func flattenProtection(n *Node) {
	if n.NoCase {
		clearNested(n)
	}
	for _, c := range n.Children {
		if !c.IsText() {
			flattenProtection(c)
		}
	}
	n.Children = liftProtected(n.Children)
	n.Children = mergeProtectedRuns(n.Children)
}

// liftProtected splits a non-protecting element around its single
// protected child so the protection boundary lands at sibling level.
// Braces inside a decoration command sit one group deeper and no longer
// case-protect, so "a <i>b «C»</i>" must render as \emph{b }{C}, not
// \emph{b {C}}.
func liftProtected(children []*Node) []*Node {
	var out []*Node
	for _, c := range children {
		if !splittable(c) {
			out = append(out, c)
			continue
		}
		idx := -1
		protected := 0
		for i, g := range c.Children {
			if !g.IsText() && g.NoCase {
				protected++
				idx = i
			}
		}
		if protected != 1 {
			out = append(out, c)
			continue
		}
		if pre := splitHalf(c, c.Children[:idx]); pre != nil {
			out = append(out, pre)
		}
		out = append(out, c.Children[idx])
		if post := splitHalf(c, c.Children[idx+1:]); post != nil {
			out = append(out, post)
		}
	}
	return out
}

// splittable limits the lift to elements whose rendering distributes over
// the split: quotes, small caps, verbatim, and script positions would
// change meaning when cut in two.
func splittable(n *Node) bool {
	return n.Kind == Element && !n.NoCase && !n.Verbatim && !n.Enquote &&
		!n.SmallCaps && !n.Relax && n.Name != "sup" && n.Name != "sub"
}

func splitHalf(n *Node, children []*Node) *Node {
	if len(children) == 0 {
		return nil
	}
	half := *n
	half.Children = children
	return &half
}

func clearNested(n *Node) {
	for _, c := range n.Children {
		if c.IsText() {
			continue
		}
		c.NoCase = false
		clearNested(c)
	}
}

// mergeProtectedRuns joins consecutive bare protected spans.
func mergeProtectedRuns(children []*Node) []*Node {
	var out []*Node
	for _, c := range children {
		if len(out) > 0 {
			prev := out[len(out)-1]
			if isBareProtected(prev) && isBareProtected(c) {
				prev.Children = append(prev.Children, c.Children...)
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

func isBareProtected(n *Node) bool {
	return n.Kind == Element && n.Name == "span" && n.NoCase &&
		!n.SmallCaps && !n.Enquote && !n.Verbatim && len(n.Attr) == 0
}

// stripWrappers removes purely structural spans: no attributes, no flags,
// exactly one child. Applied bottom-up until stable.
func stripWrappers(n *Node) {
	for _, c := range n.Children {
		if !c.IsText() {
			stripWrappers(c)
		}
	}
	for i, c := range n.Children {
		for c.Kind == Element && c.Name == "span" && c.plain() && len(c.Children) == 1 {
			c = c.Children[0]
		}
		n.Children[i] = c
	}
}
