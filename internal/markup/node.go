// Package markup parses the restricted HTML-ish subset allowed in rich-text
// bibliographic fields (emphasis, small-caps, no-case spans, nested quotes)
// into a typed node tree, and annotates the tree with locale-aware
// title-casing while honoring case-protected spans.
package markup

import "strings"

// Kind discriminates the two node variants.
type Kind int

const (
	// Element is an interior node carrying a normalized tag name and flags.
	Element Kind = iota
	// TextLeaf is a leaf carrying character data.
	TextLeaf
)

// Node is one node of the parsed markup tree.
type Node struct {
	Kind Kind

	// Text leaf data. TitleCased holds the title-cased rendition of Text
	// after the case-conversion pass; it equals Text when conversion was
	// skipped or the leaf sits under a protected ancestor.
	Text       string
	TitleCased string

	// Element data. Name is the normalized tag: "root", "span", "i", "b",
	// "sup", "sub", "pre".
	Name string
	Attr map[string]string

	// Derived flags.
	NoCase    bool // case-protected span
	Relax     bool // suppress sort/case interference in particle rendering
	SmallCaps bool
	Enquote   bool // nested-quote span
	Verbatim  bool // contents pass through uninterpreted

	Children []*Node

	// Raw carries the original input string; set on the root only.
	Raw string
}

// NewText returns a text leaf.
func NewText(s string) *Node {
	return &Node{Kind: TextLeaf, Text: s, TitleCased: s}
}

// NewElement returns an element node with the given normalized name.
func NewElement(name string, children ...*Node) *Node {
	return &Node{Kind: Element, Name: name, Children: children}
}

// Protected returns a case-protected span wrapping a single text leaf.
func Protected(s string) *Node {
	n := NewElement("span", NewText(s))
	n.NoCase = true
	return n
}

// IsText reports whether n is a text leaf.
func (n *Node) IsText() bool { return n.Kind == TextLeaf }

// InnerText concatenates the text content of the subtree.
func (n *Node) InnerText() string {
	if n.IsText() {
		return n.Text
	}
	var b strings.Builder
	for _, c := range n.Children {
		b.WriteString(c.InnerText())
	}
	return b.String()
}

// plain reports whether n is a bare structural element carrying nothing the
// output would miss: no attributes and no flags.
func (n *Node) plain() bool {
	return n.Kind == Element && len(n.Attr) == 0 &&
		!n.NoCase && !n.Relax && !n.SmallCaps && !n.Enquote && !n.Verbatim
}
