// Package selector parses the compact selector paths used in field
// definition files into a chain of nodes, and compiles that chain into a
// standard CSS matcher.
//
// Grammar, one step at a time:
//
//	#name   match by id
//	.name   match by class
//	name    match by tag name
//
// Steps are joined by a relation:
//
//	a.b       same element, further refined
//	a b       direct child
//	a ... b   descendant at any depth
package selector

import (
	"strings"

	"github.com/andybalholm/cascadia"

	"github.com/brogergvhs/mangameta/internal/scrapeerr"
)

type Kind int

const (
	ByTagName Kind = iota
	ByClass
	ByID
)

func (k Kind) String() string {
	switch k {
	case ByClass:
		return "class"
	case ByID:
		return "id"
	default:
		return "tag"
	}
}

type Relation int

const (
	None Relation = iota
	Same
	Descendant
	BroadDescendant
)

func (r Relation) String() string {
	switch r {
	case Same:
		return "same"
	case Descendant:
		return "descendant"
	case BroadDescendant:
		return "broad-descendant"
	default:
		return "none"
	}
}

// Node is one step of a selector chain. Child is nil exactly when
// Relation is None.
type Node struct {
	Kind     Kind
	Name     string
	Relation Relation
	Child    *Node
}

const broadMarker = "... "

// Parse builds the selector chain described by s.
func Parse(s string) (*Node, error) {
	if s == "" {
		return nil, scrapeerr.Grammar("empty selector")
	}

	return parse(s, s)
}

func parse(full, s string) (*Node, error) {
	n := &Node{Kind: ByTagName}
	switch {
	case strings.HasPrefix(s, "#"):
		n.Kind = ByID
		s = s[1:]
	case strings.HasPrefix(s, "."):
		n.Kind = ByClass
		s = s[1:]
	}

	idx := strings.IndexAny(s, " .#")
	if idx < 0 {
		if s == "" {
			return nil, scrapeerr.Grammar("selector %q: missing %s name at end", full, n.Kind)
		}
		n.Name = s

		return n, nil
	}

	n.Name, s = s[:idx], s[idx:]
	if n.Name == "" {
		return nil, scrapeerr.Grammar("selector %q: missing %s name before %q", full, n.Kind, s)
	}

	switch {
	case strings.HasPrefix(s, " "+broadMarker):
		n.Relation = BroadDescendant
		s = s[1+len(broadMarker):]
	case strings.HasPrefix(s, " "):
		n.Relation = Descendant
		s = s[1:]
	default:
		n.Relation = Same
	}

	if s == "" {
		return nil, scrapeerr.Grammar("selector %q: dangling %s relation after %q", full, n.Relation, n.Name)
	}

	child, err := parse(full, s)
	if err != nil {
		return nil, err
	}
	n.Child = child

	return n, nil
}

// Len returns the number of steps in the chain.
func (n *Node) Len() int {
	count := 0
	for cur := n; cur != nil; cur = cur.Child {
		count++
	}

	return count
}

// Relations lists the relation of every step, ending with None.
func (n *Node) Relations() []Relation {
	out := make([]Relation, 0, n.Len())
	for cur := n; cur != nil; cur = cur.Child {
		out = append(out, cur.Relation)
	}

	return out
}

// String renders the chain back into selector grammar.
func (n *Node) String() string {
	var b strings.Builder
	for cur := n; cur != nil; cur = cur.Child {
		switch cur.Kind {
		case ByClass:
			b.WriteByte('.')
		case ByID:
			b.WriteByte('#')
		}
		b.WriteString(cur.Name)

		switch cur.Relation {
		case Descendant:
			b.WriteByte(' ')
		case BroadDescendant:
			b.WriteString(" " + broadMarker)
		}
	}

	return b.String()
}

// CSS renders the chain as a standard CSS selector.
func (n *Node) CSS() string {
	var b strings.Builder
	for cur := n; cur != nil; cur = cur.Child {
		switch cur.Kind {
		case ByClass:
			b.WriteByte('.')
			b.WriteString(escapeIdent(cur.Name))
		case ByID:
			b.WriteByte('#')
			b.WriteString(escapeIdent(cur.Name))
		default:
			b.WriteString(cur.Name)
		}

		switch cur.Relation {
		case Descendant:
			b.WriteString(" > ")
		case BroadDescendant:
			b.WriteByte(' ')
		}
	}

	return b.String()
}

// Compile turns the chain into a matcher usable with goquery's FindMatcher.
func (n *Node) Compile() (cascadia.Selector, error) {
	css := n.CSS()
	sel, err := cascadia.Compile(css)
	if err != nil {
		return nil, scrapeerr.Wrap(scrapeerr.KindGrammar, err, "compile "+css)
	}

	return sel, nil
}

func escapeIdent(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == '-', r >= 0x80:
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				// leading digits need the hex form
				b.WriteString(`\3`)
				b.WriteRune(r)
				b.WriteByte(' ')
				continue
			}
			b.WriteRune(r)
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}

	return b.String()
}
