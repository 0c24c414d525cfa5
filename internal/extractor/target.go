package extractor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/brogergvhs/mangameta/internal/scrapeerr"
)

// Multiplicity decides how many matched nodes a field reads.
type Multiplicity int

const (
	// First reads the first match only; no match means the field is absent.
	First Multiplicity = iota
	// All reads every match and encodes the values as a JSON array.
	All
	// Count reads exactly the first N matches as a JSON array.
	Count
)

type Prefix struct {
	Mode Multiplicity
	N    int
}

func (p Prefix) String() string {
	switch p.Mode {
	case All:
		return "@"
	case Count:
		return strconv.Itoa(p.N)
	default:
		return ""
	}
}

type TargetKind int

const (
	HTML TargetKind = iota
	Text
	StripText
	Attr
)

func (k TargetKind) String() string {
	switch k {
	case HTML:
		return "html"
	case Text:
		return "text"
	case StripText:
		return "strip_text"
	default:
		return "attr"
	}
}

// Target says what to pull out of each matched node and how many nodes to read.
type Target struct {
	Kind   TargetKind
	Prefix Prefix
	// Attribute name, only set for Attr.
	Attribute string
}

func (t Target) String() string {
	code := t.Kind.String()
	if t.Kind == Attr {
		code = "attr=" + t.Attribute
	}

	return t.Prefix.String() + code
}

// ParseTarget decodes a target code such as "text", "@src", "3attr=data-src".
func ParseTarget(code string) (Target, error) {
	var t Target

	rest := code
	switch {
	case strings.HasPrefix(rest, "@"):
		t.Prefix.Mode = All
		rest = rest[1:]
	case rest != "" && isDigit(rest[0]):
		end := 0
		for end < len(rest) && isDigit(rest[end]) {
			end++
		}
		n, err := strconv.ParseUint(rest[:end], 10, 31)
		if err != nil {
			return Target{}, scrapeerr.Configuration("invalid target %q: %v", code, err)
		}
		t.Prefix = Prefix{Mode: Count, N: int(n)}
		rest = rest[end:]
	}

	lower := strings.ToLower(rest)
	switch lower {
	case "html":
		t.Kind = HTML
	case "text":
		t.Kind = Text
	case "strip_text":
		t.Kind = StripText
	case "src", "href":
		t.Kind = Attr
		t.Attribute = lower
	default:
		name, ok := strings.CutPrefix(lower, "attr=")
		if !ok || name == "" {
			return Target{}, scrapeerr.Configuration("invalid target: %s", code)
		}
		t.Kind = Attr
		t.Attribute = name
	}

	return t, nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func (p Prefix) describe() string {
	switch p.Mode {
	case All:
		return "all"
	case Count:
		return fmt.Sprintf("first %d", p.N)
	default:
		return "first"
	}
}
