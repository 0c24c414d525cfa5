// Package extractor compiles field definition lines into descriptors and
// evaluates them against parsed HTML documents.
//
// A field definition line looks like
//
//	name[target] selector
//
// e.g. "title[strip_text] .info h1" or "imgs[@attr=data-src] #reader ... img".
// Lines that do not have this shape are ignored, so definition files may
// carry comments and blank lines.
package extractor

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"github.com/andybalholm/cascadia"

	"github.com/brogergvhs/mangameta/internal/scrapeerr"
	"github.com/brogergvhs/mangameta/internal/selector"
)

var fieldLine = regexp.MustCompile(`^([a-zA-Z0-9_]+)\[([a-zA-Z0-9@_=\-]+)\]\s(.+)$`)

// Descriptor is a compiled extraction rule. It is immutable once parsed and
// safe to share between goroutines.
type Descriptor struct {
	Name     string
	Target   Target
	Selector *selector.Node

	matcher cascadia.Selector
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s[%s] %s", d.Name, d.Target, d.Selector)
}

// NewDescriptor compiles a descriptor from its parts.
func NewDescriptor(name string, target Target, sel *selector.Node) (Descriptor, error) {
	m, err := sel.Compile()
	if err != nil {
		return Descriptor{}, fmt.Errorf("field %q: %w", name, err)
	}

	return Descriptor{Name: name, Target: target, Selector: sel, matcher: m}, nil
}

// ParseLine parses one definition line. ok is false for lines that are not
// field definitions.
func ParseLine(line string) (d Descriptor, ok bool, err error) {
	m := fieldLine.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Descriptor{}, false, nil
	}

	target, err := ParseTarget(m[2])
	if err != nil {
		return Descriptor{}, true, fmt.Errorf("field %q: %w", m[1], err)
	}

	sel, err := selector.Parse(strings.TrimSpace(m[3]))
	if err != nil {
		return Descriptor{}, true, fmt.Errorf("field %q: %w", m[1], err)
	}

	d, err = NewDescriptor(m[1], target, sel)

	return d, true, err
}

// ParseAll parses every definition line in text. One bad line fails the
// whole set.
func ParseAll(text string) ([]Descriptor, error) {
	var out []Descriptor

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		d, ok, err := ParseLine(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if ok {
			out = append(out, d)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, scrapeerr.Wrap(scrapeerr.KindConfiguration, err, "read field definitions")
	}

	return out, nil
}
