package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/brogergvhs/mangameta/internal/scrapeerr"
)

// Evaluate runs d against doc. For First multiplicity ok is false when
// nothing matched; All and Count always return a JSON array of strings.
func Evaluate(doc *goquery.Document, d Descriptor) (value string, ok bool, err error) {
	return EvaluateSelection(doc.Selection, d)
}

// EvaluateSelection is Evaluate scoped to the subtree under root.
func EvaluateSelection(root *goquery.Selection, d Descriptor) (string, bool, error) {
	matcher := d.matcher
	if matcher == nil {
		m, err := d.Selector.Compile()
		if err != nil {
			return "", false, err
		}
		matcher = m
	}
	matches := root.FindMatcher(matcher)

	switch d.Target.Prefix.Mode {
	case All:
		values, err := readEach(matches, d.Target)
		if err != nil {
			return "", false, fmt.Errorf("field %q: %w", d.Name, err)
		}
		out, err := encodeArray(values)

		return out, err == nil, err
	case Count:
		want := d.Target.Prefix.N
		if got := matches.Length(); got < want {
			return "", false, scrapeerr.Extraction("field %q: want %s matches of %q, found %d",
				d.Name, d.Target.Prefix.describe(), d.Selector, got)
		}
		values, err := readEach(matches.Slice(0, want), d.Target)
		if err != nil {
			return "", false, fmt.Errorf("field %q: %w", d.Name, err)
		}
		out, err := encodeArray(values)

		return out, err == nil, err
	default:
		if matches.Length() == 0 {
			return "", false, nil
		}
		v, err := read(matches.First(), d.Target)
		if err != nil {
			return "", false, fmt.Errorf("field %q: %w", d.Name, err)
		}

		return v, true, nil
	}
}

// Extract evaluates every descriptor and collects the values present.
func Extract(doc *goquery.Document, ds []Descriptor) (map[string]string, error) {
	out := make(map[string]string, len(ds))
	for _, d := range ds {
		v, ok, err := Evaluate(doc, d)
		if err != nil {
			return nil, err
		}
		if ok {
			out[d.Name] = v
		}
	}

	return out, nil
}

// ExtractHTML parses body and runs Extract on it.
func ExtractHTML(body string, ds []Descriptor) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, scrapeerr.Wrap(scrapeerr.KindExtraction, err, "parse document")
	}

	return Extract(doc, ds)
}

func readEach(sel *goquery.Selection, t Target) ([]string, error) {
	values := make([]string, 0, sel.Length())
	for i := range sel.Nodes {
		v, err := read(sel.Eq(i), t)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	return values, nil
}

func read(node *goquery.Selection, t Target) (string, error) {
	switch t.Kind {
	case HTML:
		out, err := goquery.OuterHtml(node)
		if err != nil {
			return "", scrapeerr.Wrap(scrapeerr.KindExtraction, err, "render html")
		}

		return out, nil
	case Text:
		return node.Text(), nil
	case StripText:
		return strings.TrimSpace(CleanText(node.Text())), nil
	default:
		// a missing attribute reads as empty, unlike a missing node
		return node.AttrOr(t.Attribute, ""), nil
	}
}

func encodeArray(values []string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(values); err != nil {
		return "", scrapeerr.Wrap(scrapeerr.KindExtraction, err, "encode values")
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// DecodeArray reads a value produced by an All or Count field.
func DecodeArray(value string) ([]string, error) {
	var out []string
	if err := json.Unmarshal([]byte(value), &out); err != nil {
		return nil, scrapeerr.Wrap(scrapeerr.KindInput, err, "decode array field")
	}

	return out, nil
}
