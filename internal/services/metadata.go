package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/brogergvhs/mangameta/internal/extractor"
	"github.com/brogergvhs/mangameta/internal/scrapeerr"
	"github.com/brogergvhs/mangameta/internal/sites"
)

// Value is a metadata value: a single string or a list of strings.
type Value struct {
	Item  string
	Array []string
}

func Item(s string) Value { return Value{Item: s} }

func Array(values []string) Value {
	if values == nil {
		values = []string{}
	}

	return Value{Array: values}
}

func (v Value) IsArray() bool { return v.Array != nil }

func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsArray() {
		return json.Marshal(v.Array)
	}

	return json.Marshal(v.Item)
}

func (v Value) String() string {
	if v.IsArray() {
		return strings.Join(v.Array, ", ")
	}

	return v.Item
}

// Metadata serves series information pages.
type Metadata struct {
	registry *sites.Registry
	services map[string]*sites.Service
	adapters map[string]Adapter
	fetcher  Fetcher
	log      Logger
}

func (m *Metadata) GetMetadata(ctx context.Context, url string) (map[string]Value, error) {
	site, err := m.registry.Lookup(url)
	if err != nil {
		return nil, err
	}

	svc, ok := m.services[site]
	if !ok {
		if a, ok := m.adapters[site]; ok {
			m.log.Debugf("metadata for %s via %s adapter", url, site)
			return a.GetData(ctx, url)
		}

		return nil, scrapeerr.Input("uri not registered: %s", site)
	}

	fields, err := process(ctx, m.fetcher, m.log, svc, url)
	if err != nil {
		return nil, err
	}

	return postProcessMetadata(fields)
}

var (
	listLabels = map[string]bool{"Genres:": true, "Demographic:": true, "Themes:": true}
	dropLabels = map[string]bool{
		"Score:": true, "Chapters:": true, "Favorites:": true, "Members:": true,
		"Popularity:": true, "Volumes:": true, "Ranked:": true,
	}
)

// postProcessMetadata decodes array fields and, when the page provides
// parallel fields_labels and labels arrays, turns each "Label: value" block
// into its own key.
func postProcessMetadata(fields map[string]string) (map[string]Value, error) {
	out := make(map[string]Value, len(fields))
	for k, raw := range fields {
		var arr []string
		if err := json.Unmarshal([]byte(raw), &arr); err == nil {
			out[k] = Array(arr)
		} else {
			out[k] = Item(raw)
		}
	}

	blocks, ok := out["fields_labels"]
	if !ok || !blocks.IsArray() {
		return out, nil
	}
	delete(out, "fields_labels")

	labels, ok := out["labels"]
	if !ok || !labels.IsArray() {
		return out, nil
	}
	delete(out, "labels")

	if len(blocks.Array) != len(labels.Array) {
		return out, nil
	}

	for i, block := range blocks.Array {
		label := labels.Array[i]
		rest, ok := strings.CutPrefix(extractor.CleanText(block), label)
		if !ok {
			return nil, scrapeerr.Extraction("metadata block %d does not start with %q", i, label)
		}
		text := extractor.CleanText(rest)
		key := strings.ReplaceAll(label, ":", "")

		switch {
		case listLabels[label]:
			parts := strings.Split(text, ",")
			for j, p := range parts {
				p, _, _ = strings.Cut(p, "\n")
				parts[j] = extractor.CleanText(p)
			}
			out[key] = Array(parts)
		case dropLabels[label]:
		default:
			out[key] = Item(text)
		}
	}

	return out, nil
}
