package chapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/mangameta/internal/reconcile"
	"github.com/brogergvhs/mangameta/internal/scrapeerr"
)

func sample() []Chapter {
	return Wrap("One Piece", []reconcile.Info{
		{URL: "u1", Episode: 1, Titles: []string{"Chapter 1"}},
		{URL: "u2", Episode: 2, Titles: []string{"Romance Dawn"}},
		{URL: "u2.5", Episode: 2.5, Titles: []string{"Chapter 2.5"}},
		{URL: "u3", Episode: 3, Titles: []string{"Chapter 3"}},
		{URL: "u3.01", Episode: 3.01, Titles: []string{"Omake"}},
	})
}

func urls(chs []Chapter) []string {
	out := make([]string, len(chs))
	for i, ch := range chs {
		out[i] = ch.URL
	}

	return out
}

func TestNames(t *testing.T) {
	chs := sample()

	tests := []struct {
		ch   Chapter
		want string
	}{
		{ch: chs[0], want: "one_piece_ch_0001.cbz"},
		{ch: chs[1], want: "one_piece_ch_0002_romance_dawn.cbz"},
		{ch: chs[2], want: "one_piece_ch_0002_5.cbz"},
		{ch: chs[4], want: "one_piece_ch_0003_01_omake.cbz"},
		{ch: Chapter{Info: reconcile.Info{Episode: 7}}, want: "ch_0007.cbz"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.ch.OutputCBZ())
	}

	assert.Equal(t, "one_piece_ch_0001_tmp", chs[0].FolderName())
	assert.Equal(t, "2.5", chs[2].Number())
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "vol_3_the_end", sanitize(" Vol. 3 — (The End)! "))
	assert.Equal(t, "第12話", sanitize("第12話"))
	assert.Equal(t, "pokemon_adventures", sanitize("Pokémon Adventures"))
	assert.Equal(t, "がっこう", sanitize("がっこう"))
}

func TestFilter(t *testing.T) {
	all := sample()

	tests := []struct {
		name string
		sel  Selection
		want []string
	}{
		{name: "everything", sel: Selection{}, want: urls(all)},
		{name: "by number", sel: Selection{Chapter: "2.5"}, want: []string{"u2.5"}},
		{name: "by title", sel: Selection{Chapter: "omake"}, want: []string{"u3.01"}},
		{name: "range", sel: Selection{Range: "2-3"}, want: []string{"u2", "u2.5", "u3"}},
		{name: "list", sel: Selection{List: "3, 1,9"}, want: []string{"u3", "u1"}},
		{name: "chapter wins", sel: Selection{Chapter: "1", Range: "2-3"}, want: []string{"u1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(all, tt.sel)
			require.NoError(t, err)
			assert.Equal(t, tt.want, urls(got))
		})
	}
}

func TestFilterErrors(t *testing.T) {
	all := sample()

	for _, sel := range []Selection{
		{Chapter: "42"},
		{Range: "3"},
		{Range: "5-2"},
		{Range: "a-b"},
		{List: "1,x"},
	} {
		_, err := Filter(all, sel)
		assert.ErrorIs(t, err, scrapeerr.ErrInput, "%+v", sel)
	}
}
