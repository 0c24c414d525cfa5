// Package chapters selects reconciled chapters for download and names their
// output files.
package chapters

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/brogergvhs/mangameta/internal/reconcile"
)

type Chapter struct {
	reconcile.Info
	Series string
}

func Wrap(series string, infos []reconcile.Info) []Chapter {
	out := make([]Chapter, len(infos))
	for i, info := range infos {
		out[i] = Chapter{Info: info, Series: series}
	}

	return out
}

// Number is the episode as printed to users: "12", "12.5", "3.01".
func (c Chapter) Number() string {
	return strconv.FormatFloat(c.Episode, 'f', -1, 64)
}

func (c Chapter) Title() string {
	if len(c.Titles) == 0 {
		return ""
	}

	return c.Titles[0]
}

var reUnderscore = regexp.MustCompile(`_+`)

var sanitizer = strings.NewReplacer(
	"•", "_",
	"-", "_",
	"—", "_",
	"–", "_",
	"/", "_",
	"\\", "_",
	".", "_",
	" ", "_",
	"(", "",
	")", "",
)

// combiningMark covers the Latin combining diacritics only, so kana voicing
// marks survive folding.
func combiningMark(r rune) bool {
	return r >= 0x0300 && r <= 0x036f
}

// fold drops accents from Latin letters: "Pokémon" becomes "Pokemon".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.Predicate(combiningMark)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}

	return out
}

func sanitize(s string) string {
	s = sanitizer.Replace(strings.ToLower(fold(s)))

	clean := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			clean = append(clean, r)
		}
	}

	return strings.Trim(reUnderscore.ReplaceAllString(string(clean), "_"), "_")
}

// paddedNumber zero-pads the integer part so files sort by episode.
func (c Chapter) paddedNumber() string {
	whole, frac := math.Modf(c.Episode)
	s := fmt.Sprintf("%04d", int(whole))
	if frac != 0 {
		_, digits, _ := strings.Cut(c.Number(), ".")
		s += "_" + digits
	}

	return s
}

func (c Chapter) baseName() string {
	name := "ch_" + c.paddedNumber()
	if series := sanitize(c.Series); series != "" {
		name = series + "_" + name
	}

	title := sanitize(c.Title())
	if title != "" && title != sanitize("chapter "+c.Number()) {
		name += "_" + title
	}

	return name
}

func (c Chapter) FolderName() string {
	return c.baseName() + "_tmp"
}

func (c Chapter) OutputCBZ() string {
	return c.baseName() + ".cbz"
}

func (c Chapter) OutputCBZPath(out string) string {
	return filepath.Join(out, c.OutputCBZ())
}
