package reconcile

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/brogergvhs/mangameta/internal/scrapeerr"
)

var (
	chapterWord  = regexp.MustCompile(`chapter\s+(\d+(?:\.\d+)?)`)
	chapterShort = regexp.MustCompile(`ch\.\s+(\d+(?:\.\d+)?)`)
	chapterCJK   = regexp.MustCompile(`第(\d+(?:\.\d+)?)`)
)

// ParseEpisode finds the chapter number in a label such as "Chapter 10.5",
// "Vol.2 Ch. 14" or "第12話".
func ParseEpisode(label string) (float64, error) {
	lower := strings.ToLower(label)

	for _, m := range []struct {
		re   *regexp.Regexp
		text string
	}{
		{chapterWord, lower},
		{chapterShort, lower},
		{chapterCJK, label},
	} {
		if sub := m.re.FindStringSubmatch(m.text); sub != nil {
			v, err := strconv.ParseFloat(sub[1], 64)
			if err != nil {
				return 0, scrapeerr.Wrap(scrapeerr.KindInput, err, "parse chapter number")
			}

			return v, nil
		}
	}

	return 0, scrapeerr.Input("couldn't find chapter number")
}

// cut reduces f to two decimal places.
func cut(f float64) float64 {
	v, _ := strconv.ParseFloat(strconv.FormatFloat(f, 'f', 2, 64), 64)

	return v
}

func key(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
