package meta

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Name patterns tried in order; the first match wins
var filenamePatterns = []struct {
	re    *regexp.Regexp
	parse func(*FileTags, []string)
}{
	{
		// "01 - Artist - Title"
		re: regexp.MustCompile(`^(\d{1,3})\s*-\s*(.+?)\s+-\s+(.+)$`),
		parse: func(t *FileTags, m []string) {
			t.Track, _ = strconv.Atoi(m[1])
			t.Artist = m[2]
			t.Title = m[3]
		},
	},
	{
		// "01 - Title", "01. Title", "01_Title"
		re: regexp.MustCompile(`^(\d{1,3})\s*[-_.]\s*(.+)$`),
		parse: func(t *FileTags, m []string) {
			t.Track, _ = strconv.Atoi(m[1])
			t.Title = strings.ReplaceAll(m[2], "_", " ")
		},
	},
	{
		// "Artist - Title"
		re: regexp.MustCompile(`^(.+?)\s+-\s+(.+)$`),
		parse: func(t *FileTags, m []string) {
			t.Artist = m[1]
			t.Title = m[2]
		},
	},
}

// TagsFromFilename guesses track, artist and title from a file name for
// files without embedded tags. The whole name becomes the title when no
// pattern matches.
func TagsFromFilename(path string) *FileTags {
	base := filepath.Base(path)
	name := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))

	t := &FileTags{Format: "filename"}
	for _, p := range filenamePatterns {
		if m := p.re.FindStringSubmatch(name); m != nil {
			p.parse(t, m)
			break
		}
	}

	t.Artist = strings.TrimSpace(t.Artist)
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		t.Title = name
	}
	return t
}
