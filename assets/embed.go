// assets/embed.go
//
// Embedded static files: the browser page and the default vocabulary.

package assets

import (
	"bufio"
	"embed"
	"io"
	"strings"
)

//go:embed index.html vocabulary.txt
var FS embed.FS

// ReadLabels parses one label per line, skipping blanks and `#` comments.
// Labels are lowercased; inner spaces are kept ("wine glass").
func ReadLabels(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, strings.ToLower(strings.Join(strings.Fields(s), " ")))
	}
	return out, sc.Err()
}

// VocabularyList returns the embedded default vocabulary.
func VocabularyList() ([]string, error) {
	f, err := FS.Open("vocabulary.txt")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadLabels(f)
}

// IndexHTML returns the browser page.
func IndexHTML() ([]byte, error) {
	return FS.ReadFile("index.html")
}
