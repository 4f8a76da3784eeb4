// internal/words/words.go
//
// Vocabulary management for the drawing game.
//
// Responsibilities:
//   - Load the target vocabulary from WORDS_FILE or fall back to the embedded default.
//   - Pick a target uniformly at random (crypto/rand).
//   - Membership and listing helpers.
//
// The vocabulary must match the classes the prediction service was trained on;
// otherwise a drawing can never be judged correct.
//
// Environment variables:
//   WORDS_FILE=/path/to/labels.txt
//
// Initialization is run once (sync.Once). The list is immutable afterwards.

package words

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"sync"

	"github.com/robalobadob/sketchguess/apps/go-server/assets"
)

// fallbackWord is returned by Random when nothing was loaded.
const fallbackWord = "cat"

var (
	initOnce   sync.Once
	vocabulary []string
	vocabSet   map[string]struct{}
	initialErr error
)

// ErrEmpty is returned by Init when no labels could be loaded.
var ErrEmpty = errors.New("words: vocabulary is empty")

// Init loads the vocabulary exactly once.
func Init() error {
	initOnce.Do(func() {
		list, err := load(os.Getenv("WORDS_FILE"))
		if err != nil {
			initialErr = err
			return
		}
		if len(list) == 0 {
			initialErr = ErrEmpty
			return
		}
		set(list)
	})
	return initialErr
}

// load reads labels from path, or from the embedded default when path is empty.
func load(path string) ([]string, error) {
	if path == "" {
		return assets.VocabularyList()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("words: open %s: %w", path, err)
	}
	defer f.Close()
	return assets.ReadLabels(f)
}

// set installs list as the active vocabulary, dropping duplicates.
func set(list []string) {
	vocabulary = make([]string, 0, len(list))
	vocabSet = make(map[string]struct{}, len(list))
	for _, w := range list {
		if _, dup := vocabSet[w]; dup {
			continue
		}
		vocabSet[w] = struct{}{}
		vocabulary = append(vocabulary, w)
	}
}

// Random returns a uniformly random vocabulary entry.
// Falls back to "cat" if Init has not loaded anything.
func Random() string {
	if len(vocabulary) == 0 {
		return fallbackWord
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(vocabulary))))
	if err != nil {
		return vocabulary[0]
	}
	return vocabulary[n.Int64()]
}

// Contains reports whether w is in the vocabulary.
func Contains(w string) bool {
	_, ok := vocabSet[w]
	return ok
}

// List returns a copy of the vocabulary in file order.
func List() []string {
	return append([]string(nil), vocabulary...)
}

// Count returns the number of loaded labels.
func Count() int { return len(vocabulary) }
