// Package vocabulary maps gesture class indexes to the phrases spoken for them.
package vocabulary

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/go-sod/glove/internal/reading"
)

var ErrUnknownGesture = errors.New("unknown gesture")

// defaultPhrases is the vocabulary the glove was trained with.
var defaultPhrases = []string{
	"hello",
	"how are you",
	"happy morning",
	"good day",
	"i am hungry",
	"good night",
	"i am not feeling well",
	"well done",
	"who are you",
	"come here",
	"happy",
}

// Vocabulary is an immutable, ordered list of phrases. Index i names the
// phrase for prediction i.
type Vocabulary struct {
	phrases []string
}

func New(phrases ...string) (*Vocabulary, error) {
	if len(phrases) == 0 {
		return nil, fmt.Errorf("vocabulary is empty")
	}
	cp := make([]string, len(phrases))
	for i, p := range phrases {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("phrase %d is empty", i)
		}
		cp[i] = p
	}
	return &Vocabulary{phrases: cp}, nil
}

func Default() *Vocabulary {
	v, _ := New(defaultPhrases...)
	return v
}

func (v *Vocabulary) Len() int {
	return len(v.phrases)
}

// Lookup returns the phrase for p or ErrUnknownGesture when p is outside
// [0, Len()).
func (v *Vocabulary) Lookup(p reading.Prediction) (string, error) {
	if p < 0 || int(p) >= len(v.phrases) {
		return "", fmt.Errorf("%w: index %d, vocabulary size %d", ErrUnknownGesture, p, len(v.phrases))
	}
	return v.phrases[p], nil
}

type file struct {
	Phrases []string `toml:"phrases"`
	Gesture []struct {
		Index  int    `toml:"index"`
		Phrase string `toml:"phrase"`
	} `toml:"gesture"`
}

// Load reads a vocabulary from a TOML file. Either a plain list is accepted:
//
//	phrases = ["hello", "how are you"]
//
// or indexed tables, which must cover 0..n-1 without gaps:
//
//	[[gesture]]
//	index = 0
//	phrase = "hello"
func Load(path string) (*Vocabulary, error) {
	var f file
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("decode vocabulary %s: %w", path, err)
	}
	if len(f.Phrases) > 0 && len(f.Gesture) > 0 {
		return nil, fmt.Errorf("vocabulary %s: use either phrases or [[gesture]], not both", path)
	}
	if len(f.Phrases) > 0 {
		return New(f.Phrases...)
	}

	sort.Slice(f.Gesture, func(i, j int) bool {
		return f.Gesture[i].Index < f.Gesture[j].Index
	})
	phrases := make([]string, len(f.Gesture))
	for i, g := range f.Gesture {
		if g.Index != i {
			return nil, fmt.Errorf("vocabulary %s: gesture index %d missing or duplicated", path, i)
		}
		phrases[i] = g.Phrase
	}
	return New(phrases...)
}
