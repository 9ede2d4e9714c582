package moderation

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"inbox-live/errors"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// WordList carries the result of the loading process including metadata for logging.
type WordList struct {
	Words     []string
	Languages []string
}

// LoadWordList reads a YAML document mapping a language code to its censored words:
//
//	en: [badger, snake]
//	fr: [blaireau]
//
// Words are trimmed and deduplicated across languages.
func LoadWordList(path string) (WordList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return WordList{}, err
	}
	return ParseWordList(data)
}

func ParseWordList(data []byte) (WordList, error) {
	var byLanguage map[string][]string
	if err := yaml.Unmarshal(data, &byLanguage); err != nil {
		return WordList{}, fmt.Errorf("parse censored words: %w", err)
	}

	var words []string
	for _, list := range byLanguage {
		for _, w := range list {
			if w = strings.TrimSpace(w); w != "" {
				words = append(words, w)
			}
		}
	}
	if len(words) == 0 {
		return WordList{}, errors.ErrEmptyWords
	}

	languages := lo.Keys(byLanguage)
	slices.Sort(languages)
	words = lo.Uniq(words)
	slices.Sort(words)
	return WordList{Words: words, Languages: languages}, nil
}
