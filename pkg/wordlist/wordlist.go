// Package wordlist holds an immutable diceware word list and validates or
// generates passphrases against it. A *Wordlist is built once at startup and
// shared read-only; it needs no locking.
package wordlist

import (
	"bufio"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"os"
	"sort"
	"strings"
)

const (
	MinWords = 3
	MaxWords = 20
)

var (
	ErrEmptyWordlist    = errors.New("wordlist contains no words")
	ErrInvalidWordCount = errors.New("word count must be greater than 0")
)

// Wordlist is a set of lower-case words.
type Wordlist struct {
	words []string // sorted, unique
	index map[string]struct{}
}

// ValidationResult reports every problem found in a passphrase.
type ValidationResult struct {
	Valid        bool     `json:"is_valid"`
	Errors       []string `json:"errors"`
	ValidWords   []string `json:"valid_words"`
	InvalidWords []string `json:"invalid_words"`
}

// New builds a list from words. Words are lower-cased and de-duplicated;
// blank entries are dropped.
func New(words []string) (*Wordlist, error) {
	index := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		index[w] = struct{}{}
	}
	if len(index) == 0 {
		return nil, ErrEmptyWordlist
	}

	sorted := make([]string, 0, len(index))
	for w := range index {
		sorted = append(sorted, w)
	}
	sort.Strings(sorted)

	return &Wordlist{words: sorted, index: index}, nil
}

// Parse reads EFF format ("11111<TAB>abacus") or one bare word per line.
// Blank lines and lines starting with '#' are skipped.
func Parse(r io.Reader) (*Wordlist, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			words = append(words, fields[1])
		} else {
			words = append(words, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read wordlist: %w", err)
	}
	return New(words)
}

// Load parses the word list file at path.
func Load(path string) (*Wordlist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wordlist: %w", err)
	}
	defer f.Close()

	wl, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return wl, nil
}

// Len returns the number of distinct words.
func (w *Wordlist) Len() int {
	return len(w.words)
}

// Contains reports whether word is in the list, ignoring case.
func (w *Wordlist) Contains(word string) bool {
	_, ok := w.index[strings.ToLower(word)]
	return ok
}

// Validate checks a whitespace-separated passphrase: between MinWords and
// MaxWords words, every word in the list and no word repeated.
func (w *Wordlist) Validate(passphrase string) ValidationResult {
	words := strings.Fields(passphrase)
	res := ValidationResult{
		Errors:       []string{},
		ValidWords:   []string{},
		InvalidWords: []string{},
	}

	if len(words) < MinWords {
		res.Errors = append(res.Errors, fmt.Sprintf("Passphrase must contain at least %d words", MinWords))
	}
	if len(words) > MaxWords {
		res.Errors = append(res.Errors, fmt.Sprintf("Passphrase should not exceed %d words", MaxWords))
	}

	for _, word := range words {
		if w.Contains(word) {
			res.ValidWords = append(res.ValidWords, word)
		} else {
			res.InvalidWords = append(res.InvalidWords, word)
			res.Errors = append(res.Errors, fmt.Sprintf("'%s' is not in the EFF wordlist", word))
		}
	}

	if len(words) == 0 {
		res.Errors = append(res.Errors, "Passphrase cannot be empty")
	}

	seen := make(map[string]struct{}, len(words))
	for _, word := range words {
		lw := strings.ToLower(word)
		if _, dup := seen[lw]; dup {
			res.Errors = append(res.Errors, "Passphrase contains duplicate words, which reduces security")
			break
		}
		seen[lw] = struct{}{}
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// Generate picks n words uniformly at random with crypto/rand and joins them
// with single spaces. Words may repeat.
func (w *Wordlist) Generate(n int) (string, error) {
	return w.generate(rand.Reader, n)
}

func (w *Wordlist) generate(r io.Reader, n int) (string, error) {
	if n <= 0 {
		return "", ErrInvalidWordCount
	}

	limit := big.NewInt(int64(len(w.words)))
	picked := make([]string, n)
	for i := range picked {
		idx, err := rand.Int(r, limit)
		if err != nil {
			return "", fmt.Errorf("failed to pick word: %w", err)
		}
		picked[i] = w.words[idx.Int64()]
	}
	return strings.Join(picked, " "), nil
}

// Entropy returns the entropy in bits of a passphrase of n words drawn from
// this list.
func (w *Wordlist) Entropy(n int) float64 {
	return Entropy(n, w.Len())
}

// Entropy returns words * log2(listSize), or 0 when either is not positive.
func Entropy(words, listSize int) float64 {
	if words <= 0 || listSize <= 0 {
		return 0
	}
	return float64(words) * math.Log2(float64(listSize))
}
