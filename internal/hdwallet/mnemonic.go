package hdwallet

import (
	"math"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/tyler-smith/go-bip39"

	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

// MaxTypoDistance is the largest edit distance offered as a suggestion.
const MaxTypoDistance = 2

//nolint:gochecknoglobals // Compiled once
var (
	whitespaceRegex   = regexp.MustCompile(`\s+`)
	numberedListRegex = regexp.MustCompile(`(?m)^\s*\d+[\.\)\:]\s*`)
)

// GenerateMnemonic creates a new 12 or 24 word BIP39 mnemonic.
func GenerateMnemonic(wordCount int) (string, error) {
	var bitSize int
	switch wordCount {
	case 12:
		bitSize = 128
	case 24:
		bitSize = 256
	default:
		return "", walleterr.WithDetails(walleterr.ErrInvalidInput, map[string]string{
			"words": "must be 12 or 24",
		})
	}

	entropy, err := bip39.NewEntropy(bitSize)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// NormalizeMnemonic lowercases input, strips list numbering and commas, and
// collapses whitespace.
func NormalizeMnemonic(input string) string {
	input = strings.ToLower(input)
	input = numberedListRegex.ReplaceAllString(input, " ")
	input = strings.ReplaceAll(input, ",", " ")
	input = whitespaceRegex.ReplaceAllString(input, " ")
	return strings.TrimSpace(input)
}

// ValidateMnemonic checks word count, words, and checksum.
func ValidateMnemonic(mnemonic string) error {
	normalized := NormalizeMnemonic(mnemonic)
	words := strings.Fields(normalized)
	if len(words) != 12 && len(words) != 24 {
		return walleterr.ErrInvalidMnemonic
	}
	if _, err := bip39.MnemonicToByteArray(normalized); err != nil {
		return walleterr.ErrInvalidMnemonic
	}
	return nil
}

// MnemonicToSeed converts a mnemonic and optional passphrase to a 64 byte seed.
func MnemonicToSeed(mnemonic, passphrase string) ([]byte, error) {
	if err := ValidateMnemonic(mnemonic); err != nil {
		return nil, err
	}
	return bip39.NewSeed(NormalizeMnemonic(mnemonic), passphrase), nil
}

// SuggestWord returns the closest BIP39 word, or "" if none is within
// MaxTypoDistance.
func SuggestWord(input string) string {
	input = strings.ToLower(input)
	if _, ok := bip39.GetWordIndex(input); ok {
		return input
	}
	return Closest(input, bip39.GetWordList(), MaxTypoDistance)
}

// Closest returns the candidate nearest to input by edit distance, or "" if
// the best distance exceeds maxDistance.
func Closest(input string, candidates []string, maxDistance int) string {
	best := math.MaxInt
	var suggestion string
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(input, c)
		if d < best {
			best = d
			suggestion = c
		}
		if d == 0 {
			break
		}
	}
	if best <= maxDistance {
		return suggestion
	}
	return ""
}

// Typo describes a word that is not in the BIP39 list.
type Typo struct {
	Index      int
	Word       string
	Suggestion string
}

// DetectTypos lists words that are not valid BIP39 words.
func DetectTypos(mnemonic string) []Typo {
	var typos []Typo
	for i, word := range strings.Fields(NormalizeMnemonic(mnemonic)) {
		if _, ok := bip39.GetWordIndex(word); ok {
			continue
		}
		typos = append(typos, Typo{Index: i, Word: word, Suggestion: SuggestWord(word)})
	}
	return typos
}
