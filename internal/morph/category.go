package morph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTag is returned when a part of speech tag matches no category.
var ErrUnknownTag = errors.New("unknown part of speech tag")

// Category is the semantic class of a morpheme.
type Category int

const (
	CommonNoun Category = iota
	NominalPostposition
	Verb
	Ending
	Symbol
	VerbialPostposition
	SentenceFinalPunctuation
	VerbSuffix
	AdjectiveSuffix
	Auxiliary
	Adverb
	DependentNoun
	Number
	SentenceFinalEnding
	Adjective
	NounSuffix
	AuxiliaryVerb
	Determiner
	ProperNoun
	Prefix
	Conjunction
	Copula
	Pronoun
	CountingNoun
	Numeral
	Interjection
	Root
	Unknown
)

var categoryNames = [...]string{
	CommonNoun:               "common noun",
	NominalPostposition:      "nominal postposition",
	Verb:                     "verb",
	Ending:                   "ending",
	Symbol:                   "symbol",
	VerbialPostposition:      "verbial postposition",
	SentenceFinalPunctuation: "sentence-final punctuation",
	VerbSuffix:               "verb suffix",
	AdjectiveSuffix:          "adjective suffix",
	Auxiliary:                "auxiliary",
	Adverb:                   "adverb",
	DependentNoun:            "dependent noun",
	Number:                   "number",
	SentenceFinalEnding:      "sentence-final ending",
	Adjective:                "adjective",
	NounSuffix:               "noun suffix",
	AuxiliaryVerb:            "auxiliary verb",
	Determiner:               "determiner",
	ProperNoun:               "proper noun",
	Prefix:                   "prefix",
	Conjunction:              "conjunction",
	Copula:                   "copula",
	Pronoun:                  "pronoun",
	CountingNoun:             "counting noun",
	Numeral:                  "numeral",
	Interjection:             "interjection",
	Root:                     "root",
	Unknown:                  "unknown",
}

// String returns the category name.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

type rule struct {
	category Category
	match    func(tag string) bool
}

func hasPrefix(prefix string) func(string) bool {
	return func(tag string) bool {
		return strings.HasPrefix(tag, prefix)
	}
}

func headIn(n int, heads ...string) func(string) bool {
	return func(tag string) bool {
		if len(tag) < n {
			return false
		}
		for _, h := range heads {
			if tag[:n] == h {
				return true
			}
		}
		return false
	}
}

// rules is ordered from the most to the least frequent tag in mecab-ko-dic
// output. The first matching rule wins, so "SN" classifies as a symbol.
var rules = []rule{
	{CommonNoun, hasPrefix("NNG")},
	{NominalPostposition, headIn(3, "JKS", "JKC", "JKG", "JKO")},
	{Verb, hasPrefix("VV")},
	{Ending, headIn(2, "EC", "ET")},
	{Symbol, func(tag string) bool { return len(tag) > 1 && tag[0] == 'S' && tag[1] != 'F' }},
	{VerbialPostposition, headIn(3, "JKB", "JKV", "JKQ")},
	{SentenceFinalPunctuation, hasPrefix("SF")},
	{VerbSuffix, hasPrefix("XSV")},
	{AdjectiveSuffix, hasPrefix("XSA")},
	{Auxiliary, hasPrefix("JX")},
	{Adverb, hasPrefix("MA")},
	{DependentNoun, func(tag string) bool { return strings.HasPrefix(tag, "NNB") && !strings.HasPrefix(tag, "NNBC") }},
	{Number, hasPrefix("SN")},
	{SentenceFinalEnding, headIn(2, "EP", "EF")},
	{Adjective, hasPrefix("VA")},
	{NounSuffix, hasPrefix("XSN")},
	{AuxiliaryVerb, hasPrefix("VX")},
	{Determiner, hasPrefix("MM")},
	{ProperNoun, hasPrefix("NNP")},
	{Prefix, hasPrefix("XP")},
	{Conjunction, hasPrefix("JC")},
	{Copula, hasPrefix("VC")},
	{Pronoun, hasPrefix("NP")},
	{CountingNoun, hasPrefix("NNBC")},
	{Numeral, hasPrefix("NR")},
	{Interjection, hasPrefix("IC")},
	{Root, hasPrefix("XR")},
	{Unknown, headIn(2, "UN", "NA")},
}

// Classify maps a part of speech tag to its category.
func Classify(tag string) (Category, error) {
	for _, r := range rules {
		if r.match(tag) {
			return r.category, nil
		}
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
}

// Set is a static set of categories.
type Set map[Category]bool

// Has reports whether c is a member of the set.
func (s Set) Has(c Category) bool {
	return s[c]
}

// GeneralExcluded categories are never indexed.
var GeneralExcluded = Set{
	Symbol:                   true,
	SentenceFinalPunctuation: true,
	Number:                   true,
	Copula:                   true,
	Unknown:                  true,
}

// DictionaryExcluded categories are dropped when reconstructing dictionary
// keys.
var DictionaryExcluded = Set{
	NominalPostposition:      true,
	Ending:                   true,
	Symbol:                   true,
	VerbialPostposition:      true,
	SentenceFinalPunctuation: true,
	Auxiliary:                true,
	Number:                   true,
	SentenceFinalEnding:      true,
	NounSuffix:               true,
	Conjunction:              true,
	Copula:                   true,
	Unknown:                  true,
}

// Dependent categories carry no meaning in isolation and are indexed as
// modifiers.
var Dependent = Set{
	NominalPostposition: true,
	Ending:              true,
	VerbialPostposition: true,
	VerbSuffix:          true,
	AdjectiveSuffix:     true,
	Auxiliary:           true,
	DependentNoun:       true,
	SentenceFinalEnding: true,
	AuxiliaryVerb:       true,
	Conjunction:         true,
}
