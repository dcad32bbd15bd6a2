package domain

// Equivalent is a translation of a sense into another language.
type Equivalent struct {
	Language   string `json:"language"`
	Equivalent string `json:"equivalent"`
	Definition string `json:"definition,omitempty"`
}

// Sense is one definition of a dictionary entry.
type Sense struct {
	ID           string       `json:"id"`
	EntryID      string       `json:"entryId"`
	SenseNo      string       `json:"senseNo,omitempty"`
	Definition   string       `json:"definition"`
	PartOfSpeech string       `json:"partOfSpeech,omitempty"`
	Examples     []string     `json:"examples,omitempty"`
	Type         string       `json:"type,omitempty"`
	Equivalents  []Equivalent `json:"equivalents,omitempty"`

	// Rank is the inferred probability that this sense is meant in a given
	// context. It is only set on inference results.
	Rank *float64 `json:"rank,omitempty"`
}

// DictionaryEntry is a lexicon headword.
type DictionaryEntry struct {
	ID             string   `json:"id"`
	SourceID       string   `json:"sourceId,omitempty"`
	SourceLanguage string   `json:"sourceLanguage,omitempty"`
	WrittenForm    string   `json:"writtenForm"`
	Variations     []string `json:"variations,omitempty"`
	PartOfSpeech   string   `json:"partOfSpeech,omitempty"`
	Grade          string   `json:"grade,omitempty"`

	// QueryStrs are the reconstructed keys under which the entry is found.
	// The first one is the grouping key for synonyms and homographs.
	QueryStrs []string `json:"queryStrs"`

	Senses []Sense `json:"senses,omitempty"`
}

// GroupKey returns the first query string, or "" when there is none.
func (e *DictionaryEntry) GroupKey() string {
	if len(e.QueryStrs) == 0 {
		return ""
	}
	return e.QueryStrs[0]
}

// Bleve field name constants for the lexicon index.
const (
	EntryFieldWrittenForm = "written_form"
	EntryFieldQueryStrs   = "query_strs"
)
