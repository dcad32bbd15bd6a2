package domain

import (
	"time"

	"github.com/l2ai/l2ai-search/internal/surfacemap"
)

// ContentDocument is a reading passage in the corpus together with the
// surface maps built from its text.
type ContentDocument struct {
	// ID is a ULID assigned when the document is first stored.
	ID string `json:"id"`

	Title string `json:"title"`
	Text  string `json:"text"`

	// Format is "text" or "html". HTML is reduced to its text before
	// tokenizing, so spans always index Text.
	Format string `json:"format,omitempty"`

	// Generation metadata.
	Method string `json:"method,omitempty"`
	Level  string `json:"level,omitempty"`
	Length string `json:"length,omitempty"`
	Style  string `json:"style,omitempty"`
	Prompt string `json:"prompt,omitempty"`

	LastModified time.Time `json:"lastModified"`

	// Units and Modifiers are rebuilt together whenever Text changes.
	Units     surfacemap.SurfaceMap `json:"units"`
	Modifiers surfacemap.SurfaceMap `json:"modifiers"`
}

// Bleve field name constants for the corpus index.
const (
	ContentFieldID        = "id"
	ContentFieldTitle     = "title"
	ContentFieldUnits     = "units"
	ContentFieldModifiers = "modifiers"
)
