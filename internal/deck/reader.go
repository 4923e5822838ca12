// Package deck reads presentation files and classifies their slides
// against the issue routing rules.
package deck

import "strings"

// Slide is one slide of a deck. Number is 1-based and stable for the
// whole pipeline run; it is the join key for every later stage.
type Slide struct {
	Number     int
	Paragraphs []string
}

// Text returns the newline-joined text of all text-bearing shapes, so a
// marker phrase can be matched on any line.
func (s Slide) Text() string {
	return strings.Join(s.Paragraphs, "\n")
}

// Deck is a fully-buffered presentation.
type Deck struct {
	Path   string
	Slides []Slide
}

// Reader opens a presentation file. Implementations must fail fast on an
// unreadable or corrupt file (a fatal DECK_READ_FAILED error) rather than
// returning a partial deck.
type Reader interface {
	Open(path string) (*Deck, error)
}
