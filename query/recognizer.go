package query

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrExtractionInconsistency indicates that a recognizer accepted a URI but
// was unable to extract a query from it. It always points to a defect in the
// dialect definition.
var ErrExtractionInconsistency = errors.New("dialect matched but no query could be extracted")

// Recognizer is an interface for detecting search queries in request URIs.
type Recognizer interface {
	// Test returns true if uri belongs to the recognizer's dialect.
	Test(uri string) bool

	// Apply extracts the query from uri. It must only be called when Test
	// returns true for the same uri.
	Apply(uri string) (Query, error)
}

// PatternRecognizer is a Recognizer defined entirely by regular expressions.
type PatternRecognizer struct {
	// Name identifies the dialect in logs and metrics.
	Name string

	// MatchTest must find a match anywhere in the URI for the recognizer to
	// apply.
	MatchTest *regexp.Regexp

	// Extractor locates the query text. Its first capture group is used.
	Extractor *regexp.Regexp

	// Splitter divides the query text into keywords.
	Splitter *regexp.Regexp
}

// Test returns true if uri belongs to the recognizer's dialect.
func (r *PatternRecognizer) Test(uri string) bool {
	return r.MatchTest.MatchString(uri)
}

// Apply extracts the query from uri.
func (r *PatternRecognizer) Apply(uri string) (Query, error) {
	m := r.Extractor.FindStringSubmatch(uri)
	if len(m) < 2 {
		return Query{}, fmt.Errorf("%w: %s: %s", ErrExtractionInconsistency, r.Name, uri)
	}

	return Query{
		Text:     m[1],
		Keywords: r.Splitter.Split(m[1], -1),
	}, nil
}

func (r *PatternRecognizer) String() string {
	return r.Name
}

// DialectOf returns the name of the dialect recognized by r.
func DialectOf(r Recognizer) string {
	if s, ok := r.(fmt.Stringer); ok {
		return s.String()
	}

	return fmt.Sprintf("%T", r)
}
