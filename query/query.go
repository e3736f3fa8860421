package query

// Query is a search query extracted from a request URI.
type Query struct {
	// Text is the raw value of the query parameter. It is still URL-encoded.
	Text string

	// Keywords is Text split on the dialect's keyword delimiter. Empty
	// keywords produced by consecutive delimiters are retained.
	Keywords []string
}
