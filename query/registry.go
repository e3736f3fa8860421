package query

// Registry is an ordered list of recognizers. When more than one recognizer
// accepts a URI, the one that appears first wins.
//
// A Registry must not be modified once it is in use; it is then safe for
// concurrent use without locking.
type Registry []Recognizer

// Match returns the first recognizer that accepts uri.
func (r Registry) Match(uri string) (Recognizer, bool) {
	for _, rec := range r {
		if rec.Test(uri) {
			return rec, true
		}
	}

	return nil, false
}

// Recognize extracts a query from uri using the first recognizer that accepts
// it. ok is false if no recognizer accepts uri.
func (r Registry) Recognize(uri string) (q Query, ok bool, err error) {
	rec, ok := r.Match(uri)
	if !ok {
		return Query{}, false, nil
	}

	q, err = rec.Apply(uri)
	if err != nil {
		return Query{}, false, err
	}

	return q, true, nil
}
