package statuspage

// Error wraps another error to include the appropriate HTTP status code to send
// as a result of this error.
type Error struct {
	Inner      error
	StatusCode int

	// Message replaces the default message for the status code, if non-empty.
	Message string
}

func (err Error) Error() string {
	return err.Inner.Error()
}

func (err Error) Unwrap() error {
	return err.Inner
}
