package health

// Checker is an interface for querying the health of the server.
type Checker interface {
	// Check returns the health-check status.
	Check() Status
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func() Status

// Check returns f().
func (f CheckerFunc) Check() Status {
	return f()
}
