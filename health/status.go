package health

import "fmt"

// Status is the result of a health-check.
type Status struct {
	IsHealthy bool
	Message   string
}

func (status Status) String() string {
	result := "failed"
	if status.IsHealthy {
		result = "passed"
	}

	return fmt.Sprintf("Health-check %s: %s", result, status.Message)
}
