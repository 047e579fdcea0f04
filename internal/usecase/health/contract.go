package health

import "context"

// Checker checks availability of one component.
type Checker interface {
	HealthCheck(ctx context.Context) error
}
