package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is failing.
	Degraded Status = "degraded"
	// Unhealthy indicates the index is not being served.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentIndex      = "index"
	ComponentEmbedding  = "embedding"
	ComponentGeneration = "generation"
	ComponentCache      = "cache"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	index      Checker
	embedding  Checker
	generation Checker
	cache      Checker
}

// Option adds an optional component check.
type Option func(*Service)

// WithEmbedding checks the embedding provider.
func WithEmbedding(c Checker) Option { return func(s *Service) { s.embedding = c } }

// WithGeneration checks the generative model provider.
func WithGeneration(c Checker) Option { return func(s *Service) { s.generation = c } }

// WithCache checks the embedding cache.
func WithCache(c Checker) Option { return func(s *Service) { s.cache = c } }

// New creates a Service. index is required; everything else is optional.
func New(index Checker, opts ...Option) *Service {
	s := &Service{index: index}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Check runs health checks against all components.
// A missing index makes the service Unhealthy; any other failure makes it Degraded.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks[ComponentIndex] = run(ctx, s.index)

	optional := []struct {
		name string
		c    Checker
	}{
		{ComponentEmbedding, s.embedding},
		{ComponentGeneration, s.generation},
		{ComponentCache, s.cache},
	}
	status := Healthy
	for _, o := range optional {
		if o.c == nil {
			continue
		}
		checks[o.name] = run(ctx, o.c)
		if checks[o.name] == CheckError {
			status = Degraded
		}
	}

	if checks[ComponentIndex] == CheckError {
		status = Unhealthy
	}
	return Report{Status: status, Checks: checks}
}

func run(ctx context.Context, c Checker) CheckResult {
	if c == nil {
		return CheckError
	}
	if err := c.HealthCheck(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
