package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrShape indicates a state vector whose length does not match the masses.
	ErrShape = errors.New("dynamo: state shape does not match masses")

	// ErrSingularity indicates a force evaluation at zero separation.
	ErrSingularity = errors.New("dynamo: zero distance between bodies")

	// ErrIntegration indicates the adaptive solver could not meet its tolerances.
	ErrIntegration = errors.New("dynamo: integration failed")

	// ErrConfiguration indicates invalid masses, spans or step sizes.
	ErrConfiguration = errors.New("dynamo: invalid configuration")
)

// ShapeError reports a state/mass length mismatch.
type ShapeError struct {
	StateLen  int
	NumMasses int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("dynamo: state has %d entries, want %d (4 x %d masses)",
		e.StateLen, BodyStride*e.NumMasses, e.NumMasses)
}

func (e *ShapeError) Is(target error) bool { return target == ErrShape }

// SingularityError reports two bodies at identical coordinates during a force
// evaluation. I and J are body indices; both are -1 when the force law was
// called on a bare displacement.
type SingularityError struct {
	I, J int
}

func (e *SingularityError) Error() string {
	if e.I < 0 || e.J < 0 {
		return "dynamo: gravitational force evaluated at zero distance"
	}
	return fmt.Sprintf("dynamo: bodies %d and %d occupy the same position", e.I, e.J)
}

func (e *SingularityError) Is(target error) bool { return target == ErrSingularity }

// IntegrationFailure carries the adaptive solver's diagnostic.
type IntegrationFailure struct {
	Method  string
	Time    float64
	Steps   int
	Message string
}

func (e *IntegrationFailure) Error() string {
	return fmt.Sprintf("dynamo: %s integration failed at t=%g after %d steps: %s",
		e.Method, e.Time, e.Steps, e.Message)
}

func (e *IntegrationFailure) Is(target error) bool { return target == ErrIntegration }

// ConfigurationError reports an invalid input value.
type ConfigurationError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("dynamo: invalid %s (%g): %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }
