package content

import (
	"context"

	"apeBeacon/domain"
)

// EligibilityChecker decides if a candidate may be shown to a visitor in a
// given slot (schedules, frequency caps, brand safety)
type EligibilityChecker interface {
	IsEligible(ctx context.Context, visitor domain.Visitor, candidate domain.Content, slot string) (bool, error)
}

// NoopEligibilityChecker is the default implementation that allows everything.
type NoopEligibilityChecker struct{}

func (NoopEligibilityChecker) IsEligible(ctx context.Context, visitor domain.Visitor, candidate domain.Content, slot string) (bool, error) {
	return true, nil
}
