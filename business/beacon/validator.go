package beacon

import (
	"apeBeacon/domain"

	"github.com/go-playground/validator/v10"
)

// Validate checks required fields, in order, then the Do-Not-Track policy.
// It runs before any identity lookup.
func Validate(validate *validator.Validate, req domain.BeaconRequest) error {
	if err := validate.Var(req.PageURL, "required"); err != nil {
		return domain.MissingField("page_url")
	}

	if err := validate.Var(req.CustomerID, "required"); err != nil {
		return domain.MissingField("customer_id")
	}

	if req.DoNotTrack {
		return domain.PolicyRejected("dnt")
	}

	return nil
}
