package domain

import "net/http"

// BeaconResult is what the pipeline resolved for one request. A zero
// VisitorID means identity was not resolved (unknown customer or a page
// outside the customer's sites) and the envelope stays empty.
type BeaconResult struct {
	VisitorID  string
	Components []ContentItem
	// SlotsRequested is false when the page carried no placeholders.
	SlotsRequested bool
}

// Envelope is the JSON object handed to the page callback.
type Envelope struct {
	StatusCode  int                    `json:"status_code"`
	Name        string                 `json:"name,omitempty"`
	Description string                 `json:"description,omitempty"`
	VisitorID   string                 `json:"visitor_id,omitempty"`
	Components  map[string]ContentItem `json:"components,omitempty"`
	Args        *BeaconRequest         `json:"args,omitempty"`
}

// SuccessEnvelope builds the payload for a request that passed validation.
// Components are keyed "<prefix>-<id>" so the client can address placeholders.
func SuccessEnvelope(req BeaconRequest, res BeaconResult) Envelope {
	env := Envelope{
		StatusCode: http.StatusOK,
		VisitorID:  res.VisitorID,
	}

	if res.VisitorID != "" && res.SlotsRequested {
		env.Components = make(map[string]ContentItem, len(res.Components))
		for _, item := range res.Components {
			env.Components[ComponentKey(req.PlaceholderPrefix, item.ID)] = item
		}
	}

	if req.Debug {
		args := req
		env.Args = &args
	}

	return env
}

// ErrorEnvelope builds the payload for any failure.
func ErrorEnvelope(err error) Envelope {
	be := AsBeaconError(err)
	return Envelope{
		StatusCode:  be.Status,
		Name:        be.Name,
		Description: be.Description,
	}
}

func ComponentKey(prefix, id string) string {
	return prefix + "-" + id
}
