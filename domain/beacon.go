package domain

import "time"

// BeaconRequest is the normalized view of one beacon call. The JSON names are
// the ones echoed back to the page in debug mode.
type BeaconRequest struct {
	Callback          string    `json:"jsonp"`
	PlaceholderPrefix string    `json:"prefix"`
	VisitorCookieID   string    `json:"visitor_id"`
	Debug             bool      `json:"debug"`
	PageURL           string    `json:"page_url"`
	ReferrerURL       string    `json:"referrer_url"`
	PageTitle         string    `json:"page_title"`
	EventName         string    `json:"event"`
	CustomerID        string    `json:"customer_id"`
	EventTime         time.Time `json:"timestamp"`
	Language          string    `json:"language"`
	SlotTokens        string    `json:"placeholders"`
	SlotIDs           []string  `json:"placeholder_ids"`
	ScreenColourDepth int       `json:"screen_colour"`
	ScreenHeight      int       `json:"screen_height"`
	ScreenWidth       int       `json:"screen_width"`
	UserAgent         string    `json:"user_agent"`
	ScriptVersion     string    `json:"script_version"`

	// DoNotTrack is taken from request headers, not the query string.
	DoNotTrack bool `json:"-"`
}

// EventData flattens the request into the behavioural record stored per visitor.
func (r BeaconRequest) EventData() map[string]any {
	slots := make([]any, 0, len(r.SlotIDs))
	for _, id := range r.SlotIDs {
		slots = append(slots, id)
	}

	return map[string]any{
		"event":          r.EventName,
		"page_url":       r.PageURL,
		"referrer_url":   r.ReferrerURL,
		"page_title":     r.PageTitle,
		"language":       r.Language,
		"screen_width":   r.ScreenWidth,
		"screen_height":  r.ScreenHeight,
		"screen_colour":  r.ScreenColourDepth,
		"user_agent":     r.UserAgent,
		"script_version": r.ScriptVersion,
		"timestamp":      r.EventTime.UTC().Format(time.RFC3339Nano),
		"slots":          slots,
	}
}
