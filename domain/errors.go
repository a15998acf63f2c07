package domain

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindMissingField   ErrorKind = "missing_field"
	KindPolicyRejected ErrorKind = "policy_rejected"
	KindNotFound       ErrorKind = "not_found"
	KindMethod         ErrorKind = "method_not_allowed"
	KindHTTP           ErrorKind = "http"
	KindInternal       ErrorKind = "internal"
)

// BeaconError is a failure that is reported to the page inside the JSONP
// payload. Status is the semantic HTTP status, never the transport one.
type BeaconError struct {
	Kind        ErrorKind
	Field       string
	Status      int
	Name        string
	Description string
}

func (e *BeaconError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s(%s): %s", e.Kind, e.Field, e.Description)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Description)
}

// wire aliases used in error descriptions
var fieldAliases = map[string]string{
	"page_url":    "dl",
	"customer_id": "id",
}

var fieldLabels = map[string]string{
	"page_url":    "page url",
	"customer_id": "customer id",
}

func MissingField(field string) *BeaconError {
	label, ok := fieldLabels[field]
	if !ok {
		label = field
	}
	desc := "Value required for " + label
	if alias, ok := fieldAliases[field]; ok {
		desc += " (" + alias + ")"
	}

	return &BeaconError{
		Kind:        KindMissingField,
		Field:       field,
		Status:      http.StatusBadRequest,
		Name:        http.StatusText(http.StatusBadRequest),
		Description: desc,
	}
}

func PolicyRejected(policy string) *BeaconError {
	desc := "Request rejected by " + policy + " policy"
	if policy == "dnt" {
		desc = "Do Not Track enabled on client"
	}

	return &BeaconError{
		Kind:        KindPolicyRejected,
		Field:       policy,
		Status:      http.StatusConflict,
		Name:        http.StatusText(http.StatusConflict),
		Description: desc,
	}
}

// StatusError converts a transport level status (unknown route, bad method)
// into a payload error.
func StatusError(status int) *BeaconError {
	kind := KindInternal
	desc := "The server encountered an internal error and was unable to complete your request."
	switch status {
	case http.StatusNotFound:
		kind = KindNotFound
		desc = "The requested URL was not found on the server."
	case http.StatusMethodNotAllowed:
		kind = KindMethod
		desc = "The method is not allowed for the requested URL."
	default:
		if status < 500 {
			kind = KindHTTP
			desc = http.StatusText(status)
		}
	}

	name := http.StatusText(status)
	if name == "" {
		status = http.StatusInternalServerError
		name = http.StatusText(status)
	}

	return &BeaconError{
		Kind:        kind,
		Status:      status,
		Name:        name,
		Description: desc,
	}
}

// AsBeaconError unwraps err into a BeaconError. Anything unrecognised becomes
// a generic 500 so internal detail never reaches the page.
func AsBeaconError(err error) *BeaconError {
	var be *BeaconError
	if errors.As(err, &be) {
		return be
	}
	return StatusError(http.StatusInternalServerError)
}
