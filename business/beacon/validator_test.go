package beacon

import (
	"errors"
	"net/http"
	"testing"

	"apeBeacon/domain"

	"github.com/go-playground/validator/v10"
)

func TestValidate(t *testing.T) {
	v := validator.New()

	cases := []struct {
		name   string
		req    domain.BeaconRequest
		kind   domain.ErrorKind
		field  string
		status int
	}{
		{"nothing", domain.BeaconRequest{}, domain.KindMissingField, "page_url", http.StatusBadRequest},
		{"no page url", domain.BeaconRequest{CustomerID: "123"}, domain.KindMissingField, "page_url", http.StatusBadRequest},
		{"no customer", domain.BeaconRequest{PageURL: "http://example.com"}, domain.KindMissingField, "customer_id", http.StatusBadRequest},
		{"missing field beats dnt", domain.BeaconRequest{DoNotTrack: true}, domain.KindMissingField, "page_url", http.StatusBadRequest},
		{"dnt", domain.BeaconRequest{PageURL: "http://example.com", CustomerID: "1", DoNotTrack: true}, domain.KindPolicyRejected, "dnt", http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(v, tc.req)
			var be *domain.BeaconError
			if !errors.As(err, &be) {
				t.Fatalf("expected BeaconError, got %v", err)
			}
			if be.Kind != tc.kind || be.Field != tc.field || be.Status != tc.status {
				t.Errorf("expected %s(%s)/%d, got %s(%s)/%d", tc.kind, tc.field, tc.status, be.Kind, be.Field, be.Status)
			}
		})
	}

	if err := Validate(v, domain.BeaconRequest{PageURL: "http://example.com", CustomerID: "1"}); err != nil {
		t.Errorf("expected valid request, got %v", err)
	}
}
