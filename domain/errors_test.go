package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusError(t *testing.T) {
	cases := []struct {
		status int
		kind   ErrorKind
		want   int
	}{
		{http.StatusNotFound, KindNotFound, http.StatusNotFound},
		{http.StatusMethodNotAllowed, KindMethod, http.StatusMethodNotAllowed},
		{http.StatusUnauthorized, KindHTTP, http.StatusUnauthorized},
		{http.StatusRequestEntityTooLarge, KindHTTP, http.StatusRequestEntityTooLarge},
		{http.StatusInternalServerError, KindInternal, http.StatusInternalServerError},
		{599, KindInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.status), func(t *testing.T) {
			be := StatusError(tc.status)
			if be.Kind != tc.kind || be.Status != tc.want {
				t.Errorf("expected %s/%d, got %s/%d", tc.kind, tc.want, be.Kind, be.Status)
			}
			if be.Kind == KindPolicyRejected {
				t.Error("transport statuses must not look like a policy rejection")
			}
		})
	}
}

func TestErrorEnvelopeHidesInternalDetail(t *testing.T) {
	env := ErrorEnvelope(fmt.Errorf("select content: %w", errors.New("dial tcp 10.0.0.1:5432: refused")))

	if env.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", env.StatusCode)
	}
	if env.Description != StatusError(http.StatusInternalServerError).Description {
		t.Errorf("internal detail leaked: %q", env.Description)
	}

	env = ErrorEnvelope(PolicyRejected("dnt"))
	if env.StatusCode != http.StatusConflict || env.Description != "Do Not Track enabled on client" {
		t.Errorf("unexpected dnt envelope %+v", env)
	}
}
