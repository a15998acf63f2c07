package beacon

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"apeBeacon/domain"
)

// CustomerRepository contract interface
type CustomerRepository interface {
	FindCustomer(ctx context.Context, id string) (domain.Customer, error)
}

// VisitorRepository contract interface. Implementations make each call
// atomic per (customer, visitor) key.
type VisitorRepository interface {
	FindOrCreateVisitor(ctx context.Context, customerID, visitorID string) (domain.Visitor, error)
	RecordVisitorEvent(ctx context.Context, visitor domain.Visitor, req domain.BeaconRequest) (domain.VisitorEvent, error)
}

type identityOutcome int

const (
	identityResolved identityOutcome = iota
	identityUnknownCustomer
	identityUnauthorizedSite
)

// schemePrefixes is ordered longest first.
var schemePrefixes = []string{"https://", "http://", "//"}

// StripScheme removes any leading https://, http:// or // prefixes, repeatedly.
func StripScheme(url string) string {
	for {
		stripped := false
		for _, p := range schemePrefixes {
			if strings.HasPrefix(url, p) {
				url = strings.TrimPrefix(url, p)
				stripped = true
				break
			}
		}
		if !stripped {
			return url
		}
	}
}

// IsSiteOwner reports whether pageURL falls under one of the sites. This is
// a plain prefix match on the scheme-less URL, not host parsing.
func IsSiteOwner(sites []string, pageURL string) bool {
	page := StripScheme(pageURL)
	for _, site := range sites {
		site = StripScheme(site)
		if site == "" {
			continue
		}
		if strings.HasPrefix(page, site) {
			return true
		}
	}
	return false
}

type identityResolver struct {
	customers CustomerRepository
	visitors  VisitorRepository
	newID     func() string
}

// resolve finds the customer, checks site ownership and loads or creates the
// visitor. Unknown customers and foreign pages are not errors.
func (r *identityResolver) resolve(ctx context.Context, req domain.BeaconRequest) (domain.Visitor, identityOutcome, error) {
	customer, err := r.customers.FindCustomer(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return domain.Visitor{}, identityUnknownCustomer, nil
		}
		return domain.Visitor{}, 0, fmt.Errorf("find customer: %w", err)
	}

	if !IsSiteOwner(customer.Domains(), req.PageURL) {
		return domain.Visitor{}, identityUnauthorizedSite, nil
	}

	visitorID := req.VisitorCookieID
	if visitorID == "" {
		visitorID = r.newID()
	}

	visitor, err := r.visitors.FindOrCreateVisitor(ctx, customer.ID, visitorID)
	if err != nil {
		return domain.Visitor{}, 0, fmt.Errorf("find or create visitor: %w", err)
	}

	return visitor, identityResolved, nil
}
