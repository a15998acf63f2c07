package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"apeBeacon/business/beacon"
	"apeBeacon/domain"
	"apeBeacon/pkg/logger"
	"apeBeacon/pkg/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrLoginDisabled      = errors.New("admin login is not configured")
	ErrInvalidSite        = errors.New("site domain is empty after removing the scheme")
)

// CustomerStore contract interface
type CustomerStore interface {
	CreateCustomer(ctx context.Context, customer *domain.Customer) error
	FindCustomer(ctx context.Context, id string) (domain.Customer, error)
	AddSite(ctx context.Context, customerID, siteDomain string) (domain.CustomerSite, error)
}

// ContentStore contract interface
type ContentStore interface {
	SaveContent(ctx context.Context, c *domain.Content) error
}

type Credentials struct {
	Username     string
	PasswordHash string
	JWTSecret    string
	TokenTTL     time.Duration
}

type adminService struct {
	customers CustomerStore
	content   ContentStore
	creds     Credentials
}

func NewAdminService(customers CustomerStore, content ContentStore, creds Credentials) *adminService {
	if creds.TokenTTL <= 0 {
		creds.TokenTTL = 12 * time.Hour
	}
	return &adminService{customers: customers, content: content, creds: creds}
}

func (s *adminService) Login(ctx context.Context, username, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context error: %w", err)
	}

	if s.creds.PasswordHash == "" || s.creds.JWTSecret == "" {
		return "", ErrLoginDisabled
	}

	if username != s.creds.Username || !utils.CheckPassword(password, s.creds.PasswordHash) {
		logger.Warn("Admin login rejected", "username", username)
		return "", ErrInvalidCredentials
	}

	token, err := utils.GenerateJWT(s.creds.JWTSecret, username, "ADMIN", s.creds.TokenTTL)
	if err != nil {
		logger.Error("Failed to generate token", "error", err)
		return "", errors.New("failed to generate token")
	}

	return token, nil
}

func (s *adminService) CreateCustomer(ctx context.Context, id, displayName string, sites []string) (domain.Customer, error) {
	if err := ctx.Err(); err != nil {
		return domain.Customer{}, fmt.Errorf("context error: %w", err)
	}

	customer := domain.Customer{
		ID:          strings.TrimSpace(id),
		DisplayName: displayName,
	}
	seen := make(map[string]struct{}, len(sites))
	for _, site := range sites {
		d, err := normalizeSite(site)
		if err != nil {
			return domain.Customer{}, err
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		customer.Sites = append(customer.Sites, domain.CustomerSite{Domain: d})
	}

	if err := s.customers.CreateCustomer(ctx, &customer); err != nil {
		return domain.Customer{}, err
	}

	logger.Info("Customer created", "customer_id", customer.ID, "sites", len(customer.Sites))
	return customer, nil
}

func (s *adminService) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	if err := ctx.Err(); err != nil {
		return domain.Customer{}, fmt.Errorf("context error: %w", err)
	}

	return s.customers.FindCustomer(ctx, id)
}

func (s *adminService) AddSite(ctx context.Context, customerID, site string) (domain.CustomerSite, error) {
	if err := ctx.Err(); err != nil {
		return domain.CustomerSite{}, fmt.Errorf("context error: %w", err)
	}

	d, err := normalizeSite(site)
	if err != nil {
		return domain.CustomerSite{}, err
	}

	return s.customers.AddSite(ctx, customerID, d)
}

func (s *adminService) AddContent(ctx context.Context, c domain.Content) (domain.Content, error) {
	if err := ctx.Err(); err != nil {
		return domain.Content{}, fmt.Errorf("context error: %w", err)
	}

	if c.Score <= 0 {
		c.Score = 1
	}
	if err := s.content.SaveContent(ctx, &c); err != nil {
		return domain.Content{}, err
	}

	return c, nil
}

// normalizeSite stores sites the way page urls are compared: without scheme.
func normalizeSite(site string) (string, error) {
	d := beacon.StripScheme(strings.TrimSpace(site))
	if d == "" {
		return "", ErrInvalidSite
	}
	return d, nil
}
