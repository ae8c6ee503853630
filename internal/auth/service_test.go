package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	pkgAuth "github.com/meridianlabs/storefront-api/pkg/auth"
	"github.com/meridianlabs/storefront-api/pkg/config"
	"github.com/meridianlabs/storefront-api/pkg/db/models"
	pkgerrors "github.com/meridianlabs/storefront-api/pkg/errors"
	"github.com/meridianlabs/storefront-api/pkg/security"
	"gorm.io/gorm"
)

type fakeCustomerRepo struct {
	byEmail map[string]*models.Customer
	created []*models.Customer
}

func (f *fakeCustomerRepo) Create(_ context.Context, customer *models.Customer) (*models.Customer, error) {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	f.byEmail[customer.Email] = customer
	f.created = append(f.created, customer)
	return customer, nil
}

func (f *fakeCustomerRepo) FindByEmail(_ context.Context, email string) (*models.Customer, error) {
	if customer, ok := f.byEmail[email]; ok {
		return customer, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Customer, error) {
	for _, customer := range f.byEmail {
		if customer.ID == id {
			return customer, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeSessionManager struct {
	started map[string]uuid.UUID
	revoked []string
}

func (f *fakeSessionManager) Start(_ context.Context, accessID string, customerID uuid.UUID) error {
	f.started[accessID] = customerID
	return nil
}

func (f *fakeSessionManager) Revoke(_ context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	delete(f.started, accessID)
	return nil
}

type fakeCartAttacher struct {
	claimed  map[uuid.UUID]uuid.UUID
	released []uuid.UUID
}

func (f *fakeCartAttacher) ClaimForCustomer(_ context.Context, cartID, customerID uuid.UUID, _ string) error {
	f.claimed[cartID] = customerID
	return nil
}

func (f *fakeCartAttacher) ReleaseActive(_ context.Context, customerID uuid.UUID) error {
	f.released = append(f.released, customerID)
	return nil
}

func buildTestService(t *testing.T, seed ...*models.Customer) (Service, *fakeCustomerRepo, *fakeSessionManager, *fakeCartAttacher) {
	t.Helper()
	repo := &fakeCustomerRepo{byEmail: map[string]*models.Customer{}}
	for _, customer := range seed {
		repo.byEmail[customer.Email] = customer
	}
	sessions := &fakeSessionManager{started: map[string]uuid.UUID{}}
	carts := &fakeCartAttacher{claimed: map[uuid.UUID]uuid.UUID{}}

	svc, err := NewService(ServiceParams{
		CustomerRepo:   repo,
		SessionManager: sessions,
		Carts:          carts,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: testPasswordConfig(),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, repo, sessions, carts
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "storefront",
		ExpirationMinutes: 30,
	}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig())
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func TestServiceRegisterAndLogin(t *testing.T) {
	svc, repo, sessions, _ := buildTestService(t)

	customer, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "  Shopper@Example.COM ",
		Password:  "super-secret-pw",
		FirstName: "Sam",
		LastName:  "Shopper",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if customer.Email != "shopper@example.com" {
		t.Fatalf("expected normalized email, got %q", customer.Email)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one customer created, got %d", len(repo.created))
	}

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "shopper@example.com",
		Password: "super-secret-pw",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Customer == nil || resp.Customer.ID != customer.ID {
		t.Fatalf("unexpected customer in response: %+v", resp.Customer)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.CustomerID != customer.ID {
		t.Fatalf("expected customer claim %s, got %s", customer.ID, claims.CustomerID)
	}
	if _, ok := sessions.started[claims.ID]; !ok {
		t.Fatalf("expected session started for jti %s", claims.ID)
	}
}

func TestServiceRegisterDuplicateEmail(t *testing.T) {
	existing := &models.Customer{
		ID:           uuid.New(),
		Email:        "taken@example.com",
		PasswordHash: mustHashPassword(t, "irrelevant"),
	}
	svc, _, _, _ := buildTestService(t, existing)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "taken@example.com",
		Password:  "another-pw",
		FirstName: "Dup",
		LastName:  "User",
	})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestServiceLoginClaimsAnonymousCart(t *testing.T) {
	password := "cart-claimer"
	customer := &models.Customer{
		ID:           uuid.New(),
		Email:        "claimer@example.com",
		PasswordHash: mustHashPassword(t, password),
	}
	svc, _, _, carts := buildTestService(t, customer)

	cartID := uuid.New()
	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    customer.Email,
		Password: password,
		CartID:   &cartID,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if carts.claimed[cartID] != customer.ID {
		t.Fatalf("expected cart %s claimed for customer %s", cartID, customer.ID)
	}
}

func TestServiceLoginInvalidPassword(t *testing.T) {
	customer := &models.Customer{
		ID:           uuid.New(),
		Email:        "strict@example.com",
		PasswordHash: mustHashPassword(t, "right-password"),
	}
	svc, _, _, _ := buildTestService(t, customer)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    customer.Email,
		Password: "wrong-password",
	})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestServiceLogoutReleasesCart(t *testing.T) {
	password := "bye-now"
	customer := &models.Customer{
		ID:           uuid.New(),
		Email:        "leaver@example.com",
		PasswordHash: mustHashPassword(t, password),
	}
	svc, _, sessions, carts := buildTestService(t, customer)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    customer.Email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if err := svc.Logout(context.Background(), claims.ID, customer.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != claims.ID {
		t.Fatalf("expected session revoked, got %v", sessions.revoked)
	}
	if len(carts.released) != 1 || carts.released[0] != customer.ID {
		t.Fatalf("expected cart released for customer, got %v", carts.released)
	}
}
