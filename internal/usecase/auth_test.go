package usecase

import (
	"context"
	"errors"
	"testing"

	domainErrors "github.com/polkiloo/fooddispatch/internal/domain/errors"
	"github.com/polkiloo/fooddispatch/internal/domain/model"
	pkgAuth "github.com/polkiloo/fooddispatch/internal/pkg/auth"
	testhelpers "github.com/polkiloo/fooddispatch/internal/test"
)

func newAuthUseCase(store *testhelpers.MemoryStore) *AuthUseCase {
	return NewAuthUseCase(store, store.Users(), testhelpers.HasherStub{}, testhelpers.StrategyStub{})
}

func intPtr(v int) *int { return &v }

func TestAuthUseCaseRegisterManager(t *testing.T) {
	store := newStore()
	uc := newAuthUseCase(store)

	usr, token, err := uc.Register(context.Background(), RegisterInput{
		Name:     " Mia ",
		Email:    "Mia@Example.com",
		Password: "secret1",
		Role:     "MANAGER",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usr.Name != "Mia" || usr.Email != "mia@example.com" || usr.Role != model.RoleManager || !usr.Active {
		t.Fatalf("unexpected user %+v", usr)
	}
	if usr.PasswordHash != "hash:secret1" {
		t.Fatalf("expected hashed password, got %q", usr.PasswordHash)
	}
	if token != "token-1-manager" {
		t.Fatalf("unexpected token %q", token)
	}
	if _, err := store.Partners().GetByUserID(context.Background(), usr.ID); !errors.Is(err, domainErrors.ErrPartnerNotFound) {
		t.Fatalf("managers must not get a partner profile, got %v", err)
	}
}

func TestAuthUseCaseRegisterDeliveryCreatesProfile(t *testing.T) {
	store := newStore()
	uc := newAuthUseCase(store)

	usr, _, err := uc.Register(context.Background(), RegisterInput{
		Name: "Dan", Email: "dan@example.com", Password: "secret1", Role: model.RoleDelivery,
		AverageDeliveryTime: intPtr(18),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	partner := store.Partner(usr.ID)
	if partner.AverageDeliveryTime != 18 || partner.IsAvailable || len(partner.CurrentOrders) != 0 {
		t.Fatalf("unexpected profile %+v", partner)
	}

	other, _, err := uc.Register(context.Background(), RegisterInput{
		Name: "Bea", Email: "bea@example.com", Password: "secret1", Role: model.RoleDelivery,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := store.Partner(other.ID).AverageDeliveryTime; got != model.DefaultAverageDeliveryTime {
		t.Fatalf("expected default average, got %d", got)
	}
}

func TestAuthUseCaseRegisterRollsBackUserWhenProfileFails(t *testing.T) {
	store := newStore()
	store.Fail("Partners.Create", errors.New("insert failed"))
	uc := newAuthUseCase(store)

	_, _, err := uc.Register(context.Background(), RegisterInput{
		Name: "Dan", Email: "dan@example.com", Password: "secret1", Role: model.RoleDelivery,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if _, err := store.Users().GetByEmail(context.Background(), "dan@example.com"); !errors.Is(err, domainErrors.ErrUserNotFound) {
		t.Fatalf("expected user insert to be rolled back, got %v", err)
	}
	if store.Rollbacks != 1 {
		t.Fatalf("expected one rollback, got %d", store.Rollbacks)
	}
}

func TestAuthUseCaseRegisterValidation(t *testing.T) {
	valid := RegisterInput{Name: "Mia", Email: "mia@example.com", Password: "secret1", Role: model.RoleManager}

	cases := []struct {
		name   string
		mutate func(in *RegisterInput)
		want   error
	}{
		{"blank name", func(in *RegisterInput) { in.Name = "  " }, domainErrors.ErrInvalidName},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }, domainErrors.ErrInvalidEmail},
		{"short password", func(in *RegisterInput) { in.Password = "123" }, domainErrors.ErrWeakPassword},
		{"unknown role", func(in *RegisterInput) { in.Role = "admin" }, domainErrors.ErrInvalidRole},
		{"slow partner", func(in *RegisterInput) {
			in.Role = model.RoleDelivery
			in.AverageDeliveryTime = intPtr(2)
		}, domainErrors.ErrInvalidDeliveryAvg},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newStore()
			in := valid
			tc.mutate(&in)
			if _, _, err := newAuthUseCase(store).Register(context.Background(), in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if store.Commits != 0 {
				t.Fatalf("expected no transaction, got %d commits", store.Commits)
			}
		})
	}
}

func TestAuthUseCaseRegisterDuplicateEmail(t *testing.T) {
	store := newStore()
	uc := newAuthUseCase(store)
	in := RegisterInput{Name: "Mia", Email: "mia@example.com", Password: "secret1", Role: model.RoleManager}

	if _, _, err := uc.Register(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in.Email = "MIA@example.com"
	if _, _, err := uc.Register(context.Background(), in); !errors.Is(err, domainErrors.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}
}

func TestAuthUseCaseLogin(t *testing.T) {
	store := newStore()
	uc := newAuthUseCase(store)
	usr, _, err := uc.Register(context.Background(), RegisterInput{
		Name: "Mia", Email: "mia@example.com", Password: "secret1", Role: model.RoleManager,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logged, token, err := uc.Login(context.Background(), " MIA@example.com", "secret1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logged.ID != usr.ID || token == "" {
		t.Fatalf("unexpected login result %+v %q", logged, token)
	}

	for _, tc := range []struct{ email, password string }{
		{"mia@example.com", "wrong"},
		{"nobody@example.com", "secret1"},
		{"", "secret1"},
		{"mia@example.com", ""},
	} {
		if _, _, err := uc.Login(context.Background(), tc.email, tc.password); !errors.Is(err, domainErrors.ErrInvalidCredentials) {
			t.Fatalf("expected invalid credentials for %q/%q, got %v", tc.email, tc.password, err)
		}
	}

	store.SetActive(usr.ID, false)
	if _, _, err := uc.Login(context.Background(), "mia@example.com", "secret1"); !errors.Is(err, domainErrors.ErrInactiveUser) {
		t.Fatalf("expected inactive user error, got %v", err)
	}
}

func TestAuthUseCaseLoginStorageFailure(t *testing.T) {
	store := newStore()
	store.Fail("Users.GetByEmail", errors.New("db down"))
	if _, _, err := newAuthUseCase(store).Login(context.Background(), "mia@example.com", "secret1"); err == nil || errors.Is(err, domainErrors.ErrInvalidCredentials) {
		t.Fatalf("expected storage error to surface, got %v", err)
	}
}

func TestAuthUseCaseParseTokenAndMe(t *testing.T) {
	store := newStore()
	uc := newAuthUseCase(store)
	partner := store.AddPartner("Dan", 20, true)

	identity, err := uc.ParseToken("token-1-delivery")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if identity.ID != partner.UserID || identity.Role != model.RoleDelivery {
		t.Fatalf("unexpected identity %+v", identity)
	}
	if _, err := uc.ParseToken(""); !errors.Is(err, pkgAuth.ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
	if _, err := uc.ParseToken("garbage"); !errors.Is(err, pkgAuth.ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}

	me, err := uc.Me(context.Background(), identity.ID)
	if err != nil || me.Name != "Dan" {
		t.Fatalf("unexpected account %+v err=%v", me, err)
	}
	if _, err := uc.Me(context.Background(), 99); !errors.Is(err, domainErrors.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}
