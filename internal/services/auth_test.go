package services

import (
	"context"
	"testing"
	"time"

	"mrxstudio/internal/domain"
	"mrxstudio/internal/util"
	apperrors "mrxstudio/pkg/errors"
)

func newTestAuth(t *testing.T) (*AuthService, *util.TokenIssuer) {
	t.Helper()
	tokens := util.NewTokenIssuer("test-secret", 30*time.Minute)
	return NewAuthService(openTestDB(t), tokens), tokens
}

func TestAuthService_LoginFlow(t *testing.T) {
	ctx := context.Background()
	svc, tokens := newTestAuth(t)

	user, err := svc.CreateUser(ctx, CreateUserInput{Username: "mo", Email: "MO@example.com", Password: "s3cret-pass", IsAdmin: true})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if user.Email != "mo@example.com" || !user.IsActive {
		t.Errorf("user = %+v", user)
	}

	res, err := svc.Login(ctx, " mo ", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if res.TokenType != "bearer" || res.AccessToken == "" {
		t.Errorf("Login() = %+v", res)
	}
	claims, err := tokens.ValidateToken(res.AccessToken)
	if err != nil || claims.Username != "mo" || !claims.IsAdmin {
		t.Errorf("claims = %+v, err = %v", claims, err)
	}

	got, err := svc.Authenticate(ctx, res.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if got.Username != "mo" {
		t.Errorf("Authenticate() user = %q", got.Username)
	}
}

func TestAuthService_LoginFailures(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuth(t)

	if _, err := svc.CreateUser(ctx, CreateUserInput{Username: "mo", Email: "mo@example.com", Password: "right"}); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	_, badPass := svc.Login(ctx, "mo", "wrong")
	if !apperrors.IsUnauthorized(badPass) {
		t.Errorf("bad password error = %v, want UNAUTHORIZED", badPass)
	}
	if _, err := svc.Login(ctx, "nobody", "right"); !apperrors.IsUnauthorized(err) {
		t.Errorf("unknown user error = %v, want UNAUTHORIZED", err)
	}

	if err := svc.db.Model(&domain.User{}).Where("username = ?", "mo").Update("is_active", false).Error; err != nil {
		t.Fatal(err)
	}
	_, inactive := svc.Login(ctx, "mo", "right")
	if !apperrors.IsUnauthorized(inactive) {
		t.Errorf("inactive user error = %v, want UNAUTHORIZED", inactive)
	}
	if badPass != nil && inactive != nil && inactive.Error() != badPass.Error() {
		t.Errorf("inactive user error %q differs from bad password error %q", inactive, badPass)
	}
}

func TestAuthService_Authenticate_BadToken(t *testing.T) {
	svc, _ := newTestAuth(t)
	if _, err := svc.Authenticate(context.Background(), "not-a-token"); !apperrors.IsUnauthorized(err) {
		t.Errorf("error = %v, want UNAUTHORIZED", err)
	}
}

func TestAuthService_CreateUserDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuth(t)

	in := CreateUserInput{Username: "mo", Email: "mo@example.com", Password: "pw"}
	if _, err := svc.CreateUser(ctx, in); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if _, err := svc.CreateUser(ctx, in); !apperrors.IsBadRequest(err) {
		t.Errorf("duplicate error = %v, want BAD_REQUEST", err)
	}
	if _, err := svc.CreateUser(ctx, CreateUserInput{Username: "x"}); !apperrors.IsBadRequest(err) {
		t.Errorf("missing fields error = %v, want BAD_REQUEST", err)
	}
}
