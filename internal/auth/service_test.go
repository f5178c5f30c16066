package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sahilmehra/campustrade-backend/internal/users"
	pkgAuth "github.com/sahilmehra/campustrade-backend/pkg/auth"
	"github.com/sahilmehra/campustrade-backend/pkg/auth/session"
	"github.com/sahilmehra/campustrade-backend/pkg/config"
	"github.com/sahilmehra/campustrade-backend/pkg/db/models"
	"github.com/sahilmehra/campustrade-backend/pkg/enums"
	pkgerrors "github.com/sahilmehra/campustrade-backend/pkg/errors"
	"github.com/sahilmehra/campustrade-backend/pkg/security"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "campustrade",
		ExpirationMinutes: 30,
	}
}

func buildTestService(user *models.User) (Service, *stubUserRepo, *stubSessionManager, error) {
	repo := &stubUserRepo{user: user}
	sessionMgr := &stubSessionManager{sessions: map[string]string{}}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessionMgr,
		JWTConfig:      testJWTConfig(),
	})
	return svc, repo, sessionMgr, err
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func TestServiceLogin(t *testing.T) {
	password := "campus-secret"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "sam@campus.edu",
		PasswordHash: mustHashPassword(t, password),
		FirstName:    "Sam",
		LastName:     "Iyer",
		Role:         enums.RoleMember,
		IsActive:     true,
	}

	svc, repo, _, err := buildTestService(user)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "Sam@Campus.edu",
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.RefreshToken == "" {
		t.Fatalf("expected refresh token to be set")
	}
	if repo.user.LastLoginAt == nil {
		t.Fatalf("expected last login to be recorded")
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user id claim %s, got %s", user.ID, claims.UserID)
	}
	if claims.Role != enums.RoleMember {
		t.Fatalf("expected member role claim, got %s", claims.Role)
	}
}

func TestServiceLoginRejectsBadCredentials(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "sam@campus.edu",
		PasswordHash: mustHashPassword(t, "right-password"),
		FirstName:    "Sam",
		LastName:     "Iyer",
		Role:         enums.RoleMember,
		IsActive:     true,
	}

	svc, _, _, err := buildTestService(user)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{
		Email: user.Email, Password: "wrong-password",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}

	user.IsActive = false
	_, err = svc.Login(context.Background(), LoginRequest{
		Email: user.Email, Password: "right-password",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for disabled account, got %v", err)
	}
}

func TestServiceRegister(t *testing.T) {
	svc, repo, _, err := buildTestService(nil)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	resp, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Priya",
		LastName:  "Nair",
		Email:     "Priya@Campus.edu",
		Password:  "long-enough-password",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User == nil || resp.User.Email != "priya@campus.edu" {
		t.Fatalf("expected normalized email on created user, got %+v", resp.User)
	}
	if resp.User.Role != enums.RoleMember {
		t.Fatalf("expected member role by default, got %s", resp.User.Role)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatalf("expected a token pair")
	}

	// Same email again is a conflict.
	_, err = svc.Register(context.Background(), RegisterRequest{
		FirstName: "Priya",
		LastName:  "Nair",
		Email:     "priya@campus.edu",
		Password:  "long-enough-password",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for duplicate email, got %v", err)
	}

	_, err = svc.Register(context.Background(), RegisterRequest{
		FirstName: "Short",
		LastName:  "Password",
		Email:     "short@campus.edu",
		Password:  "tiny",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for short password, got %v", err)
	}
	_ = repo
}

func TestServiceRefreshAndLogout(t *testing.T) {
	password := "campus-secret"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "sam@campus.edu",
		PasswordHash: mustHashPassword(t, password),
		FirstName:    "Sam",
		LastName:     "Iyer",
		Role:         enums.RoleMember,
		IsActive:     true,
	}

	svc, _, sessionMgr, err := buildTestService(user)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email: user.Email, Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.AccessToken == resp.AccessToken {
		t.Fatalf("expected a new access token after rotation")
	}

	// The old pair is dead after rotation.
	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for replayed refresh, got %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), refreshed.AccessToken)
	if err != nil {
		t.Fatalf("parse refreshed token: %v", err)
	}
	if err := svc.Logout(context.Background(), claims.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessionMgr.sessions) != 0 {
		t.Fatalf("expected all sessions revoked, have %d", len(sessionMgr.sessions))
	}
}

type stubUserRepo struct {
	user *models.User
}

func (s *stubUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	user.ID = uuid.New()
	user.CreatedAt = time.Now().UTC()
	s.user = user
	return user, nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if s.user != nil && s.user.ID == id {
		s.user.LastLoginAt = &at
	}
	return nil
}

type stubSessionManager struct {
	sessions map[string]string
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	token := uuid.NewString()
	s.sessions[accessID] = token
	return token, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := s.sessions[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.sessions, oldAccessID)
	newAccessID := session.NewAccessID()
	token := uuid.NewString()
	s.sessions[newAccessID] = token
	return newAccessID, token, nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	delete(s.sessions, accessID)
	return nil
}
