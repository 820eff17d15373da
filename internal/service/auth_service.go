package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/dto"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/workflow"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	Issuer             string
	Audience           []string
	SingleSession      bool
}

// AuthService issues and rotates tokens for AKTIF accounts.
type AuthService struct {
	repo      authUserRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

func NewAuthService(repo authUserRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{repo: repo, validator: validate, logger: logger, config: config, now: func() time.Time { return time.Now().UTC() }}
}

// Login checks credentials and opens a session for an AKTIF account.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest, meta RequestMeta) (*dto.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Internal(err, "failed to fetch user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}
	if !user.Active() {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	if s.config.SingleSession {
		if err := s.repo.RevokeUserRefreshTokens(ctx, user.ID); err != nil {
			s.logger.Warn("failed to revoke previous refresh tokens", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	session, err := s.open(ctx, user, meta)
	if err != nil {
		return nil, err
	}
	session.User = dto.NewSessionUser(user)

	if err := s.repo.UpdateLastLogin(ctx, user.ID, session.IssuedAt); err != nil {
		s.logger.Warn("failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	}
	s.audit(ctx, user.ID, models.AuditActionLogin, meta)
	return session, nil
}

// Refresh rotates a refresh token. A token that was already rotated is
// rejected even if it has not expired, and the holder must still be AKTIF.
func (s *AuthService) Refresh(ctx context.Context, req dto.RefreshRequest, meta RequestMeta) (*dto.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid refresh payload")
	}

	stored, err := s.repo.FindRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token not found")
		}
		return nil, appErrors.Internal(err, "failed to fetch refresh token")
	}
	now := s.now()
	if !stored.Usable(now) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token is expired or revoked")
	}

	user, err := s.repo.FindByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "associated user no longer exists")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	if !user.Active() {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	// The conditional revoke makes a concurrent second exchange of the same token lose.
	if err := s.repo.RevokeRefreshToken(ctx, stored.ID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token is expired or revoked")
		}
		return nil, appErrors.Internal(err, "failed to revoke refresh token")
	}

	session, err := s.open(ctx, user, meta)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, user.ID, models.AuditActionTokenRefresh, meta)
	return session, nil
}

// Logout revokes one of the actor's refresh tokens.
func (s *AuthService) Logout(ctx context.Context, req dto.RefreshRequest, actor workflow.Actor, meta RequestMeta) error {
	if actor.UserID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	stored, err := s.repo.FindRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrUnauthorized, "refresh token not found")
		}
		return appErrors.Internal(err, "failed to load refresh token")
	}
	if stored.UserID != actor.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "token does not belong to user")
	}
	if err := s.repo.RevokeRefreshToken(ctx, stored.ID, s.now()); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Internal(err, "failed to revoke refresh token")
	}
	s.audit(ctx, actor.UserID, models.AuditActionLogout, meta)
	return nil
}

// ChangePassword changes the actor's password and ends every session.
func (s *AuthService) ChangePassword(ctx context.Context, actor workflow.Actor, req dto.ChangePasswordRequest, meta RequestMeta) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid change password payload")
	}

	user, err := s.profile(ctx, actor)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return appErrors.WithFields(appErrors.ErrValidation, "old password does not match", map[string]string{"old_password": "does not match"})
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Internal(err, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(newHash), s.now()); err != nil {
		return appErrors.Internal(err, "failed to update password")
	}
	if err := s.repo.RevokeUserRefreshTokens(ctx, user.ID); err != nil {
		s.logger.Warn("failed to revoke refresh tokens after password change", zap.String("user_id", user.ID), zap.Error(err))
	}
	s.audit(ctx, user.ID, models.AuditActionPasswordChange, meta)
	return nil
}

// Me returns the current profile of the token holder.
func (s *AuthService) Me(ctx context.Context, actor workflow.Actor) (*dto.SessionUser, error) {
	user, err := s.profile(ctx, actor)
	if err != nil {
		return nil, err
	}
	return dto.NewSessionUser(user), nil
}

func (s *AuthService) profile(ctx context.Context, actor workflow.Actor) (*models.User, error) {
	if actor.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	user, err := s.repo.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, lookupError(err, "user not found", "failed to load user")
	}
	return user, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || !claims.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) open(ctx context.Context, user *models.User, meta RequestMeta) (*dto.Session, error) {
	issuedAt := s.now()
	accessToken, err := s.generateAccessToken(user, issuedAt)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}
	refresh, err := s.issueRefreshToken(ctx, user.ID, meta, issuedAt)
	if err != nil {
		return nil, err
	}
	return &dto.Session{
		AccessToken:  accessToken,
		RefreshToken: refresh.Token,
		ExpiresIn:    int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:     issuedAt,
	}, nil
}

func (s *AuthService) issueRefreshToken(ctx context.Context, userID string, meta RequestMeta, now time.Time) (*models.RefreshToken, error) {
	value, err := generateRefreshTokenString()
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create refresh token")
	}
	token := &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     value,
		ExpiresAt: now.Add(s.config.RefreshTokenExpiry),
		CreatedAt: now,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	}
	if err := s.repo.CreateRefreshToken(ctx, token); err != nil {
		return nil, appErrors.Internal(err, "failed to persist refresh token")
	}
	return token, nil
}

func (s *AuthService) generateAccessToken(user *models.User, issuedAt time.Time) (string, error) {
	claims := &models.JWTClaims{
		UserID: user.ID,
		Role:   user.Role,
		Status: user.Status,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			Audience:  s.config.Audience,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.AccessTokenSecret))
}

func (s *AuthService) audit(ctx context.Context, userID, action string, meta RequestMeta) {
	writeAudit(ctx, s.repo, s.logger, auditEntry{ActorID: userID, Action: action, Resource: "auth", ResourceID: userID}, meta)
}

func generateRefreshTokenString() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
