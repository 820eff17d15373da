package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/dto"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/repository"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Deactivate(ctx context.Context, id string) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// UserService handles account administration.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated users.
func (s *UserService) List(ctx context.Context, q dto.UserQuery) ([]models.User, *models.Pagination, error) {
	filter := models.UserFilter{
		DepartmentID: q.DepartmentID,
		Search:       strings.TrimSpace(q.Search),
		Page:         q.Page,
		PageSize:     q.PageSize,
		SortBy:       q.SortBy,
		SortOrder:    q.SortOrder,
	}
	if q.Role != "" {
		role := models.UserRole(strings.ToUpper(q.Role))
		if !role.Valid() {
			return nil, nil, appErrors.WithFields(appErrors.ErrValidation, "invalid filter", map[string]string{"role": "unknown role"})
		}
		filter.Role = &role
	}
	if q.Status != "" {
		status := models.UserStatus(strings.ToUpper(q.Status))
		if status != models.UserStatusActive && status != models.UserStatusInactive {
			return nil, nil, appErrors.WithFields(appErrors.ErrValidation, "invalid filter", map[string]string{"status": "must be AKTIF or NONAKTIF"})
		}
		filter.Status = &status
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list users")
	}
	return users, paginate(filter.Page, filter.PageSize, total), nil
}

// ListReviewers returns the AKTIF reviewers an ADMIN can assign.
func (s *UserService) ListReviewers(ctx context.Context) ([]models.User, error) {
	role := models.RoleReviewer
	status := models.UserStatusActive
	users, _, err := s.repo.List(ctx, models.UserFilter{Role: &role, Status: &status, PageSize: 100, SortBy: "full_name", SortOrder: "ASC"})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list reviewers")
	}
	return users, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "user not found", "failed to load user")
	}
	return user, nil
}

// Create registers an account. The password is hashed with bcrypt.
func (s *UserService) Create(ctx context.Context, req dto.CreateUserRequest, actorID string, meta RequestMeta) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create user payload")
	}
	if fields := identityFields(req.Role, req.NIDN, req.NIM); len(fields) > 0 {
		return nil, appErrors.WithFields(appErrors.ErrValidation, "invalid create user payload", fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}
	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		NIDN:         req.NIDN,
		NIM:          req.NIM,
		Role:         req.Role,
		Status:       models.UserStatusActive,
		DepartmentID: req.DepartmentID,
		ProgramID:    req.ProgramID,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, appErrors.Internal(err, "failed to create user")
	}

	writeAudit(ctx, s.repo, s.logger, auditEntry{
		ActorID: actorID, Action: models.AuditActionUserCreate, Resource: "users", ResourceID: user.ID,
		New: map[string]interface{}{"email": user.Email, "role": user.Role},
	}, meta)
	return user, nil
}

// Update changes profile fields and status. Deactivation also ends the user's sessions.
func (s *UserService) Update(ctx context.Context, id string, req dto.UpdateUserRequest, actorID string, meta RequestMeta) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update user payload")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "user not found", "failed to load user")
	}
	before := map[string]interface{}{"full_name": user.FullName, "status": user.Status}

	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Status != nil {
		if id == actorID && *req.Status == models.UserStatusInactive {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot deactivate your own account")
		}
		user.Status = *req.Status
	}
	if req.NIDN != nil {
		user.NIDN = req.NIDN
	}
	if req.NIM != nil {
		user.NIM = req.NIM
	}
	if req.DepartmentID != nil {
		user.DepartmentID = req.DepartmentID
	}
	if req.ProgramID != nil {
		user.ProgramID = req.ProgramID
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, lookupError(err, "user not found", "failed to update user")
	}
	if user.Status == models.UserStatusInactive {
		s.revokeSessions(ctx, user.ID)
	}

	writeAudit(ctx, s.repo, s.logger, auditEntry{
		ActorID: actorID, Action: models.AuditActionUserUpdate, Resource: "users", ResourceID: user.ID,
		Old: before, New: map[string]interface{}{"full_name": user.FullName, "status": user.Status},
	}, meta)
	return user, nil
}

// Deactivate sets the account NONAKTIF. Accounts are never hard-deleted
// because proposals and reviews keep referencing them.
func (s *UserService) Deactivate(ctx context.Context, id, actorID string, meta RequestMeta) error {
	if id == actorID {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot deactivate your own account")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return lookupError(err, "user not found", "failed to deactivate user")
	}
	s.revokeSessions(ctx, id)
	writeAudit(ctx, s.repo, s.logger, auditEntry{
		ActorID: actorID, Action: models.AuditActionUserDelete, Resource: "users", ResourceID: id,
		New: map[string]interface{}{"status": models.UserStatusInactive},
	}, meta)
	return nil
}

func (s *UserService) revokeSessions(ctx context.Context, userID string) {
	if err := s.repo.RevokeUserRefreshTokens(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke refresh tokens", zap.String("user_id", userID), zap.Error(err))
	}
}

// identityFields requires NIDN for lecturers and NIM for students.
func identityFields(role models.UserRole, nidn, nim *string) map[string]string {
	fields := make(map[string]string)
	switch role {
	case models.RoleDosen:
		if nidn == nil || strings.TrimSpace(*nidn) == "" {
			fields["nidn"] = "required for DOSEN"
		}
	case models.RoleMahasiswa:
		if nim == nil || strings.TrimSpace(*nim) == "" {
			fields["nim"] = "required for MAHASISWA"
		}
	}
	return fields
}
