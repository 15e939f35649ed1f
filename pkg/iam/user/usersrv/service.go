package usersrv

import (
	"context"

	"github.com/Abraxas-365/academy/pkg/iam/user"
	"github.com/Abraxas-365/academy/pkg/kernel"
	"github.com/Abraxas-365/academy/pkg/logx"
)

// PasswordHasher is the piece of the credential verifier the service needs
// for admin-side account provisioning.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

// NotificationEnqueuer queues account lifecycle emails for async delivery.
type NotificationEnqueuer interface {
	EnqueueWelcome(ctx context.Context, u *user.User) error
	EnqueueInstructorApproved(ctx context.Context, u *user.User) error
}

// UserService covers profile management and the admin account operations.
type UserService struct {
	repo          user.Repository
	hasher        PasswordHasher
	notifications NotificationEnqueuer
}

// NewUserService creates the user service. notifications may be nil, which
// disables lifecycle emails.
func NewUserService(repo user.Repository, hasher PasswordHasher, notifications NotificationEnqueuer) *UserService {
	return &UserService{
		repo:          repo,
		hasher:        hasher,
		notifications: notifications,
	}
}

// GetUser fetches one account.
func (s *UserService) GetUser(ctx context.Context, id kernel.UserID) (*user.User, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateProfile patches the caller's own name and avatar. Nil fields are
// left untouched.
func (s *UserService) UpdateProfile(ctx context.Context, id kernel.UserID, name, avatar *string) (*user.User, error) {
	if name == nil && avatar == nil {
		return s.repo.FindByID(ctx, id)
	}
	return s.repo.UpdateProfile(ctx, id, name, avatar)
}

// ListUsers pages through accounts for the admin dashboard.
func (s *UserService) ListUsers(ctx context.Context, filter user.ListFilter, opts kernel.PaginationOptions) (kernel.Paginated[user.User], error) {
	return s.repo.List(ctx, filter, opts)
}

// CountUsers counts accounts matching the filter.
func (s *UserService) CountUsers(ctx context.Context, filter user.ListFilter) (int, error) {
	return s.repo.Count(ctx, filter)
}

// CreateInstructor provisions an instructor account directly. Unlike
// self-registration, an admin-created instructor starts active and
// approved.
func (s *UserService) CreateInstructor(ctx context.Context, email, name, password string) (*user.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.Create(ctx, user.NewUser{
		Email:        user.NormalizeEmail(email),
		Name:         name,
		PasswordHash: &hash,
		Role:         kernel.RoleInstructor,
		IsApproved:   true,
	})
	if err != nil {
		return nil, err
	}

	logx.WithFields(logx.Fields{
		"user_id": u.ID,
		"email":   u.Email,
	}).Info("instructor account provisioned")
	return u, nil
}

// ApproveInstructor grants the instructor capability. The target may be a
// student who applied or an instructor awaiting approval; either way the
// account ends up as an approved instructor. Approving an already approved
// instructor is a no-op.
func (s *UserService) ApproveInstructor(ctx context.Context, id kernel.UserID) (*user.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role == kernel.RoleInstructor && u.IsApproved {
		return u, nil
	}
	if u.Role == kernel.RoleAdmin {
		return nil, user.ErrRegistry.NewWithMessage(user.CodeInvalidInput, "Admins cannot be converted to instructors")
	}

	if u.Role != kernel.RoleInstructor {
		if err := s.repo.SetRole(ctx, id, kernel.RoleInstructor); err != nil {
			return nil, err
		}
	}
	if err := s.repo.SetApproval(ctx, id, true); err != nil {
		return nil, err
	}

	u, err = s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.notifications != nil {
		if nerr := s.notifications.EnqueueInstructorApproved(ctx, u); nerr != nil {
			logx.WithError(nerr).WithField("user_id", id).Warn("failed to queue approval notification")
		}
	}

	logx.WithField("user_id", id).Info("instructor approved")
	return u, nil
}

// SetActive flips the account kill switch. Deactivation takes effect on the
// next authentication or session resolution.
func (s *UserService) SetActive(ctx context.Context, id kernel.UserID, active bool) (*user.User, error) {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, err
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	logx.WithFields(logx.Fields{
		"user_id": id,
		"active":  active,
	}).Info("account active state changed")
	return u, nil
}
