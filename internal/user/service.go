// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/accounts-api/internal/core"
	"github.com/carterperez-dev/templates/accounts-api/internal/resource"
)

// PhotoStore processes an uploaded profile photo and returns the value to
// keep in the user's photo field.
type PhotoStore interface {
	SaveUserPhoto(ctx context.Context, userID string, src io.Reader) (string, error)
}

var errInvalidCredentials = core.UnauthorizedError("Invalid email or password")

type Service struct {
	repo            Repository
	hasher          *core.PasswordHasher
	photos          PhotoStore
	defaultPassword string
	now             func() time.Time
}

func NewService(
	repo Repository,
	hasher *core.PasswordHasher,
	photos PhotoStore,
	defaultPassword string,
) *Service {
	return &Service{
		repo:            repo,
		hasher:          hasher,
		photos:          photos,
		defaultPassword: defaultPassword,
		now:             time.Now,
	}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if err := ValidateCredentials(in.Password, in.PasswordConfirm); err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = core.RoleUser
	}
	if !role.Valid() {
		return nil, core.ValidationError(fmt.Sprintf("Invalid role: %s", role))
	}

	photo := in.Photo
	if photo == "" {
		photo = DefaultPhoto
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		Name:  in.Name,
		Email: NormalizeEmail(in.Email),
		Photo: photo,
		Role:  role,
	}
	user.SetPassword(hash, s.now())
	user.ID = uuid.New().String()

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// Authenticate checks an email and password pair. Unknown emails and wrong
// passwords fail identically and take the same time.
func (s *Service) Authenticate(
	ctx context.Context,
	email, password string,
) (*User, error) {
	user, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			return nil, err
		}
		//nolint:errcheck // result is irrelevant; the call only burns time
		_, _, _ = s.hasher.VerifyTimingSafe(password, nil)
		return nil, errInvalidCredentials
	}

	valid, newHash, err := s.hasher.VerifyTimingSafe(password, &user.PasswordHash)
	if err != nil || !valid {
		return nil, errInvalidCredentials
	}

	if newHash != "" {
		user.PasswordHash = newHash
		if err := s.repo.UpdateCredentials(ctx, user); err != nil {
			slog.WarnContext(ctx, "password rehash not persisted",
				"user_id", user.ID,
				"error", err,
			)
		}
	}

	return user, nil
}

func (s *Service) VerifyPassword(user *User, password string) bool {
	valid, err := s.hasher.Verify(password, user.PasswordHash)
	return err == nil && valid
}

// ChangePassword sets a new password, records the change time and clears
// any pending reset.
func (s *Service) ChangePassword(
	ctx context.Context,
	user *User,
	password, confirm string,
) error {
	if err := ValidateCredentials(password, confirm); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.SetPassword(hash, s.now())
	user.ClearPasswordReset()

	return s.repo.UpdateCredentials(ctx, user)
}

// StartPasswordReset issues a reset secret for the account behind email and
// returns it alongside the user.
func (s *Service) StartPasswordReset(
	ctx context.Context,
	email string,
) (*User, string, error) {
	user, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, "", core.NotFoundError(
				"There is no user with that email address.",
			)
		}
		return nil, "", err
	}

	token, err := user.CreatePasswordResetToken(s.now())
	if err != nil {
		return nil, "", fmt.Errorf("create reset token: %w", err)
	}

	if err := s.repo.UpdatePasswordReset(ctx, user); err != nil {
		return nil, "", err
	}

	return user, token, nil
}

func (s *Service) CancelPasswordReset(ctx context.Context, user *User) error {
	user.ClearPasswordReset()
	return s.repo.UpdatePasswordReset(ctx, user)
}

func (s *Service) GetByResetToken(ctx context.Context, token string) (*User, error) {
	user, err := s.repo.GetByResetToken(ctx, core.HashToken(token), s.now())
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("Token is invalid or has expired")
		}
		return nil, err
	}

	return user, nil
}

// UpdateMe applies the self-service profile fields. photo may be nil.
func (s *Service) UpdateMe(
	ctx context.Context,
	id string,
	req UpdateMeRequest,
	photo io.Reader,
) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}

	if photo != nil {
		location, err := s.photos.SaveUserPhoto(ctx, user.ID, photo)
		if err != nil {
			return nil, err
		}
		user.Photo = location
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) Deactivate(ctx context.Context, id string) error {
	return s.repo.Deactivate(ctx, id)
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

// DefaultPassword fills in the configured initial password for accounts
// created by an administrator without one.
func (s *Service) DefaultPassword() string {
	return s.defaultPassword
}

// AdminStore exposes the service to the generic resource handler.
type AdminStore struct {
	svc *Service
}

func NewAdminStore(svc *Service) *AdminStore {
	return &AdminStore{svc: svc}
}

func (a *AdminStore) List(ctx context.Context, q resource.Query) ([]User, error) {
	return a.svc.repo.List(ctx, q)
}

func (a *AdminStore) Get(ctx context.Context, id string) (*User, error) {
	return a.svc.repo.GetByID(ctx, id)
}

func (a *AdminStore) Create(ctx context.Context, in *CreateUserRequest) (*User, error) {
	return a.svc.Register(ctx, RegisterInput{
		Name:            in.Name,
		Email:           in.Email,
		Password:        in.Password,
		PasswordConfirm: in.PasswordConfirm,
		Role:            core.Role(in.Role),
		Photo:           in.Photo,
	})
}

func (a *AdminStore) Update(
	ctx context.Context,
	id string,
	in *UpdateUserRequest,
) (*User, error) {
	user, err := a.svc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Email != nil {
		user.Email = NormalizeEmail(*in.Email)
	}
	if in.Photo != nil {
		user.Photo = *in.Photo
	}
	if in.Role != nil {
		user.Role = core.Role(*in.Role)
	}

	if err := a.svc.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (a *AdminStore) Delete(ctx context.Context, id string) error {
	return a.svc.repo.Delete(ctx, id)
}

var _ resource.Store[User, CreateUserRequest, UpdateUserRequest] = (*AdminStore)(nil)
