// AngelaMos | 2026
// service_test.go

package user_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/accounts-api/internal/config"
	"github.com/carterperez-dev/templates/accounts-api/internal/core"
	"github.com/carterperez-dev/templates/accounts-api/internal/user"
	"github.com/carterperez-dev/templates/accounts-api/internal/user/usertest"
)

type stubPhotos struct {
	saved map[string][]byte
	err   error
}

func (s *stubPhotos) SaveUserPhoto(
	_ context.Context,
	userID string,
	src io.Reader,
) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	b, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	s.saved[userID] = b
	return "user-" + userID + ".jpeg", nil
}

func testHasher(t *testing.T) *core.PasswordHasher {
	t.Helper()
	h, err := core.NewPasswordHasher(config.SecurityConfig{
		ArgonTime:    1,
		ArgonMemory:  1024,
		ArgonThreads: 1,
	})
	require.NoError(t, err)
	return h
}

func newService(t *testing.T) (*user.Service, *usertest.MemoryRepository, *stubPhotos) {
	t.Helper()
	repo := usertest.NewMemoryRepository()
	photos := &stubPhotos{}
	return user.NewService(repo, testHasher(t), photos, "initial-pass"), repo, photos
}

func register(t *testing.T, svc *user.Service, email string) *user.User {
	t.Helper()
	u, err := svc.Register(context.Background(), user.RegisterInput{
		Name:            "Laura",
		Email:           email,
		Password:        "pass1234",
		PasswordConfirm: "pass1234",
	})
	require.NoError(t, err)
	return u
}

func TestRegister(t *testing.T) {
	svc, repo, _ := newService(t)

	u := register(t, svc, "  Laura@Example.COM ")

	assert.Equal(t, "laura@example.com", u.Email)
	assert.Equal(t, core.RoleUser, u.Role)
	assert.Equal(t, user.DefaultPhoto, u.Photo)
	assert.Nil(t, u.PasswordChangedAt)
	assert.NotEqual(t, "pass1234", u.PasswordHash)

	stored, ok := repo.Find(u.ID)
	require.True(t, ok)
	assert.True(t, stored.Active)
	assert.Contains(t, stored.PasswordHash, "$argon2id$")
}

func TestRegisterRejectsMismatchedConfirmation(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Register(context.Background(), user.RegisterInput{
		Name:            "Laura",
		Email:           "laura@example.com",
		Password:        "pass1234",
		PasswordConfirm: "pass4321",
	})

	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Passwords are not the same", appErr.Message)
}

func TestAuthenticate(t *testing.T) {
	svc, _, _ := newService(t)
	registered := register(t, svc, "laura@example.com")
	ctx := context.Background()

	u, err := svc.Authenticate(ctx, "LAURA@example.com", "pass1234")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, u.ID)

	_, wrongPass := svc.Authenticate(ctx, "laura@example.com", "nope12345")
	_, unknown := svc.Authenticate(ctx, "ghost@example.com", "pass1234")

	require.Error(t, wrongPass)
	require.Error(t, unknown)
	assert.Equal(t, wrongPass.Error(), unknown.Error())

	appErr, ok := core.AsAppError(unknown)
	require.True(t, ok)
	assert.Equal(t, 401, appErr.StatusCode)
}

func TestAuthenticateUpgradesOutdatedHash(t *testing.T) {
	ctx := context.Background()
	repo := usertest.NewMemoryRepository()

	weak, err := core.NewPasswordHasher(config.SecurityConfig{
		ArgonTime: 1, ArgonMemory: 512, ArgonThreads: 1,
	})
	require.NoError(t, err)
	oldHash, err := weak.Hash("pass1234")
	require.NoError(t, err)

	repo.Put(&user.User{
		ID:           "11111111-1111-4111-8111-111111111111",
		Email:        "old@example.com",
		Role:         core.RoleUser,
		PasswordHash: oldHash,
		Active:       true,
	})

	svc := user.NewService(repo, testHasher(t), &stubPhotos{}, "initial-pass")
	_, err = svc.Authenticate(ctx, "old@example.com", "pass1234")
	require.NoError(t, err)

	stored, _ := repo.Find("11111111-1111-4111-8111-111111111111")
	assert.NotEqual(t, oldHash, stored.PasswordHash)
	assert.Contains(t, stored.PasswordHash, "m=1024")
	assert.Nil(t, stored.PasswordChangedAt)
}

func TestChangePassword(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()
	u := register(t, svc, "laura@example.com")

	require.NoError(t, svc.ChangePassword(ctx, u, "newpass123", "newpass123"))

	stored, _ := repo.Find(u.ID)
	require.NotNil(t, stored.PasswordChangedAt)
	assert.True(t, svc.VerifyPassword(stored, "newpass123"))
	assert.False(t, svc.VerifyPassword(stored, "pass1234"))
}

func TestPasswordResetLifecycle(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()
	u := register(t, svc, "laura@example.com")

	_, token, err := svc.StartPasswordReset(ctx, "laura@example.com")
	require.NoError(t, err)

	stored, _ := repo.Find(u.ID)
	require.NotNil(t, stored.PasswordResetToken)
	assert.Equal(t, core.HashToken(token), *stored.PasswordResetToken)

	found, err := svc.GetByResetToken(ctx, token)
	require.NoError(t, err)
	require.NoError(t, svc.ChangePassword(ctx, found, "another123", "another123"))

	stored, _ = repo.Find(u.ID)
	assert.Nil(t, stored.PasswordResetToken)
	assert.Nil(t, stored.PasswordResetExpiresAt)

	_, err = svc.GetByResetToken(ctx, token)
	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Token is invalid or has expired", appErr.Message)
}

func TestStartPasswordResetUnknownEmail(t *testing.T) {
	svc, _, _ := newService(t)

	_, _, err := svc.StartPasswordReset(context.Background(), "ghost@example.com")

	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.StatusCode)
}

func TestCancelPasswordReset(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()
	register(t, svc, "laura@example.com")

	u, token, err := svc.StartPasswordReset(ctx, "laura@example.com")
	require.NoError(t, err)
	require.NoError(t, svc.CancelPasswordReset(ctx, u))

	stored, _ := repo.Find(u.ID)
	assert.Nil(t, stored.PasswordResetToken)

	_, err = svc.GetByResetToken(ctx, token)
	assert.Error(t, err)
}

func TestUpdateMe(t *testing.T) {
	svc, _, photos := newService(t)
	ctx := context.Background()
	u := register(t, svc, "laura@example.com")

	name := "Laura Wilson"
	updated, err := svc.UpdateMe(ctx, u.ID, user.UpdateMeRequest{Name: &name}, nil)
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, user.DefaultPhoto, updated.Photo)

	updated, err = svc.UpdateMe(ctx, u.ID, user.UpdateMeRequest{}, strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, "user-"+u.ID+".jpeg", updated.Photo)
	assert.Equal(t, []byte("img"), photos.saved[u.ID])
}

func TestUpdateMePhotoFailureLeavesUserUnchanged(t *testing.T) {
	svc, repo, photos := newService(t)
	u := register(t, svc, "laura@example.com")
	photos.err = core.BadRequestError("Not an image! Please upload only images.")

	_, err := svc.UpdateMe(context.Background(), u.ID, user.UpdateMeRequest{}, strings.NewReader("x"))
	require.Error(t, err)

	stored, _ := repo.Find(u.ID)
	assert.Equal(t, user.DefaultPhoto, stored.Photo)
}

func TestDeactivateHidesUser(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	u := register(t, svc, "laura@example.com")

	require.NoError(t, svc.Deactivate(ctx, u.ID))

	_, err := svc.GetByID(ctx, u.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))

	_, err = svc.Authenticate(ctx, "laura@example.com", "pass1234")
	assert.Error(t, err)
}
