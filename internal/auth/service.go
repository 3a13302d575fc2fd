// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/templates/accounts-api/internal/core"
	"github.com/carterperez-dev/templates/accounts-api/internal/mail"
	"github.com/carterperez-dev/templates/accounts-api/internal/middleware"
	"github.com/carterperez-dev/templates/accounts-api/internal/user"
)

const welcomeTimeout = 30 * time.Second

var (
	errUserGone = core.UnauthorizedError(
		"The user belonging to this token does no longer exist.",
	)
	errPasswordChanged = core.UnauthorizedError(
		"User recently changed password! Please log in again.",
	)
	errMissingCredentials = core.BadRequestError("Please provide email and password")
	errMissingCurrent     = core.BadRequestError("Please provide your current password")
	errWrongCurrent       = core.UnauthorizedError("Your current password is wrong")
	errResetDelivery      = core.DeliveryError(
		"There was an error sending the email. Try again later!",
	)
)

// Users is the credential store the auth flows run against.
type Users interface {
	Register(ctx context.Context, in user.RegisterInput) (*user.User, error)
	GetByID(ctx context.Context, id string) (*user.User, error)
	Authenticate(ctx context.Context, email, password string) (*user.User, error)
	VerifyPassword(u *user.User, password string) bool
	ChangePassword(ctx context.Context, u *user.User, password, confirm string) error
	StartPasswordReset(ctx context.Context, email string) (*user.User, string, error)
	CancelPasswordReset(ctx context.Context, u *user.User) error
	GetByResetToken(ctx context.Context, token string) (*user.User, error)
}

// Session is a freshly issued token and the user it belongs to.
type Session struct {
	Token string
	User  *user.User
}

type Service struct {
	users  Users
	tokens *TokenManager
	mailer mail.Sender
	wg     sync.WaitGroup
}

func NewService(users Users, tokens *TokenManager, mailer mail.Sender) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		mailer: mailer,
	}
}

// Signup creates a regular user and logs them in. The welcome email goes
// out in the background and its failure does not fail the signup.
func (s *Service) Signup(
	ctx context.Context,
	req SignupRequest,
	accountURL string,
) (_ *Session, err error) {
	ctx, span := core.StartSpan(ctx, "auth.signup")
	defer func() { core.EndSpan(span, err) }()

	u, err := s.users.Register(ctx, user.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		Role:            core.RoleUser,
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", u.ID))

	s.sendWelcome(ctx, u, accountURL)

	return s.session(u)
}

func (s *Service) sendWelcome(ctx context.Context, u *user.User, url string) {
	to := mail.Recipient{Name: u.Name, Email: u.Email}
	detached := context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(detached, welcomeTimeout)
		defer cancel()

		if err := s.mailer.SendWelcome(ctx, to, url); err != nil {
			slog.WarnContext(ctx, "welcome email failed",
				"user_id", u.ID,
				"error", err,
			)
		}
	}()
}

func (s *Service) Signin(
	ctx context.Context,
	req SigninRequest,
) (_ *Session, err error) {
	ctx, span := core.StartSpan(ctx, "auth.signin")
	defer func() { core.EndSpan(span, err) }()

	if req.Email == "" || req.Password == "" {
		return nil, errMissingCredentials
	}

	u, err := s.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", u.ID))

	return s.session(u)
}

// ForgotPassword issues a reset token and mails the reset link built from
// resetBase. When the mail cannot be sent the token is withdrawn.
func (s *Service) ForgotPassword(
	ctx context.Context,
	email, resetBase string,
) (err error) {
	ctx, span := core.StartSpan(ctx, "auth.forgot_password")
	defer func() { core.EndSpan(span, err) }()

	u, token, err := s.users.StartPasswordReset(ctx, email)
	if err != nil {
		return err
	}

	to := mail.Recipient{Name: u.Name, Email: u.Email}
	if sendErr := s.mailer.SendPasswordReset(ctx, to, resetBase+token); sendErr != nil {
		slog.ErrorContext(ctx, "password reset email failed",
			"user_id", u.ID,
			"error", sendErr,
		)

		if err := s.users.CancelPasswordReset(ctx, u); err != nil {
			return fmt.Errorf("cancel password reset: %w", err)
		}
		return errResetDelivery
	}

	core.AddSpanEvent(ctx, "reset_token_sent", attribute.String("user.id", u.ID))
	return nil
}

func (s *Service) ResetPassword(
	ctx context.Context,
	token string,
	req ResetPasswordRequest,
) (_ *Session, err error) {
	ctx, span := core.StartSpan(ctx, "auth.reset_password")
	defer func() { core.EndSpan(span, err) }()

	u, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := s.users.ChangePassword(ctx, u, req.Password, req.PasswordConfirm); err != nil {
		return nil, err
	}

	return s.session(u)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID string,
	req UpdatePasswordRequest,
) (_ *Session, err error) {
	ctx, span := core.StartSpan(ctx, "auth.update_password",
		attribute.String("user.id", userID),
	)
	defer func() { core.EndSpan(span, err) }()

	if req.PasswordCurrent == "" {
		return nil, errMissingCurrent
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !s.users.VerifyPassword(u, req.PasswordCurrent) {
		return nil, errWrongCurrent
	}

	if err := s.users.ChangePassword(ctx, u, req.Password, req.PasswordConfirm); err != nil {
		return nil, err
	}

	return s.session(u)
}

// Resolve implements middleware.Resolver.
func (s *Service) Resolve(ctx context.Context, token string) (*middleware.Identity, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, core.ErrTokenExpired) {
			return nil, core.TokenExpiredError()
		}
		return nil, core.TokenInvalidError()
	}

	u, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrInvalidID) {
			return nil, errUserGone
		}
		return nil, err
	}

	if u.ChangedPasswordAfter(claims.IssuedAt) {
		return nil, errPasswordChanged
	}

	return u.Identity(), nil
}

// Wait blocks until background welcome emails have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) session(u *user.User) (*Session, error) {
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, User: u}, nil
}

var _ middleware.Resolver = (*Service)(nil)
