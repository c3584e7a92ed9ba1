package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bookly/internal/lib/hasher"
	"bookly/internal/lib/jwt"
	"bookly/internal/lib/logger/sl"
	"bookly/internal/lib/verification"
	"bookly/internal/models"
	"bookly/internal/storage"
)

var (
	ErrUnauthenticated          = errors.New("not authenticated")
	ErrInvalidToken             = errors.New("token is invalid or expired")
	ErrAccessTokenRequired      = errors.New("access token required")
	ErrRefreshTokenRequired     = errors.New("refresh token required")
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrAccountNotActive         = errors.New("account is not active")
	ErrAccountNotVerified       = errors.New("account is not verified")
	ErrEmailExists              = errors.New("user with this email already exists")
	ErrUsernameExists           = errors.New("user with this username already exists")
	ErrInvalidVerificationToken = errors.New("verification token is invalid or expired")
	ErrPasswordsDoNotMatch      = errors.New("passwords do not match")
)

// purposeTokenPrefix namespaces spent purpose tokens in the revocation store
// so they can never collide with access token ids.
const purposeTokenPrefix = "purpose_token:"

type UserStorage interface {
	SaveUser(ctx context.Context, user models.User) (models.User, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByUsername(ctx context.Context, username string) (models.User, error)
	UpdateUser(ctx context.Context, user models.User) (models.User, error)
}

type Revoker interface {
	MarkRevoked(ctx context.Context, id string, ttl time.Duration)
	IsRevoked(ctx context.Context, id string) bool
}

// EmailSender delivers purpose tokens to users. Calls must not block on delivery.
type EmailSender interface {
	SendVerificationEmail(ctx context.Context, email, token string)
	SendPasswordResetEmail(ctx context.Context, email, token string)
}

type Settings struct {
	JTIRetention        time.Duration
	VerificationMaxAge  time.Duration
	PasswordResetMaxAge time.Duration
}

type Auth struct {
	log      *slog.Logger
	users    UserStorage
	tx       storage.TxManager
	tokens   *jwt.Codec
	purpose  *verification.Codec
	revoked  Revoker
	mail     EmailSender
	settings Settings
}

func New(
	log *slog.Logger,
	users UserStorage,
	tx storage.TxManager,
	tokens *jwt.Codec,
	purpose *verification.Codec,
	revoked Revoker,
	mail EmailSender,
	settings Settings,
) *Auth {
	return &Auth{
		log:      log,
		users:    users,
		tx:       tx,
		tokens:   tokens,
		purpose:  purpose,
		revoked:  revoked,
		mail:     mail,
		settings: settings,
	}
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	User         models.User
}

func (a *Auth) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	const op = "auth.Register"

	log := a.log.With(
		slog.String("op", op),
	)

	var user models.User

	err := a.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := a.ensureEmailFree(ctx, in.Email); err != nil {
			return err
		}

		if err := a.ensureUsernameFree(ctx, in.Username); err != nil {
			return err
		}

		passHash, err := hasher.Hash(in.Password)
		if err != nil {
			return err
		}

		user, err = a.users.SaveUser(ctx, models.User{
			Username:  in.Username,
			Email:     in.Email,
			PassHash:  passHash,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Role:      models.RoleUser,
			IsActive:  true,
		})
		if errors.Is(err, storage.ErrUserExists) {
			return ErrEmailExists
		}

		return err
	})
	if err != nil {
		if errors.Is(err, ErrEmailExists) || errors.Is(err, ErrUsernameExists) {
			log.Info("user already exists", sl.Err(err))
			return models.User{}, fmt.Errorf("%s: %w", op, err)
		}

		log.Error("failed to save user", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	a.dispatchVerification(ctx, user.Email)

	log.Info("user registered", slog.String("uid", user.ID.String()))

	return user, nil
}

func (a *Auth) Login(ctx context.Context, email, password string) (TokenPair, error) {
	const op = "auth.Login"

	log := a.log.With(
		slog.String("op", op),
	)

	user, err := a.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Info("unknown email")
			return TokenPair{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		log.Error("failed to get user", sl.Err(err))
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	// Account state is only revealed to callers who know the password.
	if !hasher.Verify(password, user.PassHash) {
		log.Info("invalid credentials", slog.String("uid", user.ID.String()))
		return TokenPair{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if !user.IsActive {
		return TokenPair{}, fmt.Errorf("%s: %w", op, ErrAccountNotActive)
	}

	if !user.IsVerified {
		return TokenPair{}, fmt.Errorf("%s: %w", op, ErrAccountNotVerified)
	}

	accessToken, err := a.tokens.NewAccessToken(user)
	if err != nil {
		log.Error("failed to generate access token", sl.Err(err))
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, err := a.tokens.NewRefreshToken(user)
	if err != nil {
		log.Error("failed to generate refresh token", sl.Err(err))
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully", slog.String("uid", user.ID.String()))

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// Logout revokes the access token for the configured retention window.
func (a *Auth) Logout(ctx context.Context, claims *jwt.Claims) {
	const op = "auth.Logout"

	a.revoked.MarkRevoked(ctx, claims.ID, a.settings.JTIRetention)

	a.log.Info("logout successful",
		slog.String("op", op),
		slog.String("uid", claims.User.UID.String()),
	)
}

// Refresh issues a new access token. The refresh token stays valid.
func (a *Auth) Refresh(ctx context.Context, claims *jwt.Claims) (string, error) {
	const op = "auth.Refresh"

	accessToken, err := a.tokens.AccessFromRefresh(claims)
	if err != nil {
		a.log.Error("failed to generate access token", slog.String("op", op), sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return accessToken, nil
}

// RequestVerification sends a new verification email. It reports whether the
// account was already verified, in which case nothing is sent.
func (a *Auth) RequestVerification(ctx context.Context, email string) (bool, error) {
	const op = "auth.RequestVerification"

	user, err := a.users.UserByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if user.IsVerified {
		return true, nil
	}

	a.dispatchVerification(ctx, user.Email)

	return false, nil
}

func (a *Auth) ConfirmVerification(ctx context.Context, token string) error {
	const op = "auth.ConfirmVerification"

	log := a.log.With(
		slog.String("op", op),
	)

	email, err := a.decodePurposeToken(ctx, token, verification.PurposeEmailVerification, a.settings.VerificationMaxAge)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = a.tx.WithTx(ctx, func(ctx context.Context) error {
		user, err := a.users.UserByEmail(ctx, email)
		if err != nil {
			return err
		}

		if !user.IsActive {
			return ErrAccountNotActive
		}

		user.IsVerified = true

		_, err = a.users.UpdateUser(ctx, user)
		return err
	})
	if err != nil {
		log.Warn("failed to verify user", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	a.spendPurposeToken(ctx, token)

	log.Info("account verified")

	return nil
}

func (a *Auth) RequestPasswordReset(ctx context.Context, email string) error {
	const op = "auth.RequestPasswordReset"

	user, err := a.users.UserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := checkAccount(user); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	token, err := a.purpose.Issue(map[string]string{
		"email":   user.Email,
		"purpose": verification.PurposePasswordReset,
	})
	if err != nil {
		a.log.Error("failed to issue reset token", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	a.mail.SendPasswordResetEmail(ctx, user.Email, token)

	return nil
}

// ValidatePasswordResetToken checks a reset link without consuming it.
func (a *Auth) ValidatePasswordResetToken(ctx context.Context, token string) error {
	const op = "auth.ValidatePasswordResetToken"

	if _, err := a.decodePurposeToken(ctx, token, verification.PurposePasswordReset, a.settings.PasswordResetMaxAge); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (a *Auth) ConfirmPasswordReset(ctx context.Context, token, newPassword, confirmPassword string) error {
	const op = "auth.ConfirmPasswordReset"

	log := a.log.With(
		slog.String("op", op),
	)

	if newPassword != confirmPassword {
		return fmt.Errorf("%s: %w", op, ErrPasswordsDoNotMatch)
	}

	email, err := a.decodePurposeToken(ctx, token, verification.PurposePasswordReset, a.settings.PasswordResetMaxAge)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = a.tx.WithTx(ctx, func(ctx context.Context) error {
		user, err := a.users.UserByEmail(ctx, email)
		if err != nil {
			return err
		}

		if err := checkAccount(user); err != nil {
			return err
		}

		user.PassHash, err = hasher.Hash(newPassword)
		if err != nil {
			return err
		}

		_, err = a.users.UpdateUser(ctx, user)
		return err
	})
	if err != nil {
		log.Warn("failed to reset password", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	a.spendPurposeToken(ctx, token)

	log.Info("password reset")

	return nil
}

func (a *Auth) ensureEmailFree(ctx context.Context, email string) error {
	_, err := a.users.UserByEmail(ctx, email)
	switch {
	case err == nil:
		return ErrEmailExists
	case errors.Is(err, storage.ErrUserNotFound):
		return nil
	default:
		return err
	}
}

func (a *Auth) ensureUsernameFree(ctx context.Context, username string) error {
	_, err := a.users.UserByUsername(ctx, username)
	switch {
	case err == nil:
		return ErrUsernameExists
	case errors.Is(err, storage.ErrUserNotFound):
		return nil
	default:
		return err
	}
}

func (a *Auth) dispatchVerification(ctx context.Context, email string) {
	const op = "auth.dispatchVerification"

	token, err := a.purpose.Issue(map[string]string{
		"email":   email,
		"purpose": verification.PurposeEmailVerification,
	})
	if err != nil {
		a.log.Error("failed to issue verification token", slog.String("op", op), sl.Err(err))
		return
	}

	a.mail.SendVerificationEmail(ctx, email, token)
}

// decodePurposeToken returns the email carried by an unspent token issued for purpose.
func (a *Auth) decodePurposeToken(ctx context.Context, token, purpose string, maxAge time.Duration) (string, error) {
	if a.revoked.IsRevoked(ctx, purposeTokenPrefix+token) {
		return "", ErrInvalidVerificationToken
	}

	payload, err := a.purpose.Decode(token, maxAge)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidVerificationToken, err)
	}

	email := payload["email"]
	if email == "" || payload["purpose"] != purpose {
		return "", ErrInvalidVerificationToken
	}

	return email, nil
}

// spendPurposeToken marks token as used for as long as any flow could still accept it.
func (a *Auth) spendPurposeToken(ctx context.Context, token string) {
	ttl := max(a.settings.VerificationMaxAge, a.settings.PasswordResetMaxAge)

	a.revoked.MarkRevoked(ctx, purposeTokenPrefix+token, ttl)
}

func checkAccount(user models.User) error {
	if !user.IsActive {
		return ErrAccountNotActive
	}

	if !user.IsVerified {
		return ErrAccountNotVerified
	}

	return nil
}
