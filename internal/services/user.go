package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/tastebud/apiserver/internal/store"
	"github.com/tastebud/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const (
	// passwordHashCost is the bcrypt work factor for stored passwords.
	passwordHashCost = 12

	minPasswordLen = 6
	minUsernameLen = 3
	maxUsernameLen = 30

	resetTokenBytes = 32
	resetTokenTTL   = time.Hour

	defaultUserRole = "user"
	adminRole       = "admin"
)

var usernameRegexp = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	SetResetToken(ctx context.Context, id int, tokenHash string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id int) error
	GetByResetToken(ctx context.Context, tokenHash string) (types.User, error)
	UpdateAvatar(ctx context.Context, id int, avatarURL string) error
}

// UserService encapsulates account use-cases: registration, credential
// checks, and the password-reset lifecycle. All password writes go
// through hashPassword; there is no plaintext assignment path.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// RegisterInput carries validated-at-the-boundary registration fields.
type RegisterInput struct {
	Username string
	Email    string
	Name     string
	Password string
}

// Register creates an account. Duplicate email or username surface as
// store.ErrDuplicateEmail / store.ErrDuplicateUsername from the store's
// unique indexes; there is no read-then-write race window.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (types.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	input.Name = strings.TrimSpace(input.Name)

	if err := validateUsername(input.Username); err != nil {
		return types.User{}, err
	}
	if err := validateEmail(input.Email); err != nil {
		return types.User{}, err
	}
	if input.Name == "" {
		return types.User{}, invalid("name", "name is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return types.User{}, err
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return types.User{}, err
	}

	return s.repo.Create(ctx, types.User{
		Username:     input.Username,
		Email:        input.Email,
		Name:         input.Name,
		Role:         defaultUserRole,
		PasswordHash: hash,
	})
}

// Authenticate verifies an email/password pair. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (types.User, error) {
	user, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return types.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

// ChangePassword updates the password of an authenticated user after
// re-checking the current one. Pending reset tokens are left untouched.
func (s *UserService) ChangePassword(ctx context.Context, userID int, currentPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return ErrInvalidCredentials
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, user.ID, hash)
}

// RequestPasswordReset issues a fresh single-use reset token for the
// account behind email, overwriting any prior one. Only the token's
// hash is persisted; the raw value is returned for delivery and then
// forgotten. Unknown emails surface as store.ErrNotFound so the HTTP
// boundary can shape an anti-enumeration response.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) (string, types.User, error) {
	user, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return "", types.User{}, err
	}

	rawToken, err := newResetToken()
	if err != nil {
		return "", types.User{}, err
	}

	expiresAt := time.Now().Add(resetTokenTTL)
	if err := s.repo.SetResetToken(ctx, user.ID, hashResetToken(rawToken), expiresAt); err != nil {
		return "", types.User{}, err
	}
	return rawToken, user, nil
}

// ResetPassword exchanges a raw reset token for a password change. The
// lookup matches only unexpired token hashes; on success the token is
// cleared so it cannot be replayed.
func (s *UserService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if strings.TrimSpace(rawToken) == "" {
		return ErrInvalidResetToken
	}

	user, err := s.repo.GetByResetToken(ctx, hashResetToken(rawToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	return s.repo.ClearResetToken(ctx, user.ID)
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID int, avatarURL string) error {
	return s.repo.UpdateAvatar(ctx, userID, avatarURL)
}

// IsAdmin reports whether the user carries the admin role.
func IsAdmin(user types.User) bool {
	return strings.EqualFold(user.Role, adminRole)
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

func newResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashResetToken(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}

func validateUsername(username string) error {
	if len(username) < minUsernameLen {
		return invalid("username", fmt.Sprintf("username must be at least %d characters", minUsernameLen))
	}
	if len(username) > maxUsernameLen {
		return invalid("username", fmt.Sprintf("username must be at most %d characters", maxUsernameLen))
	}
	if !usernameRegexp.MatchString(username) {
		return invalid("username", "username can only contain letters, numbers, _ and -")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return invalid("email", "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return invalid("email", "invalid email address")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLen {
		return invalid("password", fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	return nil
}
