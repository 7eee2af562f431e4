package taskvault

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// AuthResult is returned on successful registration or login.
type AuthResult struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}

// AccountService composes the credential store, hasher and token codec
// into the registration and login flows.
type AccountService struct {
	Users  UserStore
	Hasher PasswordHasher
	Codec  *TokenCodec
}

// NewAccountService creates an AccountService.
func NewAccountService(users UserStore, hasher PasswordHasher, codec *TokenCodec) *AccountService {
	return &AccountService{Users: users, Hasher: hasher, Codec: codec}
}

// Register creates a new account and issues its first token. The
// submitted password exists only on the stack here: the store receives
// the bcrypt digest. Callers validate structural constraints first; this
// method only enforces email uniqueness.
func (s *AccountService) Register(creds *Credentials) (*AuthResult, error) {
	email := NormalizeEmail(creds.Email)

	if _, err := s.Users.GetUserByEmail(email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	hash, err := s.Hasher.Hash(creds.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(creds.Name),
		Email:        email,
		PasswordHash: hash,
	}
	// The store's uniqueness constraint backstops the lookup above
	// against concurrent registrations of the same email.
	if err := s.Users.CreateUser(user); err != nil {
		return nil, err
	}

	token, err := s.Codec.IssueToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user.Public()}, nil
}

// Login verifies credentials and issues a token. Unknown emails and
// wrong passwords fail with the same ErrInvalidCredentials, and an
// unknown email still burns a bcrypt verification so the two cases also
// take comparable time.
func (s *AccountService) Login(email, password string) (*AuthResult, error) {
	user, err := s.Users.GetUserByEmail(NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.Hasher.Verify(password, dummyPasswordHash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !s.Hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.Codec.IssueToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user.Public()}, nil
}
