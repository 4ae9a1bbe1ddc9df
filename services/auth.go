package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/CrowderSoup/priority-pilot/database"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// SessionStorer persists the signed-in user between runs.
type SessionStorer interface {
	Load() (*database.User, error)
	Save(user *database.User) error
	Clear() error
}

type account struct {
	user         database.User
	passwordHash []byte
}

// directory is the fixed set of accounts that can sign in.
var directory = []struct {
	user     database.User
	password string
}{
	{database.User{ID: "1", Name: "John Manager", Email: "manager@example.com", Role: database.RoleManager,
		ProfileImage: "https://ui-avatars.com/api/?name=John+Manager&background=0D8ABC&color=fff"}, "password"},
	{database.User{ID: "2", Name: "Alice Member", Email: "alice@example.com", Role: database.RoleTeamMember,
		ProfileImage: "https://ui-avatars.com/api/?name=Alice+Member&background=C152D4&color=fff"}, "password"},
	{database.User{ID: "3", Name: "Bob Member", Email: "bob@example.com", Role: database.RoleTeamMember,
		ProfileImage: "https://ui-avatars.com/api/?name=Bob+Member&background=8CC152&color=fff"}, "password"},
}

type AuthService struct {
	mu        sync.RWMutex
	accounts  []account
	current   *database.User
	sessions  SessionStorer
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService builds the account directory and restores any stored
// session.
func NewAuthService(jwtSecret string, sessions SessionStorer) (*AuthService, error) {
	if jwtSecret == "" {
		jwtSecret = "your-default-secret-key-change-in-production"
	}

	s := &AuthService{
		sessions:  sessions,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  time.Hour * 24 * 7,
	}
	for _, entry := range directory {
		hash, err := bcrypt.GenerateFromPassword([]byte(entry.password), bcrypt.MinCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		s.accounts = append(s.accounts, account{user: entry.user, passwordHash: hash})
	}

	if sessions != nil {
		user, err := sessions.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to restore session: %w", err)
		}
		s.current = user
	}
	return s, nil
}

// Login checks the credentials against the directory and makes the matching
// user current. The session is left unchanged on failure.
func (s *AuthService) Login(email, password string) (*database.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	var found *account
	for i := range s.accounts {
		if s.accounts[i].user.Email == email {
			found = &s.accounts[i]
			break
		}
	}
	if found == nil || bcrypt.CompareHashAndPassword(found.passwordHash, []byte(password)) != nil {
		log.Warn().Str("email", email).Msg("Login failed")
		return nil, ErrInvalidCredentials
	}

	user := found.user
	if s.sessions != nil {
		if err := s.sessions.Save(&user); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
	}

	s.mu.Lock()
	s.current = &user
	s.mu.Unlock()

	log.Info().Str("user", user.ID).Msgf("Welcome back, %s!", user.Name)
	return &user, nil
}

func (s *AuthService) Logout() error {
	if s.sessions != nil {
		if err := s.sessions.Clear(); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
	}
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	return nil
}

// CurrentUser returns the signed-in user, or nil.
func (s *AuthService) CurrentUser() *database.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	u := *s.current
	return &u
}

// IsManager reports whether user has the manager role.
func IsManager(user *database.User) bool {
	return user != nil && user.Role == database.RoleManager
}

func (s *AuthService) UserByID(id string) (*database.User, bool) {
	for _, a := range s.accounts {
		if a.user.ID == id {
			u := a.user
			return &u, true
		}
	}
	return nil, false
}

// TeamMembers returns every user without the manager role.
func (s *AuthService) TeamMembers() []database.User {
	var out []database.User
	for _, a := range s.accounts {
		if a.user.Role == database.RoleTeamMember {
			out = append(out, a.user)
		}
	}
	return out
}

// CreateJWT generates a JWT token for a user
func (s *AuthService) CreateJWT(user *database.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"exp":  time.Now().Add(s.tokenTTL).Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// VerifyJWT verifies a JWT token and returns the user it was issued to
func (s *AuthService) VerifyJWT(tokenString string) (*database.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	id, ok := claims["sub"].(string)
	if !ok {
		return nil, errors.New("sub claim missing")
	}

	user, ok := s.UserByID(id)
	if !ok {
		return nil, fmt.Errorf("unknown user %q", id)
	}
	return user, nil
}
