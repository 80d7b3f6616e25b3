package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/arnavshah/worker-allocator-go/pkg/database"
	"github.com/arnavshah/worker-allocator-go/pkg/models"
)

var jwtAlgorithm = jwt.SigningMethodHS256

// Claims represents the JWT claims
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator hashes passwords and issues bearer tokens
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	cost   int
}

// New creates an Authenticator. A zero ttl defaults to 24 hours and a cost
// outside bcrypt's range falls back to bcrypt.DefaultCost.
func New(secret string, ttl time.Duration, cost int) *Authenticator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Authenticator{secret: []byte(secret), ttl: ttl, cost: cost}
}

// HashPassword hashes a password using bcrypt
func (a *Authenticator) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func (a *Authenticator) CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CreateToken creates a new JWT token for a user
func (a *Authenticator) CreateToken(username, role string) (string, error) {
	expirationTime := time.Now().Add(a.ttl)
	claims := &Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token := jwt.NewWithClaims(jwtAlgorithm, claims)
	return token.SignedString(a.secret)
}

// VerifyToken verifies a JWT token
func (a *Authenticator) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwtAlgorithm {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// EnsureManagerExists seeds a manager account when the database is empty and
// credentials were configured. Without credentials the first registered user
// becomes the manager instead.
func (a *Authenticator) EnsureManagerExists(ctx context.Context, store *database.Store, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	count, err := store.CountEmployees(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := a.HashPassword(password)
	if err != nil {
		return err
	}

	err = store.CreateEmployee(ctx, &database.Employee{
		Name:         username,
		PasswordHash: hash,
		Role:         models.RoleManager,
	})
	if err == nil {
		slog.Info("Default manager created", slog.String("username", username))
	}
	return err
}
