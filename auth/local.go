package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

var ErrBadCredentials = errors.New("invalid username or password")

const defaultTokenTTL = 7 * 24 * time.Hour

// LocalProvider issues and verifies HS256 tokens for a fixed set of
// bcrypt-hashed accounts.
type LocalProvider struct {
	secret []byte
	users  map[string][]byte
	ttl    time.Duration
	now    func() time.Time
}

type localClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func NewLocalProvider(secret string, users map[string][]byte) (*LocalProvider, error) {
	if secret == "" {
		return nil, errors.New("JWT_SECRET not set")
	}
	return &LocalProvider{
		secret: []byte(secret),
		users:  users,
		ttl:    defaultTokenTTL,
		now:    time.Now,
	}, nil
}

// ParseUsers reads "name:bcrypthash" pairs separated by commas.
func ParseUsers(s string) (map[string][]byte, error) {
	users := map[string][]byte{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, hash, ok := strings.Cut(pair, ":")
		if !ok || name == "" || hash == "" {
			return nil, fmt.Errorf("malformed user entry %q", pair)
		}
		users[name] = []byte(hash)
	}
	return users, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login checks the password and returns a signed token.
func (l *LocalProvider) Login(username, password string) (string, error) {
	hash, ok := l.users[username]
	if !ok {
		return "", ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return "", ErrBadCredentials
	}
	return l.Issue(username)
}

// Issue signs a token for username without checking a password.
func (l *LocalProvider) Issue(username string) (string, error) {
	now := l.now()
	claims := localClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(l.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(l.secret)
}

func (l *LocalProvider) Verify(ctx context.Context, token string) (*Identity, error) {
	var claims localClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return l.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrUnauthenticated)
	}

	username := claims.Username
	if username == "" {
		username = claims.Subject
	}
	return &Identity{UID: claims.Subject, Username: username}, nil
}
