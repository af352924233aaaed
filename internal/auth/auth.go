// Package auth проверяет учетные данные и выпускает токены сессии.
// Учетные записи задаются конфигурацией; собственного хранилища пользователей нет.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shenikar/alertabh/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

type account struct {
	hash    []byte
	session models.Session
}

// Authenticator сверяет логин и пароль с заранее настроенными записями
type Authenticator struct {
	accounts map[string]account
}

// ParseAccounts разбирает записи вида "login:bcrypt-hash:role:Display Name"
func ParseAccounts(entries []string) (*Authenticator, error) {
	a := &Authenticator{accounts: make(map[string]account, len(entries))}
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		// bcrypt-хэш сам содержит "$", но не ":"
		parts := strings.SplitN(entry, ":", 4)
		if len(parts) != 4 {
			return nil, fmt.Errorf("malformed account entry %q", entry)
		}
		login, hash, role, name := parts[0], parts[1], models.Role(parts[2]), strings.TrimSpace(parts[3])
		if login == "" || name == "" {
			return nil, fmt.Errorf("account entry %q has empty login or name", login)
		}
		if role != models.RoleAdmin && role != models.RoleUser {
			return nil, fmt.Errorf("account %q has unknown role %q", login, role)
		}
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("account %q: invalid bcrypt hash: %w", login, err)
		}
		a.accounts[login] = account{
			hash:    []byte(hash),
			session: models.Session{Login: login, Name: name, Role: role},
		}
	}
	if len(a.accounts) == 0 {
		return nil, errors.New("no accounts configured")
	}
	return a, nil
}

// Authenticate возвращает сессию для верной пары логин/пароль
func (a *Authenticator) Authenticate(login, password string) (models.Session, error) {
	acc, ok := a.accounts[strings.TrimSpace(login)]
	if !ok {
		return models.Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return models.Session{}, ErrInvalidCredentials
	}
	return acc.session, nil
}

type claims struct {
	Name string      `json:"name"`
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issuer подписывает и проверяет JWT (HS256)
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer создает Issuer
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue выпускает токен для сессии
func (i *Issuer) Issue(s models.Session) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Name: s.Name,
		Role: s.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.Login,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse проверяет токен и возвращает сессию
func (i *Issuer) Parse(tokenString string) (models.Session, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return models.Session{}, ErrInvalidToken
	}
	if c.Subject == "" || (c.Role != models.RoleAdmin && c.Role != models.RoleUser) {
		return models.Session{}, ErrInvalidToken
	}
	return models.Session{Login: c.Subject, Name: c.Name, Role: c.Role}, nil
}
