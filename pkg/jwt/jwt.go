package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserId     uint   `json:"user_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	CustomerId *uint  `json:"customer_id,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and parses session tokens with a shared HMAC key.
type Manager struct {
	key    []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration, issuer string) *Manager {
	return &Manager{key: []byte(secret), ttl: ttl, issuer: issuer, now: time.Now}
}

func (m *Manager) TTL() time.Duration { return m.ttl }

// GenerateToken 生成 Token
func (m *Manager) GenerateToken(userId uint, email, role string, customerId *uint) (string, error) {
	now := m.now()
	claims := &Claims{
		UserId:     userId,
		Email:      email,
		Role:       role,
		CustomerId: customerId,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			Issuer:    m.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.key)
}

// ParseToken 解析 Token
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
