// internal/session/token.go
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers malformed, expired and wrongly signed tokens.
var ErrInvalidToken = errors.New("invalid reconnect token")

// Claims is the payload of a reconnect token. Subject holds the player id.
type Claims struct {
	RoomID  string `json:"rid"`
	RoomKey string `json:"rkey"`
	Name    string `json:"name"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 reconnect tokens handed to clients on
// create/join.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for s.
func (t *Tokens) Issue(s Session) (string, error) {
	now := t.now()
	claims := Claims{
		RoomID:  s.RoomID,
		RoomKey: s.RoomKey,
		Name:    s.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.PlayerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign reconnect token: %w", err)
	}
	return signed, nil
}

// Parse verifies token and returns the session it describes.
func (t *Tokens) Parse(token string) (Session, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (interface{}, error) {
		if tok.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", tok.Method.Alg())
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Session{}, ErrInvalidToken
	}
	var created time.Time
	if claims.IssuedAt != nil {
		created = claims.IssuedAt.Time
	}
	return Session{
		PlayerID:  claims.Subject,
		RoomID:    claims.RoomID,
		RoomKey:   claims.RoomKey,
		Name:      claims.Name,
		CreatedAt: created,
	}, nil
}
