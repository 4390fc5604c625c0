// Package auth verifies the bearer credential a client presents on its
// first event and resolves it to a stable identity plus capability flags.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNoIdentity   = errors.New("token carries no subject")
)

// Identity is what a verified credential resolves to. UserID is the
// stable internal key; Username is presentation-only and must not be
// used as a map key anywhere in the core.
type Identity struct {
	UserID    string
	Username  string
	IsGuest   bool
	CanCall   bool
	ExpiresAt time.Time
}

// Verifier is the identity collaborator consumed by the relay.
type Verifier interface {
	Verify(token string) (*Identity, error)
}

// Options controls signing and TTL parameters. Kept minimal: HMAC family only.
type Options struct {
	Secret   []byte
	Alg      string        // HS256/HS384/HS512, default HS256
	GuestTTL time.Duration // default 1h
}

func DefaultOptions(secret []byte) Options {
	return Options{Secret: secret, Alg: "HS256", GuestTTL: time.Hour}
}

type JWTVerifier struct {
	opts Options
}

func NewJWTVerifier(opts Options) *JWTVerifier {
	if opts.GuestTTL <= 0 {
		opts.GuestTTL = time.Hour
	}
	return &JWTVerifier{opts: opts}
}

type claims struct {
	Username string `json:"name,omitempty"`
	Guest    bool   `json:"guest,omitempty"`
	CanCall  bool   `json:"can_call,omitempty"`
	jwtlib.RegisteredClaims
}

func (v *JWTVerifier) Verify(token string) (*Identity, error) {
	var c claims
	parsed, err := jwtlib.ParseWithClaims(token, &c, func(t *jwtlib.Token) (interface{}, error) {
		// Only the HMAC family is accepted.
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected alg: %v", t.Header["alg"])
		}
		return v.opts.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if c.Subject == "" {
		return nil, ErrNoIdentity
	}
	id := &Identity{
		UserID:   c.Subject,
		Username: c.Username,
		IsGuest:  c.Guest,
		CanCall:  c.CanCall,
	}
	if c.Guest {
		// Guests expire by absolute deadline, capped by the configured TTL
		// even when the token itself lives longer.
		deadline := time.Now().Add(v.opts.GuestTTL)
		if c.ExpiresAt != nil && c.ExpiresAt.Before(deadline) {
			deadline = c.ExpiresAt.Time
		}
		id.ExpiresAt = deadline
	}
	return id, nil
}

// Generate signs a token for the given identity. Used by tests and the
// account service that hands tokens to clients.
func Generate(opts Options, id Identity, ttl time.Duration) (string, error) {
	method, err := signingMethod(opts.Alg)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	now := time.Now()
	c := claims{
		Username: id.Username,
		Guest:    id.IsGuest,
		CanCall:  id.CanCall,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			NotBefore: jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwtlib.NewWithClaims(method, c).SignedString(opts.Secret)
}

func signingMethod(alg string) (jwtlib.SigningMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(alg)) {
	case "", "HS256":
		return jwtlib.SigningMethodHS256, nil
	case "HS384":
		return jwtlib.SigningMethodHS384, nil
	case "HS512":
		return jwtlib.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("unsupported alg: %s (use HS256/HS384/HS512)", alg)
	}
}
