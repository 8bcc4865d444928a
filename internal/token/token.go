package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Decode failure taxonomy. The HTTP layer reports all three as 401 without
// telling the caller which one occurred.
var (
	ErrMalformed        = errors.New("token is malformed")
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrExpired          = errors.New("token is expired")
)

// Claims is the payload carried inside a token. The codec adds the "exp"
// claim itself; callers are responsible for identity claims such as
// "username".
type Claims map[string]any

// Codec signs claims into self-contained token strings and verifies them
// back. Tokens are stateless: validity is determined solely by the
// signature and the embedded expiry, never by a server-side lookup. The
// flip side is that a token cannot be revoked before it expires, which is
// acceptable with the short default lifetime.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

func NewCodec(secret string, algorithm string) (*Codec, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}

	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not an HMAC method", algorithm)
	}

	return &Codec{secret: []byte(secret), method: method, now: time.Now}, nil
}

// Encode merges an absolute expiry (now + ttl) into claims and returns the
// signed token string.
func (c *Codec) Encode(claims Claims, ttl time.Duration) (string, error) {
	payload := jwt.MapClaims{}
	for key, value := range claims {
		payload[key] = value
	}
	payload["exp"] = c.now().Add(ttl).Unix()

	signed, err := jwt.NewWithClaims(c.method, payload).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Decode verifies the signature and expiry of a token string and returns
// the claims it carries, including "exp". Failures map onto ErrMalformed,
// ErrInvalidSignature and ErrExpired.
func (c *Codec) Decode(tokenString string) (Claims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != c.method.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return c.now() }))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrMalformed
		}
	}

	payload, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrMalformed
	}

	claims := Claims{}
	for key, value := range payload {
		claims[key] = value
	}

	return claims, nil
}
