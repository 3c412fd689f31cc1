// Package auth implements the signed identity assertion used in place of a
// server-side session store, plus the role model it carries.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// Role is the closed set of caller roles carried by an identity token.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleVendor   Role = "vendor"
	RoleCustomer Role = "customer"
)

// ParseRole maps a stored role string onto the closed enum. Unknown values
// fall back to RoleCustomer, which carries the least privilege.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin, RoleVendor, RoleCustomer:
		return Role(s)
	default:
		return RoleCustomer
	}
}

// Identity is the payload of a signed token. It is a bearer credential: once
// issued it cannot be revoked short of rotating the signing secret, and it
// carries no expiry field. IssuedAt is unix milliseconds for wire
// compatibility with tokens minted by the previous system.
type Identity struct {
	Sub      string `json:"sub"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	VendorID string `json:"vendorId,omitempty"`
	IssuedAt int64  `json:"iat"`
}

// TokenService signs and verifies identity assertions. Both operations are
// pure functions of the secret and the payload.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a TokenService signing with the given secret.
func NewTokenService(secret []byte) *TokenService {
	return &TokenService{secret: secret, now: time.Now}
}

// Issue signs an identity assertion for the given subject. The token format
// is base64url(JSON payload) + "." + base64url(HMAC-SHA256(secret, data)).
func (s *TokenService) Issue(sub, email string, role Role, vendorID string) string {
	payload := Identity{
		Sub:      sub,
		Email:    email,
		Role:     role,
		VendorID: vendorID,
		IssuedAt: s.now().UnixMilli(),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		// Identity contains only strings and an int64; Marshal cannot fail.
		panic(err)
	}

	data := base64.RawURLEncoding.EncodeToString(raw)
	return data + "." + s.sign(data)
}

// Verify checks a token's signature and decodes its payload. It returns nil
// for malformed input, a signature mismatch, or an undecodable payload —
// an invalid token is a normal negative result, not an error.
func (s *TokenService) Verify(token string) *Identity {
	data, sig, ok := strings.Cut(token, ".")
	if !ok || data == "" || sig == "" {
		return nil
	}

	// hmac.Equal is constant-time; a plain comparison here would leak
	// signature bytes through timing.
	if !hmac.Equal([]byte(sig), []byte(s.sign(data))) {
		return nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return nil
	}

	var id Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil
	}
	id.Role = ParseRole(string(id.Role))
	return &id
}

func (s *TokenService) sign(data string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
