package jwtx

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultRefreshThreshold is how close to expiry an access token may get
// before the console treats it as needing a refresh.
const DefaultRefreshThreshold = 5 * time.Minute

// Claims is the subset of an access token payload the console looks at.
//
// Nothing in this package checks signatures. Claims are read straight out of
// the token payload and are only good for UX timing (when to refresh early)
// and coarse client-side filtering. The backend remains the only authority on
// whether a token is valid; never make a trust decision from these values.
type Claims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time // zero when the token carries no exp claim
}

// Codec decodes token payloads against a clock. The zero value uses
// time.Now.
type Codec struct {
	Now func() time.Time
}

var (
	defaultCodec = Codec{}

	// The parser is only used for its segment decoder; padding is tolerated
	// because some issuers emit padded base64url.
	segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())
)

func (c Codec) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Decode splits token into its three segments, base64url-decodes the payload
// and reads the claims map. It reports false for anything malformed: wrong
// segment count, bad encoding, a payload that is not a JSON object, or
// registered claims of the wrong type. It never panics.
//
// The signature segment is ignored. See Claims.
func (c Codec) Decode(token string) (Claims, bool) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 || parts[1] == "" {
		return Claims{}, false
	}

	payload, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return Claims{}, false
	}

	var mc jwt.MapClaims
	if err := json.Unmarshal(payload, &mc); err != nil || mc == nil {
		return Claims{}, false
	}

	sub, err := mc.GetSubject()
	if err != nil {
		return Claims{}, false
	}

	exp, err := mc.GetExpirationTime()
	if err != nil {
		return Claims{}, false
	}

	claims := Claims{Subject: sub}
	if exp != nil {
		claims.ExpiresAt = exp.Time
	}
	if role, ok := mc["role"].(string); ok {
		claims.Role = role
	}

	return claims, true
}

// IsExpiringSoon reports whether token expires within threshold. Tokens that
// cannot be decoded or have no exp claim count as expiring (fail-closed).
// A non-positive threshold falls back to DefaultRefreshThreshold.
func (c Codec) IsExpiringSoon(token string, threshold time.Duration) bool {
	if threshold <= 0 {
		threshold = DefaultRefreshThreshold
	}

	claims, ok := c.Decode(token)
	if !ok || claims.ExpiresAt.IsZero() {
		return true
	}

	return claims.ExpiresAt.Sub(c.now()) < threshold
}

// ExpirationTime returns the exp claim of token, if any.
func (c Codec) ExpirationTime(token string) (time.Time, bool) {
	claims, ok := c.Decode(token)
	if !ok || claims.ExpiresAt.IsZero() {
		return time.Time{}, false
	}
	return claims.ExpiresAt, true
}

// Role returns the role claim of token, if any.
func (c Codec) Role(token string) (string, bool) {
	claims, ok := c.Decode(token)
	if !ok || claims.Role == "" {
		return "", false
	}
	return claims.Role, true
}

// Subject returns the sub claim of token, if any.
func (c Codec) Subject(token string) (string, bool) {
	claims, ok := c.Decode(token)
	if !ok || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

// Decode is Codec.Decode on the default codec.
func Decode(token string) (Claims, bool) { return defaultCodec.Decode(token) }

// IsExpiringSoon is Codec.IsExpiringSoon on the default codec.
func IsExpiringSoon(token string, threshold time.Duration) bool {
	return defaultCodec.IsExpiringSoon(token, threshold)
}

// ExpirationTime is Codec.ExpirationTime on the default codec.
func ExpirationTime(token string) (time.Time, bool) { return defaultCodec.ExpirationTime(token) }

// Role is Codec.Role on the default codec.
func Role(token string) (string, bool) { return defaultCodec.Role(token) }

// Subject is Codec.Subject on the default codec.
func Subject(token string) (string, bool) { return defaultCodec.Subject(token) }
