package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"ideasplace/internal/model"
)

const (
	// DefaultActivationTokenExpiry is used when no activation TTL is configured.
	DefaultActivationTokenExpiry = 72 * time.Hour

	activationKeySalt = "ideasplace.auth.ActivationTokenGenerator"
	hashLength        = 20
	maxTimestampLen   = 13
)

// tokenEpoch is the reference point for activation token timestamps.
var tokenEpoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// ActivationTokens makes and checks account activation tokens.
type ActivationTokens interface {
	Make(user *model.User) string
	Check(user *model.User, token string) bool
}

// ActivationTokenGenerator produces "<timestamp>-<hash>" tokens bound to the
// user id and activation state. A token stops validating once the user's
// is_active flag changes or the expiry window passes.
type ActivationTokenGenerator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

var _ ActivationTokens = (*ActivationTokenGenerator)(nil)

// NewActivationTokenGenerator creates a generator keyed by secret.
func NewActivationTokenGenerator(secret string, ttl time.Duration) *ActivationTokenGenerator {
	if ttl <= 0 {
		ttl = DefaultActivationTokenExpiry
	}
	return &ActivationTokenGenerator{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Make returns a token for user at the current time.
func (g *ActivationTokenGenerator) Make(user *model.User) string {
	return g.makeWithTimestamp(user, g.timestamp(g.now()))
}

// Check reports whether token was made for user's current state and has not expired.
func (g *ActivationTokenGenerator) Check(user *model.User, token string) bool {
	if user == nil || token == "" {
		return false
	}

	tsPart, _, ok := strings.Cut(token, "-")
	if !ok || tsPart == "" || len(tsPart) > maxTimestampLen {
		return false
	}
	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil || ts < 0 {
		return false
	}

	if !hmac.Equal([]byte(g.makeWithTimestamp(user, ts)), []byte(token)) {
		return false
	}

	return g.timestamp(g.now())-ts <= int64(g.ttl/time.Second)
}

func (g *ActivationTokenGenerator) makeWithTimestamp(user *model.User, ts int64) string {
	mac := hmac.New(sha256.New, g.key())
	mac.Write([]byte(strconv.FormatUint(uint64(user.ID), 10)))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte(strconv.FormatBool(user.IsActive)))
	sum := hex.EncodeToString(mac.Sum(nil))

	return strconv.FormatInt(ts, 36) + "-" + sum[:hashLength]
}

// key derives the HMAC key from the salt and the server secret.
func (g *ActivationTokenGenerator) key() []byte {
	h := sha256.New()
	h.Write([]byte(activationKeySalt))
	h.Write(g.secret)
	return h.Sum(nil)
}

func (g *ActivationTokenGenerator) timestamp(t time.Time) int64 {
	return int64(t.Sub(tokenEpoch) / time.Second)
}

// EncodeUID encodes a user id for activation links.
func EncodeUID(id uint) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(uint64(id), 10)))
}

// DecodeUID reverses EncodeUID. Padded input is accepted.
func DecodeUID(uid string) (uint, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(uid, "="))
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
