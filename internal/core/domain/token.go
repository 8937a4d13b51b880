package domain

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// TokenHint is the unverified payload the identity service embeds in the
// tokens it issues. It is only meaningful after the service has accepted the
// token it was read from.
type TokenHint struct {
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
}

var tokenEncodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// ParseTokenHint decodes the base64 JSON payload of an issued token.
// ok is false for any token that is not in that format.
func ParseTokenHint(token string) (TokenHint, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return TokenHint{}, false
	}
	for _, enc := range tokenEncodings {
		raw, err := enc.DecodeString(token)
		if err != nil {
			continue
		}
		var hint TokenHint
		if err := json.Unmarshal(raw, &hint); err != nil || hint.Username == "" {
			return TokenHint{}, false
		}
		return hint, true
	}
	return TokenHint{}, false
}

// TokenFingerprint returns the SHA-256 hex digest of token. It is used
// wherever a token has to be keyed without being stored.
func TokenFingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
