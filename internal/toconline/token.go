// Package toconline talks to the TOConline accounting platform: OAuth
// authorization and token refresh, plus read access to its JSON:API
// resources (cost centers, expense categories) for export.
package toconline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/BailaoHugo/gestao-facturas/internal/common"
)

// Token is the persisted OAuth credential. ObtainedAt is stamped on
// save so expiry can be judged without trusting the server clock.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	Scope        string `json:"scope,omitempty"`
	ObtainedAt   int64  `json:"obtained_at"`
}

// Expired reports whether the access token is past its lifetime, with a
// one-minute safety margin. Tokens without expiry metadata never expire
// here; the API's 401 is the authority then.
func (t *Token) Expired(now time.Time) bool {
	if t.ExpiresIn <= 0 || t.ObtainedAt <= 0 {
		return false
	}
	return now.Unix() >= t.ObtainedAt+t.ExpiresIn-60
}

// LoadToken reads the persisted token file.
func LoadToken(path string) (*Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.NewAppError("TOC_NO_TOKEN", "token file not found, run the authorization flow first", err)
		}
		return nil, common.WrapError(err, "read token file")
	}
	var t Token
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, common.NewAppError("TOC_BAD_TOKEN", "malformed token file", err)
	}
	return &t, nil
}

// SaveToken persists the token with owner-only permissions.
func SaveToken(path string, t *Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return common.WrapError(err, "create token dir")
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return common.WrapError(err, "marshal token")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return common.WrapError(err, "write token file")
	}
	return nil
}
