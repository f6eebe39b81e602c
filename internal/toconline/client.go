package toconline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BailaoHugo/gestao-facturas/internal/common"
)

// tokenTestPath is a cheap authenticated endpoint used to test whether an
// access token without a refresh token is still usable.
const tokenTestPath = "/api/expense_categories"

type Config struct {
	OAuthBase    string // e.g. https://app17.toconline.pt/oauth
	APIBase      string // e.g. https://api17.toconline.pt
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scope        string
	TokenPath    string
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, common.NewAppError("TOC_CONFIG", "TOCONLINE_CLIENT_ID and TOCONLINE_CLIENT_SECRET are required", common.ErrInvalidInput)
	}
	cfg.OAuthBase = strings.TrimRight(cfg.OAuthBase, "/")
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: 60 * time.Second},
		logger: logger,
	}, nil
}

// AuthorizationURL builds the URL the operator opens in a browser to
// authorize the application and obtain the one-time code.
func (c *Client) AuthorizationURL() string {
	params := url.Values{
		"response_type": {"code"},
		"client_id":     {c.cfg.ClientID},
		"redirect_uri":  {c.cfg.RedirectURI},
	}
	if c.cfg.Scope != "" {
		params.Set("scope", c.cfg.Scope)
	}
	base := c.cfg.OAuthBase + "/auth"
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + params.Encode()
}

// ExchangeCode trades the authorization code for a token and persists it.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	t, err := c.postToken(ctx, url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {c.cfg.RedirectURI},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
	})
	if err != nil {
		return nil, err
	}
	if err := SaveToken(c.cfg.TokenPath, t); err != nil {
		return nil, err
	}
	c.logger.Info("authorization complete", "token_path", c.cfg.TokenPath, "has_refresh", t.RefreshToken != "")
	return t, nil
}

// Refresh obtains a fresh access token from a refresh token and
// persists the result.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	t, err := c.postToken(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"scope":         {c.cfg.Scope},
	})
	if err != nil {
		return nil, err
	}
	if err := SaveToken(c.cfg.TokenPath, t); err != nil {
		return nil, err
	}
	c.logger.Info("token refreshed", "expires_in", t.ExpiresIn)
	return t, nil
}

// EnsureValidToken loads the stored token and makes it usable: refresh
// when a refresh token exists, otherwise keep the access token while
// the API still answers it.
func (c *Client) EnsureValidToken(ctx context.Context) (*Token, error) {
	t, err := LoadToken(c.cfg.TokenPath)
	if err != nil {
		return nil, err
	}
	if t.RefreshToken != "" {
		return c.Refresh(ctx, t.RefreshToken)
	}
	if t.AccessToken == "" {
		return nil, common.NewAppError("TOC_NO_TOKEN", "stored token has no access_token, run the authorization flow", nil)
	}
	ok, err := c.testAccessToken(ctx, t.AccessToken)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.NewAppError("TOC_EXPIRED", "access token expired and no refresh token stored, run the authorization flow", nil)
	}
	return t, nil
}

func (c *Client) postToken(ctx context.Context, form url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OAuthBase+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, common.WrapError(err, "token request")
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, common.WrapError(err, "read token response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, common.NewAppError("TOC_TOKEN", fmt.Sprintf("token endpoint returned %d: %s", resp.StatusCode, truncate(string(body), 500)), nil)
	}
	var t Token
	if err := json.Unmarshal(body, &t); err != nil {
		return nil, common.NewAppError("TOC_TOKEN", "non-JSON token response: "+truncate(string(body), 500), err)
	}
	t.ObtainedAt = time.Now().Unix()
	return &t, nil
}

func (c *Client) testAccessToken(ctx context.Context, accessToken string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIBase+tokenTestPath, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.api+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, common.WrapError(err, "token test request")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return false, nil
	default:
		return false, common.NewAppError("TOC_API", fmt.Sprintf("token test returned %d", resp.StatusCode), nil)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
