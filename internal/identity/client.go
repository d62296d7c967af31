package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var _ Provider = (*Client)(nil)

const requestTimeout = 10 * time.Second

type Client struct {
	baseURL    string
	apiKey     string
	jwksURL    string
	httpClient *http.Client
	keys       *jwk.Cache
	logger     *slog.Logger
}

// NewClient registers the provider's JWKS endpoint and fetches it once so an
// unreachable provider fails startup instead of the first login.
func NewClient(ctx context.Context, baseURL, apiKey, jwksURL string, logger *slog.Logger) (*Client, error) {
	httpClient := &http.Client{Timeout: requestTimeout}

	cache := jwk.NewCache(ctx)
	if err := cache.Register(jwksURL, jwk.WithMinRefreshInterval(15*time.Minute), jwk.WithHTTPClient(httpClient)); err != nil {
		return nil, fmt.Errorf("register jwks: %w", err)
	}
	if _, err := cache.Refresh(ctx, jwksURL); err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		jwksURL:    jwksURL,
		httpClient: httpClient,
		keys:       cache,
		logger:     logger.With("component", "identity_provider"),
	}, nil
}

type accountResponse struct {
	LocalID string `json:"localId"`
	Email   string `json:"email"`
	IDToken string `json:"idToken"`
}

type lookupResponse struct {
	Users []accountResponse `json:"users"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) CreateCredential(ctx context.Context, email, password string) (string, error) {
	var resp accountResponse
	err := c.call(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": false,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("create credential: %w", err)
	}
	return resp.LocalID, nil
}

func (c *Client) UpdateCredential(ctx context.Context, id, password string) error {
	err := c.call(ctx, "accounts:update", map[string]any{
		"localId":  id,
		"password": password,
	}, nil)
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	return nil
}

func (c *Client) LookupCredential(ctx context.Context, email string) (string, error) {
	var resp lookupResponse
	if err := c.call(ctx, "accounts:lookup", map[string]any{"email": []string{email}}, &resp); err != nil {
		return "", fmt.Errorf("lookup credential: %w", err)
	}
	if len(resp.Users) == 0 {
		return "", ErrCredentialNotFound
	}
	return resp.Users[0].LocalID, nil
}

func (c *Client) DeleteCredential(ctx context.Context, id string) error {
	if err := c.call(ctx, "accounts:delete", map[string]any{"localId": id}, nil); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

func (c *Client) VerifyCredential(ctx context.Context, email, password string) (string, error) {
	var resp accountResponse
	err := c.call(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("verify credential: %w", err)
	}
	return resp.IDToken, nil
}

func (c *Client) ResolveProviderToken(ctx context.Context, raw string) (string, error) {
	keySet, err := c.keys.Get(ctx, c.jwksURL)
	if err != nil {
		return "", fmt.Errorf("get jwks: %w", err)
	}

	tok, err := jwt.Parse([]byte(raw), jwt.WithKeySet(keySet), jwt.WithValidate(true))
	if err != nil || tok == nil {
		return "", ErrInvalidProviderToken
	}
	claim, ok := tok.Get("email")
	if !ok {
		return "", ErrInvalidProviderToken
	}
	email, ok := claim.(string)
	if !ok || email == "" {
		return "", ErrInvalidProviderToken
	}
	return email, nil
}

func (c *Client) call(ctx context.Context, method string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	endpoint := c.baseURL + "/" + method
	if c.apiKey != "" {
		endpoint += "?key=" + url.QueryEscape(c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var e errorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&e); decodeErr != nil {
			return fmt.Errorf("%s: status %d", method, resp.StatusCode)
		}
		return classify(method, e.Error.Message)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}

// classify maps provider error codes onto the package sentinels.
// Messages may carry a suffix ("INVALID_PASSWORD : ..."), so only the code prefix is compared.
func classify(method, message string) error {
	code, _, _ := strings.Cut(message, " ")
	switch code {
	case "EMAIL_NOT_FOUND", "USER_NOT_FOUND":
		return ErrCredentialNotFound
	case "EMAIL_EXISTS":
		return ErrCredentialExists
	case "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED":
		return ErrInvalidCredential
	case "INVALID_ID_TOKEN", "TOKEN_EXPIRED":
		return ErrInvalidProviderToken
	default:
		return fmt.Errorf("%s: %s", method, message)
	}
}
