package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/yungbote/promptlift-backend/internal/pkg/errors"
	"github.com/yungbote/promptlift-backend/internal/pkg/httpx"
	"github.com/yungbote/promptlift-backend/internal/platform/envutil"
	"github.com/yungbote/promptlift-backend/internal/platform/logger"
)

// Profile is the subset of the identity service's user record we read.
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Lookup resolves an identity-service user id to its profile.
type Lookup interface {
	LookupUser(ctx context.Context, id string) (*Profile, error)
}

type Config struct {
	AdminURL   string
	ServiceKey string
	Timeout    time.Duration
	MaxRetries int
}

func ConfigFromEnv() Config {
	return Config{
		AdminURL:   envutil.String("IDENTITY_ADMIN_URL", ""),
		ServiceKey: envutil.String("IDENTITY_SERVICE_KEY", ""),
		Timeout:    envutil.Seconds("IDENTITY_TIMEOUT_SECONDS", 10*time.Second),
		MaxRetries: envutil.Int("IDENTITY_MAX_RETRIES", 2),
	}
}

// Client calls the identity admin API: GET {AdminURL}/users/{id}.
type Client struct {
	log        *logger.Logger
	baseURL    string
	serviceKey string
	httpClient *http.Client
	maxRetries int
}

func NewClient(log *logger.Logger, cfg Config) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.AdminURL), "/")
	if base == "" {
		return nil, fmt.Errorf("missing IDENTITY_ADMIN_URL")
	}
	if strings.TrimSpace(cfg.ServiceKey) == "" {
		return nil, fmt.Errorf("missing IDENTITY_SERVICE_KEY")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		log:        log.With("client", "IdentityClient"),
		baseURL:    base,
		serviceKey: cfg.ServiceKey,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: cfg.MaxRetries,
	}, nil
}

// LookupUser returns pkg errors.ErrNotFound when the identity service has no such user.
func (c *Client) LookupUser(ctx context.Context, id string) (*Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.ErrInvalidArgument
	}
	var raw []byte
	err := httpx.Retry(ctx, c.maxRetries, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/"+url.PathEscape(id), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.serviceKey)
		req.Header.Set("apikey", c.serviceKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		_ = resp.Body.Close()
		if readErr != nil {
			return resp, readErr
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return resp, &httpx.StatusError{StatusCode: resp.StatusCode, Body: string(body), Service: "identity"}
		}
		raw = body
		return resp, nil
	}, func(attempt int, sleep time.Duration, err error) {
		c.log.Warn("identity lookup retrying", "attempt", attempt, "sleep", sleep.String(), "error", err.Error())
	})
	if err != nil {
		var se *httpx.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, fmt.Errorf("identity lookup: %w", err)
	}

	// Admin APIs differ on whether the record is wrapped in {"user": ...}.
	var envelope struct {
		Profile
		User *Profile `json:"user"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("identity decode: %w", err)
	}
	p := envelope.Profile
	if envelope.User != nil {
		p = *envelope.User
	}
	if strings.TrimSpace(p.Email) == "" {
		return nil, fmt.Errorf("identity lookup: user %s has no email", id)
	}
	if p.ID == "" {
		p.ID = id
	}
	return &p, nil
}
