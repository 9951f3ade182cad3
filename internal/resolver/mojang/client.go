// Package mojang resolves player profiles through Mojang's public HTTP API.
package mojang

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/friendapi/internal/model"
	"github.com/mcoot/friendapi/internal/resolver"
)

const (
	DefaultProfilesURL = "https://api.mojang.com/users/profiles/minecraft"
	DefaultSessionURL  = "https://sessionserver.mojang.com/session/minecraft/profile"

	// DefaultHealthProfileID is a long-lived profile used by IsHealthy
	DefaultHealthProfileID = "c6d2219bc8a54ccda8165328b2b32653"

	// maxBodySize bounds how much of a profile response is read
	maxBodySize = 1 << 16
)

// Config holds endpoint and timeout settings for the client
type Config struct {
	// ProfilesURL serves username -> profile lookups
	ProfilesURL string
	// SessionURL serves profile id -> profile lookups
	SessionURL string
	// HealthProfileID is looked up by IsHealthy
	HealthProfileID string
	// Timeout bounds each request
	Timeout time.Duration
}

// DefaultConfig returns the public Mojang endpoints
func DefaultConfig() Config {
	return Config{
		ProfilesURL:     DefaultProfilesURL,
		SessionURL:      DefaultSessionURL,
		HealthProfileID: DefaultHealthProfileID,
		Timeout:         10 * time.Second,
	}
}

// Client is the HTTP implementation of resolver.ProfileResolver.
// Requests are not retried: a failure is final for that call.
type Client struct {
	profilesURL     string
	sessionURL      string
	healthProfileID string
	httpClient      *http.Client
	logger          *slog.Logger
}

// Ensure Client implements the interface
var _ resolver.ProfileResolver = (*Client)(nil)

// New creates a client. Zero config fields fall back to DefaultConfig.
func New(cfg Config, logger *slog.Logger) *Client {
	defaults := DefaultConfig()
	if cfg.ProfilesURL == "" {
		cfg.ProfilesURL = defaults.ProfilesURL
	}
	if cfg.SessionURL == "" {
		cfg.SessionURL = defaults.SessionURL
	}
	if cfg.HealthProfileID == "" {
		cfg.HealthProfileID = defaults.HealthProfileID
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}

	return &Client{
		profilesURL:     strings.TrimSuffix(cfg.ProfilesURL, "/"),
		sessionURL:      strings.TrimSuffix(cfg.SessionURL, "/"),
		healthProfileID: cfg.HealthProfileID,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With(slog.String("component", "mojang")),
	}
}

// ResolveByName looks up the profile currently owning name
func (c *Client) ResolveByName(ctx context.Context, name string) (model.FriendEntry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.FriendEntry{}, model.ErrNotFound
	}
	return c.fetch(ctx, c.profilesURL+"/"+url.PathEscape(name), true)
}

// ResolveByID looks up the profile with the given id
func (c *Client) ResolveByID(ctx context.Context, id uuid.UUID) (model.FriendEntry, error) {
	return c.fetch(ctx, c.sessionURL+"/"+model.CompactID(id), false)
}

// IsHealthy reports whether the id -> profile endpoint answers a lookup of a
// known profile successfully
func (c *Client) IsHealthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.sessionURL+"/"+c.healthProfileID, nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("profile service health check failed", slog.String("error", err.Error()))
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// fetch performs one profile GET and classifies the response.
// A 400 on a name lookup means the name is malformed, which can never match a
// profile, so it counts as not found.
func (c *Client) fetch(ctx context.Context, target string, byName bool) (model.FriendEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return model.FriendEntry{}, fmt.Errorf("%w: %v", model.ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("profile lookup failed",
			slog.String("url", target),
			slog.String("error", err.Error()))
		return model.FriendEntry{}, fmt.Errorf("%w: %v", model.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return model.FriendEntry{}, fmt.Errorf("%w: read response: %v", model.ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return decodeProfile(body)
	case resp.StatusCode == http.StatusNoContent, resp.StatusCode == http.StatusNotFound:
		return model.FriendEntry{}, model.ErrNotFound
	case resp.StatusCode == http.StatusBadRequest && byName:
		return model.FriendEntry{}, model.ErrNotFound
	default:
		c.logger.Warn("unexpected profile service status",
			slog.String("url", target),
			slog.Int("status", resp.StatusCode))
		return model.FriendEntry{}, fmt.Errorf("%w: HTTP %d", model.ErrUnavailable, resp.StatusCode)
	}
}

// decodeProfile parses a {"name", "id"} body, ignoring any other fields
// (the session endpoint also returns properties)
func decodeProfile(body []byte) (model.FriendEntry, error) {
	var entry model.FriendEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		if errors.Is(err, model.ErrInvalidProfileID) {
			return model.FriendEntry{}, fmt.Errorf("%w: %v", model.ErrUnavailable, err)
		}
		return model.FriendEntry{}, fmt.Errorf("%w: decode profile: %v", model.ErrUnavailable, err)
	}
	if entry.Name == "" {
		return model.FriendEntry{}, fmt.Errorf("%w: profile without name", model.ErrUnavailable)
	}
	return entry, nil
}
