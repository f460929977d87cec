// Package apns is an HTTP/2 client for Apple Push Notification service.
// No example in the corpus talks to APNs directly, so this package is
// grounded on the corpus's own pattern for wrapping an HTTP client
// (pkg/fcm/client_default.go, pkg/fcm/roundtripper.go) rather than on a
// specific example file.
package apns

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/segmentio/encoding/json"
	"golang.org/x/net/http2"
)

const (
	HostProduction = "https://api.push.apple.com"
	HostSandbox    = "https://api.sandbox.push.apple.com"
)

// Config describes one tenant's iOS credential, enough to build a
// long-lived Provider.
type Config struct {
	TeamID        string
	KeyID         string
	PrivateKeyPEM string
	Production    bool
	MaxListeners  int
}

// Provider is one tenant's long-lived HTTP/2 connection pool to APNs,
// with its own cached bearer token.
type Provider struct {
	client *http.Client
	host   string
	tokens *TokenSource
}

func NewProvider(cfg Config) (*Provider, error) {
	tokenSource, err := NewTokenSource(cfg.TeamID, cfg.KeyID, []byte(cfg.PrivateKeyPEM))
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{},
	}

	if err := http2.ConfigureTransport(transport); err != nil {
		return nil, fmt.Errorf("configure http2 transport: %w", err)
	}

	if cfg.MaxListeners > 0 {
		transport.MaxConnsPerHost = cfg.MaxListeners
	}

	client := &http.Client{
		Transport: &RoundTripper{Base: transport},
		Timeout:   30 * time.Second,
	}

	host := HostSandbox
	if cfg.Production {
		host = HostProduction
	}

	return &Provider{client: client, host: host, tokens: tokenSource}, nil
}

// Notification is the built APNs payload for a single device token,
// per the build-notification rules in the provider pool.
type Notification struct {
	Topic            string
	PushType         string
	Alert            map[string]string
	Sound            interface{}
	Badge            *int
	Category         string
	ThreadID         string
	MutableContent   bool
	ContentAvailable bool
	Data             map[string]string
	Expiration       time.Time
	Priority         int
}

type TokenResult struct {
	Token   string
	Success bool
	Status  int
	Reason  string
}

func (p *Provider) SendToken(ctx context.Context, deviceToken string, n Notification) TokenResult {
	payload := buildPayload(n)

	body, err := json.Marshal(payload)
	if err != nil {
		return TokenResult{Token: deviceToken, Success: false, Reason: "marshal error"}
	}

	url := fmt.Sprintf("%s/3/device/%s", p.host, deviceToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return TokenResult{Token: deviceToken, Success: false, Reason: "build request error"}
	}

	token, err := p.tokens.Token()
	if err != nil {
		return TokenResult{Token: deviceToken, Success: false, Reason: "token error"}
	}

	req.Header.Set("authorization", "bearer "+token)
	req.Header.Set("apns-topic", n.Topic)
	req.Header.Set("apns-push-type", n.PushType)
	req.Header.Set("apns-priority", fmt.Sprintf("%d", n.Priority))
	req.Header.Set("apns-expiration", fmt.Sprintf("%d", n.Expiration.Unix()))
	req.Header.Set("content-type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return TokenResult{Token: deviceToken, Success: false, Status: 0, Reason: "transport error"}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusOK {
		return TokenResult{Token: deviceToken, Success: true, Status: resp.StatusCode}
	}

	var errBody struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&errBody)

	return TokenResult{Token: deviceToken, Success: false, Status: resp.StatusCode, Reason: errBody.Reason}
}

// IsInvalidToken classifies a failed TokenResult per §4.C: device gone
// for good, versus a transient provider error.
func IsInvalidToken(r TokenResult) bool {
	if r.Status == http.StatusGone {
		return true
	}

	switch r.Reason {
	case "BadDeviceToken", "Unregistered", "DeviceTokenNotForTopic":
		return true
	}

	return false
}

// Close releases idle HTTP/2 connections; used on credential invalidation
// and process shutdown.
func (p *Provider) Close() {
	p.client.CloseIdleConnections()
}

func buildPayload(n Notification) map[string]interface{} {
	aps := map[string]interface{}{}

	if len(n.Alert) > 0 {
		aps["alert"] = n.Alert
	}

	if n.Sound != nil {
		aps["sound"] = n.Sound
	}

	if n.Badge != nil {
		aps["badge"] = *n.Badge
	}

	if n.Category != "" {
		aps["category"] = n.Category
	}

	if n.ThreadID != "" {
		aps["thread-id"] = n.ThreadID
	}

	if n.MutableContent {
		aps["mutable-content"] = 1
	}

	if n.ContentAvailable {
		aps["content-available"] = 1
	}

	payload := map[string]interface{}{"aps": aps}
	for k, v := range n.Data {
		payload[k] = v
	}

	return payload
}
