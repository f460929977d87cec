package fcm

import (
	"context"
	"fmt"
	"net/http"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// Config holds construction options for ClientDefault.
type Config struct {
	// RoundTripper wraps every outgoing HTTP request; defaults to a
	// logging RoundTripper over http.DefaultTransport when nil.
	RoundTripper http.RoundTripper
}

// ClientDefault talks to Firebase Cloud Messaging using the official
// firebase-admin-go SDK. It resolves the service-account credential and
// builds the underlying *messaging.Client once, at construction time, and
// reuses it for every SendMulticast call, the same lifetime apns.Provider
// gives its persistent HTTP/2 connection.
type ClientDefault struct {
	RoundTripper http.RoundTripper
	msgClient    *messaging.Client
	httpClient   *http.Client
}

var _ Client = (*ClientDefault)(nil)

// NewClient resolves key (a Firebase service-account JSON document) into a
// long-lived *messaging.Client. The returned ClientDefault is meant to be
// cached by the caller and reused across sends, not rebuilt per call.
func NewClient(ctx context.Context, cfg Config, key []byte) (*ClientDefault, error) {
	roundTripper := cfg.RoundTripper
	if roundTripper == nil {
		roundTripper = &RoundTripper{Base: http.DefaultTransport}
	}

	scopes := []string{
		"https://www.googleapis.com/auth/firebase.messaging",
	}

	cred, err := google.CredentialsFromJSON(ctx, key, scopes...)
	if err != nil {
		return nil, fmt.Errorf("find default cred error: %w", err)
	}

	config := &firebase.Config{
		ProjectID: cred.ProjectID,
	}

	httpTransport := &oauth2.Transport{
		Base:   roundTripper,
		Source: cred.TokenSource,
	}

	httpClient := &http.Client{
		Transport: httpTransport,
	}

	opt := []option.ClientOption{
		option.WithHTTPClient(httpClient),
	}

	firebaseApp, err := firebase.NewApp(ctx, config, opt...)
	if err != nil {
		return nil, fmt.Errorf("initiate firebase app client error: %w", err)
	}

	msgClient, err := firebaseApp.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initiate fcm messaging client error: %w", err)
	}

	return &ClientDefault{
		RoundTripper: roundTripper,
		msgClient:    msgClient,
		httpClient:   httpClient,
	}, nil
}

func (c *ClientDefault) SendMulticast(ctx context.Context, message *MulticastMessage) (MulticastBatchResult, error) {
	if message == nil {
		return MulticastBatchResult{}, nil
	}

	multicastMsg := &messaging.MulticastMessage{
		Tokens:       message.Tokens,
		Data:         message.Data,
		Notification: message.Notification,
		Android:      message.Android,
	}

	result, err := c.msgClient.SendMulticast(ctx, multicastMsg)
	if err != nil {
		return MulticastBatchResult{}, fmt.Errorf("fcm send multicast error: %w", err)
	}

	return HandleFCMBatchResponse(result), nil
}

// Close releases the client's underlying HTTP connections, the FCM
// equivalent of apns.Provider.Close()'s HTTP/2 teardown.
func (c *ClientDefault) Close() error {
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
	return nil
}
