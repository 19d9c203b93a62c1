// Package google holds the service-account plumbing shared by the Drive,
// Sheets and Calendar integrations.
package google

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// NewHTTPClient creates an authenticated HTTP client from a service account JSON key file.
func NewHTTPClient(ctx context.Context, credentialsFile string, scopes ...string) (*http.Client, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	conf, err := google.JWTConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	return conf.Client(ctx), nil
}

// ClientOptions returns the options for Google API service constructors.
// Scopes narrow the service account token when given; without them the
// API's default scopes apply.
func ClientOptions(ctx context.Context, credentialsFile string, scopes ...string) ([]option.ClientOption, error) {
	if credentialsFile == "" {
		return nil, fmt.Errorf("google credentials file is not configured")
	}
	if len(scopes) == 0 {
		return []option.ClientOption{option.WithCredentialsFile(credentialsFile)}, nil
	}
	client, err := NewHTTPClient(ctx, credentialsFile, scopes...)
	if err != nil {
		return nil, err
	}
	return []option.ClientOption{option.WithHTTPClient(client)}, nil
}
