// Package gdrive adapts the Google Drive v3 API to port.ObjectStore.
package gdrive

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/garyjia/drivehub/internal/application/port"
)

// Config holds the OAuth client used to exchange refresh tokens
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Factory builds a Drive-backed store per refresh token.
// Implements port.StoreFactory.
type Factory struct {
	oauth   *oauth2.Config
	options []option.ClientOption
	logger  *zap.Logger
}

// NewFactory creates a new Drive store factory. Extra client options are
// appended to every service it builds.
func NewFactory(cfg Config, logger *zap.Logger, opts ...option.ClientOption) *Factory {
	return &Factory{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{drive.DriveScope},
		},
		options: opts,
		logger:  logger,
	}
}

// NewStore returns a store bound to the account behind refreshToken.
// The access token is obtained lazily on the first API call, so an invalid
// token surfaces as a provider error from that call.
func (f *Factory) NewStore(ctx context.Context, refreshToken string) (port.ObjectStore, error) {
	tokenSource := f.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	opts := append([]option.ClientOption{option.WithTokenSource(tokenSource)}, f.options...)
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return NewStore(svc, f.logger), nil
}

var _ port.StoreFactory = (*Factory)(nil)
