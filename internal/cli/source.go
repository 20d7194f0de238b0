package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/evcraddock/visitor-desk/internal/client"
	"github.com/evcraddock/visitor-desk/internal/refresh"
	"github.com/evcraddock/visitor-desk/internal/visitor"
)

// apiSource adapts the API client to the refresh controller's collaborators.
type apiSource struct {
	client *client.Client
}

func newAPISource(c *client.Client) *apiSource {
	return &apiSource{client: c}
}

// FetchVisitors lists visitors with the given bearer token.
func (s *apiSource) FetchVisitors(ctx context.Context, token string) ([]visitor.Visitor, int, error) {
	resp, err := s.client.WithAPIKey(token).ListVisitors(ctx)
	if err != nil {
		return nil, 0, classifyClientErr(err)
	}
	return resp.Visitors, resp.Total, nil
}

// ResolveImage turns a storage key into a URI.
func (s *apiSource) ResolveImage(ctx context.Context, key string) (string, error) {
	uri, err := s.client.ResolveImage(ctx, key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", refresh.ErrImageResolution, err)
	}
	return uri, nil
}

// credentials reads the API key on every fetch.
func credentials() refresh.CredentialSource {
	return refresh.CredentialFunc(func() (string, error) {
		return getAPIKey(), nil
	})
}

func classifyClientErr(err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		return fmt.Errorf("%w: %w", refresh.ErrNotAuthenticated, err)
	}
	return fmt.Errorf("%w: %w", refresh.ErrNetworkFailure, err)
}

// newController builds a refresh controller against the configured server.
func newController(view visitor.View) (*refresh.Controller, *refresh.ImageCache, error) {
	intervals, err := getIntervals()
	if err != nil {
		return nil, nil, err
	}

	src := newAPISource(newAPIClient())
	cache := refresh.NewImageCache(src)
	ctrl, err := refresh.New(refresh.Config{
		Fetcher:     src,
		Credentials: credentials(),
		Images:      cache,
		Intervals:   intervals,
		View:        view,
	})
	if err != nil {
		cache.Close()
		return nil, nil, err
	}
	return ctrl, cache, nil
}
