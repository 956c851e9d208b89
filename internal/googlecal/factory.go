package googlecal

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/tripperbot/tripper/internal/schedule"
)

// TokenSources resolves a user identity to an OAuth token source. How tokens
// are acquired and stored is outside this system; callers plug in whatever
// credential backend they run.
type TokenSources interface {
	TokenSource(ctx context.Context, userID string) (oauth2.TokenSource, error)
}

// Factory builds a per-user calendar client from a token source.
type Factory struct {
	tokens TokenSources
}

// NewFactory constructs a Factory over the given credential backend.
func NewFactory(tokens TokenSources) *Factory {
	return &Factory{tokens: tokens}
}

// For returns a calendar client authenticated as userID.
func (f *Factory) For(ctx context.Context, userID string) (schedule.CalendarAPI, error) {
	ts, err := f.tokens.TokenSource(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("googlecal.Factory.For: user %s: %w", userID, err)
	}
	srv, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("googlecal.Factory.For: user %s: %w", userID, err)
	}
	return New(srv), nil
}

// StaticTokenSources serves the same token to every user. Intended for
// single-user deployments where the token is handed in via configuration.
type StaticTokenSources struct {
	token *oauth2.Token
}

// ParseStaticToken parses an oauth2 token from its JSON form.
func ParseStaticToken(raw string) (*StaticTokenSources, error) {
	var tok oauth2.Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return nil, fmt.Errorf("googlecal.ParseStaticToken: %w", err)
	}
	return &StaticTokenSources{token: &tok}, nil
}

// TokenSource returns the configured token regardless of user.
func (s *StaticTokenSources) TokenSource(_ context.Context, _ string) (oauth2.TokenSource, error) {
	return oauth2.StaticTokenSource(s.token), nil
}
