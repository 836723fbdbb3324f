package services

import (
	"context"

	"github.com/lborres/realty/core"
)

// The Unimplemented* collaborators stand in for features with no backing
// store or algorithm yet. Every call returns core.ErrNotImplemented.

type UnimplementedPreferences struct{}

func (UnimplementedPreferences) GetPreferences(context.Context, string) (core.Preferences, error) {
	return nil, core.ErrNotImplemented
}

func (UnimplementedPreferences) SavePreferences(context.Context, string, core.Preferences) (core.Preferences, error) {
	return nil, core.ErrNotImplemented
}

type UnimplementedListings struct{}

func (UnimplementedListings) ListListings(context.Context, string) ([]core.Listing, error) {
	return nil, core.ErrNotImplemented
}

func (UnimplementedListings) CreateListing(context.Context, string, core.ListingInput) (*core.Listing, error) {
	return nil, core.ErrNotImplemented
}

func (UnimplementedListings) DeleteListing(context.Context, string, string) error {
	return core.ErrNotImplemented
}

// UnimplementedInsights backs the vendor reports and developer heatmap.
type UnimplementedInsights struct{}

func (UnimplementedInsights) Reports(context.Context, string) (map[string]any, error) {
	return nil, core.ErrNotImplemented
}

func (UnimplementedInsights) Heatmap(context.Context, string) (map[string]any, error) {
	return nil, core.ErrNotImplemented
}

// UnimplementedAdvisor is used when no chat-completion key is configured.
type UnimplementedAdvisor struct{}

func (UnimplementedAdvisor) SuggestSuburbs(context.Context, string, string) (string, error) {
	return "", core.ErrChatNotConfigured
}

func (UnimplementedAdvisor) SuggestStrategy(context.Context, string) (string, error) {
	return "", core.ErrChatNotConfigured
}

var (
	_ core.PreferencesProvider = UnimplementedPreferences{}
	_ core.ListingProvider     = UnimplementedListings{}
	_ core.InsightsProvider    = UnimplementedInsights{}
	_ core.AdvisorProvider     = UnimplementedAdvisor{}
)
