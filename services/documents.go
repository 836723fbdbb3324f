package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lborres/realty/core"
	"github.com/lborres/realty/pkg/crypto"
)

// Document paths follow artifacts/{appId}/users/{uid}/...
func userRoot(appID, userID string) string {
	return fmt.Sprintf("artifacts/%s/users/%s", appID, userID)
}

func preferencesPath(appID, userID string) string {
	return userRoot(appID, userID) + "/buyerPreferences/myPreferences"
}

func listingsPrefix(appID, userID string) string {
	return userRoot(appID, userID) + "/agentListings/"
}

type PreferencesService struct {
	docs  core.DocumentStore
	appID string
}

var _ core.PreferencesProvider = (*PreferencesService)(nil)

func NewPreferencesService(docs core.DocumentStore, appID string) *PreferencesService {
	return &PreferencesService{docs: docs, appID: appID}
}

// GetPreferences returns an empty map when nothing was saved yet.
func (s *PreferencesService) GetPreferences(ctx context.Context, userID string) (core.Preferences, error) {
	doc, err := s.docs.GetDocument(ctx, preferencesPath(s.appID, userID))
	if err != nil {
		if errors.Is(err, core.ErrDocumentNotFound) {
			return core.Preferences{}, nil
		}
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	return core.Preferences(doc), nil
}

// SavePreferences merges prefs over the stored document and returns the result.
func (s *PreferencesService) SavePreferences(ctx context.Context, userID string, prefs core.Preferences) (core.Preferences, error) {
	merged, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	for k, v := range prefs {
		merged[k] = v
	}

	if err := s.docs.PutDocument(ctx, preferencesPath(s.appID, userID), merged); err != nil {
		return nil, fmt.Errorf("failed to save preferences: %w", err)
	}
	return merged, nil
}

type ListingService struct {
	docs   core.DocumentStore
	appID  string
	nanoid *crypto.NanoID
	now    func() time.Time
}

var _ core.ListingProvider = (*ListingService)(nil)

func NewListingService(docs core.DocumentStore, appID string) *ListingService {
	return &ListingService{docs: docs, appID: appID, nanoid: crypto.MustNanoID(), now: time.Now}
}

// ListListings returns the agent's listings, newest first.
func (s *ListingService) ListListings(ctx context.Context, userID string) ([]core.Listing, error) {
	docs, err := s.docs.ListDocuments(ctx, listingsPrefix(s.appID, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}

	listings := make([]core.Listing, 0, len(docs))
	for path, doc := range docs {
		id := strings.TrimPrefix(path, listingsPrefix(s.appID, userID))
		listings = append(listings, listingFromDocument(id, doc))
	}

	sort.Slice(listings, func(i, j int) bool {
		if listings[i].CreatedAt.Equal(listings[j].CreatedAt) {
			return listings[i].ID < listings[j].ID
		}
		return listings[i].CreatedAt.After(listings[j].CreatedAt)
	})
	return listings, nil
}

func (s *ListingService) CreateListing(ctx context.Context, userID string, in core.ListingInput) (*core.Listing, error) {
	v, title, location := validateListing(in)
	if !v.Empty() {
		return nil, v
	}

	id, err := s.nanoid.Generate()
	if err != nil {
		return nil, err
	}

	listing := &core.Listing{
		ID:          id,
		AgentID:     userID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Price:       *in.Price,
		Location:    location,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.docs.PutDocument(ctx, listingsPrefix(s.appID, userID)+id, listingToDocument(listing)); err != nil {
		return nil, fmt.Errorf("failed to save listing: %w", err)
	}
	return listing, nil
}

// DeleteListing removes one of the caller's listings. Another agent's listing
// is indistinguishable from a missing one.
func (s *ListingService) DeleteListing(ctx context.Context, userID, listingID string) error {
	if listingID == "" || strings.ContainsAny(listingID, "/\\") {
		return core.ErrListingNotFound
	}

	path := listingsPrefix(s.appID, userID) + listingID
	if _, err := s.docs.GetDocument(ctx, path); err != nil {
		if errors.Is(err, core.ErrDocumentNotFound) {
			return core.ErrListingNotFound
		}
		return fmt.Errorf("failed to load listing: %w", err)
	}

	if err := s.docs.DeleteDocument(ctx, path); err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	return nil
}

func listingToDocument(l *core.Listing) map[string]any {
	doc := map[string]any{
		"agentId":   l.AgentID,
		"title":     l.Title,
		"price":     l.Price,
		"location":  l.Location,
		"createdAt": l.CreatedAt.Format(time.RFC3339Nano),
	}
	if l.Description != "" {
		doc["description"] = l.Description
	}
	return doc
}

func listingFromDocument(id string, doc map[string]any) core.Listing {
	l := core.Listing{ID: id}
	l.AgentID, _ = doc["agentId"].(string)
	l.Title, _ = doc["title"].(string)
	l.Description, _ = doc["description"].(string)
	l.Location, _ = doc["location"].(string)

	switch p := doc["price"].(type) {
	case float64:
		l.Price = p
	case int:
		l.Price = float64(p)
	case int64:
		l.Price = float64(p)
	}

	if raw, ok := doc["createdAt"].(string); ok {
		l.CreatedAt, _ = time.Parse(time.RFC3339Nano, raw)
	}
	return l
}
