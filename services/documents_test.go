package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lborres/realty/core"
)

func TestPreferencesService_GetEmpty(t *testing.T) {
	svc := NewPreferencesService(NewFakeDocumentStore(), "app")

	prefs, err := svc.GetPreferences(context.Background(), "u1")

	if err != nil {
		t.Fatalf("GetPreferences() error = %v", err)
	}
	if prefs == nil || len(prefs) != 0 {
		t.Errorf("GetPreferences() = %v, want empty map", prefs)
	}
}

func TestPreferencesService_SaveMerges(t *testing.T) {
	// Arrange
	docs := NewFakeDocumentStore()
	svc := NewPreferencesService(docs, "app")
	ctx := context.Background()
	_, err := svc.SavePreferences(ctx, "u1", core.Preferences{"location": "Fitzroy", "budget": "900k"})
	if err != nil {
		t.Fatalf("SavePreferences() error = %v", err)
	}

	// Act
	merged, err := svc.SavePreferences(ctx, "u1", core.Preferences{"budget": "1m", "lifestyle": "cafes"})

	// Assert
	if err != nil {
		t.Fatalf("SavePreferences() error = %v", err)
	}
	want := map[string]any{"location": "Fitzroy", "budget": "1m", "lifestyle": "cafes"}
	got, _ := svc.GetPreferences(ctx, "u1")
	for k, v := range want {
		if merged[k] != v || got[k] != v {
			t.Errorf("%s: merged=%v stored=%v, want %v", k, merged[k], got[k], v)
		}
	}
	if _, ok := docs.docs["artifacts/app/users/u1/buyerPreferences/myPreferences"]; !ok {
		t.Error("preferences not stored at the expected path")
	}
}

func TestPreferencesService_ScopedPerUser(t *testing.T) {
	svc := NewPreferencesService(NewFakeDocumentStore(), "app")
	ctx := context.Background()
	_, _ = svc.SavePreferences(ctx, "u1", core.Preferences{"location": "Fitzroy"})

	other, err := svc.GetPreferences(ctx, "u2")

	if err != nil || len(other) != 0 {
		t.Errorf("u2 preferences = %v, %v; want empty", other, err)
	}
}

func TestPreferencesService_StoreError(t *testing.T) {
	docs := NewFakeDocumentStore()
	docs.err = errors.New("bucket gone")
	svc := NewPreferencesService(docs, "app")

	_, err := svc.GetPreferences(context.Background(), "u1")

	if !errors.Is(err, docs.err) {
		t.Errorf("GetPreferences() error = %v, want wrapped store error", err)
	}
}

func price(v float64) *float64 { return &v }

func TestListingService_CreateValidation(t *testing.T) {
	tests := []struct {
		name       string
		input      core.ListingInput
		wantFields []string
	}{
		{name: "valid", input: core.ListingInput{Title: "Cottage", Price: price(500000), Location: "Suburb A"}},
		{name: "zero price", input: core.ListingInput{Title: "Cottage", Price: price(0), Location: "Suburb A"}},
		{name: "missing title", input: core.ListingInput{Price: price(1), Location: "Suburb A"}, wantFields: []string{"title"}},
		{name: "missing price", input: core.ListingInput{Title: "Cottage", Location: "Suburb A"}, wantFields: []string{"price"}},
		{name: "negative price", input: core.ListingInput{Title: "Cottage", Price: price(-1), Location: "Suburb A"}, wantFields: []string{"price"}},
		{name: "non-numeric price", input: core.ListingInput{Title: "Cottage", PriceInvalid: true, Location: "Suburb A"}, wantFields: []string{"price"}},
		{name: "missing everything", input: core.ListingInput{}, wantFields: []string{"title", "price", "location"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			svc := NewListingService(NewFakeDocumentStore(), "app")

			// Act
			listing, err := svc.CreateListing(context.Background(), "agent1", test.input)

			// Assert
			if len(test.wantFields) == 0 {
				if err != nil {
					t.Fatalf("CreateListing() error = %v", err)
				}
				if listing.ID == "" || listing.AgentID != "agent1" || listing.CreatedAt.IsZero() {
					t.Errorf("CreateListing() = %+v", listing)
				}
				return
			}
			fields := fieldErrors(t, err)
			for _, f := range test.wantFields {
				if len(fields[f]) == 0 {
					t.Errorf("expected an error for %q, got %v", f, fields)
				}
			}
		})
	}
}

func TestListingService_ListNewestFirst(t *testing.T) {
	// Arrange
	svc := NewListingService(NewFakeDocumentStore(), "app")
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	first, _ := svc.CreateListing(ctx, "agent1", core.ListingInput{Title: "First", Price: price(1), Location: "A", Description: "old"})
	now = now.Add(time.Minute)
	second, _ := svc.CreateListing(ctx, "agent1", core.ListingInput{Title: "Second", Price: price(2), Location: "B"})
	_, _ = svc.CreateListing(ctx, "agent2", core.ListingInput{Title: "Other", Price: price(3), Location: "C"})

	// Act
	listings, err := svc.ListListings(ctx, "agent1")

	// Assert
	if err != nil {
		t.Fatalf("ListListings() error = %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("len(listings) = %d, want 2", len(listings))
	}
	if listings[0].ID != second.ID || listings[1].ID != first.ID {
		t.Errorf("order = [%s %s], want [%s %s]", listings[0].ID, listings[1].ID, second.ID, first.ID)
	}
	got := listings[1]
	if got.Title != "First" || got.Description != "old" || got.Price != 1 || got.Location != "A" ||
		got.AgentID != "agent1" || !got.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("round-tripped listing = %+v, want %+v", got, *first)
	}
}

func TestListingService_Delete(t *testing.T) {
	ctx := context.Background()
	svc := NewListingService(NewFakeDocumentStore(), "app")
	mine, _ := svc.CreateListing(ctx, "agent1", core.ListingInput{Title: "Mine", Price: price(1), Location: "A"})
	theirs, _ := svc.CreateListing(ctx, "agent2", core.ListingInput{Title: "Theirs", Price: price(1), Location: "B"})

	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{name: "someone else's listing", id: theirs.ID, wantErr: core.ErrListingNotFound},
		{name: "path traversal", id: "../../agent2/agentListings/" + theirs.ID, wantErr: core.ErrListingNotFound},
		{name: "own listing", id: mine.ID},
		{name: "already deleted", id: mine.ID, wantErr: core.ErrListingNotFound},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := svc.DeleteListing(ctx, "agent1", test.id)
			if !errors.Is(err, test.wantErr) {
				t.Errorf("DeleteListing() error = %v, want %v", err, test.wantErr)
			}
		})
	}

	if left, _ := svc.ListListings(ctx, "agent2"); len(left) != 1 {
		t.Errorf("agent2 listings = %d, want 1", len(left))
	}
}

func TestUnimplemented(t *testing.T) {
	ctx := context.Background()

	_, prefsErr := UnimplementedPreferences{}.GetPreferences(ctx, "u")
	_, listErr := UnimplementedListings{}.ListListings(ctx, "u")
	delErr := UnimplementedListings{}.DeleteListing(ctx, "u", "1")
	_, reportsErr := UnimplementedInsights{}.Reports(ctx, "u")
	_, heatmapErr := UnimplementedInsights{}.Heatmap(ctx, "u")

	for _, err := range []error{prefsErr, listErr, delErr, reportsErr, heatmapErr} {
		if !errors.Is(err, core.ErrNotImplemented) {
			t.Errorf("error = %v, want ErrNotImplemented", err)
		}
	}
}
