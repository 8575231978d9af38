package watchlist_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mediashelf/models"
	"mediashelf/services/watchlist"
)

type stubStorage struct {
	mu       sync.Mutex
	loaded   []models.WatchlistItem
	loadErr  error
	saved    [][]models.WatchlistItem
	failures int
}

func (s *stubStorage) LoadWatchlist() ([]models.WatchlistItem, error) {
	return s.loaded, s.loadErr
}

func (s *stubStorage) SaveWatchlist(items []models.WatchlistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("disk full")
	}
	s.saved = append(s.saved, items)
	return nil
}

func (s *stubStorage) lastSaved() ([]models.WatchlistItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saved) == 0 {
		return nil, false
	}
	return s.saved[len(s.saved)-1], true
}

type stubResolver struct {
	meta  *models.Metadata
	calls int
}

func (r *stubResolver) Fetch(_ context.Context, _ string, _ models.Category) *models.Metadata {
	r.calls++
	return r.meta
}

func TestAddItemEnrichesFromResolver(t *testing.T) {
	storage := &stubStorage{}
	resolver := &stubResolver{meta: &models.Metadata{
		PosterURL: "http://x/p.jpg",
		Year:      "2010",
		Rating:    8.8,
		Genre:     "Sci-Fi",
		Plot:      "A thief...",
	}}

	svc := watchlist.NewService(storage, resolver)
	defer svc.Close()

	item, err := svc.AddItem(context.Background(), "Inception", "", models.CategoryMovie)
	if err != nil {
		t.Fatalf("add returned error: %v", err)
	}

	if item.ID == "" {
		t.Fatal("expected generated id")
	}
	if item.Description != "A thief..." {
		t.Fatalf("expected fetched plot as description, got %q", item.Description)
	}
	if item.Year != "2010" || item.Rating != 8.8 || item.PosterURL != "http://x/p.jpg" {
		t.Fatalf("unexpected enrichment fields: %+v", item)
	}
	if item.Watched {
		t.Fatal("new items must start unwatched")
	}
	if resolver.calls != 1 {
		t.Fatalf("expected one resolver call, got %d", resolver.calls)
	}

	items := svc.Items()
	if len(items) != 1 || items[0].ID != item.ID {
		t.Fatalf("expected item to be first in collection, got %+v", items)
	}
}

func TestAddItemUserDescriptionWins(t *testing.T) {
	resolver := &stubResolver{meta: &models.Metadata{Plot: "fetched plot"}}
	svc := watchlist.NewService(&stubStorage{}, resolver)
	defer svc.Close()

	item, err := svc.AddItem(context.Background(), "Dune", "my notes", models.CategoryMovie)
	if err != nil {
		t.Fatalf("add returned error: %v", err)
	}
	if item.Description != "my notes" {
		t.Fatalf("expected user description to win, got %q", item.Description)
	}
}

func TestAddItemEnrichmentFailureStillCreates(t *testing.T) {
	storage := &stubStorage{}
	svc := watchlist.NewService(storage, &stubResolver{meta: nil})

	item, err := svc.AddItem(context.Background(), "Obscure Title", "", models.CategoryGame)
	if err != nil {
		t.Fatalf("add returned error: %v", err)
	}
	if item.PosterURL != "" || item.Year != "" || item.Rating != 0 || item.Genre != "" {
		t.Fatalf("expected empty enrichment fields, got %+v", item)
	}
	if item.Description != "" {
		t.Fatalf("expected empty description, got %q", item.Description)
	}

	svc.Close()
	saved, ok := storage.lastSaved()
	if !ok {
		t.Fatal("expected item to be persisted despite enrichment failure")
	}
	if len(saved) != 1 || saved[0].ID != item.ID {
		t.Fatalf("unexpected persisted state: %+v", saved)
	}
}

func TestAddItemRejectsBlankTitle(t *testing.T) {
	svc := watchlist.NewService(&stubStorage{}, &stubResolver{})
	defer svc.Close()

	if _, err := svc.AddItem(context.Background(), "   ", "", models.CategoryMovie); !errors.Is(err, watchlist.ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if len(svc.Items()) != 0 {
		t.Fatal("expected collection to stay empty")
	}
}

func TestAddItemRejectsUnknownCategory(t *testing.T) {
	svc := watchlist.NewService(&stubStorage{}, &stubResolver{})
	defer svc.Close()

	if _, err := svc.AddItem(context.Background(), "Title", "", models.Category("podcast")); !errors.Is(err, watchlist.ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestAddItemsAreNewestFirstWithUniqueIDs(t *testing.T) {
	svc := watchlist.NewService(&stubStorage{}, &stubResolver{})
	defer svc.Close()

	titles := []string{"first", "second", "third"}
	for _, title := range titles {
		if _, err := svc.AddItem(context.Background(), title, "", models.CategoryMovie); err != nil {
			t.Fatalf("add %q returned error: %v", title, err)
		}
	}

	items := svc.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Title != "third" || items[2].Title != "first" {
		t.Fatalf("expected newest-first order, got %+v", items)
	}

	seen := make(map[string]bool)
	for _, item := range items {
		if seen[item.ID] {
			t.Fatalf("duplicate id %q", item.ID)
		}
		seen[item.ID] = true
	}
}

func TestToggleWatchedIsItsOwnInverse(t *testing.T) {
	svc := watchlist.NewService(&stubStorage{}, &stubResolver{})
	defer svc.Close()

	item, err := svc.AddItem(context.Background(), "Dark", "", models.CategorySeries)
	if err != nil {
		t.Fatalf("add returned error: %v", err)
	}

	before := time.Now().UTC()
	svc.ToggleWatched(item.ID)

	got := svc.Items()[0]
	if !got.Watched {
		t.Fatal("expected item to be watched after toggle")
	}
	if got.WatchedAt == nil {
		t.Fatal("expected watchedAt to be set while watched")
	}
	if got.WatchedAt.Before(before) {
		t.Fatalf("watchedAt %v precedes the toggle call %v", got.WatchedAt, before)
	}

	svc.ToggleWatched(item.ID)
	got = svc.Items()[0]
	if got.Watched {
		t.Fatal("expected item to be unwatched after second toggle")
	}
	if got.WatchedAt != nil {
		t.Fatalf("expected watchedAt to be cleared, got %v", got.WatchedAt)
	}
}

func TestToggleWatchedUnknownIDIsNoOp(t *testing.T) {
	svc := watchlist.NewService(&stubStorage{}, &stubResolver{})
	defer svc.Close()

	if _, err := svc.AddItem(context.Background(), "Celeste", "", models.CategoryGame); err != nil {
		t.Fatalf("add returned error: %v", err)
	}

	svc.ToggleWatched("missing")

	if got := svc.Items()[0]; got.Watched {
		t.Fatal("expected existing item to stay unwatched")
	}
}

func TestRemoveItem(t *testing.T) {
	storage := &stubStorage{}
	svc := watchlist.NewService(storage, &stubResolver{})

	item, err := svc.AddItem(context.Background(), "Akira", "", models.CategoryAnime)
	if err != nil {
		t.Fatalf("add returned error: %v", err)
	}

	svc.RemoveItem(item.ID)
	if len(svc.Items()) != 0 {
		t.Fatal("expected empty collection after remove")
	}

	svc.Close()
	saved, ok := storage.lastSaved()
	if !ok {
		t.Fatal("expected remove to be persisted")
	}
	if len(saved) != 0 {
		t.Fatalf("expected persisted collection to be empty, got %+v", saved)
	}
}

func TestRemoveUnknownIDKeepsCollection(t *testing.T) {
	svc := watchlist.NewService(&stubStorage{}, &stubResolver{})
	defer svc.Close()

	if _, err := svc.AddItem(context.Background(), "Persona 5", "", models.CategoryGame); err != nil {
		t.Fatalf("add returned error: %v", err)
	}

	svc.RemoveItem("missing")

	if len(svc.Items()) != 1 {
		t.Fatal("expected collection to be unchanged")
	}
}

func TestUpdateItemKeepsPositionAndWatchState(t *testing.T) {
	svc := watchlist.NewService(&stubStorage{}, &stubResolver{})
	defer svc.Close()

	older, err := svc.AddItem(context.Background(), "older", "", models.CategoryMovie)
	if err != nil {
		t.Fatalf("add returned error: %v", err)
	}
	if _, err := svc.AddItem(context.Background(), "newer", "", models.CategoryMovie); err != nil {
		t.Fatalf("add returned error: %v", err)
	}

	svc.ToggleWatched(older.ID)

	updated, err := svc.UpdateItem(models.WatchlistItem{
		ID:       older.ID,
		Title:    "older, renamed",
		Category: models.CategorySeries,
	})
	if err != nil {
		t.Fatalf("update returned error: %v", err)
	}

	if !updated.Watched || updated.WatchedAt == nil {
		t.Fatal("expected update to preserve watch state")
	}
	if !updated.CreatedAt.Equal(older.CreatedAt) {
		t.Fatal("expected update to preserve creation time")
	}

	items := svc.Items()
	if items[1].ID != older.ID || items[1].Title != "older, renamed" {
		t.Fatalf("expected updated item to keep its position, got %+v", items)
	}
	if items[1].Category != models.CategorySeries {
		t.Fatalf("expected category change to apply, got %q", items[1].Category)
	}
}

func TestUpdateUnknownIDReturnsNotFound(t *testing.T) {
	svc := watchlist.NewService(&stubStorage{}, &stubResolver{})
	defer svc.Close()

	_, err := svc.UpdateItem(models.WatchlistItem{ID: "missing", Title: "x", Category: models.CategoryMovie})
	if !errors.Is(err, watchlist.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestFilteredPartitionsByWatchedAndCategory(t *testing.T) {
	svc := watchlist.NewService(&stubStorage{}, &stubResolver{})
	defer svc.Close()

	movieA, _ := svc.AddItem(context.Background(), "movie a", "", models.CategoryMovie)
	if _, err := svc.AddItem(context.Background(), "movie b", "", models.CategoryMovie); err != nil {
		t.Fatalf("add returned error: %v", err)
	}
	if _, err := svc.AddItem(context.Background(), "some game", "", models.CategoryGame); err != nil {
		t.Fatalf("add returned error: %v", err)
	}

	svc.ToggleWatched(movieA.ID)

	watched := svc.Filtered(true, models.CategoryMovie)
	unwatched := svc.Filtered(false, models.CategoryMovie)

	if len(watched) != 1 || watched[0].ID != movieA.ID {
		t.Fatalf("unexpected watched partition: %+v", watched)
	}
	if len(unwatched) != 1 || unwatched[0].Title != "movie b" {
		t.Fatalf("unexpected unwatched partition: %+v", unwatched)
	}

	for _, w := range watched {
		for _, u := range unwatched {
			if w.ID == u.ID {
				t.Fatalf("item %q appears in both partitions", w.ID)
			}
		}
	}
	if len(watched)+len(unwatched) != 2 {
		t.Fatal("partitions must cover all movie items")
	}

	if all := svc.Filtered(false, ""); len(all) != 2 {
		t.Fatalf("expected 2 unwatched items across categories, got %d", len(all))
	}
}

func TestNewServiceLoadsPersistedItems(t *testing.T) {
	persisted := []models.WatchlistItem{
		{ID: "a", Title: "kept", Category: models.CategoryMovie, CreatedAt: time.Now().UTC()},
	}
	svc := watchlist.NewService(&stubStorage{loaded: persisted}, &stubResolver{})
	defer svc.Close()

	items := svc.Items()
	if len(items) != 1 || items[0].ID != "a" {
		t.Fatalf("expected persisted items to load, got %+v", items)
	}
}

func TestNewServiceDegradesToEmptyOnLoadError(t *testing.T) {
	storage := &stubStorage{loadErr: errors.New("corrupt payload")}
	svc := watchlist.NewService(storage, &stubResolver{})
	defer svc.Close()

	if len(svc.Items()) != 0 {
		t.Fatal("expected empty collection on load error")
	}

	// The store must stay usable afterwards.
	if _, err := svc.AddItem(context.Background(), "recovered", "", models.CategoryMovie); err != nil {
		t.Fatalf("add after degraded load returned error: %v", err)
	}
}

func TestPersistRetriesOnceThenSucceeds(t *testing.T) {
	storage := &stubStorage{failures: 1}
	svc := watchlist.NewService(storage, &stubResolver{})

	if _, err := svc.AddItem(context.Background(), "flaky disk", "", models.CategoryMovie); err != nil {
		t.Fatalf("add returned error: %v", err)
	}
	svc.Close()

	saved, ok := storage.lastSaved()
	if !ok {
		t.Fatal("expected retry to persist the write")
	}
	if len(saved) != 1 {
		t.Fatalf("unexpected persisted state: %+v", saved)
	}
}

func TestPersistFailureDoesNotRollBackMutation(t *testing.T) {
	storage := &stubStorage{failures: 2} // initial attempt and the retry both fail
	svc := watchlist.NewService(storage, &stubResolver{})

	item, err := svc.AddItem(context.Background(), "kept in memory", "", models.CategoryMovie)
	if err != nil {
		t.Fatalf("add returned error: %v", err)
	}
	svc.Close()

	if _, ok := storage.lastSaved(); ok {
		t.Fatal("expected no successful write")
	}
	if items := svc.Items(); len(items) != 1 || items[0].ID != item.ID {
		t.Fatalf("expected in-memory state to survive the failed write, got %+v", items)
	}
}
