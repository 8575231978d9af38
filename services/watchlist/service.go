package watchlist

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"mediashelf/models"
)

// Storage is the persistence collaborator. The whole collection is the unit
// of durability; SaveWatchlist replaces whatever was stored before.
type Storage interface {
	LoadWatchlist() ([]models.WatchlistItem, error)
	SaveWatchlist(items []models.WatchlistItem) error
}

// MetadataResolver supplies best-effort enrichment for newly added titles.
// A nil result means no metadata was found; it is never an error.
type MetadataResolver interface {
	Fetch(ctx context.Context, title string, category models.Category) *models.Metadata
}

var (
	ErrEmptyTitle      = errors.New("watchlist item title is required")
	ErrInvalidCategory = errors.New("unknown watchlist category")
	ErrItemNotFound    = errors.New("watchlist item not found")
)

const saveQueueDepth = 16

// Service owns the canonical watchlist collection. All mutations go through
// it; reads return copies so callers never alias internal state. Persistence
// runs on a background worker so mutations stay responsive, with writes
// applied in mutation order.
type Service struct {
	storage  Storage
	resolver MetadataResolver

	mu    sync.Mutex
	items []models.WatchlistItem

	saves     chan []models.WatchlistItem
	worker    conc.WaitGroup
	closeOnce sync.Once
}

// NewService builds the store and populates it from storage. A missing or
// unreadable persisted payload degrades to an empty collection; it never
// fails the caller.
func NewService(storage Storage, resolver MetadataResolver) *Service {
	s := &Service{
		storage:  storage,
		resolver: resolver,
		saves:    make(chan []models.WatchlistItem, saveQueueDepth),
	}

	items, err := storage.LoadWatchlist()
	if err != nil {
		log.Printf("[watchlist] WARN: failed to load persisted watchlist, starting empty: %v", err)
		items = nil
	}
	s.items = items

	s.worker.Go(s.persistLoop)
	return s
}

// AddItem creates a new item from the user-supplied fields, enriched with
// whatever metadata the resolver can find. Enrichment failure degrades to
// empty fields and never aborts the add. The new item is prepended so the
// collection stays newest-first.
func (s *Service) AddItem(ctx context.Context, title, description string, category models.Category) (models.WatchlistItem, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.WatchlistItem{}, ErrEmptyTitle
	}
	if !category.Valid() {
		return models.WatchlistItem{}, ErrInvalidCategory
	}

	// Awaited network round-trip; runs outside the lock so a slow provider
	// does not stall unrelated mutations. Concurrent adds are independent.
	var meta *models.Metadata
	if s.resolver != nil {
		meta = s.resolver.Fetch(ctx, title, category)
	}

	item := models.WatchlistItem{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(description),
		Category:    category,
		CreatedAt:   time.Now().UTC(),
	}
	if meta != nil {
		if item.Description == "" {
			item.Description = meta.Plot
		}
		item.PosterURL = meta.PosterURL
		item.Year = meta.Year
		item.Rating = meta.Rating
		item.TotalSeasons = meta.TotalSeasons
		item.Genre = meta.Genre
		item.Actors = meta.Actors
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append([]models.WatchlistItem{item}, s.items...)
	s.enqueueSaveLocked()

	log.Printf("[watchlist] added item id=%s title=%q category=%s enriched=%t", item.ID, item.Title, item.Category, meta != nil)
	return item, nil
}

// UpdateItem replaces the stored item matching item.ID, keeping its position
// in the collection. Creation time and watch state are owned by the store and
// survive the update; watch state only changes through ToggleWatched.
func (s *Service) UpdateItem(item models.WatchlistItem) (models.WatchlistItem, error) {
	if strings.TrimSpace(item.Title) == "" {
		return models.WatchlistItem{}, ErrEmptyTitle
	}
	if !item.Category.Valid() {
		return models.WatchlistItem{}, ErrInvalidCategory
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(item.ID)
	if idx == -1 {
		log.Printf("[watchlist] WARN: update for unknown item id=%q", item.ID)
		return models.WatchlistItem{}, ErrItemNotFound
	}

	existing := s.items[idx]
	item.Title = strings.TrimSpace(item.Title)
	item.CreatedAt = existing.CreatedAt
	item.Watched = existing.Watched
	item.WatchedAt = existing.WatchedAt

	s.items[idx] = item
	s.enqueueSaveLocked()

	log.Printf("[watchlist] updated item id=%s title=%q category=%s", item.ID, item.Title, item.Category)
	return item, nil
}

// RemoveItem deletes the item with the given id. An unknown id is a no-op;
// it is logged because it usually indicates a stale UI state.
func (s *Service) RemoveItem(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(id)
	if idx == -1 {
		log.Printf("[watchlist] WARN: remove for unknown item id=%q", id)
		return
	}

	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.enqueueSaveLocked()

	log.Printf("[watchlist] removed item id=%s", id)
}

// ToggleWatched flips the watched flag. WatchedAt is set on the transition to
// watched and cleared on the way back, so it is present iff watched is true.
// An unknown id is a logged no-op.
func (s *Service) ToggleWatched(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(id)
	if idx == -1 {
		log.Printf("[watchlist] WARN: toggle for unknown item id=%q", id)
		return
	}

	item := &s.items[idx]
	item.Watched = !item.Watched
	if item.Watched {
		now := time.Now().UTC()
		item.WatchedAt = &now
	} else {
		item.WatchedAt = nil
	}

	s.enqueueSaveLocked()

	log.Printf("[watchlist] toggled item id=%s watched=%t", id, item.Watched)
}

// Items returns a copy of the full collection, newest first.
func (s *Service) Items() []models.WatchlistItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.WatchlistItem(nil), s.items...)
}

// Filtered returns items whose watched flag matches, optionally restricted to
// one category (empty category matches all). Collection order is preserved.
func (s *Service) Filtered(watched bool, category models.Category) []models.WatchlistItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.WatchlistItem
	for _, item := range s.items {
		if item.Watched != watched {
			continue
		}
		if category != "" && item.Category != category {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Close drains pending persistence writes and stops the worker. Call after
// the last mutation; the process must not exit with writes still queued.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.saves)
		s.worker.Wait()
	})
}

func (s *Service) indexOfLocked(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// enqueueSaveLocked snapshots the collection and hands it to the persistence
// worker. Dispatch happens under the mutex, so snapshots reach the worker in
// mutation order and the last write always reflects the final state.
func (s *Service) enqueueSaveLocked() {
	snapshot := append([]models.WatchlistItem(nil), s.items...)
	s.saves <- snapshot
}

func (s *Service) persistLoop() {
	for snapshot := range s.saves {
		s.persist(snapshot)
	}
}

// persist writes one snapshot, retrying once before giving up. A failed write
// is logged but never rolls back the in-memory mutation; the next successful
// write reconciles.
func (s *Service) persist(snapshot []models.WatchlistItem) {
	err := retry.Do(
		func() error { return s.storage.SaveWatchlist(snapshot) },
		retry.Attempts(2),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		log.Printf("[watchlist] WARN: failed to persist watchlist (%d items): %v", len(snapshot), err)
	}
}
