package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"mediashelf/models"
	watchlistsvc "mediashelf/services/watchlist"
)

type watchlistService interface {
	AddItem(ctx context.Context, title, description string, category models.Category) (models.WatchlistItem, error)
	UpdateItem(item models.WatchlistItem) (models.WatchlistItem, error)
	RemoveItem(id string)
	ToggleWatched(id string)
	Items() []models.WatchlistItem
	Filtered(watched bool, category models.Category) []models.WatchlistItem
}

var _ watchlistService = (*watchlistsvc.Service)(nil)

// WatchlistHandler exposes the store's operations over HTTP. Each route maps
// 1:1 to a store operation; the handler adds payload validation and nothing
// else.
type WatchlistHandler struct {
	Service  watchlistService
	validate *validator.Validate
}

func NewWatchlistHandler(s watchlistService) *WatchlistHandler {
	return &WatchlistHandler{
		Service:  s,
		validate: validator.New(),
	}
}

// Register mounts the watchlist routes on the router.
func (h *WatchlistHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/watchlist", h.List).Methods(http.MethodGet)
	r.HandleFunc("/api/watchlist", h.Add).Methods(http.MethodPost)
	r.HandleFunc("/api/watchlist/{id}", h.Update).Methods(http.MethodPut)
	r.HandleFunc("/api/watchlist/{id}", h.Remove).Methods(http.MethodDelete)
	r.HandleFunc("/api/watchlist/{id}/toggle", h.Toggle).Methods(http.MethodPost)
}

type addItemRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Category    string `json:"category" validate:"required,oneof=movie series anime game"`
}

type updateItemRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Category    string `json:"category" validate:"required,oneof=movie series anime game"`

	// Enrichment fields round-trip through edits so an update does not wipe
	// what was fetched at add time.
	PosterURL    string  `json:"posterUrl"`
	Year         string  `json:"year"`
	Rating       float64 `json:"rating"`
	TotalSeasons int     `json:"totalSeasons"`
	Genre        string  `json:"genre"`
	Actors       string  `json:"actors"`
}

// List returns items filtered by the optional watched and category query
// parameters. With no parameters the full collection is returned, newest
// first.
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var category models.Category
	if raw := query.Get("category"); raw != "" {
		parsed, ok := models.ParseCategory(raw)
		if !ok {
			http.Error(w, "unknown category", http.StatusBadRequest)
			return
		}
		category = parsed
	}

	var items []models.WatchlistItem
	if raw := query.Get("watched"); raw != "" {
		watched, err := strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, "invalid watched parameter", http.StatusBadRequest)
			return
		}
		items = h.Service.Filtered(watched, category)
	} else {
		items = h.Service.Items()
		if category != "" {
			filtered := items[:0]
			for _, item := range items {
				if item.Category == category {
					filtered = append(filtered, item)
				}
			}
			items = filtered
		}
	}

	if items == nil {
		items = []models.WatchlistItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Add creates a new item. Enrichment happens inside the store; a provider
// failure still creates the item with the user-supplied fields only.
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var request addItemRequest
	if err := decodeJSON(r, &request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	category, _ := models.ParseCategory(request.Category)
	item, err := h.Service.AddItem(r.Context(), request.Title, request.Description, category)
	if err != nil {
		switch {
		case errors.Is(err, watchlistsvc.ErrEmptyTitle), errors.Is(err, watchlistsvc.ErrInvalidCategory):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

// Update edits title, description and category of an existing item.
func (h *WatchlistHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var request updateItemRequest
	if err := decodeJSON(r, &request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	category, _ := models.ParseCategory(request.Category)
	item, err := h.Service.UpdateItem(models.WatchlistItem{
		ID:           id,
		Title:        request.Title,
		Description:  request.Description,
		Category:     category,
		PosterURL:    request.PosterURL,
		Year:         request.Year,
		Rating:       request.Rating,
		TotalSeasons: request.TotalSeasons,
		Genre:        request.Genre,
		Actors:       request.Actors,
	})
	if err != nil {
		switch {
		case errors.Is(err, watchlistsvc.ErrItemNotFound):
			http.Error(w, "item not found", http.StatusNotFound)
		case errors.Is(err, watchlistsvc.ErrEmptyTitle), errors.Is(err, watchlistsvc.ErrInvalidCategory):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// Remove deletes an item. Unknown ids are treated as already removed.
func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	h.Service.RemoveItem(id)
	w.WriteHeader(http.StatusNoContent)
}

// Toggle flips the watched flag of an item. Unknown ids are a no-op.
func (h *WatchlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	h.Service.ToggleWatched(id)
	w.WriteHeader(http.StatusNoContent)
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[watchlist-handler] failed to encode response: %v", err)
	}
}
