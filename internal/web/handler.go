package web

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alexandria/alexandria/internal/database"
	"github.com/alexandria/alexandria/internal/orchestrator"
)

type Handler struct {
	repo *database.Repository
	svc  *orchestrator.Service
}

func NewHandler(repo *database.Repository, svc *orchestrator.Service) *Handler {
	return &Handler{repo: repo, svc: svc}
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/memories", h.handleMemories)
	mux.HandleFunc("/api/search", h.handleSearch)
	mux.HandleFunc("/api/statistics", h.handleStatistics)
	mux.HandleFunc("/api/status", h.handleStatus)
	mux.HandleFunc("/health", h.handleHealth)
}

// handleMemories lists memories with optional filters: start, end
// (RFC3339), text, tags (comma-separated), limit, offset,
// include_private.
func (h *Handler) handleMemories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	filters := database.QueryFilters{
		SearchText:     query.Get("text"),
		ExcludePrivate: query.Get("include_private") != "true",
	}

	if v := query.Get("start"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "invalid start time", http.StatusBadRequest)
			return
		}
		filters.StartTime = &ts
	}
	if v := query.Get("end"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "invalid end time", http.StatusBadRequest)
			return
		}
		filters.EndTime = &ts
	}
	if v := query.Get("tags"); v != "" {
		filters.Tags = strings.Split(v, ",")
	}
	if v := query.Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			filters.Limit = limit
		}
	}
	if v := query.Get("offset"); v != "" {
		if offset, err := strconv.Atoi(v); err == nil {
			filters.Offset = offset
		}
	}

	memories, err := h.repo.Query(filters)
	if err != nil {
		http.Error(w, "Failed to query memories", http.StatusInternalServerError)
		log.Printf("API memory query failed: %v", err)
		return
	}

	h.writeJSON(w, memories)
}

// handleSearch is a free-text search over non-private memories.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	text := r.URL.Query().Get("q")
	if text == "" {
		http.Error(w, "missing query parameter q", http.StatusBadRequest)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}

	memories, err := h.repo.Search(text, limit)
	if err != nil {
		http.Error(w, "Search failed", http.StatusInternalServerError)
		log.Printf("API search failed: %v", err)
		return
	}

	h.writeJSON(w, memories)
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := h.repo.Statistics()
	if err != nil {
		http.Error(w, "Failed to gather statistics", http.StatusInternalServerError)
		log.Printf("API statistics failed: %v", err)
		return
	}

	h.writeJSON(w, stats)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, h.svc.Status(true))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *Handler) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode API response: %v", err)
	}
}
