package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"costbook/exporter"
	"costbook/models"
	"costbook/services"

	"github.com/gorilla/mux"
)

// QuoteHistory reads recorded quotes
type QuoteHistory interface {
	History(sourceURL string, limit int) ([]models.Quote, error)
}

type Handlers struct {
	session *services.Session
	quotes  QuoteHistory
	started time.Time
}

// NewHandlers wires the HTTP surface. quotes may be nil when no database is
// configured.
func NewHandlers(session *services.Session, quotes QuoteHistory) *Handlers {
	return &Handlers{
		session: session,
		quotes:  quotes,
		started: time.Now(),
	}
}

// Register mounts every route on r
func (h *Handlers) Register(r *mux.Router) {
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/project", h.NewProject).Methods("POST")
	api.HandleFunc("/project", h.GetProject).Methods("GET")
	api.HandleFunc("/project", h.ClearProject).Methods("DELETE")
	api.HandleFunc("/project/items", h.AddItem).Methods("POST")
	api.HandleFunc("/project/items/{id}", h.RemoveItem).Methods("DELETE")
	api.HandleFunc("/project/items/{id}/retry", h.RetryItem).Methods("POST")
	api.HandleFunc("/project/total", h.GetTotal).Methods("GET")
	api.HandleFunc("/project/summary", h.GetSummary).Methods("GET")
	api.HandleFunc("/project/export", h.ExportProject).Methods("GET")

	api.HandleFunc("/resolve", h.Resolve).Methods("POST")
	api.HandleFunc("/quotes", h.GetQuotes).Methods("GET")
}

// NewProject starts a new project, replacing the current one
func (h *Handlers) NewProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.session.NewProject(req.Name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeSnapshot(w, http.StatusCreated)
}

// GetProject returns the project with its rows and total
func (h *Handlers) GetProject(w http.ResponseWriter, r *http.Request) {
	h.writeSnapshot(w, http.StatusOK)
}

// ClearProject drops every item but keeps the project name
func (h *Handlers) ClearProject(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Clear(); err != nil {
		writeSessionError(w, err)
		return
	}
	h.writeSnapshot(w, http.StatusOK)
}

// AddItem queues a resolution and returns the pending row
func (h *Handlers) AddItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Link     string `json:"link"`
		Quantity int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	row, err := h.session.Submit(req.Name, req.Link, req.Quantity)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, row)
}

// RemoveItem deletes a row and its line item
func (h *Handlers) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.session.Remove(id); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RetryItem resubmits a failed row
func (h *Handlers) RetryItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	row, err := h.session.Retry(id)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, row)
}

// GetTotal returns the project total raw and formatted
func (h *Handlers) GetTotal(w http.ResponseWriter, r *http.Request) {
	total, err := h.session.Total()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":      total,
		"total_text": total.Format(h.session.Currency()),
		"currency":   h.session.Currency(),
	})
}

// GetSummary returns the finish-project text
func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.session.Summary()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

// ExportProject downloads the project as xlsx, csv or pdf
func (h *Handlers) ExportProject(w http.ResponseWriter, r *http.Request) {
	format, err := exporter.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	links := true
	if v := r.URL.Query().Get("links"); v != "" {
		if links, err = strconv.ParseBool(v); err != nil {
			writeError(w, http.StatusBadRequest, "links must be true or false")
			return
		}
	}

	name, items, err := h.session.Project()
	if err != nil {
		writeSessionError(w, err)
		return
	}

	table := exporter.NewTable(name, items, exporter.Options{
		Links:    links,
		TotalRow: true,
		Currency: h.session.Currency(),
	})

	var buf bytes.Buffer
	if err := exporter.Write(&buf, format, table); err != nil {
		log.Printf("❌ Export of %q failed: %v", name, err)
		writeError(w, http.StatusInternalServerError, "Failed to export project")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName(name)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("Failed to write export: %v", err)
	}
}

// Resolve queues one resolution behind any pending rows and returns its result
func (h *Handlers) Resolve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Link string `json:"link"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, err := models.NewQuery(req.Name, req.Link); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Waits its turn behind queued project rows
	res, err := h.session.Lookup(r.Context(), req.Name, req.Link)
	if err != nil {
		log.Printf("⏰ Lookup abandoned: %v", err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetQuotes lists recorded quotes, optionally for one source URL
func (h *Handlers) GetQuotes(w http.ResponseWriter, r *http.Request) {
	if h.quotes == nil {
		writeError(w, http.StatusServiceUnavailable, "Quote history is disabled")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	quotes, err := h.quotes.History(r.URL.Query().Get("source"), limit)
	if err != nil {
		log.Printf("❌ Failed to read quotes: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to get quotes")
		return
	}
	if quotes == nil {
		quotes = []models.Quote{}
	}
	writeJSON(w, http.StatusOK, quotes)
}

// HealthCheck reports liveness and queue depth
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":       "costbook",
		"status":        "healthy",
		"timestamp":     time.Now(),
		"uptime":        time.Since(h.started).Round(time.Second).String(),
		"pending_items": h.session.Pending(),
		"quote_history": h.quotes != nil,
	})
}

func (h *Handlers) writeSnapshot(w http.ResponseWriter, status int) {
	snap, err := h.session.Snapshot()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, status, snap)
}

// writeSessionError maps session errors to status codes
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNoProject):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrNotRetryable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrInvalidQuantity),
		errors.Is(err, models.ErrEmptyQuery),
		errors.Is(err, models.ErrEmptyName):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("❌ Unexpected session error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
