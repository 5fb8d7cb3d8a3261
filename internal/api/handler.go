// Package api exposes the dashboard REST endpoints.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/jpvargas/leaguedash/internal/enrich"
	"github.com/jpvargas/leaguedash/internal/importer"
	"github.com/jpvargas/leaguedash/internal/logger"
	"github.com/jpvargas/leaguedash/internal/stats"
	"github.com/jpvargas/leaguedash/internal/store"
)

// EnrichRunner runs the metadata pipeline.
type EnrichRunner interface {
	Run(ctx context.Context, opts enrich.Options) (*enrich.Summary, error)
}

// ImportRunner reloads the store from the CSV data dir.
type ImportRunner interface {
	Run() (*importer.Summary, error)
}

type Handler struct {
	DB       *store.DB
	Stats    *stats.Service
	Enricher EnrichRunner
	Importer ImportRunner
	Log      *logger.Logger
}

func NewHandler(db *store.DB, statsSvc *stats.Service, enricher EnrichRunner, imp ImportRunner, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		DB:       db,
		Stats:    statsSvc,
		Enricher: enricher,
		Importer: imp,
		Log:      log.WithComponent("api"),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Get("/leagues", h.ListLeagues)
		r.Get("/leagues/{id}", h.GetLeague)
		r.Get("/competitors/{id}", h.ListCompetitors)
		r.Get("/competitors/{id}/genres", h.CompetitorGenres)
		r.Get("/rounds/{leagueId}", h.ListRounds)
		r.Get("/rounds/detail/{roundId}", h.GetRound)
		r.Get("/submissions/{roundId}", h.ListSubmissions)
		r.Get("/votes/{roundId}", h.ListVotes)

		r.Get("/stats/overview", h.StatsOverview)
		r.Get("/stats/league/{leagueId}", h.StatsLeague)

		r.Get("/songs", h.ListSongs)
		r.Get("/genres", h.ListGenres)
		r.Get("/genres/search", h.SearchGenres)
		r.Get("/genres/{name}/songs", h.SongsByGenre)

		r.Post("/import", h.RunImport)
		r.Post("/enrich", h.RunEnrich)
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.Log.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func leagueIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
