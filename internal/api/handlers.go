package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/jpvargas/leaguedash/internal/enrich"
	"github.com/jpvargas/leaguedash/internal/spotify"
)

func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	leagues, err := h.DB.ListLeagues()
	if err != nil {
		h.serverError(w, "list leagues", err)
		return
	}
	h.writeJSON(w, http.StatusOK, leagues)
}

func (h *Handler) GetLeague(w http.ResponseWriter, r *http.Request) {
	id, err := leagueIDParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid league id")
		return
	}
	league, err := h.DB.GetLeague(id)
	if errors.Is(err, sql.ErrNoRows) {
		h.writeError(w, http.StatusNotFound, "league not found")
		return
	}
	if err != nil {
		h.serverError(w, "get league", err)
		return
	}
	h.writeJSON(w, http.StatusOK, league)
}

func (h *Handler) ListCompetitors(w http.ResponseWriter, r *http.Request) {
	leagueID, err := leagueIDParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid league id")
		return
	}
	competitors, err := h.DB.ListCompetitorsByLeague(leagueID)
	if err != nil {
		h.serverError(w, "list competitors", err)
		return
	}
	h.writeJSON(w, http.StatusOK, competitors)
}

func (h *Handler) CompetitorGenres(w http.ResponseWriter, r *http.Request) {
	competitorID := chi.URLParam(r, "id")
	breakdown, err := h.Stats.CompetitorGenres(competitorID)
	if err != nil {
		h.serverError(w, "competitor genres", err)
		return
	}
	h.writeJSON(w, http.StatusOK, breakdown)
}

func (h *Handler) ListRounds(w http.ResponseWriter, r *http.Request) {
	leagueID, err := leagueIDParam(r, "leagueId")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid league id")
		return
	}
	rounds, err := h.DB.ListRoundsByLeague(leagueID)
	if err != nil {
		h.serverError(w, "list rounds", err)
		return
	}
	h.writeJSON(w, http.StatusOK, rounds)
}

func (h *Handler) GetRound(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Stats.RoundDetail(chi.URLParam(r, "roundId"))
	if errors.Is(err, sql.ErrNoRows) {
		h.writeError(w, http.StatusNotFound, "round not found")
		return
	}
	if err != nil {
		h.serverError(w, "get round", err)
		return
	}
	h.writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	submissions, err := h.DB.ListSubmissionsByRound(chi.URLParam(r, "roundId"))
	if err != nil {
		h.serverError(w, "list submissions", err)
		return
	}
	h.writeJSON(w, http.StatusOK, submissions)
}

func (h *Handler) ListVotes(w http.ResponseWriter, r *http.Request) {
	votes, err := h.DB.ListVotesByRound(chi.URLParam(r, "roundId"))
	if err != nil {
		h.serverError(w, "list votes", err)
		return
	}
	h.writeJSON(w, http.StatusOK, votes)
}

func (h *Handler) StatsOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.Stats.Overview()
	if err != nil {
		h.serverError(w, "stats overview", err)
		return
	}
	h.writeJSON(w, http.StatusOK, overview)
}

func (h *Handler) StatsLeague(w http.ResponseWriter, r *http.Request) {
	leagueID, err := leagueIDParam(r, "leagueId")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid league id")
		return
	}
	analytics, err := h.Stats.LeagueAnalytics(leagueID)
	if errors.Is(err, sql.ErrNoRows) {
		h.writeError(w, http.StatusNotFound, "league not found")
		return
	}
	if err != nil {
		h.serverError(w, "league analytics", err)
		return
	}
	h.writeJSON(w, http.StatusOK, analytics)
}

func (h *Handler) ListSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := h.Stats.AllSongs()
	if err != nil {
		h.serverError(w, "list songs", err)
		return
	}
	h.writeJSON(w, http.StatusOK, songs)
}

func (h *Handler) ListGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.Stats.Genres()
	if err != nil {
		h.serverError(w, "list genres", err)
		return
	}
	h.writeJSON(w, http.StatusOK, genres)
}

func (h *Handler) SearchGenres(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		h.writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	genres, err := h.Stats.SearchGenres(q)
	if err != nil {
		h.serverError(w, "search genres", err)
		return
	}
	h.writeJSON(w, http.StatusOK, genres)
}

func (h *Handler) SongsByGenre(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.Stats.SongsByGenre(chi.URLParam(r, "name"))
	if err != nil {
		h.serverError(w, "songs by genre", err)
		return
	}
	h.writeJSON(w, http.StatusOK, tracks)
}

func (h *Handler) RunImport(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Importer.Run()
	if err != nil {
		h.serverError(w, "import", err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

// enrichRequest is the optional POST body for /api/enrich; force and limit
// may also be passed as query parameters.
type enrichRequest struct {
	Force bool `json:"force"`
	Limit int  `json:"limit"`
}

func (h *Handler) RunEnrich(w http.ResponseWriter, r *http.Request) {
	var req enrichRequest
	if r.Body != nil {
		// Ignore decode errors from an empty body.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if v := r.URL.Query().Get("force"); v != "" {
		req.Force, _ = strconv.ParseBool(v)
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		req.Limit, _ = strconv.Atoi(v)
	}

	summary, err := h.Enricher.Run(r.Context(), enrich.Options{Force: req.Force, Limit: req.Limit})
	if err != nil {
		var authErr *spotify.AuthError
		if errors.As(err, &authErr) {
			h.Log.Error("enrichment auth failure", "error", err)
			h.writeError(w, http.StatusInternalServerError, "catalog authentication failed")
			return
		}
		h.serverError(w, "enrich", err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) serverError(w http.ResponseWriter, op string, err error) {
	h.Log.Error("request failed", "op", op, "error", err)
	h.writeError(w, http.StatusInternalServerError, "internal server error")
}
