// Package stats computes dashboard aggregates: dataset overview, per-league
// genre/artist/popularity analytics and the derived genre views.
package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/jpvargas/leaguedash/internal/domain"
	"github.com/jpvargas/leaguedash/internal/logger"
	"github.com/jpvargas/leaguedash/internal/store"
)

const recentRoundLimit = 5

type Service struct {
	db  *store.DB
	log *logger.Logger
}

func New(db *store.DB, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{db: db, log: log.WithComponent("stats")}
}

// Overview is the dataset-wide dashboard summary.
type Overview struct {
	TotalLeagues     int              `json:"totalLeagues"`
	TotalRounds      int              `json:"totalRounds"`
	TotalSubmissions int              `json:"totalSubmissions"`
	TotalVotes       int              `json:"totalVotes"`
	TotalCompetitors int              `json:"totalCompetitors"`
	TracksWithData   int              `json:"tracksWithMetadata"`
	Leagues          []LeagueOverview `json:"leagues"`
	RecentRounds     []domain.Round   `json:"recentRounds"`
}

// LeagueOverview is one league with its totals.
type LeagueOverview struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	store.LeagueCounts
}

func (s *Service) Overview() (*Overview, error) {
	counts, err := s.db.CountOverview()
	if err != nil {
		return nil, err
	}
	leagues, err := s.db.ListLeagues()
	if err != nil {
		return nil, err
	}
	metadataCount, err := s.db.CountTrackMetadata()
	if err != nil {
		return nil, err
	}
	recent, err := s.db.RecentRounds(recentRoundLimit)
	if err != nil {
		return nil, err
	}

	overview := &Overview{
		TotalLeagues:     len(leagues),
		TotalRounds:      counts.Rounds,
		TotalSubmissions: counts.Submissions,
		TotalVotes:       counts.Votes,
		TotalCompetitors: counts.Competitors,
		TracksWithData:   metadataCount,
		Leagues:          make([]LeagueOverview, 0, len(leagues)),
		RecentRounds:     recent,
	}
	for _, league := range leagues {
		lc, err := s.db.CountLeague(league.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count league %d: %w", league.ID, err)
		}
		overview.Leagues = append(overview.Leagues, LeagueOverview{
			ID:           league.ID,
			Name:         league.Name,
			LeagueCounts: lc,
		})
	}
	return overview, nil
}

// GenreStat aggregates one primary genre within a league.
type GenreStat struct {
	Genre           string `json:"genre"`
	TotalVotes      int    `json:"totalVotes"`
	SubmissionCount int    `json:"submissionCount"`
	AvgVotes        int    `json:"avgVotes"`
	RelatedGenres   int    `json:"relatedGenres"`
}

// ArtistStat aggregates one lead artist within a league.
type ArtistStat struct {
	Artist          string `json:"artist"`
	TotalVotes      int    `json:"totalVotes"`
	SubmissionCount int    `json:"submissionCount"`
	AvgVotes        int    `json:"avgVotes"`
}

// PopularityRow is one track with a known popularity score.
type PopularityRow struct {
	Title      string   `json:"title"`
	Artists    []string `json:"artists"`
	Popularity int      `json:"popularity"`
	TotalVotes int      `json:"totalVotes"`
}

// LeagueAnalytics is the per-league analytics payload.
type LeagueAnalytics struct {
	League             domain.League      `json:"league"`
	Counts             store.LeagueCounts `json:"counts"`
	GenreAnalysis      []GenreStat        `json:"genreAnalysis"`
	ArtistAnalysis     []ArtistStat       `json:"artistAnalysis"`
	PopularityAnalysis []PopularityRow    `json:"popularityAnalysis"`
}

const (
	topArtistLimit = 10
	unknownArtist  = "Unknown Artist"
)

// LeagueAnalytics rolls one league's submissions, votes and metadata into
// genre, artist and popularity breakdowns. Submissions without metadata
// still count toward artist totals through their fallback artist names; they
// are excluded from genre and popularity analysis.
func (s *Service) LeagueAnalytics(leagueID int64) (*LeagueAnalytics, error) {
	league, err := s.db.GetLeague(leagueID)
	if err != nil {
		return nil, err
	}
	counts, err := s.db.CountLeague(leagueID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.LeagueRollup(leagueID)
	if err != nil {
		return nil, err
	}

	return &LeagueAnalytics{
		League:             *league,
		Counts:             counts,
		GenreAnalysis:      genreAnalysis(rows),
		ArtistAnalysis:     artistAnalysis(rows),
		PopularityAnalysis: popularityAnalysis(rows),
	}, nil
}

func genreAnalysis(rows []store.RollupRow) []GenreStat {
	type acc struct {
		votes       int
		submissions int
		related     map[string]bool
	}
	byGenre := make(map[string]*acc)
	var order []string

	for _, row := range rows {
		if row.Genre == nil || *row.Genre == "" {
			continue
		}
		genre := *row.Genre
		a, ok := byGenre[genre]
		if !ok {
			a = &acc{related: make(map[string]bool)}
			byGenre[genre] = a
			order = append(order, genre)
		}
		a.votes += row.TotalVotes
		a.submissions++
		for _, g := range row.AllGenres {
			a.related[g] = true
		}
	}

	result := make([]GenreStat, 0, len(order))
	for _, genre := range order {
		a := byGenre[genre]
		result = append(result, GenreStat{
			Genre:           genre,
			TotalVotes:      a.votes,
			SubmissionCount: a.submissions,
			AvgVotes:        int(math.Round(float64(a.votes) / float64(a.submissions))),
			RelatedGenres:   len(a.related),
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TotalVotes > result[j].TotalVotes
	})
	return result
}

func artistAnalysis(rows []store.RollupRow) []ArtistStat {
	type acc struct {
		votes       int
		submissions int
	}
	byArtist := make(map[string]*acc)
	var order []string

	for _, row := range rows {
		lead := unknownArtist
		if names := row.ArtistNames(); len(names) > 0 && names[0] != "" {
			lead = names[0]
		}
		a, ok := byArtist[lead]
		if !ok {
			a = &acc{}
			byArtist[lead] = a
			order = append(order, lead)
		}
		a.votes += row.TotalVotes
		a.submissions++
	}

	result := make([]ArtistStat, 0, len(order))
	for _, artist := range order {
		a := byArtist[artist]
		result = append(result, ArtistStat{
			Artist:          artist,
			TotalVotes:      a.votes,
			SubmissionCount: a.submissions,
			AvgVotes:        int(math.Round(float64(a.votes) / float64(a.submissions))),
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TotalVotes > result[j].TotalVotes
	})
	if len(result) > topArtistLimit {
		result = result[:topArtistLimit]
	}
	return result
}

func popularityAnalysis(rows []store.RollupRow) []PopularityRow {
	result := make([]PopularityRow, 0, len(rows))
	for _, row := range rows {
		if !row.HasMetadata || row.Popularity <= 0 {
			continue
		}
		result = append(result, PopularityRow{
			Title:      row.Title,
			Artists:    row.ArtistNames(),
			Popularity: row.Popularity,
			TotalVotes: row.TotalVotes,
		})
	}
	return result
}

// SubmissionDetail is one submission with its track metadata when fetched.
type SubmissionDetail struct {
	domain.Submission
	Metadata *domain.TrackMetadata `json:"metadata,omitempty"`
}

// RoundDetail is one round with its metadata-enriched submissions and votes.
type RoundDetail struct {
	domain.Round
	Submissions []SubmissionDetail `json:"submissions"`
	Votes       []domain.Vote      `json:"votes"`
}

// RoundDetail loads one round together with its submissions, each joined to
// its track metadata, and its votes.
func (s *Service) RoundDetail(roundID string) (*RoundDetail, error) {
	round, err := s.db.GetRound(roundID)
	if err != nil {
		return nil, err
	}
	submissions, err := s.db.ListSubmissionsByRound(roundID)
	if err != nil {
		return nil, err
	}
	votes, err := s.db.ListVotesByRound(roundID)
	if err != nil {
		return nil, err
	}
	if votes == nil {
		votes = []domain.Vote{}
	}

	uris := make([]string, 0, len(submissions))
	seen := make(map[string]bool, len(submissions))
	for _, sub := range submissions {
		if !seen[sub.SpotifyURI] {
			seen[sub.SpotifyURI] = true
			uris = append(uris, sub.SpotifyURI)
		}
	}
	tracks, err := s.db.TrackMetadataForURIs(uris)
	if err != nil {
		return nil, err
	}
	byURI := make(map[string]*domain.TrackMetadata, len(tracks))
	for i := range tracks {
		byURI[tracks[i].SpotifyURI] = &tracks[i]
	}

	detail := &RoundDetail{
		Round:       *round,
		Submissions: make([]SubmissionDetail, 0, len(submissions)),
		Votes:       votes,
	}
	for _, sub := range submissions {
		detail.Submissions = append(detail.Submissions, SubmissionDetail{
			Submission: sub,
			Metadata:   byURI[sub.SpotifyURI],
		})
	}
	return detail, nil
}

// SongView is one submission in the all-songs listing.
type SongView struct {
	SpotifyURI  string   `json:"spotifyUri"`
	Title       string   `json:"title"`
	Artists     []string `json:"artists"`
	Album       string   `json:"album"`
	League      string   `json:"league"`
	Genre       *string  `json:"genre"`
	AllGenres   []string `json:"allGenres"`
	Popularity  int      `json:"popularity"`
	TotalVotes  int      `json:"totalVotes"`
	VoteCount   int      `json:"voteCount"`
	HasMetadata bool     `json:"hasMetadata"`
}

// AllSongs lists every submission with its vote totals, metadata and league
// name, in submission order.
func (s *Service) AllSongs() ([]SongView, error) {
	rows, err := s.db.AllSongRows()
	if err != nil {
		return nil, err
	}
	songs := make([]SongView, 0, len(rows))
	for _, row := range rows {
		songs = append(songs, SongView{
			SpotifyURI:  row.SpotifyURI,
			Title:       row.Title,
			Artists:     row.ArtistNames(),
			Album:       row.Album,
			League:      row.LeagueName,
			Genre:       row.Genre,
			AllGenres:   row.AllGenres,
			Popularity:  row.Popularity,
			TotalVotes:  row.TotalVotes,
			VoteCount:   row.VoteCount,
			HasMetadata: row.HasMetadata,
		})
	}
	return songs, nil
}

// Genres returns the taxonomy sorted by artist count.
func (s *Service) Genres() ([]domain.Genre, error) {
	return s.db.ListGenres()
}

// SearchGenres matches taxonomy entries by case-insensitive substring.
func (s *Service) SearchGenres(q string) ([]domain.Genre, error) {
	return s.db.SearchGenres(q)
}

// SongsByGenre lists track metadata whose genre list contains the name.
func (s *Service) SongsByGenre(name string) ([]domain.TrackMetadata, error) {
	return s.db.TracksByGenre(name)
}

// CompetitorGenres breaks one competitor's submissions down by primary genre.
func (s *Service) CompetitorGenres(competitorID string) ([]store.GenreCount, error) {
	return s.db.CompetitorGenreBreakdown(competitorID)
}
