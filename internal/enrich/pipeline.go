// Package enrich runs the metadata enrichment pipeline: discover which
// submitted tracks lack catalog metadata, fetch tracks then artists, derive
// per-track genres from artist genres, rebuild the genre taxonomy and the
// denormalized song view, and refresh popularity scores.
package enrich

import (
	"context"
	"fmt"

	"github.com/jpvargas/leaguedash/internal/domain"
	"github.com/jpvargas/leaguedash/internal/logger"
	"github.com/jpvargas/leaguedash/internal/spotify"
	"github.com/jpvargas/leaguedash/internal/store"
)

// Catalog is the slice of the metadata client the pipeline needs.
type Catalog interface {
	Authenticate(ctx context.Context) error
	FetchAllTracks(ctx context.Context, spotifyURIs []string, onProgress func(spotify.Progress)) ([]domain.TrackMetadata, error)
	FetchAllArtists(ctx context.Context, artistIDs []string, onProgress func(spotify.Progress)) ([]domain.ArtistMetadata, error)
}

// Options controls one pipeline run.
type Options struct {
	// Force refetches tracks and artists that already have metadata and
	// overwrites their catalog fields.
	Force bool
	// Limit caps how many tracks and artists are fetched this run; zero
	// means no cap.
	Limit int
}

// Summary reports what one full run did.
type Summary struct {
	DistinctTracks    int     `json:"distinctTracks"`
	TracksNeeded      int     `json:"tracksNeeded"`
	TracksFetched     int     `json:"tracksFetched"`
	ArtistsNeeded     int     `json:"artistsNeeded"`
	ArtistsFetched    int     `json:"artistsFetched"`
	TracksWithGenres  int     `json:"tracksWithGenres"`
	GenreCount        int     `json:"genreCount"`
	SongCount         int     `json:"songCount"`
	PopularityUpdated int     `json:"popularityUpdated"`
	Coverage          float64 `json:"coverage"`
}

// Pipeline wires the store and catalog client together. Stages are exposed
// individually so the CLI can run a single one.
type Pipeline struct {
	db      *store.DB
	catalog Catalog
	log     *logger.Logger
}

func New(db *store.DB, catalog Catalog, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Default()
	}
	return &Pipeline{db: db, catalog: catalog, log: log.WithComponent("enrich")}
}

// NeededTrackURIs returns the distinct submitted track URIs that still lack
// metadata, in first-seen submission order. With force, every distinct URI.
func (p *Pipeline) NeededTrackURIs(force bool) ([]string, error) {
	uris, err := p.db.DistinctSubmissionURIs()
	if err != nil {
		return nil, err
	}
	if force {
		return uris, nil
	}

	existing, err := p.db.TrackURIsWithMetadata()
	if err != nil {
		return nil, err
	}
	needed := make([]string, 0, len(uris))
	for _, uri := range uris {
		if !existing[uri] {
			needed = append(needed, uri)
		}
	}
	return needed, nil
}

// FetchTracks fetches catalog metadata for tracks that need it and upserts
// the results. Returns how many were needed and how many rows were written.
func (p *Pipeline) FetchTracks(ctx context.Context, opts Options) (needed, fetched int, err error) {
	uris, err := p.NeededTrackURIs(opts.Force)
	if err != nil {
		return 0, 0, err
	}
	if opts.Limit > 0 && len(uris) > opts.Limit {
		uris = uris[:opts.Limit]
	}
	if len(uris) == 0 {
		p.log.Info("all submitted tracks already have metadata")
		return 0, 0, nil
	}

	tracks, err := p.catalog.FetchAllTracks(ctx, uris, p.progressLogger("tracks"))
	if err != nil {
		return len(uris), 0, fmt.Errorf("track fetch failed: %w", err)
	}

	written, err := p.db.UpsertTrackMetadata(tracks, opts.Force)
	if err != nil {
		return len(uris), written, err
	}
	p.log.Info("stored track metadata", "needed", len(uris), "written", written)
	return len(uris), written, nil
}

// NeededArtistIDs collects artist ids referenced by stored track metadata
// that lack an artist record, in first-seen order.
func (p *Pipeline) NeededArtistIDs(force bool) ([]string, error) {
	tracks, err := p.db.AllTrackMetadata()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var ids []string
	for _, track := range tracks {
		for _, id := range track.Artists.IDs() {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	if force {
		return ids, nil
	}

	existing, err := p.db.ArtistIDsWithMetadata()
	if err != nil {
		return nil, err
	}
	needed := make([]string, 0, len(ids))
	for _, id := range ids {
		if !existing[id] {
			needed = append(needed, id)
		}
	}
	return needed, nil
}

// FetchArtists fetches artist metadata for artists that need it. Artist
// records are always overwritten; their attributes drift over time.
func (p *Pipeline) FetchArtists(ctx context.Context, opts Options) (needed, fetched int, err error) {
	ids, err := p.NeededArtistIDs(opts.Force)
	if err != nil {
		return 0, 0, err
	}
	if opts.Limit > 0 && len(ids) > opts.Limit {
		ids = ids[:opts.Limit]
	}
	if len(ids) == 0 {
		p.log.Info("all referenced artists already have metadata")
		return 0, 0, nil
	}

	artists, err := p.catalog.FetchAllArtists(ctx, ids, p.progressLogger("artists"))
	if err != nil {
		return len(ids), 0, fmt.Errorf("artist fetch failed: %w", err)
	}

	written, err := p.db.UpsertArtistMetadata(artists)
	if err != nil {
		return len(ids), written, err
	}
	p.log.Info("stored artist metadata", "needed", len(ids), "written", written)
	return len(ids), written, nil
}

// PropagateGenres derives per-track genre fields from stored artist genres.
// The primary genre is the first genre of the first artist (in track artist
// order) that has any; allGenres is the deduplicated union in encounter
// order. Tracks whose artists have no genres get a NULL primary and an empty
// list. Returns how many tracks ended up with a primary genre.
func (p *Pipeline) PropagateGenres() (int, error) {
	tracks, err := p.db.AllTrackMetadata()
	if err != nil {
		return 0, err
	}
	artists, err := p.db.AllArtistMetadata()
	if err != nil {
		return 0, err
	}

	byID := make(map[string]domain.ArtistMetadata, len(artists))
	for _, a := range artists {
		byID[a.ArtistID] = a
	}

	updates := make([]store.GenreUpdate, 0, len(tracks))
	withGenre := 0
	for _, track := range tracks {
		var primary *string
		seen := make(map[string]bool)
		all := domain.StringSlice{}

		for _, ref := range track.Artists {
			artist, ok := byID[ref.ID]
			if !ok {
				continue
			}
			for _, g := range artist.Genres {
				if !seen[g] {
					seen[g] = true
					all = append(all, g)
				}
			}
			if primary == nil && len(artist.Genres) > 0 {
				g := artist.Genres[0]
				primary = &g
			}
		}

		if primary != nil {
			withGenre++
		}
		updates = append(updates, store.GenreUpdate{
			SpotifyURI: track.SpotifyURI,
			Genre:      primary,
			AllGenres:  all,
		})
	}

	if err := p.db.UpdateTrackGenres(updates); err != nil {
		return 0, err
	}
	p.log.Info("propagated genres", "tracks", len(updates), "with_genre", withGenre)
	return withGenre, nil
}

// RebuildTaxonomy recomputes the genres table from artist metadata.
func (p *Pipeline) RebuildTaxonomy() (int, error) {
	count, err := p.db.RebuildGenres()
	if err != nil {
		return 0, err
	}
	p.log.Info("rebuilt genre taxonomy", "genres", count)
	return count, nil
}

// RebuildSongs recomputes the denormalized song view from submissions joined
// with track metadata. Submissions whose track has no metadata yet are
// skipped with a warning; a later run picks them up.
func (p *Pipeline) RebuildSongs() (int, error) {
	groups, err := p.db.GroupSubmissionsByURI()
	if err != nil {
		return 0, err
	}
	tracks, err := p.db.AllTrackMetadata()
	if err != nil {
		return 0, err
	}
	byURI := make(map[string]domain.TrackMetadata, len(tracks))
	for _, t := range tracks {
		byURI[t.SpotifyURI] = t
	}

	songs := make([]domain.Song, 0, len(groups))
	skipped := 0
	for _, g := range groups {
		track, ok := byURI[g.SpotifyURI]
		if !ok {
			skipped++
			p.log.Warn("skipping song without metadata", "uri", g.SpotifyURI, "title", g.SampleTitle)
			continue
		}
		names := track.Artists.Names()
		if len(names) == 0 {
			names = g.SampleArtists
		}
		songs = append(songs, domain.Song{
			MetadataURI:     g.SpotifyURI,
			Name:            track.Name,
			Artists:         names,
			Genres:          track.AllGenres,
			SubmissionCount: g.Count,
		})
	}

	written, err := p.db.UpsertSongs(songs)
	if err != nil {
		return written, err
	}
	p.log.Info("rebuilt songs", "songs", written, "skipped", skipped)
	return written, nil
}

// RefreshPopularity refetches every stored track and updates only its
// popularity score.
func (p *Pipeline) RefreshPopularity(ctx context.Context) (int, error) {
	tracks, err := p.db.AllTrackMetadata()
	if err != nil {
		return 0, err
	}
	if len(tracks) == 0 {
		return 0, nil
	}

	uris := make([]string, len(tracks))
	for i, t := range tracks {
		uris[i] = t.SpotifyURI
	}

	fetched, err := p.catalog.FetchAllTracks(ctx, uris, p.progressLogger("popularity"))
	if err != nil {
		return 0, fmt.Errorf("popularity fetch failed: %w", err)
	}

	updates := make([]store.PopularityUpdate, len(fetched))
	for i, t := range fetched {
		updates[i] = store.PopularityUpdate{SpotifyURI: t.SpotifyURI, Popularity: t.Popularity}
	}

	updated, err := p.db.UpdateTrackPopularity(updates)
	if err != nil {
		return updated, err
	}
	p.log.Info("refreshed popularity", "tracks", updated)
	return updated, nil
}

// Run executes the full pipeline in order. Any stage error aborts the run;
// completed stages keep their writes, so a rerun resumes where it left off.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Summary, error) {
	if err := p.catalog.Authenticate(ctx); err != nil {
		return nil, err
	}

	summary := &Summary{}

	distinct, err := p.db.DistinctSubmissionURIs()
	if err != nil {
		return nil, err
	}
	summary.DistinctTracks = len(distinct)

	summary.TracksNeeded, summary.TracksFetched, err = p.FetchTracks(ctx, opts)
	if err != nil {
		return summary, err
	}

	summary.ArtistsNeeded, summary.ArtistsFetched, err = p.FetchArtists(ctx, opts)
	if err != nil {
		return summary, err
	}

	if summary.TracksWithGenres, err = p.PropagateGenres(); err != nil {
		return summary, err
	}
	if summary.GenreCount, err = p.RebuildTaxonomy(); err != nil {
		return summary, err
	}
	if summary.SongCount, err = p.RebuildSongs(); err != nil {
		return summary, err
	}
	if summary.PopularityUpdated, err = p.RefreshPopularity(ctx); err != nil {
		return summary, err
	}

	existing, err := p.db.TrackURIsWithMetadata()
	if err != nil {
		return summary, err
	}
	covered := 0
	for _, uri := range distinct {
		if existing[uri] {
			covered++
		}
	}
	if summary.DistinctTracks > 0 {
		summary.Coverage = float64(covered) / float64(summary.DistinctTracks) * 100
	}

	p.log.Info("pipeline complete",
		"tracks_fetched", summary.TracksFetched,
		"artists_fetched", summary.ArtistsFetched,
		"genres", summary.GenreCount,
		"songs", summary.SongCount,
		"coverage", fmt.Sprintf("%.1f%%", summary.Coverage))
	return summary, nil
}

func (p *Pipeline) progressLogger(stage string) func(spotify.Progress) {
	log := p.log.WithStage(stage)
	return func(pr spotify.Progress) {
		log.Info("batch progress", "current", pr.Current, "total", pr.Total, "percentage", pr.Percentage)
	}
}
