// Command enrich runs the metadata enrichment pipeline against the store,
// either end to end or one stage at a time.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jpvargas/leaguedash/internal/config"
	"github.com/jpvargas/leaguedash/internal/enrich"
	"github.com/jpvargas/leaguedash/internal/logger"
	"github.com/jpvargas/leaguedash/internal/spotify"
	"github.com/jpvargas/leaguedash/internal/store"
)

func main() {
	force := flag.Bool("force", false, "refetch tracks and artists that already have metadata")
	limit := flag.Int("limit", 0, "cap how many tracks/artists are fetched (0 = no cap)")
	stage := flag.String("stage", "all", "stage to run: tracks, artists, genres, taxonomy, songs, popularity or all")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to init DB", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	catalog := spotify.NewClient(spotify.Config{
		ClientID:     cfg.SpotifyClientID,
		ClientSecret: cfg.SpotifyClientSecret,
		APIURL:       cfg.SpotifyAPIURL,
		TokenURL:     cfg.SpotifyTokenURL,
	}, appLogger)
	pipeline := enrich.New(db, catalog, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := enrich.Options{Force: *force, Limit: *limit}
	if err := run(ctx, cfg, pipeline, catalog, *stage, opts); err != nil {
		appLogger.Error("enrichment failed", "stage", *stage, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, pipeline *enrich.Pipeline, catalog *spotify.Client, stage string, opts enrich.Options) error {
	needsCatalog := stage == "all" || stage == "tracks" || stage == "artists" || stage == "popularity"
	if needsCatalog {
		if err := cfg.ValidateSpotify(); err != nil {
			return err
		}
		if err := catalog.Authenticate(ctx); err != nil {
			return err
		}
	}

	switch stage {
	case "all":
		summary, err := pipeline.Run(ctx, opts)
		if err != nil {
			return err
		}
		fmt.Printf("tracks fetched: %d/%d\n", summary.TracksFetched, summary.TracksNeeded)
		fmt.Printf("artists fetched: %d/%d\n", summary.ArtistsFetched, summary.ArtistsNeeded)
		fmt.Printf("genres: %d, songs: %d, coverage: %.1f%%\n",
			summary.GenreCount, summary.SongCount, summary.Coverage)
		return nil
	case "tracks":
		needed, fetched, err := pipeline.FetchTracks(ctx, opts)
		if err != nil {
			return err
		}
		fmt.Printf("tracks fetched: %d/%d\n", fetched, needed)
		return nil
	case "artists":
		needed, fetched, err := pipeline.FetchArtists(ctx, opts)
		if err != nil {
			return err
		}
		fmt.Printf("artists fetched: %d/%d\n", fetched, needed)
		return nil
	case "genres":
		withGenre, err := pipeline.PropagateGenres()
		if err != nil {
			return err
		}
		fmt.Printf("tracks with genre: %d\n", withGenre)
		return nil
	case "taxonomy":
		count, err := pipeline.RebuildTaxonomy()
		if err != nil {
			return err
		}
		fmt.Printf("genres: %d\n", count)
		return nil
	case "songs":
		count, err := pipeline.RebuildSongs()
		if err != nil {
			return err
		}
		fmt.Printf("songs: %d\n", count)
		return nil
	case "popularity":
		updated, err := pipeline.RefreshPopularity(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("popularity updated: %d\n", updated)
		return nil
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
}
