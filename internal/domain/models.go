package domain

import "time"

// League is the root grouping imported from a league data directory.
type League struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Competitor belongs to one or more leagues. Membership only grows; a
// competitor re-imported under another league keeps existing memberships.
type Competitor struct {
	ID      string  `json:"id" db:"id"`
	Name    string  `json:"name" db:"name"`
	Leagues []int64 `json:"leagues" db:"-"`
}

// Round groups the submissions and votes of one playlist theme.
type Round struct {
	ID          string    `json:"id" db:"id"`
	LeagueID    int64     `json:"leagueId" db:"league_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	PlaylistURL string    `json:"playlistUrl" db:"playlist_url"`
	Created     time.Time `json:"created" db:"created"`

	// LeagueName is populated only by queries that join leagues.
	LeagueName string `json:"leagueName,omitempty" db:"league_name"`
}

// Submission is one track submitted to a round. The title/artists/album
// columns are denormalized CSV values used as a fallback when no track
// metadata has been fetched for the URI.
type Submission struct {
	ID          int64       `json:"id" db:"id"`
	RoundID     string      `json:"roundId" db:"round_id"`
	LeagueID    int64       `json:"leagueId" db:"league_id"`
	SubmitterID string      `json:"submitterId" db:"submitter_id"`
	SpotifyURI  string      `json:"spotifyUri" db:"spotify_uri"`
	Title       string      `json:"title" db:"title"`
	Artists     StringSlice `json:"artists" db:"artists"`
	Album       string      `json:"album" db:"album"`
	Comment     string      `json:"comment,omitempty" db:"comment"`
	Created     time.Time   `json:"created" db:"created"`
}

// Vote assigns points to a submitted track within a round.
type Vote struct {
	ID         string `json:"id" db:"id"`
	RoundID    string `json:"roundId" db:"round_id"`
	LeagueID   int64  `json:"leagueId" db:"league_id"`
	VoterID    string `json:"voterId" db:"voter_id"`
	SpotifyURI string `json:"spotifyUri" db:"spotify_uri"`
	Points     int    `json:"pointsAssigned" db:"points"`
	Comment    string `json:"comment,omitempty" db:"comment"`
}

// TrackMetadata holds catalog attributes for one track, keyed by its URI.
// Created by the basic-metadata fetch, enriched by genre propagation and the
// popularity refresh; every write path is an upsert on spotify_uri.
type TrackMetadata struct {
	SpotifyURI  string     `json:"spotifyUri" db:"spotify_uri"`
	Name        string     `json:"name" db:"name"`
	Artists     ArtistRefs `json:"artists" db:"artists"`
	Album       string     `json:"album" db:"album"`
	AlbumID     string     `json:"albumId,omitempty" db:"album_id"`
	ReleaseDate string     `json:"releaseDate,omitempty" db:"release_date"`
	DurationMS  int        `json:"duration_ms" db:"duration_ms"`
	Explicit    bool       `json:"explicit" db:"explicit"`
	Popularity  int        `json:"popularity" db:"popularity"`
	PreviewURL  string     `json:"preview_url,omitempty" db:"preview_url"`
	SpotifyURL  string     `json:"spotify_url,omitempty" db:"spotify_url"`

	// Audio features, present only when the extended fetch has run.
	Energy           *float64 `json:"energy,omitempty" db:"energy"`
	Danceability     *float64 `json:"danceability,omitempty" db:"danceability"`
	Valence          *float64 `json:"valence,omitempty" db:"valence"`
	Acousticness     *float64 `json:"acousticness,omitempty" db:"acousticness"`
	Instrumentalness *float64 `json:"instrumentalness,omitempty" db:"instrumentalness"`
	Liveness         *float64 `json:"liveness,omitempty" db:"liveness"`
	Speechiness      *float64 `json:"speechiness,omitempty" db:"speechiness"`
	Tempo            *float64 `json:"tempo,omitempty" db:"tempo"`
	Key              *int     `json:"key,omitempty" db:"key_value"`
	Mode             *int     `json:"mode,omitempty" db:"mode"`
	TimeSignature    *int     `json:"time_signature,omitempty" db:"time_signature"`
	Loudness         *float64 `json:"loudness,omitempty" db:"loudness"`

	// Derived genre fields, written by genre propagation.
	Genre     *string     `json:"genre" db:"genre"`
	AllGenres StringSlice `json:"allGenres" db:"all_genres"`

	FetchedAt time.Time `json:"fetchedAt" db:"fetched_at"`
	UpdatedAt time.Time `json:"lastUpdated" db:"updated_at"`
}

// ArtistMetadata holds catalog attributes for one artist; its genre list is
// the authoritative source for the genre taxonomy.
type ArtistMetadata struct {
	ArtistID   string      `json:"artistId" db:"artist_id"`
	ArtistURI  string      `json:"artistUri,omitempty" db:"artist_uri"`
	Name       string      `json:"name" db:"name"`
	Genres     StringSlice `json:"genres" db:"genres"`
	Popularity int         `json:"popularity" db:"popularity"`
	Followers  int         `json:"followers" db:"followers"`
	Images     ImageList   `json:"images,omitempty" db:"images"`
	SpotifyURL string      `json:"spotify_url,omitempty" db:"spotify_url"`
	FetchedAt  time.Time   `json:"fetchedAt" db:"fetched_at"`
	UpdatedAt  time.Time   `json:"lastUpdated" db:"updated_at"`
}

// Genre is one derived taxonomy entry: a genre name and how many known
// artists carry it. The table is fully rebuilt, never merged.
type Genre struct {
	Name        string    `json:"name" db:"name"`
	ArtistCount int       `json:"artistCount" db:"artist_count"`
	UpdatedAt   time.Time `json:"lastUpdated" db:"updated_at"`
}

// Song is the denormalized per-track view rebuilt from submissions joined
// with track metadata, keyed by the metadata URI.
type Song struct {
	MetadataURI     string      `json:"metadataId" db:"metadata_uri"`
	Name            string      `json:"name" db:"name"`
	Artists         StringSlice `json:"artists" db:"artists"`
	Genres          StringSlice `json:"genres" db:"genres"`
	SubmissionCount int         `json:"submissionCount" db:"submission_count"`
	UpdatedAt       time.Time   `json:"lastUpdated" db:"updated_at"`
}
