package spotify

import (
	"time"

	"github.com/jpvargas/leaguedash/internal/domain"
)

// trackResponse mirrors the catalog track object; only the fields we persist.
type trackResponse struct {
	ID      string `json:"id"`
	URI     string `json:"uri"`
	Name    string `json:"name"`
	Artists []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		URI  string `json:"uri"`
	} `json:"artists"`
	Album struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		ReleaseDate string `json:"release_date"`
	} `json:"album"`
	DurationMS   int    `json:"duration_ms"`
	Explicit     bool   `json:"explicit"`
	Popularity   int    `json:"popularity"`
	PreviewURL   string `json:"preview_url"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

// toMetadata keys the record by the URI we looked up, not the one the catalog
// echoes back, so relinked tracks still join against submissions.
func (t *trackResponse) toMetadata(spotifyURI string, now time.Time) domain.TrackMetadata {
	artists := make(domain.ArtistRefs, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = domain.ArtistRef{Name: a.Name, ID: a.ID, URI: a.URI}
	}
	return domain.TrackMetadata{
		SpotifyURI:  spotifyURI,
		Name:        t.Name,
		Artists:     artists,
		Album:       t.Album.Name,
		AlbumID:     t.Album.ID,
		ReleaseDate: t.Album.ReleaseDate,
		DurationMS:  t.DurationMS,
		Explicit:    t.Explicit,
		Popularity:  t.Popularity,
		PreviewURL:  t.PreviewURL,
		SpotifyURL:  t.ExternalURLs.Spotify,
		AllGenres:   domain.StringSlice{},
		FetchedAt:   now,
		UpdatedAt:   now,
	}
}

// artistResponse mirrors the catalog artist object.
type artistResponse struct {
	ID         string   `json:"id"`
	URI        string   `json:"uri"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
	Followers  struct {
		Total int `json:"total"`
	} `json:"followers"`
	Images []struct {
		URL    string `json:"url"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"images"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

func (a *artistResponse) toMetadata(now time.Time) domain.ArtistMetadata {
	images := make(domain.ImageList, len(a.Images))
	for i, img := range a.Images {
		images[i] = domain.Image{URL: img.URL, Width: img.Width, Height: img.Height}
	}
	return domain.ArtistMetadata{
		ArtistID:   a.ID,
		ArtistURI:  a.URI,
		Name:       a.Name,
		Genres:     domain.StringSlice(a.Genres),
		Popularity: a.Popularity,
		Followers:  a.Followers.Total,
		Images:     images,
		SpotifyURL: a.ExternalURLs.Spotify,
		FetchedAt:  now,
		UpdatedAt:  now,
	}
}
