package domain

import (
	"database/sql/driver"
	"fmt"

	"github.com/goccy/go-json"
)

// StringSlice stores a list of strings as a JSON array column.
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringSlice) Scan(value interface{}) error {
	data, ok := rawBytes(value)
	if !ok || len(data) == 0 || string(data) == "null" {
		*s = nil
		return nil
	}
	return json.Unmarshal(data, s)
}

// ArtistRef identifies one artist on a track. Catalog responses and legacy
// imports carry artists either as a bare name string or as an object with
// name/id/uri; UnmarshalJSON accepts both so the rest of the code never has
// to re-sniff the shape.
type ArtistRef struct {
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
	URI  string `json:"uri,omitempty"`
}

func (a *ArtistRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*a = ArtistRef{Name: name}
		return nil
	}
	type plain ArtistRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("artist ref: %w", err)
	}
	*a = ArtistRef(p)
	return nil
}

// ArtistRefs stores a list of artist references as a JSON array column.
type ArtistRefs []ArtistRef

func (a ArtistRefs) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *ArtistRefs) Scan(value interface{}) error {
	data, ok := rawBytes(value)
	if !ok || len(data) == 0 || string(data) == "null" {
		*a = nil
		return nil
	}
	return json.Unmarshal(data, a)
}

// Names returns the display names in artist order.
func (a ArtistRefs) Names() []string {
	if len(a) == 0 {
		return nil
	}
	names := make([]string, len(a))
	for i, ref := range a {
		names[i] = ref.Name
	}
	return names
}

// IDs returns the catalog artist ids in artist order, skipping refs that
// carry only a name.
func (a ArtistRefs) IDs() []string {
	var ids []string
	for _, ref := range a {
		if ref.ID != "" {
			ids = append(ids, ref.ID)
		}
	}
	return ids
}

// First returns the first artist's display name, or the fallback.
func (a ArtistRefs) First(fallback string) string {
	if len(a) > 0 && a[0].Name != "" {
		return a[0].Name
	}
	return fallback
}

// Image is one artwork entry from the catalog.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// ImageList stores artwork entries as a JSON array column.
type ImageList []Image

func (l ImageList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *ImageList) Scan(value interface{}) error {
	data, ok := rawBytes(value)
	if !ok || len(data) == 0 || string(data) == "null" {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, l)
}

func rawBytes(value interface{}) ([]byte, bool) {
	switch v := value.(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}
