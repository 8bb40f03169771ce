// Package catalog holds the read-only song table the recommendation tool
// selects from.
//
// A Catalog is built once at startup and never mutated afterwards; every
// accessor returns copies.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var ErrEmptyCatalog = errors.New("catalog has no songs")

// Song is a single catalog entry.
type Song struct {
	Title    string `json:"title" mapstructure:"title"`
	Artist   string `json:"artist" mapstructure:"artist"`
	Filepath string `json:"filepath" mapstructure:"filepath"`
	Genre    string `json:"genre" mapstructure:"genre"`
	Mood     string `json:"mood,omitempty" mapstructure:"mood"`
}

type Catalog struct {
	songs []Song
}

// New validates songs and returns an immutable catalog holding a copy of them.
func New(songs []Song) (*Catalog, error) {
	if len(songs) == 0 {
		return nil, ErrEmptyCatalog
	}

	copied := make([]Song, 0, len(songs))
	for i, song := range songs {
		if strings.TrimSpace(song.Title) == "" {
			return nil, fmt.Errorf("song %d: title is required", i)
		}
		copied = append(copied, song)
	}

	return &Catalog{songs: copied}, nil
}

// Decode builds a catalog from free-form settings, e.g. the "catalog" list of
// a config file. Keys are matched case-insensitively.
func Decode(input any) (*Catalog, error) {
	var songs []Song
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           &songs,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	return New(songs)
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.songs)
}

// At returns the song at index i. It panics if i is out of range, like a
// slice index would.
func (c *Catalog) At(i int) Song {
	return c.songs[i]
}

// Songs returns a copy of all entries in catalog order.
func (c *Catalog) Songs() []Song {
	if c == nil {
		return nil
	}
	return append([]Song(nil), c.songs...)
}
