package tools

import (
	"encoding/json"
	"fmt"
)

const SongToolName = "get_song_filepath"

const songToolDescription = `
Call this function when a user asks for a song or music recommendation. Returns song details including a filepath.
Do not ask for their mood first - just recommend a random song from the collection.
`

// SongParameters is the argument and result shape of the song tool.
type SongParameters struct {
	Song SongDetails `json:"song" jsonschema_description:"Details about the recommended song"`
}

type SongDetails struct {
	Title    string `json:"title" jsonschema_description:"The title of the song"`
	Artist   string `json:"artist" jsonschema_description:"The artist who performs the song"`
	Filepath string `json:"filepath" jsonschema_description:"The filepath where the song can be found"`
	Genre    string `json:"genre" jsonschema_description:"The genre of the song"`
}

// SongRecommendation declares the get_song_filepath tool.
func SongRecommendation() Declaration {
	return NewDeclaration[SongParameters](SongToolName, songToolDescription)
}

// ParseSongParameters decodes invocation arguments of the song tool.
func ParseSongParameters(arguments string) (SongParameters, error) {
	var parameters SongParameters
	if err := json.Unmarshal([]byte(arguments), &parameters); err != nil {
		return SongParameters{}, fmt.Errorf("failed to parse song arguments: %w", err)
	}
	return parameters, nil
}

func (p SongParameters) String() string {
	data, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(data)
}
