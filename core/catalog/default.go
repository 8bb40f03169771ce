package catalog

// Default returns the built-in collection used when no catalog is configured.
func Default() *Catalog {
	return &Catalog{songs: []Song{
		{
			Title:    "Summer Breeze",
			Artist:   "The Sunset Kings",
			Filepath: "/music/Perc_30.wav",
			Genre:    "Pop",
			Mood:     "happy",
		},
		{
			Title:    "Midnight Rain",
			Artist:   "Luna Eclipse",
			Filepath: "/music/Perc_30.wav",
			Genre:    "Lo-fi",
			Mood:     "relaxed",
		},
		{
			Title:    "Electric Dreams",
			Artist:   "Neon Pulse",
			Filepath: "/music/Perc_30.wav",
			Genre:    "Electronic",
			Mood:     "energetic",
		},
		{
			Title:    "Autumn Leaves",
			Artist:   "Acoustic Hearts",
			Filepath: "/music/Perc_30.wav",
			Genre:    "Folk",
			Mood:     "melancholic",
		},
		{
			Title:    "Urban Rhythm",
			Artist:   "City Beats",
			Filepath: "/music/Perc_30.wav",
			Genre:    "Hip Hop",
			Mood:     "confident",
		},
	}}
}
