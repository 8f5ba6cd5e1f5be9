package cmd

import (
	"context"
	"fmt"
	"os"

	"WaveFM/config"
	"WaveFM/db"
	"WaveFM/model"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load sample songs and playlists into the catalog",
	Long:  `Insert a small ownerless starter catalog so the station has something to rotate through.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSeed(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed() error {
	cfg := config.Load()
	ctx := context.Background()

	repos, closeRepos, err := db.OpenRepositories(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeRepos()

	songs := []*model.Song{
		{Title: "Bohemian Rhapsody", Artist: "Queen", Album: "A Night at the Opera", Duration: 354},
		{Title: "Hotel California", Artist: "Eagles", Album: "Hotel California", Duration: 391},
		{Title: "Imagine", Artist: "John Lennon", Album: "Imagine", Duration: 183},
		{Title: "Billie Jean", Artist: "Michael Jackson", Album: "Thriller", Duration: 294},
		{Title: "Sweet Child O' Mine", Artist: "Guns N' Roses", Album: "Appetite for Destruction", Duration: 356},
	}
	for _, song := range songs {
		if _, err := repos.Songs.CreateSong(ctx, song); err != nil {
			return fmt.Errorf("failed to seed song %q: %w", song.Title, err)
		}
		fmt.Printf("seeded song: %s - %s\n", song.Artist, song.Title)
	}

	playlists := []*model.Playlist{
		{Name: "Classic Rock Hits", Description: "Timeless rock anthems"},
		{Name: "Road Trip Mix", Description: "Songs for the open road"},
		{Name: "Chill Vibes", Description: "Wind down with these"},
	}
	for _, playlist := range playlists {
		if _, err := repos.Playlists.CreatePlaylist(ctx, playlist); err != nil {
			return fmt.Errorf("failed to seed playlist %q: %w", playlist.Name, err)
		}
		fmt.Printf("seeded playlist: %s\n", playlist.Name)
	}

	return nil
}
