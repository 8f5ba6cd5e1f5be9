package db

import (
	"context"
	"fmt"

	"WaveFM/config"
	"WaveFM/repository"
	"WaveFM/repository/pg"
)

// Repositories bundles one backend's repository set.
type Repositories struct {
	Users     repository.UserRepository
	Songs     repository.SongRepository
	Playlists repository.PlaylistRepository
	Ratings   repository.RatingRepository
}

// OpenRepositories connects to the configured relational backend, applies the
// schema, and returns the repository set plus a close function.
func OpenRepositories(ctx context.Context, cfg *config.Config) (*Repositories, func(), error) {
	switch cfg.DBDriver {
	case "sqlite":
		database, err := ConnectSQLite(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := InitSQLiteSchema(database); err != nil {
			database.Close()
			return nil, nil, err
		}
		repos := &Repositories{
			Users:     repository.NewSQLiteUserRepository(database),
			Songs:     repository.NewSQLiteSongRepository(database),
			Playlists: repository.NewSQLitePlaylistRepository(database),
			Ratings:   repository.NewSQLiteRatingRepository(database),
		}
		return repos, func() { database.Close() }, nil

	case "postgres":
		pool, err := ConnectPostgres(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := InitPostgresSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		repos := &Repositories{
			Users:     pg.NewUserRepository(pool),
			Songs:     pg.NewSongRepository(pool),
			Playlists: pg.NewPlaylistRepository(pool),
			Ratings:   pg.NewRatingRepository(pool),
		}
		return repos, func() { pool.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown DB_DRIVER %q (want sqlite or postgres)", cfg.DBDriver)
	}
}
