package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"WaveFM/config"
	"WaveFM/core/auth"
	"WaveFM/core/rating"
	"WaveFM/core/station"
	"WaveFM/core/stream"
	"WaveFM/db"
	"WaveFM/logger"
	"WaveFM/storage"

	"github.com/gorilla/mux"
)

// Start initializes dependencies and runs the HTTP server until it receives
// an interrupt.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repos, closeRepos, err := db.OpenRepositories(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open database", logger.ErrorField(err))
	}
	defer closeRepos()
	logger.Info("Database ready", logger.String("driver", cfg.DBDriver))

	if err := storage.InitMinio(cfg); err != nil {
		logger.Fatal("Failed to initialize MinIO", logger.ErrorField(err))
	}

	hub := NewStationHub()
	go hub.Run()
	defer hub.Stop()

	// The station needs redis; without it the catalog and ratings still work.
	var st *station.Station
	if rdb, err := db.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis unavailable, station features disabled", logger.ErrorField(err))
	} else {
		defer rdb.Close()
		st = station.New(rdb, repos.Songs, hub)
		if cfg.StationRotateSeconds > 0 {
			go st.RunRotation(ctx, time.Duration(cfg.StationRotateSeconds)*time.Second)
		}
		logger.Info("Station online",
			logger.Int("rotateSeconds", cfg.StationRotateSeconds))
	}

	watcher := stream.NewWatcher(cfg.StreamDir, hub)
	go func() {
		if err := watcher.Run(ctx); err != nil {
			logger.Warn("Stream watcher stopped", logger.ErrorField(err))
		}
	}()

	ledger := rating.NewLedger(repos.Ratings)
	issuer := auth.NewTokenIssuer(cfg.JWTSecret)
	apiHandler := NewAPIHandler(repos, ledger, issuer, st, hub, cfg)
	limiter := newAuthLimiter(cfg.AuthRatePerMinute)

	router := mux.NewRouter()
	// Song titles and artists travel percent-encoded in rating URLs; match on
	// the raw path and decode in the handler.
	router.UseEncodedPath()
	router.Use(CORSMiddleware)
	router.Use(RequestLogMiddleware)

	// Accounts
	router.HandleFunc("/api/auth/register", limiter.Limit(apiHandler.RegisterHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", limiter.Limit(apiHandler.LoginHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/profile", apiHandler.RequireAuth(apiHandler.ProfileHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/users", apiHandler.ListUsersHandler).Methods(http.MethodGet)

	// Catalog
	router.HandleFunc("/api/songs", apiHandler.OptionalAuth(apiHandler.ListSongsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/songs", apiHandler.OptionalAuth(apiHandler.CreateSongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/mine", apiHandler.RequireAuth(apiHandler.ListMySongsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists", apiHandler.OptionalAuth(apiHandler.ListPlaylistsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists", apiHandler.OptionalAuth(apiHandler.CreatePlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/mine", apiHandler.RequireAuth(apiHandler.ListMyPlaylistsHandler)).Methods(http.MethodGet)

	// Ratings
	router.HandleFunc("/api/ratings", apiHandler.RequireAuth(apiHandler.SubmitRatingHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/ratings", apiHandler.RequireAuth(apiHandler.DeleteRatingHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/ratings/mine", apiHandler.RequireAuth(apiHandler.ListMyRatingsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/ratings/{title}/{artist}", apiHandler.OptionalAuth(apiHandler.GetRatingHandler)).Methods(http.MethodGet)

	// Station
	router.HandleFunc("/api/station/now", apiHandler.NowPlayingHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/station/history", apiHandler.StationHistoryHandler).Methods(http.MethodGet)

	// Live updates and streams
	router.HandleFunc("/ws", apiHandler.WebSocketHandler)
	router.PathPrefix("/streams/").HandlerFunc(apiHandler.StreamHandler).Methods(http.MethodGet, http.MethodHead)

	router.HandleFunc("/health", apiHandler.HealthHandler).Methods(http.MethodGet)

	// Frontend UI serving
	router.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.WebAppDir)))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", logger.ErrorField(err))
	}
	logger.Info("Server stopped")
}
