package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inamate/motion/internal/auth"
	"github.com/inamate/motion/internal/composition"
	"github.com/inamate/motion/internal/config"
	"github.com/inamate/motion/internal/engine"
	"github.com/inamate/motion/internal/export"
	"github.com/inamate/motion/internal/loader"
	mw "github.com/inamate/motion/internal/middleware"
	"github.com/inamate/motion/internal/playback"
	"github.com/inamate/motion/internal/store"
)

func main() {
	hashKey := flag.String("hash-key", "", "print the bcrypt hash of an API key and exit")
	flag.Parse()

	if *hashKey != "" {
		hash, err := auth.HashKey(*hashKey)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var st store.Store
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("connect to database", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		st = pg
	} else {
		slog.Warn("DATABASE_URL not set, keeping compositions in memory")
		st = store.NewMemory()
	}

	authService := auth.NewService(cfg.APIKeyHash, cfg.JWTSecret)
	if !authService.Enabled() {
		slog.Warn("API_KEY_HASH not set, uploads are not authenticated")
	}
	authHandler := auth.NewHandler(authService)

	ld := loader.New(loader.WithLogger(slog.Default()), loader.WithCacheSize(cfg.CacheSize))
	compService := composition.NewService(st, ld, slog.Default())
	compHandler := composition.NewHandler(compService, export.NewEncoder(cfg.FFmpegPath), cfg.MaxUploadBytes, cfg.RenderScale)

	hubOpts := []engine.Option{engine.WithLogger(slog.Default())}
	if cfg.RenderScale > 0 {
		hubOpts = append(hubOpts, engine.WithScale(cfg.RenderScale))
	}
	hub := playback.NewHub(compService.Load, cfg.StreamFPS, hubOpts...)
	go hub.Run()

	r := mux.NewRouter()

	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.CORSOrigins()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/auth/token", authHandler.Token).Methods("POST", "OPTIONS")

	compHandler.Routes(r, authService.AuthMiddleware)

	origins := cfg.Origins()
	r.HandleFunc("/ws/compositions/{id}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, origins)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Closing the hub ends every room before the listeners go away.
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "store", fmt.Sprintf("%T", st))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// handleWebSocket joins the client to the playback room of the composition
// in the path.
func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *playback.Hub, origins []string) {
	compositionID := mux.Vars(r)["id"]

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := playback.NewClient(hub, conn, compositionID, clientID)

	ctx := r.Context()
	if err := hub.Register(ctx, client); err != nil {
		slog.Warn("playback register failed", "composition", compositionID, "error", err)
		conn.Close(websocket.StatusPolicyViolation, "composition unavailable")
		return
	}

	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
