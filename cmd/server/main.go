package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"catgroom/internal/config"
	"catgroom/internal/handlers"
	mw "catgroom/internal/middleware"
	"catgroom/internal/models"
	"catgroom/internal/neural"
	"catgroom/internal/repository"
	"catgroom/internal/services"
	"catgroom/internal/session"
	"catgroom/internal/storage"
	"catgroom/internal/ws"
)

func main() {
	ctx := context.Background()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	// Database
	dbPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalw("connect to db", "error", err)
	}
	defer dbPool.Close()

	if err := migrate(ctx, dbPool); err != nil {
		sugar.Fatalw("migrate", "error", err)
	}

	// Session store: Redis when configured, in-memory otherwise.
	var sessions session.Store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			sugar.Fatalw("connect to redis", "error", err)
		}
		defer rdb.Close()
		sessions = session.NewRedisStore(rdb, cfg.SessionTTL)
		sugar.Infow("using redis session store", "addr", cfg.RedisAddr)
	} else {
		memStore := session.NewMemoryStore(cfg.SessionTTL)
		defer memStore.Close()
		sessions = memStore
		sugar.Infow("using in-memory session store", "ttl", cfg.SessionTTL)
	}

	// Image blob storage
	blobs, err := storage.NewDisk(cfg.UploadDir)
	if err != nil {
		sugar.Fatalw("storage", "error", err)
	}

	// Inference backend client
	gateway, err := neural.NewClient(neural.Options{
		BaseURL: cfg.NeuralAPIURL,
		Timeout: cfg.NeuralAPITimeout,
	}, sugar)
	if err != nil {
		sugar.Fatalw("neural client", "error", err)
	}

	// Repositories
	cats := repository.NewPgCats(dbPool)
	images := repository.NewPgImages(dbPool)
	characteristics := repository.NewPgCharacteristics(dbPool)
	haircuts := repository.NewPgHaircuts(dbPool)
	recommendations := repository.NewPgRecommendations(dbPool)

	go seedHaircuts(ctx, haircuts, sugar)

	// WebSocket hub
	hub := ws.NewHub(sugar)
	go hub.Run()

	// Pipeline
	processor := services.NewProcessor(
		sessions, cats, images, characteristics, gateway, blobs,
		func(sessionID string, catID int64, analysis models.AnalysisResult) {
			hub.Broadcast(ws.Message{
				Type:       "processing_complete",
				SessionID:  sessionID,
				CatID:      catID,
				Color:      analysis.Color,
				HairLength: analysis.HairLength,
				Confidence: analysis.Confidence,
			})
		},
		sugar,
	)
	recommender := services.NewRecommender(characteristics, haircuts, recommendations, sugar)

	// Handlers
	sessionHandler := handlers.NewSessionHandler(sessions, sugar)
	uploadHandler := handlers.NewUploadHandler(sessions, processor, sugar)
	recommendHandler := handlers.NewRecommendHandler(recommender, sugar)
	haircutHandler := handlers.NewHaircutHandler(haircuts, sugar)

	// Router
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(mw.CorsMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", sessionHandler.Create)
		r.Get("/sessions/{sessionID}", sessionHandler.Get)
		r.Delete("/sessions/{sessionID}", sessionHandler.Delete)
		r.Post("/sessions/{sessionID}/cats/{catID}/images", uploadHandler.Upload)
		r.Get("/sessions/{sessionID}/cats/{catID}/recommendations", recommendHandler.Recommendations)
		r.Get("/haircuts", haircutHandler.List)
		r.Get("/haircuts/{haircutID}/image", haircutHandler.Image)
	})

	r.Get("/ws", hub.HandleWebSocket)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	go func() {
		sugar.Infow("server starting", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalw("server", "error", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sugar.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	srv.Shutdown(shutdownCtx)
	hub.Shutdown()
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" || env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func migrate(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS cats (
			id          BIGSERIAL PRIMARY KEY,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS cat_images (
			id            BIGSERIAL PRIMARY KEY,
			cat_id        BIGINT NOT NULL REFERENCES cats(id) ON DELETE CASCADE,
			file_name     TEXT NOT NULL,
			storage_path  TEXT NOT NULL,
			size          BIGINT NOT NULL,
			format        TEXT NOT NULL,
			resolution    TEXT NOT NULL DEFAULT '',
			processed     BOOLEAN NOT NULL DEFAULT FALSE,
			uploaded_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS cat_characteristics (
			id               BIGSERIAL PRIMARY KEY,
			cat_id           BIGINT NOT NULL REFERENCES cats(id) ON DELETE CASCADE,
			color            TEXT NOT NULL,
			hair_length      TEXT NOT NULL,
			predicted_class  TEXT NOT NULL DEFAULT '',
			confidence       DOUBLE PRECISION NOT NULL,
			analyzed_at      TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS haircuts (
			id                     BIGSERIAL PRIMARY KEY,
			name                   TEXT NOT NULL UNIQUE,
			description            TEXT NOT NULL,
			suitable_hair_lengths  TEXT[] NOT NULL,
			suitable_colors        TEXT[] NOT NULL,
			image                  BYTEA,
			created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS recommendations (
			id                      BIGSERIAL PRIMARY KEY,
			cat_id                  BIGINT NOT NULL REFERENCES cats(id) ON DELETE CASCADE,
			haircut_id              BIGINT REFERENCES haircuts(id),
			is_no_haircut_required  BOOLEAN NOT NULL DEFAULT FALSE,
			reason                  TEXT NOT NULL,
			confidence              DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

// seedHaircuts adds a starter catalog when the table is empty.
func seedHaircuts(ctx context.Context, haircuts repository.Haircuts, log *zap.SugaredLogger) {
	existing, err := haircuts.GetAll(ctx)
	if err != nil || len(existing) > 0 {
		return
	}

	log.Infow("seeding haircut catalog")
	seeds := []models.Haircut{
		{
			Name:                "Lion cut",
			Description:         "Close trim over the body, full mane and tail tip left long",
			SuitableHairLengths: []string{"long"},
			SuitableColors:      []string{"black", "white", "gray", "red"},
		},
		{
			Name:                "Teddy bear cut",
			Description:         "Even medium-length trim all over for a plush look",
			SuitableHairLengths: []string{"medium", "long"},
			SuitableColors:      []string{"black", "gray", "tabby"},
		},
		{
			Name:                "Comb cut",
			Description:         "Light de-bulking trim that keeps the natural silhouette",
			SuitableHairLengths: []string{"short", "medium"},
			SuitableColors:      []string{"white", "tabby", "red"},
		},
	}
	for i := range seeds {
		if err := haircuts.Create(ctx, &seeds[i]); err != nil {
			log.Warnw("failed to seed haircut", "name", seeds[i].Name, "error", err)
			continue
		}
		log.Infow("seeded haircut", "name", seeds[i].Name)
	}
}
