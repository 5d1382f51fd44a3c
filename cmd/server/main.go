package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/physics-daily/backend/internal/auth"
	"github.com/physics-daily/backend/internal/cloud"
	"github.com/physics-daily/backend/internal/database"
	"github.com/physics-daily/backend/internal/events"
	"github.com/physics-daily/backend/internal/gamification"
	"github.com/physics-daily/backend/internal/leaderboard"
	"github.com/physics-daily/backend/internal/live"
	"github.com/physics-daily/backend/internal/middleware"
	"github.com/physics-daily/backend/internal/progress"
	"github.com/physics-daily/backend/internal/topics"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	// Initialize database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Local progress store
	dataDir := os.Getenv("PD_DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	store, err := progress.NewStore(dataDir, progress.DefaultPersistDelay)
	if err != nil {
		log.Fatalf("Failed to open progress store: %v", err)
	}
	defer store.Close()

	catalog := topics.Default()

	// Remote store and the profile resolution chain: locally cached
	// profile first, user doc as fallback.
	cloudStore := cloud.NewPGStore(db)
	profiles := cloud.NewProfileChain(
		func(_ context.Context, userID string) (*cloud.Profile, error) {
			if p, ok := store.Profile(userID); ok {
				return &cloud.Profile{DisplayName: p.DisplayName, Country: p.Country}, nil
			}
			return nil, nil
		},
		cloud.FromUserDoc(cloudStore),
	)
	adapter := cloud.NewAdapter(cloudStore, profiles)

	bus := events.NewBus()

	svc := gamification.NewService(store, catalog)
	svc.SetCloud(adapter)
	svc.SetBus(bus)

	agg := leaderboard.NewAggregator(cloudStore, func(userID string) (string, string) {
		if p, ok := store.Profile(userID); ok {
			return p.DisplayName, p.Country
		}
		return "", ""
	})
	defer agg.Stop()
	svc.OnAward(agg.OnLocalAward)

	hub := live.NewHub()

	ctx := context.Background()
	go hub.Run(ctx, bus)
	go agg.StartRefreshWorker(ctx, time.Minute)

	// Initialize handlers
	authHandler := auth.NewHandler(db, svc)
	gamHandler := gamification.NewHandler(svc)
	lbHandler := leaderboard.NewHandler(agg)

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")
	protected.HandleFunc("/gamification", gamHandler.GetState).Methods("GET")
	protected.HandleFunc("/gamification/session", gamHandler.StartSession).Methods("POST")
	protected.HandleFunc("/gamification/quiz", gamHandler.CompleteQuiz).Methods("POST")
	protected.HandleFunc("/leaderboard", lbHandler.GetRankings).Methods("GET")
	protected.HandleFunc("/ws", hub.ServeWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
