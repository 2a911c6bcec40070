package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"github.com/studyquest/backend/internal/admin"
	"github.com/studyquest/backend/internal/analytics"
	"github.com/studyquest/backend/internal/auth"
	"github.com/studyquest/backend/internal/cache"
	"github.com/studyquest/backend/internal/database"
	"github.com/studyquest/backend/internal/messages"
	"github.com/studyquest/backend/internal/middleware"
	"github.com/studyquest/backend/internal/rewards"
	"github.com/studyquest/backend/internal/sessions"
)

func main() {
	// Initialize database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis cache (optional — server degrades to uncached queries)
	c := cache.New()
	defer c.Close()

	// Services
	rewardStore := rewards.NewStore(db)
	rewardService := rewards.NewService(rewardStore)
	sessionStore := sessions.NewStore(db)
	sessionService := sessions.NewService(sessionStore, rewardService, c)
	aggregator := analytics.NewAggregator(db)
	reminder := analytics.NewReminder(db)

	// Handlers
	authHandler := auth.NewHandler(db)
	rewardHandler := rewards.NewHandler(rewardService)
	sessionHandler := sessions.NewHandler(sessionService)
	messageHandler := messages.NewHandler(db)
	adminHandler := admin.NewHandler(db)
	analyticsHandler := analytics.NewHandler(aggregator)

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/admin/login", adminHandler.Login).Methods("POST")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")

	protected.HandleFunc("/rewards/user", rewardHandler.GetSummary).Methods("GET")
	protected.HandleFunc("/rewards/daily-login", rewardHandler.ClaimDailyLogin).Methods("POST")
	protected.HandleFunc("/rewards/history", rewardHandler.History).Methods("GET")

	protected.HandleFunc("/streak", rewardHandler.GetStreak).Methods("GET")
	protected.HandleFunc("/streak/update", rewardHandler.UpdateStreak).Methods("POST")

	protected.HandleFunc("/achievements", rewardHandler.ListAchievements).Methods("GET")
	protected.HandleFunc("/achievements/user", rewardHandler.UserAchievements).Methods("GET")
	protected.HandleFunc("/achievements/check", rewardHandler.CheckAchievements).Methods("POST")

	protected.HandleFunc("/session/session-complete", sessionHandler.CompleteSession).Methods("POST")
	protected.HandleFunc("/session/history", sessionHandler.History).Methods("GET")
	protected.HandleFunc("/session/stats", sessionHandler.Stats).Methods("GET")

	protected.HandleFunc("/quiz/complete", sessionHandler.CompleteQuiz).Methods("POST")
	protected.HandleFunc("/quiz/session", sessionHandler.RecordQuizSession).Methods("POST")
	protected.HandleFunc("/quiz/history", sessionHandler.QuizHistory).Methods("GET")
	protected.HandleFunc("/quiz/question", sessionHandler.NextQuestion).Methods("GET")
	protected.HandleFunc("/quiz/topics", sessionHandler.Topics).Methods("GET")
	protected.HandleFunc("/quiz/popular", sessionHandler.Popular).Methods("GET")

	protected.HandleFunc("/progress/summary", sessionHandler.ProgressSummary).Methods("GET")
	protected.HandleFunc("/progress/recent", sessionHandler.RecentActivity).Methods("GET")
	protected.HandleFunc("/progress/sync", sessionHandler.SyncProgress).Methods("POST")

	protected.HandleFunc("/messages", messageHandler.Inbox).Methods("GET")
	protected.HandleFunc("/messages/unread", messageHandler.UnreadCount).Methods("GET")
	protected.HandleFunc("/messages/{id}/read", messageHandler.MarkRead).Methods("PUT")

	// Admin routes
	adminRoutes := api.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(middleware.AdminMiddleware)
	adminRoutes.HandleFunc("/dashboard", adminHandler.Dashboard).Methods("GET")
	adminRoutes.HandleFunc("/users", adminHandler.ListUsers).Methods("GET")
	adminRoutes.HandleFunc("/activities", adminHandler.ListActivities).Methods("GET")
	adminRoutes.HandleFunc("/messages", adminHandler.ListMessages).Methods("GET")
	adminRoutes.HandleFunc("/messages", adminHandler.SendMessage).Methods("POST")
	adminRoutes.HandleFunc("/online-users", adminHandler.OnlineUsers).Methods("GET")
	adminRoutes.HandleFunc("/rewards/manual", rewardHandler.ManualAward).Methods("POST")
	adminRoutes.HandleFunc("/achievements/seed", rewardHandler.SeedAchievements).Methods("POST")
	adminRoutes.HandleFunc("/analytics/reports", analyticsHandler.Reports).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Scheduled jobs (UTC): daily analytics at midnight, streak reminders at 8AM
	scheduler := cron.New(cron.WithLocation(time.UTC))
	scheduler.AddFunc("0 0 * * *", func() {
		if err := aggregator.Run(time.Now()); err != nil {
			log.Printf("[analytics] daily report failed: %v", err)
		}
	})
	scheduler.AddFunc("0 8 * * *", func() {
		if err := reminder.Run(time.Now()); err != nil {
			log.Printf("[analytics] streak reminders failed: %v", err)
		}
	})
	scheduler.Start()
	defer scheduler.Stop()

	// CORS
	co := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := co.Handler(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
