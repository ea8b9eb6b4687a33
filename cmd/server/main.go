package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"medical-prescreening/internal/assessment"
	"medical-prescreening/internal/config"
	"medical-prescreening/internal/diagnostics"
	"medical-prescreening/internal/expert"
	"medical-prescreening/internal/interview"
	"medical-prescreening/internal/logger"
	"medical-prescreening/internal/prescreening"
	"medical-prescreening/internal/recommend"
	"medical-prescreening/internal/report"
	"medical-prescreening/internal/roster"
	"medical-prescreening/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load configuration")
	}
	logger.Init(cfg)

	ctx := context.Background()

	// 1. Infrastructure
	db := openDatabase(cfg)
	if db != nil {
		runMigrations(cfg.DatabaseURL)
	}

	hospitalRoster, err := roster.Load(cfg.DoctorsCSVPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load doctor roster")
	}
	logger.Log.WithField("departments", len(hospitalRoster.Departments())).Info("roster loaded")

	conditions, err := diagnostics.LoadConditions(cfg.DiagnosticsCSVPath)
	if err != nil {
		// Diagnostics are best-effort everywhere downstream.
		logger.Log.WithError(err).Warn("diagnostics catalogue unavailable")
	}

	// 2. AI clients
	aiClient, modelName := newAIClient(ctx, cfg)

	// 3. Services
	sessions := session.NewStore(cfg.SessionTTL)

	firstVisitSvc := interview.NewService(
		interview.NewMemoryStore(cfg.SessionTTL),
		expert.NewGenerator(aiClient),
		interview.FirstVisitPolicy(cfg.FirstVisitMaxQuestions, cfg.FirstVisitMaxUnknowns),
	)
	followupSvc := interview.NewService(
		interview.NewMemoryStore(cfg.SessionTTL),
		expert.NewFollowupGenerator(aiClient),
		interview.FollowupPolicy(cfg.FollowupMaxQuestions, cfg.FollowupMaxUnknowns, cfg.FollowupEarlyCompletionAfter),
	)

	reconciler := recommend.NewReconciler(hospitalRoster)
	diagnosticsSvc := diagnostics.NewService(aiClient, conditions)
	repo := prescreening.NewRepository(db)

	assessmentSvc := assessment.NewService(
		firstVisitSvc, followupSvc,
		expert.NewGenerator(aiClient), expert.NewFollowupGenerator(aiClient),
		reconciler, diagnosticsSvc, repo, sessions, hospitalRoster, modelName,
	)

	reportSvc := report.NewService()

	// 4. Router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	session.NewHandler(sessions).RegisterRoutes(r)
	roster.NewHandler(hospitalRoster).RegisterRoutes(r)
	recordSource := prescreening.NewRecordSource(repo)
	r.Route("/api/medical", interview.NewHandler(firstVisitSvc, sessions, nil).RegisterRoutes)
	r.Route("/api/followup", interview.NewHandler(followupSvc, sessions, recordSource).RegisterRoutes)
	assessment.NewHandler(assessmentSvc, sessions).RegisterRoutes(r)
	report.NewHandler(reportSvc, sessions).RegisterRoutes(r)

	logger.Log.WithField("port", cfg.Port).Info("server starting")
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Log.WithError(err).Fatal("server stopped")
	}
}

// openDatabase connects to Postgres with a short retry loop. A missing or
// unreachable database disables persistence but never blocks startup; the
// interview flow must stay available.
func openDatabase(cfg *config.Config) *sql.DB {
	if cfg.DatabaseURL == "" {
		logger.Log.Info("DATABASE_URL not set, running without persistence")
		return nil
	}

	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err == nil {
			err = db.Ping()
		}
		if err == nil {
			logger.Log.Info("connected to database")
			return db
		}
		logger.Log.WithError(err).Warnf("waiting for database (%d/10)", i+1)
		time.Sleep(2 * time.Second)
	}
	logger.Log.WithError(err).Error("could not connect to database, running without persistence")
	return nil
}

func runMigrations(databaseURL string) {
	m, err := migrate.New("file://migrations", databaseURL)
	if err != nil {
		logger.Log.WithError(err).Error("migration init failed")
		return
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		logger.Log.WithError(err).Error("migration up failed")
		return
	}
	logger.Log.Info("migrations applied")
}

func newAIClient(ctx context.Context, cfg *config.Config) (expert.Completer, string) {
	switch cfg.AIProvider {
	case "openai":
		logger.Log.WithField("model", cfg.OpenAIModel).Info("using OpenAI backend")
		return expert.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel), cfg.OpenAIModel
	default:
		client, err := expert.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Log.WithError(err).Fatal("failed to create gemini client")
		}
		logger.Log.WithField("model", cfg.GeminiModel).Info("using Gemini backend")
		return client, cfg.GeminiModel
	}
}

// corsMiddleware allows the kiosk frontend to call the API from any origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}
