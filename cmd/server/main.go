package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kintree/internal/config"
	"kintree/internal/database"
	"kintree/internal/handlers"
	"kintree/internal/repository"
	"kintree/internal/security"
	"kintree/internal/service"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env if present; real environments set variables directly
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Repositories
	userRepo := repository.NewUserRepository(db)
	treeRepo := repository.NewTreeRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	relRepo := repository.NewRelationshipRepository(db)
	accessRepo := repository.NewAccessRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)

	// Services
	tokens := security.NewTokenManager(cfg.JWTSecret, cfg.TokenDuration)
	authService := service.NewAuthService(userRepo, tokens)
	treeService := service.NewTreeService(treeRepo, memberRepo, relRepo, accessRepo, userRepo)
	memberService := service.NewMemberService(memberRepo)
	relationshipService := service.NewRelationshipService(relRepo, memberRepo, cfg.RejectCycles)

	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}
	invitationService := service.NewInvitationService(invitationRepo, memberRepo, accessRepo, memberService, emailService, cfg.InvitationExpiry)

	// Handlers
	middleware := handlers.NewMiddleware(tokens)
	authHandler := handlers.NewAuthHandler(authService)
	treeHandler := handlers.NewTreeHandler(treeService, memberService, relationshipService, invitationService)

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, middleware, authHandler, treeHandler)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down")
	if err := server.Close(); err != nil {
		log.Printf("Server close error: %v", err)
	}
}
