package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/leaftown/property-api/internal/config"
	"github.com/leaftown/property-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/leaftown/property-api/internal/infrastructure/jwt"
	s3infra "github.com/leaftown/property-api/internal/infrastructure/s3"
	"github.com/leaftown/property-api/internal/infrastructure/smtp"
	"github.com/leaftown/property-api/internal/infrastructure/sns"
	transporthttp "github.com/leaftown/property-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider is required; every protected route depends on it.
	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("JWT provider: %v", err)
	}

	// S3 store for listing images.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer for email OTP delivery.
	mailer := smtp.NewMailer(cfg)

	// SNS SMS sender for phone OTP delivery (optional, graceful fallback).
	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(cfg); err == nil {
		smsSender = sender
	} else {
		log.Printf("WARN: SNS sender not available: %v", err)
	}

	deps := &transporthttp.Deps{
		UserRepo: dynamo.NewUserRepo(dynamoClient,
			cfg.DynamoTables.Users, cfg.DynamoTables.Identities, cfg.DynamoTables.SellerProfiles),
		OtpRepo:       dynamo.NewOtpRepo(dynamoClient, cfg.DynamoTables.OtpRecords),
		ProfileRepo:   dynamo.NewSellerProfileRepo(dynamoClient, cfg.DynamoTables.SellerProfiles),
		ApartmentRepo: dynamo.NewApartmentRepo(dynamoClient, cfg.DynamoTables.Apartments),
		PlotRepo:      dynamo.NewPlotRepo(dynamoClient, cfg.DynamoTables.Plots),
		ImageRepo:     dynamo.NewImageRepo(dynamoClient, cfg.DynamoTables.ListingImages),
		S3Store:       s3Store,
		Mailer:        mailer,
		SMSSender:     smsSender,
		JWTProvider:   jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
