package main

import (
	"context"
	"log"
	"os"
	"time"

	"cloud.google.com/go/spanner"
	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mealtrail/subscription-service/internal/app/subscription/adapters"
	"github.com/mealtrail/subscription-service/internal/app/subscription/contracts"
	"github.com/mealtrail/subscription-service/internal/app/subscription/domain"
	"github.com/mealtrail/subscription-service/internal/app/subscription/repo"
	"github.com/mealtrail/subscription-service/internal/app/subscription/usecases/create_subscription"
	"github.com/mealtrail/subscription-service/internal/app/subscription/usecases/preview_cancellation"
	"github.com/mealtrail/subscription-service/internal/app/subscription/usecases/update_status"
	"github.com/mealtrail/subscription-service/internal/app/subscription/usecases/update_subscription"
	"github.com/mealtrail/subscription-service/internal/handlers"
	authMiddleware "github.com/mealtrail/subscription-service/internal/middleware"
	"github.com/mealtrail/subscription-service/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	ctx := context.Background()

	// Spanner holds both the subscription documents and the coin wallets
	database := os.Getenv("SPANNER_DATABASE")
	if database == "" {
		database = "projects/test-project/instances/test-instance/databases/mealsub-db"
	}
	spannerClient, err := spanner.NewClient(ctx, database)
	if err != nil {
		log.Fatalf("Failed to connect to Spanner: %v", err)
	}
	defer spannerClient.Close()

	// Initialize Firebase (best-effort; role grants are skipped without it)
	var authClient *firebaseauth.Client
	credPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credPath == "" {
		credPath = "./firebase-service-account.json"
	}
	authClient, err = services.InitFirebase(credPath)
	if err != nil {
		log.Printf("Warning: Firebase initialization failed: %v", err)
		log.Println("Auth and role assignment will not work until valid credentials are provided")
		authClient = nil
	}

	// Optional redis cache in front of the refund policy catalog
	var cache *services.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cache, err = services.NewRedisCache(redisURL)
		if err != nil {
			log.Printf("Warning: Redis unavailable, policy caching disabled: %v", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	subscriptionRepo := repo.NewSubscriptionRepo(spannerClient)
	walletRepo := repo.NewWalletRepo(spannerClient)
	policyCatalog := adapters.NewCachedPolicyCatalog(repo.NewPolicyRepo(spannerClient), cache, time.Minute)

	var roles contracts.RoleDirectory
	if authClient != nil {
		roles = adapters.NewFirebaseRoleDirectory(authClient, os.Getenv("SUBSCRIBER_ROLE_ID"))
	}

	clock := domain.RealClock{}
	createInteractor := create_subscription.NewInteractor(subscriptionRepo, clock)
	statusInteractor := update_status.NewInteractor(subscriptionRepo, walletRepo, policyCatalog, roles, clock)
	previewInteractor := preview_cancellation.NewInteractor(subscriptionRepo, policyCatalog, clock)
	updateInteractor := update_subscription.NewInteractor(subscriptionRepo, walletRepo, clock)

	subscriptionHandler := handlers.NewSubscriptionHandler(createInteractor, statusInteractor, previewInteractor, updateInteractor, subscriptionRepo)
	walletHandler := handlers.NewWalletHandler(walletRepo)

	// Create Echo instance
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	api := e.Group("/api")
	api.Use(authMiddleware.RequireAuth(authClient))

	api.POST("/subscriptions", subscriptionHandler.Create)
	api.GET("/subscriptions/:id", subscriptionHandler.Get)
	api.PATCH("/subscriptions/:id/status", subscriptionHandler.UpdateStatus)
	api.GET("/subscriptions/:id/refund-preview", subscriptionHandler.PreviewCancellation)
	api.PATCH("/subscriptions/:id", subscriptionHandler.Update)
	api.GET("/wallets/:customerId", walletHandler.GetBalance)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
