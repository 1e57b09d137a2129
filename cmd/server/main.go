package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coaching-assistant-api/internal/assistant"
	"coaching-assistant-api/internal/cache"
	"coaching-assistant-api/internal/chatmemory"
	"coaching-assistant-api/internal/database"
	"coaching-assistant-api/internal/handlers"
	"coaching-assistant-api/internal/lifecycle"
	"coaching-assistant-api/internal/realtime"
	"coaching-assistant-api/internal/routes"
	"coaching-assistant-api/internal/storage"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// Init database
	database.InitDB()
	db := database.GetDB()

	// Document storage
	store, err := storage.NewLocalStorage(getEnv("STORAGE_ROOT", "./storage-data"))
	if err != nil {
		log.Fatal("Failed to open storage root: ", err)
	}

	// Cache layer: store, invalidation router, periodic sweeper
	cacheStore := cache.New(cache.Options{DefaultTTL: cache.SessionTTL})
	invalidation := cache.NewRouter(cacheStore)
	sweeper := cache.NewSweeper(cacheStore, 5*time.Minute)
	sweeper.Start()

	// Assistant client and vector-store lifecycle
	client := assistant.NewClientFromEnv()
	provisioner := assistant.NewVectorStoreProvisioner(client, store)
	manager := lifecycle.NewManager(lifecycle.Options{Provisioner: provisioner})

	memory := chatmemory.NewService(db)

	reclaimer := lifecycle.NewReclaimer(manager, lifecycle.ReclaimerOptions{
		Interval:   10 * time.Minute,
		StaleAfter: 30 * time.Minute,
		Sessions:   memory,
	})
	// Queue destruction of stores a previous process left behind.
	if err := reclaimer.ReconcileStartup(context.Background()); err != nil {
		log.Printf("startup reconciliation failed: %v", err)
	}
	reclaimer.Start()

	api := &handlers.API{
		DB:        db,
		Cache:     cacheStore,
		Router:    invalidation,
		Storage:   store,
		Memory:    memory,
		Lifecycle: manager,
		Responder: client,
		Hub:       realtime.NewHub(),
	}

	ginRoutes := routes.SetupRoutes(api)

	port := getEnv("PORT", "8008")
	server := &http.Server{
		Addr:    ":" + port,
		Handler: ginRoutes,
	}

	go func() {
		log.Printf("Server starting on port :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	// Graceful shutdown: stop accepting requests, then stop the
	// background loops so no sweep or reclamation is cut off mid-tick.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}

	reclaimer.Stop()
	sweeper.Stop()
	log.Println("Server stopped")
}
