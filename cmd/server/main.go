/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the valuation engine API server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Initialize SQLite store
  3. Connect the grid cache (Redis when configured, memory otherwise)
  4. Create API handler and start the cache warmer
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port       HTTP server port (default: 8080)
  -db         SQLite database path (default: valuation.db)
              Use ":memory:" for in-memory database
  -redis      Redis address for the grid cache (default: none, use memory)
  -cache-ttl  Lifetime of cached grids (default: 10m)

ENVIRONMENT:
  Flags default to these variables, which may also come from a .env file:
  VALUATION_PORT, VALUATION_DB, VALUATION_REDIS_ADDR, VALUATION_CACHE_TTL

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the cache warmer
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close cache and database connections
  5. Exit

EXAMPLES:
  # Run with in-memory database and Redis cache
  ./server -db=":memory:" -redis="localhost:6379"

  # Run on different port
  VALUATION_PORT=3000 ./server

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/warp/valuation-engine/api"
	"github.com/warp/valuation-engine/cache"
	"github.com/warp/valuation-engine/store/sqlite"
)

func main() {
	// A missing .env is fine; real environment variables still apply.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	// Flags
	port := flag.Int("port", envInt("VALUATION_PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envString("VALUATION_DB", "valuation.db"), "SQLite database path")
	redisAddr := flag.String("redis", envString("VALUATION_REDIS_ADDR", ""), "Redis address for the grid cache")
	cacheTTL := flag.Duration("cache-ttl", envDuration("VALUATION_CACHE_TTL", api.DefaultCacheTTL), "Cached grid lifetime")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize cache
	var gridCache cache.Cache = cache.NewMemory()
	if *redisAddr != "" {
		rc := cache.NewRedis(*redisAddr)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rc.Ping(ctx)
		cancel()
		if err != nil {
			log.Printf("Warning: Redis at %s unreachable, using memory cache: %v", *redisAddr, err)
			rc.Close()
		} else {
			gridCache = rc
			defer rc.Close()
			log.Printf("Using Redis grid cache at %s", *redisAddr)
		}
	}

	// Initialize handler
	handler := api.NewHandler(store, gridCache)
	handler.CacheTTL = *cacheTTL

	warmer := api.NewCacheWarmer(handler)
	warmer.Start()

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	warmer.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: ignoring %s=%q: %v", key, v, err)
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Warning: ignoring %s=%q: %v", key, v, err)
		return fallback
	}
	return d
}
