package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"storekeeper.org/internal/catalog"
	"storekeeper.org/internal/httpapi"
	"storekeeper.org/internal/obs"
	"storekeeper.org/internal/rbac"
	"storekeeper.org/internal/store/pg"
)

var version = "0.3.1"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("STOREKEEPER_COMMIT"))

	dsn := os.Getenv("STOREKEEPER_PG_DSN")
	if dsn == "" {
		log.Fatal("STOREKEEPER_PG_DSN is required")
	}
	secret := os.Getenv("STOREKEEPER_SESSION_SECRET")
	if secret == "" {
		log.Fatal("STOREKEEPER_SESSION_SECRET is required")
	}
	addr := os.Getenv("STOREKEEPER_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	store, err := pg.Open(dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := store.Ping(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("ping db: %v", err)
	}
	pingCancel()

	// Redis-backed permission-matrix cache is optional; without it every
	// request recomputes the matrix from the store.
	var cache rbac.MatrixCache
	if redisAddr := os.Getenv("STOREKEEPER_REDIS_ADDR"); redisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer client.Close()
		cache = rbac.NewRedisMatrixCache(client)
	}

	var rbacOpts []rbac.ServiceOption
	var resolverOpts []rbac.ResolverOption
	if cache != nil {
		rbacOpts = append(rbacOpts, rbac.WithServiceCache(cache))
		resolverOpts = append(resolverOpts, rbac.WithMatrixCache(cache))
	}

	rbacSvc, err := rbac.NewService(store, rbacOpts...)
	if err != nil {
		log.Fatalf("rbac service: %v", err)
	}
	resolver, err := rbac.NewResolver(store, resolverOpts...)
	if err != nil {
		log.Fatalf("resolver: %v", err)
	}
	sessions, err := rbac.NewSessionCodec(secret, "storekeeper-api")
	if err != nil {
		log.Fatalf("session codec: %v", err)
	}
	catalogSvc, err := catalog.NewService(store.Catalog())
	if err != nil {
		log.Fatalf("catalog service: %v", err)
	}

	ensureCtx, ensureCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := rbacSvc.EnsureBuiltins(ensureCtx); err != nil {
		ensureCancel()
		log.Fatalf("ensure builtin permissions: %v", err)
	}
	ensureCancel()

	api := httpapi.New(httpapi.Config{
		Version:  version,
		Ready:    httpapi.ReadyProbe{DB: store.DB()},
		RBAC:     rbacSvc,
		Resolver: resolver,
		Sessions: sessions,
		Catalog:  catalogSvc,
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting storekeeper-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Println("Stopped")
}
