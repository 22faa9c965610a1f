package main

import (
	"context"
	"log"
	"time"

	"anoa.com/photoshare/internal/bootstrap"
	"anoa.com/photoshare/internal/config"
	"anoa.com/photoshare/internal/server"
	"anoa.com/photoshare/pkg/database"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.Connect(database.Options{
		Host:     cfg.DBHost,
		User:     cfg.DBUser,
		Password: cfg.DBPass,
		Name:     cfg.DBName,
		Port:     cfg.DBPort,
		Debug:    cfg.IsDevelopment(),
	})
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := bootstrap.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	if cfg.IsDevelopment() {
		if err := bootstrap.SeedDemoUser(db); err != nil {
			log.Fatalf("failed to seed demo user: %v", err)
		}
	}

	srv := server.NewServer(cfg, db, connectRedis(cfg.RedisURL))

	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

// connectRedis returns nil when Redis is not configured or unreachable.
func connectRedis(redisURL string) *redis.Client {
	if redisURL == "" {
		log.Println("REDIS_URL not set, rate limiting disabled")
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("Invalid REDIS_URL, rate limiting disabled: %v", err)
		return nil
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis unreachable, rate limiting disabled: %v", err)
		_ = client.Close()
		return nil
	}

	log.Println("Connected to Redis")
	return client
}
