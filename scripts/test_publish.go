//go:build ignore

// Publishes availability events to the stream consumed by the availability
// worker. Usage: go run scripts/test_publish.go -spot ACB -available 12
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/parkwhere/internal/domain"
	redisRepo "github.com/parkwhere/internal/repository/redis"
)

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address for streams")
	spotID := flag.String("spot", "ACB", "car park id")
	lotType := flag.String("lot-type", "C", "lot type (C, Y, H)")
	available := flag.Int("available", 10, "available lots")
	capacity := flag.Int("capacity", -1, "total lots, negative keeps the stored value")
	flag.Parse()

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	event := domain.AvailabilityEvent{
		SpotID:         *spotID,
		LotType:        *lotType,
		AvailableCount: *available,
		ObservedAt:     time.Now().UTC(),
	}
	if *capacity >= 0 {
		event.Capacity = capacity
	}

	repo := redisRepo.NewStreamRepository(client, zap.NewNop(), 0)
	if err := repo.PublishToStream(ctx, domain.StreamParkingAvailability, event); err != nil {
		log.Fatalf("Failed to publish event: %v", err)
	}

	log.Printf("Published availability for %s: %d lots", event.SpotID, event.AvailableCount)
}
