//go:build ignore

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type FetchOptions struct {
	PowerLines          bool `json:"power_lines"`
	CommunicationTowers bool `json:"communication_towers"`
	Substations         bool `json:"substations"`
	Transformers        bool `json:"transformers"`
	Converters          bool `json:"converters"`
}

type DetectionJobEvent struct {
	RunID   string       `json:"run_id"`
	City    string       `json:"city"`
	Options FetchOptions `json:"options"`
}

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address for streams")
	city := flag.String("city", "Воронеж", "City to run detection for")
	flag.Parse()

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx := context.Background()

	// Проверка подключения
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Тестовое задание на детекцию
	event := DetectionJobEvent{
		RunID: uuid.NewString(),
		City:  *city,
		Options: FetchOptions{
			PowerLines:  true,
			Substations: true,
		},
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Fatalf("Failed to marshal event: %v", err)
	}

	// Публикация в стрим
	result, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: "detection:jobs",
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish event: %v", err)
	}

	fmt.Printf("✅ Event published successfully!\n")
	fmt.Printf("   Stream: detection:jobs\n")
	fmt.Printf("   Message ID: %s\n", result)
	fmt.Printf("   Run ID: %s\n", event.RunID)
	fmt.Printf("   City: %s\n", event.City)
	fmt.Printf("\nResult will appear in detection_runs; check GET /api/v1/runs/%s\n", event.RunID)
}
