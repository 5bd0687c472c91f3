// Command healthcheck probes a running bot's /health endpoint, for container HEALTHCHECK use.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/fenilmodi00/market-snapshot-bot/config"
	"github.com/fenilmodi00/market-snapshot-bot/models"
)

type healthResponse struct {
	Status    string                 `json:"status"`
	Uptime    int64                  `json:"uptime"`
	Version   string                 `json:"version"`
	Scheduler models.SchedulerStatus `json:"scheduler"`
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("❌ config: %v\n", err)
		os.Exit(1)
	}

	url := fmt.Sprintf("http://127.0.0.1:%s/health", cfg.ServerPort)
	if err := probe(url); err != nil {
		fmt.Printf("❌ UNHEALTHY: %v\n", err)
		os.Exit(1)
	}
}

func probe(url string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if !health.Scheduler.IsRunning {
		return fmt.Errorf("scheduler not running")
	}

	lastRun := "never"
	if health.Scheduler.LastRunTimestamp != nil {
		lastRun = *health.Scheduler.LastRunTimestamp
	}
	fmt.Printf("✅ HEALTHY: version %s, up %ds, last post %s\n", health.Version, health.Uptime, lastRun)
	return nil
}
