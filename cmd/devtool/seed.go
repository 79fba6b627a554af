package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/osse101/realmkeeper/internal/domain"
	"github.com/osse101/realmkeeper/internal/handler"
)

const seedRingRadius = 6.0

type SeedWorldCommand struct{}

func (c *SeedWorldCommand) Name() string {
	return "seed-world"
}

func (c *SeedWorldCommand) Description() string {
	return "Spawn world items through the admin API <itemType> [count] [quantity]"
}

func (c *SeedWorldCommand) Run(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("item type required")
	}
	itemType := args[0]

	count, quantity := 1, 1
	var err error
	if len(args) > 1 {
		if count, err = strconv.Atoi(args[1]); err != nil || count < 1 {
			return fmt.Errorf("invalid count %q", args[1])
		}
	}
	if len(args) > 2 {
		if quantity, err = strconv.Atoi(args[2]); err != nil || quantity < 1 {
			return fmt.Errorf("invalid quantity %q", args[2])
		}
	}

	baseURL, apiKey := apiTarget()
	client := &http.Client{Timeout: httpTimeout}
	PrintHeader(fmt.Sprintf("Seeding %d x %s", count, itemType))

	for i, pos := range seedPositions(count) {
		item, err := spawn(client, baseURL, apiKey, handler.SpawnWorldItemRequest{
			ItemType: itemType,
			Position: pos,
			Quantity: quantity,
		})
		if err != nil {
			return fmt.Errorf("spawn %d: %w", i+1, err)
		}
		PrintInfo("%s at (%.1f, %.1f, %.1f)", item.InstanceID, pos.X, pos.Y, pos.Z)
	}

	PrintSuccess("Spawned %d world items", count)
	return nil
}

// seedPositions spreads n points evenly on a ring around the origin
func seedPositions(n int) []domain.Vec3 {
	out := make([]domain.Vec3, n)
	for i := range out {
		angle := 2 * math.Pi * float64(i) / float64(n)
		out[i] = domain.Vec3{
			X: math.Round(seedRingRadius*math.Cos(angle)*10) / 10,
			Z: math.Round(seedRingRadius*math.Sin(angle)*10) / 10,
		}
	}
	return out
}

func spawn(client *http.Client, baseURL, apiKey string, req handler.SpawnWorldItemRequest) (domain.WorldItem, error) {
	var item domain.WorldItem

	data, err := json.Marshal(req)
	if err != nil {
		return item, err
	}
	httpReq, err := http.NewRequest(http.MethodPost, baseURL+"/api/v1/admin/world-items", bytes.NewReader(data))
	if err != nil {
		return item, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(httpReq)
	if err != nil {
		return item, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		var apiErr handler.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return item, fmt.Errorf("unexpected status %s: %s", resp.Status, apiErr.Error)
	}
	err = json.NewDecoder(resp.Body).Decode(&item)
	return item, err
}
