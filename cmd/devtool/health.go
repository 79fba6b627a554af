package main

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

const slowResponseThreshold = time.Second

type HealthCheckCommand struct{}

func (c *HealthCheckCommand) Name() string {
	return "health-check"
}

func (c *HealthCheckCommand) Description() string {
	return "Check liveness and readiness of a running server"
}

func (c *HealthCheckCommand) Run(args []string) error {
	baseURL, _ := apiTarget()
	PrintHeader(fmt.Sprintf("Health Check (%s)", baseURL))

	client := &http.Client{Timeout: httpTimeout}
	for _, path := range []string{"/healthz", "/readyz"} {
		start := time.Now()
		body, err := getBody(client, baseURL+path)
		if err != nil {
			PrintError("%s failed: %v", path, err)
			return err
		}

		duration := time.Since(start)
		if duration > slowResponseThreshold {
			PrintWarning("%s slow response (%v): %s", path, duration, body)
		} else {
			PrintSuccess("%s ok (%v): %s", path, duration, body)
		}
	}
	return nil
}

func getBody(client *http.Client, url string) (string, error) {
	resp, err := client.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s: %s", resp.Status, body)
	}
	return string(body), nil
}
