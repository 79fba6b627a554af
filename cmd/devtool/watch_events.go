package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"
)

type WatchEventsCommand struct{}

func (c *WatchEventsCommand) Name() string {
	return "watch-events"
}

func (c *WatchEventsCommand) Description() string {
	return "Stream world events from /events [types,comma,separated] [duration]"
}

func (c *WatchEventsCommand) Run(args []string) error {
	baseURL, apiKey := apiTarget()

	query := url.Values{}
	if len(args) > 0 && args[0] != "" {
		query.Set("types", args[0])
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if len(args) > 1 {
		d, err := time.ParseDuration(args[1])
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", args[1], err)
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	target := baseURL + "/events"
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", apiKey)

	PrintHeader("Watching " + target)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	events := 0
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			events++
			fmt.Printf(colorBlue+"%s"+colorReset+" ", strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			fmt.Println(strings.TrimPrefix(line, "data: "))
		}
	}

	// Interrupt and timeout both end the stream through ctx
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	PrintSuccess("Received %d events", events)
	return nil
}
