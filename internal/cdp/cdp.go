// Package cdp discovers the browser's DevTools websocket URL by polling the
// local JSON metadata endpoint. Discovery failure is never fatal; the caller
// logs it and moves on.
package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Poller polls http://127.0.0.1:<port>/json/version until it yields a
// websocket debugger URL or the total wait is exhausted.
type Poller struct {
	Port int
	// Interval between polls; defaults to 250ms.
	Interval time.Duration
	// Timeout bounds the total wait; defaults to 10s.
	Timeout time.Duration
	Client  *http.Client
	Logger  *zap.Logger
}

type versionInfo struct {
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// Wait blocks until the endpoint reports a websocket URL, the timeout
// elapses, or ctx is cancelled.
func (p Poller) Wait(ctx context.Context) (string, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: interval}
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	endpoint := fmt.Sprintf("http://127.0.0.1:%d/json/version", p.Port)
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if url, err := p.fetch(ctx, client, endpoint); err == nil && url != "" {
			return url, nil
		} else if err != nil {
			logger.Debug("debugger endpoint poll", zap.Error(err))
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("no debugger websocket URL on port %d after %s", p.Port, timeout)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p Poller) fetch(ctx context.Context, client *http.Client, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("endpoint returned %s", resp.Status)
	}
	var info versionInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("decode version info: %w", err)
	}
	return info.WebSocketDebuggerURL, nil
}
