package notify

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/existflow/promptpicker/internal/logger"
)

// RelayClient is a Channel that reaches windows in other processes through
// the relay server. Broadcasts are posted in the background; subscriptions
// hold an SSE stream open and reconnect when it drops.
type RelayClient struct {
	serverURL  string
	source     string
	httpClient *http.Client
	streamer   *http.Client
	minBackoff time.Duration
	maxBackoff time.Duration
	wg         sync.WaitGroup
}

// RelayOption configures a RelayClient
type RelayOption func(*RelayClient)

// WithBackoff sets the reconnect delay bounds
func WithBackoff(minDelay, maxDelay time.Duration) RelayOption {
	return func(c *RelayClient) {
		c.minBackoff = minDelay
		c.maxBackoff = maxDelay
	}
}

// NewRelayClient creates a client for the relay at serverURL
func NewRelayClient(serverURL string, opts ...RelayOption) *RelayClient {
	c := &RelayClient{
		serverURL:  strings.TrimRight(serverURL, "/"),
		source:     uuid.NewString(),
		httpClient: &http.Client{Timeout: 5 * time.Second},
		streamer:   &http.Client{},
		minBackoff: time.Second,
		maxBackoff: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source identifies this client in the events it sends
func (c *RelayClient) Source() string { return c.source }

// Broadcast implements Channel. The post runs in the background and its
// failure is only logged.
func (c *RelayClient) Broadcast(ctx context.Context, topic string, payload interface{}) error {
	ev, err := NewEvent(topic, c.source, payload)
	if err != nil {
		return err
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.post(context.WithoutCancel(ctx), topic, body); err != nil {
			logger.Debug("Relay broadcast failed", logger.F("topic", topic), logger.F("error", err))
		}
	}()
	return nil
}

func (c *RelayClient) post(ctx context.Context, topic string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.serverURL+"/api/v1/events/"+url.PathEscape(topic), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("relay rejected event: %s", strings.TrimSpace(string(respBody)))
	}
	return nil
}

// Wait blocks until pending broadcasts finish
func (c *RelayClient) Wait() {
	c.wg.Wait()
}

// Subscribe implements Channel
func (c *RelayClient) Subscribe(topic string, handler func(Event)) func() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		backoff := c.minBackoff
		for {
			connected, err := c.stream(ctx, topic, handler)
			if ctx.Err() != nil {
				return
			}
			if connected {
				backoff = c.minBackoff
			}
			logger.Debug("Relay stream ended, reconnecting",
				logger.F("topic", topic), logger.F("error", err), logger.F("backoff", backoff.String()))

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			backoff = min(backoff*2, c.maxBackoff)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}

// stream reads one SSE connection until it fails. It reports whether the
// server accepted the connection.
func (c *RelayClient) stream(ctx context.Context, topic string, handler func(Event)) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.serverURL+"/api/v1/events/stream?topic="+url.QueryEscape(topic), nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamer.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("relay stream status %d", resp.StatusCode)
	}

	var data strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if data.Len() > 0 {
				c.dispatch(data.String(), handler)
				data.Reset()
			}
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
		// comments (":") and other fields are ignored
	}
	if err := scanner.Err(); err != nil {
		return true, err
	}
	return true, io.EOF
}

func (c *RelayClient) dispatch(data string, handler func(Event)) {
	var ev Event
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		logger.Warn("Ignoring malformed relay event", logger.F("error", err))
		return
	}
	handler(ev)
}
