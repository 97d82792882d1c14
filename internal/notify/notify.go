package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ksteinfeldt/gitshift/internal/config"
)

// Client posts event notifications to an incoming-webhook URL.
type Client struct {
	webhookURL string
	enabled    bool
	httpClient *http.Client
	settings   config.Notify
}

// NewClient creates a webhook client from notification settings.
func NewClient(cfg config.Notify) *Client {
	if !cfg.Enabled || cfg.WebhookURL == "" {
		return &Client{enabled: false}
	}

	return &Client{
		webhookURL: cfg.WebhookURL,
		enabled:    true,
		settings:   cfg,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// message is the webhook payload.
type message struct {
	Text string `json:"text"`
}

// Post sends a notification. Callers should generally ignore errors;
// notifications are best-effort.
func (c *Client) Post(ctx context.Context, event EventType, fields map[string]string) error {
	if !c.enabled || !c.shouldNotify(event) {
		return nil
	}

	payload, err := json.Marshal(formatMessage(event, fields))
	if err != nil {
		return fmt.Errorf("marshaling notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

func (c *Client) shouldNotify(event EventType) bool {
	switch event {
	case EventSwitched:
		return c.settings.OnSwitch
	case EventSwitchFailed:
		return c.settings.OnFail
	case EventImported:
		return c.settings.OnImport
	default:
		return true
	}
}

// formatMessage renders an event as webhook text. Fields are sorted
// for stable output.
func formatMessage(event EventType, fields map[string]string) message {
	cfg, ok := eventConfigs[event]
	if !ok {
		cfg = eventConfig{title: string(event)}
	}

	text := cfg.emoji + " " + cfg.title
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		text += fmt.Sprintf("\n%s: %s", k, fields[k])
	}

	return message{Text: text}
}

// Global client for convenient access from the coordinator's hook
// points.
var (
	globalClient *Client
	globalMu     sync.RWMutex
)

// Initialize sets up the global client from config. Call during
// startup; without it, Send is a no-op.
func Initialize(cfg config.Notify) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalClient = NewClient(cfg)
}

// Send fires a notification through the global client in a goroutine.
// Fire-and-forget: errors are logged, never returned. Safe to call
// when notifications are not configured.
func Send(event EventType, fields map[string]string) {
	globalMu.RLock()
	client := globalClient
	globalMu.RUnlock()

	if client == nil || !client.enabled {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := client.Post(ctx, event, fields); err != nil {
			log.Warn().Err(err).Str("event", string(event)).Msg("notification failed")
		}
	}()
}
