package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ksteinfeldt/gitshift/internal/config"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Notify
		enabled bool
	}{
		{"disabled", config.Notify{Enabled: false, WebhookURL: "https://hooks.example.com/x"}, false},
		{"empty webhook", config.Notify{Enabled: true}, false},
		{"valid", config.Notify{Enabled: true, WebhookURL: "https://hooks.example.com/x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(tt.cfg)
			if client.enabled != tt.enabled {
				t.Errorf("NewClient().enabled = %v, want %v", client.enabled, tt.enabled)
			}
		})
	}
}

func TestClientPost(t *testing.T) {
	var received message
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(config.Notify{
		Enabled:    true,
		WebhookURL: server.URL,
		OnSwitch:   true,
	})

	err := client.Post(context.Background(), EventSwitched, map[string]string{
		FieldIdentity: "Alice",
		FieldEmail:    "alice@example.com",
	})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}

	if !strings.Contains(received.Text, "Identity Switched") {
		t.Errorf("text = %q, want event title", received.Text)
	}
	if !strings.Contains(received.Text, "alice@example.com") {
		t.Errorf("text = %q, want email field", received.Text)
	}
}

func TestClientPost_FilteredEvent(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	client := NewClient(config.Notify{
		Enabled:    true,
		WebhookURL: server.URL,
		OnSwitch:   false,
	})

	if err := client.Post(context.Background(), EventSwitched, nil); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if hits != 0 {
		t.Errorf("filtered event reached the webhook %d times", hits)
	}
}

func TestSend_Unconfigured(t *testing.T) {
	Initialize(config.Notify{})

	// Must be safe to call with no webhook configured.
	Send(EventImported, map[string]string{FieldIdentity: "x"})
}
