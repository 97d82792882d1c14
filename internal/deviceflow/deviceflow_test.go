package deviceflow

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newTestServer serves the code endpoint at /code and replays the
// given token responses at /token in order, repeating the last one.
func newTestServer(t *testing.T, tokenResponses []string) *httptest.Server {
	t.Helper()
	var polls int
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/code":
			if got := r.FormValue("client_id"); got != "test-client" {
				t.Errorf("client_id = %q", got)
			}
			fmt.Fprint(w, `{"device_code":"dev-1","user_code":"ABCD-1234","verification_uri":"https://github.com/login/device","expires_in":900,"interval":5}`)
		case "/token":
			if got := r.FormValue("grant_type"); got != grantType {
				t.Errorf("grant_type = %q", got)
			}
			if got := r.FormValue("device_code"); got != "dev-1" {
				t.Errorf("device_code = %q", got)
			}
			i := polls
			if i >= len(tokenResponses) {
				i = len(tokenResponses) - 1
			}
			polls++
			fmt.Fprint(w, tokenResponses[i])
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
}

func newTestFlow(server *httptest.Server, clientID string) *Flow {
	return New(Config{
		ClientID: clientID,
		Scope:    "repo user",
		CodeURL:  server.URL + "/code",
		TokenURL: server.URL + "/token",
	})
}

func TestStart_NoClientID(t *testing.T) {
	f := New(Config{})

	err := f.Start(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}

	snap := f.Snapshot()
	if snap.State != StateError {
		t.Errorf("state = %v, want error", snap.State)
	}
	if snap.Err == "" {
		t.Error("error message should be populated")
	}
}

func TestRequestCodes(t *testing.T) {
	server := newTestServer(t, []string{`{"error":"authorization_pending"}`})
	defer server.Close()

	f := newTestFlow(server, "test-client")
	if err := f.requestCodes(context.Background()); err != nil {
		t.Fatalf("requestCodes: %v", err)
	}

	snap := f.Snapshot()
	if snap.State != StateWaitingForAuth {
		t.Errorf("state = %v, want waiting-for-auth", snap.State)
	}
	if snap.UserCode != "ABCD-1234" {
		t.Errorf("user code = %q", snap.UserCode)
	}
	if snap.VerificationURI != "https://github.com/login/device" {
		t.Errorf("verification uri = %q", snap.VerificationURI)
	}
	if snap.Interval != 5*time.Second {
		t.Errorf("interval = %v, want 5s", snap.Interval)
	}
}

func TestPoll_Pending(t *testing.T) {
	server := newTestServer(t, []string{`{"error":"authorization_pending"}`})
	defer server.Close()

	f := newTestFlow(server, "test-client")
	if err := f.requestCodes(context.Background()); err != nil {
		t.Fatalf("requestCodes: %v", err)
	}

	if done := f.poll(context.Background()); done {
		t.Error("pending poll should not halt polling")
	}
	if got := f.Snapshot().State; got != StateWaitingForAuth {
		t.Errorf("state = %v, want waiting-for-auth", got)
	}
}

func TestPoll_SlowDownIncreasesInterval(t *testing.T) {
	server := newTestServer(t, []string{`{"error":"slow_down"}`})
	defer server.Close()

	f := newTestFlow(server, "test-client")
	if err := f.requestCodes(context.Background()); err != nil {
		t.Fatalf("requestCodes: %v", err)
	}
	before := f.Snapshot().Interval

	if done := f.poll(context.Background()); done {
		t.Error("slow_down should not halt polling")
	}

	snap := f.Snapshot()
	if snap.State != StateWaitingForAuth {
		t.Errorf("state = %v, want waiting-for-auth", snap.State)
	}
	if snap.Interval <= before {
		t.Errorf("interval = %v, want > %v", snap.Interval, before)
	}
}

func TestPoll_Authenticated(t *testing.T) {
	server := newTestServer(t, []string{`{"access_token":"gho_new","token_type":"bearer"}`})
	defer server.Close()

	f := newTestFlow(server, "test-client")
	if err := f.requestCodes(context.Background()); err != nil {
		t.Fatalf("requestCodes: %v", err)
	}

	if done := f.poll(context.Background()); !done {
		t.Error("token response should halt polling")
	}

	snap := f.Snapshot()
	if snap.State != StateAuthenticated {
		t.Errorf("state = %v, want authenticated", snap.State)
	}
	if snap.Token != "gho_new" {
		t.Errorf("token = %q, want %q", snap.Token, "gho_new")
	}
}

func TestPoll_TerminalError(t *testing.T) {
	server := newTestServer(t, []string{`{"error":"access_denied","error_description":"The user denied the request."}`})
	defer server.Close()

	f := newTestFlow(server, "test-client")
	if err := f.requestCodes(context.Background()); err != nil {
		t.Fatalf("requestCodes: %v", err)
	}

	if done := f.poll(context.Background()); !done {
		t.Error("terminal error should halt polling")
	}

	snap := f.Snapshot()
	if snap.State != StateError {
		t.Errorf("state = %v, want error", snap.State)
	}
	if snap.Err != "The user denied the request." {
		t.Errorf("err = %q", snap.Err)
	}
}

func TestFlow_EndToEnd(t *testing.T) {
	server := newTestServer(t, []string{
		`{"error":"authorization_pending"}`,
		`{"access_token":"gho_final"}`,
	})
	defer server.Close()

	var transitions []State
	done := make(chan struct{})
	f := New(Config{
		ClientID: "test-client",
		CodeURL:  server.URL + "/code",
		TokenURL: server.URL + "/token",
		OnChange: func(s Snapshot) {
			transitions = append(transitions, s.State)
			if s.State == StateAuthenticated || s.State == StateError {
				close(done)
			}
		},
	})

	if err := f.requestCodes(context.Background()); err != nil {
		t.Fatalf("requestCodes: %v", err)
	}
	// Drive the polls directly instead of waiting out the timer.
	for !f.poll(context.Background()) {
	}
	<-done

	snap := f.Snapshot()
	if snap.State != StateAuthenticated {
		t.Fatalf("state = %v, want authenticated", snap.State)
	}
	if snap.Token != "gho_final" {
		t.Errorf("token = %q, want %q", snap.Token, "gho_final")
	}

	last := transitions[len(transitions)-1]
	if last != StateAuthenticated {
		t.Errorf("last transition = %v, want authenticated", last)
	}
}

func TestStop_LeavesStateUnchanged(t *testing.T) {
	server := newTestServer(t, []string{`{"error":"authorization_pending"}`})
	defer server.Close()

	f := newTestFlow(server, "test-client")
	if err := f.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	f.Stop()
	f.Stop() // idempotent

	if got := f.Snapshot().State; got != StateWaitingForAuth {
		t.Errorf("state after Stop = %v, want waiting-for-auth", got)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateLoading, "loading"},
		{StateWaitingForAuth, "waiting-for-auth"},
		{StateAuthenticated, "authenticated"},
		{StateError, "error"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
