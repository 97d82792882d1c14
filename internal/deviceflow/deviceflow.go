// Package deviceflow implements the OAuth Device Authorization Grant
// against GitHub: request a device/user code pair, then poll the token
// endpoint at the server-dictated interval until success, denial,
// expiry, or cancellation.
package deviceflow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// State is the published phase of one authentication attempt.
type State int

const (
	// StateIdle means no attempt has started.
	StateIdle State = iota

	// StateLoading means the device code request is in flight.
	StateLoading

	// StateWaitingForAuth means the user has a code and polling is active.
	StateWaitingForAuth

	// StateAuthenticated is terminal success; the token is available.
	StateAuthenticated

	// StateError is terminal failure.
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateWaitingForAuth:
		return "waiting-for-auth"
	case StateAuthenticated:
		return "authenticated"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	defaultCodeURL  = "https://github.com/login/device/code"
	defaultTokenURL = "https://github.com/login/oauth/access_token"

	grantType = "urn:ietf:params:oauth:grant-type:device_code"

	// slowDownIncrement is added to the poll interval each time the
	// server answers slow_down.
	slowDownIncrement = 5 * time.Second

	defaultInterval = 5 * time.Second
)

// Snapshot is a copy of the flow's published state.
type Snapshot struct {
	State           State
	UserCode        string
	VerificationURI string
	Interval        time.Duration
	Token           string
	Err             string
}

// Config configures a Flow. Zero-value endpoint fields default to the
// public GitHub endpoints.
type Config struct {
	ClientID string
	Scope    string

	CodeURL  string
	TokenURL string

	HTTPClient *http.Client

	// OnChange, if set, is called after every state transition with a
	// snapshot. Called from the polling goroutine.
	OnChange func(Snapshot)
}

// Flow drives one device authorization attempt. Flows are single-use:
// create a new Flow for each attempt. The session is in-memory only
// and discarded with the Flow.
type Flow struct {
	clientID   string
	scope      string
	codeURL    string
	tokenURL   string
	httpClient *http.Client
	onChange   func(Snapshot)

	mu         sync.Mutex
	snap       Snapshot
	deviceCode string

	stopOnce sync.Once
	stop     chan struct{}
}

// New creates a Flow from config, filling in defaults.
func New(cfg Config) *Flow {
	f := &Flow{
		clientID:   cfg.ClientID,
		scope:      cfg.Scope,
		codeURL:    cfg.CodeURL,
		tokenURL:   cfg.TokenURL,
		httpClient: cfg.HTTPClient,
		onChange:   cfg.OnChange,
		stop:       make(chan struct{}),
	}
	if f.codeURL == "" {
		f.codeURL = defaultCodeURL
	}
	if f.tokenURL == "" {
		f.tokenURL = defaultTokenURL
	}
	if f.httpClient == nil {
		f.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	f.snap.State = StateIdle
	return f
}

// Snapshot returns a copy of the current published state.
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

// Start requests a device code and, on success, begins polling in a
// background goroutine. It fails fast without any network call when no
// client id is configured. Start returns once polling has begun (or
// the attempt has already failed); the terminal result is published
// through the snapshot and OnChange.
func (f *Flow) Start(ctx context.Context) error {
	if f.clientID == "" {
		f.transition(func(s *Snapshot) {
			s.State = StateError
			s.Err = "no OAuth client id configured; set client_id in config.toml or GITSHIFT_CLIENT_ID"
		})
		return fmt.Errorf("device flow: no client id configured")
	}

	f.transition(func(s *Snapshot) { s.State = StateLoading })

	if err := f.requestCodes(ctx); err != nil {
		f.transition(func(s *Snapshot) {
			s.State = StateError
			s.Err = err.Error()
		})
		return err
	}

	go f.pollLoop(ctx)
	return nil
}

// Stop halts the poll timer. The published state is left unchanged and
// no in-flight request is aborted; cancellation is cooperative only.
func (f *Flow) Stop() {
	f.stopOnce.Do(func() { close(f.stop) })
}

// codeResponse is the device code endpoint's reply.
type codeResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

// tokenResponse is the token endpoint's reply. Logical failures arrive
// with HTTP 200 and a non-empty error code.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (f *Flow) requestCodes(ctx context.Context) error {
	body, err := f.postForm(ctx, f.codeURL, url.Values{
		"client_id": {f.clientID},
		"scope":     {f.scope},
	})
	if err != nil {
		return fmt.Errorf("requesting device code: %w", err)
	}

	var cr codeResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return fmt.Errorf("parsing device code response: %w", err)
	}
	if cr.DeviceCode == "" || cr.UserCode == "" {
		return fmt.Errorf("device code response missing codes")
	}

	interval := time.Duration(cr.Interval) * time.Second
	if interval <= 0 {
		interval = defaultInterval
	}

	f.mu.Lock()
	f.deviceCode = cr.DeviceCode
	f.mu.Unlock()

	f.transition(func(s *Snapshot) {
		s.State = StateWaitingForAuth
		s.UserCode = cr.UserCode
		s.VerificationURI = cr.VerificationURI
		s.Interval = interval
	})
	return nil
}

// pollLoop polls the token endpoint until a terminal state or stop.
// A slow_down reply restarts the timer at the increased interval.
func (f *Flow) pollLoop(ctx context.Context) {
	for {
		interval := f.Snapshot().Interval

		timer := time.NewTimer(interval)
		select {
		case <-f.stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if done := f.poll(ctx); done {
			return
		}
	}
}

// poll performs one token request and applies the resulting state
// transition. It reports whether polling should halt.
func (f *Flow) poll(ctx context.Context) bool {
	f.mu.Lock()
	deviceCode := f.deviceCode
	f.mu.Unlock()

	body, err := f.postForm(ctx, f.tokenURL, url.Values{
		"client_id":   {f.clientID},
		"device_code": {deviceCode},
		"grant_type":  {grantType},
	})
	if err != nil {
		f.transition(func(s *Snapshot) {
			s.State = StateError
			s.Err = fmt.Sprintf("polling for token: %v", err)
		})
		return true
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		f.transition(func(s *Snapshot) {
			s.State = StateError
			s.Err = fmt.Sprintf("parsing token response: %v", err)
		})
		return true
	}

	switch {
	case tr.AccessToken != "":
		f.transition(func(s *Snapshot) {
			s.State = StateAuthenticated
			s.Token = tr.AccessToken
		})
		return true

	case tr.Error == "authorization_pending":
		return false

	case tr.Error == "slow_down":
		f.transition(func(s *Snapshot) {
			s.Interval += slowDownIncrement
		})
		return false

	default:
		msg := tr.ErrorDescription
		if msg == "" {
			msg = tr.Error
		}
		if msg == "" {
			msg = "token response carried neither a token nor an error"
		}
		f.transition(func(s *Snapshot) {
			s.State = StateError
			s.Err = msg
		})
		return true
	}
}

// transition mutates the snapshot under the lock and notifies OnChange
// with a copy outside it.
func (f *Flow) transition(mutate func(*Snapshot)) {
	f.mu.Lock()
	mutate(&f.snap)
	snap := f.snap
	f.mu.Unlock()

	if f.onChange != nil {
		f.onChange(snap)
	}
}

// postForm sends a form-encoded POST expecting a JSON reply. The
// endpoints return 200 for every logical outcome, so any non-200 is a
// transport-level failure.
func (f *Flow) postForm(ctx context.Context, endpoint string, values url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}
