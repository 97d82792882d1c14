package githubapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUserInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" {
			t.Errorf("path = %q, want /user", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer gho_test" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"login":"octocat","avatar_url":"https://example.com/a.png","id":1}`))
	}))
	defer server.Close()

	c := NewWithBaseURL(server.URL)
	u, err := c.UserInfo(context.Background(), "gho_test")
	if err != nil {
		t.Fatalf("UserInfo: %v", err)
	}
	if u.Login != "octocat" {
		t.Errorf("login = %q, want %q", u.Login, "octocat")
	}
	if u.AvatarURL != "https://example.com/a.png" {
		t.Errorf("avatar = %q", u.AvatarURL)
	}
}

func TestUserInfo_NonOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Bad credentials"}`))
	}))
	defer server.Close()

	c := NewWithBaseURL(server.URL)
	_, err := c.UserInfo(context.Background(), "bad")
	if err == nil {
		t.Fatal("expected error for 401")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error should carry the status: %v", err)
	}
}

func TestUserInfo_MissingLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewWithBaseURL(server.URL)
	_, err := c.UserInfo(context.Background(), "gho_test")
	if err == nil {
		t.Fatal("expected error for missing login")
	}
}

func TestNew_BaseURL(t *testing.T) {
	if got := New("github.com").baseURL; got != "https://api.github.com" {
		t.Errorf("baseURL = %q", got)
	}
	if got := New("ghe.corp.example").baseURL; got != "https://ghe.corp.example/api/v3" {
		t.Errorf("enterprise baseURL = %q", got)
	}
}
