package spotify

import (
	"net/url"
	"strings"
	"testing"
)

func TestNewOAuthConfigAuthURL(t *testing.T) {
	cfg := NewOAuthConfig("id", "secret", "http://127.0.0.1:5001/auth/callback")
	u, err := url.Parse(cfg.AuthCodeURL("xyz"))
	if err != nil {
		t.Fatal(err)
	}
	if u.Host != "accounts.spotify.com" {
		t.Errorf("unexpected host %s", u.Host)
	}
	q := u.Query()
	if q.Get("client_id") != "id" || q.Get("state") != "xyz" || q.Get("redirect_uri") != "http://127.0.0.1:5001/auth/callback" {
		t.Errorf("unexpected query %v", q)
	}
	scopes := strings.Fields(q.Get("scope"))
	if len(scopes) != len(Scopes) {
		t.Fatalf("expected %d scopes got %v", len(Scopes), scopes)
	}
}
