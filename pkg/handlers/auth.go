package handlers

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const stateCookie = "oauth_state"

// signValue computes an HMAC signature for value and appends it using the
// format value|signature. The signature is base64 URL encoded so it can be
// stored in cookies.
func signValue(value string, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(value))
	return value + "|" + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// verifyValue checks the signature appended by signValue and returns the
// original value when it matches key.
func verifyValue(signed string, key []byte) (string, bool) {
	value, sig, ok := strings.Cut(signed, "|")
	if !ok || strings.Contains(sig, "|") {
		return "", false
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(value))
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil || !hmac.Equal(mac.Sum(nil), got) {
		return "", false
	}
	return value, true
}

// Login begins the Spotify OAuth flow. A random state is kept in a signed,
// HttpOnly cookie and the browser is sent to the consent page.
func (app *Application) Login(w http.ResponseWriter, r *http.Request) {
	if app.OAuth == nil {
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Spotify credentials not configured",
			"message": "Please set SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET environment variables",
		})
		return
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "failed to generate state")
		return
	}
	state := base64.RawURLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    signValue(state, app.SignKey),
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	authURL := app.OAuth.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
	http.Redirect(w, r, authURL, http.StatusFound)
}

// OAuthCallback completes the flow. Every outcome is a redirect to the front
// end, carrying either access_token or error in the query string.
func (app *Application) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		app.redirectFrontend(w, r, "error", e)
		return
	}

	state, ok := app.verifiedState(r)
	if !ok || q.Get("state") == "" || q.Get("state") != state {
		app.redirectFrontend(w, r, "error", "invalid_state")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/", MaxAge: -1, HttpOnly: true})

	code := q.Get("code")
	if code == "" {
		app.redirectFrontend(w, r, "error", "no_code")
		return
	}
	if app.OAuth == nil {
		app.redirectFrontend(w, r, "error", "server_error")
		return
	}

	token, err := app.OAuth.Exchange(r.Context(), code)
	if err != nil || token.AccessToken == "" {
		log.WithError(err).Warn("spotify token exchange failed")
		app.redirectFrontend(w, r, "error", "token_exchange_failed")
		return
	}
	app.redirectFrontend(w, r, "access_token", token.AccessToken)
}

func (app *Application) verifiedState(r *http.Request) (string, bool) {
	c, err := r.Cookie(stateCookie)
	if err != nil {
		return "", false
	}
	return verifyValue(c.Value, app.SignKey)
}

func (app *Application) redirectFrontend(w http.ResponseWriter, r *http.Request, key, value string) {
	target := app.FrontendURL + "?" + url.Values{key: {value}}.Encode()
	http.Redirect(w, r, target, http.StatusFound)
}
