package spotify

import (
	"github.com/zmb3/spotify"
	"golang.org/x/oauth2"
)

// Scopes requested during user login.
var Scopes = []string{
	spotify.ScopeUserReadPrivate,
	spotify.ScopeUserReadEmail,
	spotify.ScopeStreaming,
	spotify.ScopeUserModifyPlaybackState,
	spotify.ScopeUserReadPlaybackState,
	spotify.ScopePlaylistReadPrivate,
	spotify.ScopePlaylistReadCollaborative,
	spotify.ScopeUserTopRead,
}

// NewOAuthConfig returns the authorization-code configuration for user
// login against the Spotify accounts service.
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   spotify.AuthURL,
			TokenURL:  spotify.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}
