// Package ice supplies the connectivity-negotiation server list handed
// to the transport layer. The broker does not speak ICE itself; it only
// publishes configuration.
package ice

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/pion/webrtc/v4"
)

// DefaultSTUNURL is the public STUN entry always included in the list.
const DefaultSTUNURL = "stun:stun.l.google.com:19302"

// Environment variables for the optional TURN entry.
const (
	TURNURLEnv        = "TURN_URL"
	TURNUsernameEnv   = "TURN_USERNAME"
	TURNCredentialEnv = "TURN_CREDENTIAL"
)

// Config holds the optional TURN relay settings. A zero Config yields a
// STUN-only server list.
type Config struct {
	TURNURL        string `yaml:"turnUrl"`
	TURNUsername   string `yaml:"turnUsername"`
	TURNCredential string `yaml:"turnCredential"`
}

// ConfigFromEnv reads the TURN settings from the environment.
func ConfigFromEnv() Config {
	return Config{
		TURNURL:        os.Getenv(TURNURLEnv),
		TURNUsername:   os.Getenv(TURNUsernameEnv),
		TURNCredential: os.Getenv(TURNCredentialEnv),
	}
}

// Provider returns ICE server descriptors. Pure and stateless; the only
// variation is whether the deployment configured a TURN relay.
type Provider struct {
	cfg Config
}

// NewProvider creates a Provider.
func NewProvider(cfg Config) *Provider {
	return &Provider{cfg: cfg}
}

// Servers returns the ICE server list: the fixed public STUN entry plus
// the TURN entry when configured. Order matters: clients try them in
// sequence.
func (p *Provider) Servers() []webrtc.ICEServer {
	servers := []webrtc.ICEServer{
		{URLs: []string{DefaultSTUNURL}},
	}
	if p.cfg.TURNURL != "" {
		servers = append(servers, webrtc.ICEServer{
			URLs:       []string{p.cfg.TURNURL},
			Username:   p.cfg.TURNUsername,
			Credential: p.cfg.TURNCredential,
		})
	}
	return servers
}

// NewRouter creates a chi router exposing the server list.
func NewRouter(provider *Provider) chi.Router {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"iceServers": provider.Servers(),
		})
	})
	return r
}
