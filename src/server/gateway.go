package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"statcan-proxy/src/config"
	"statcan-proxy/src/internal/common"
)

// HTTPGateway exposes the proxy endpoint over HTTP
type HTTPGateway struct {
	forwarder     *Forwarder
	allowedOrigin string
	compress      bool
	server        *http.Server
	listener      net.Listener
}

// NewHTTPGateway creates the proxy server. A nil config uses defaults.
func NewHTTPGateway(addr string, cfg *config.Config) (*HTTPGateway, error) {
	if cfg == nil {
		cfg = config.GetDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gateway config: %w", err)
	}

	gateway := &HTTPGateway{
		forwarder:     NewForwarder(cfg.Upstream),
		allowedOrigin: cfg.Server.AllowedOrigin,
		compress:      cfg.Server.Compress,
	}

	// The write timeout must outlast the provider call it relays
	writeTimeout := cfg.Upstream.Timeout + 30*time.Second
	gateway.server = &http.Server{
		Addr:         addr,
		Handler:      NewRouter(gateway),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: writeTimeout,
		// Prevent slowloris: bound time to read headers and keep-alives
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return gateway, nil
}

// Start begins serving in the background
func (g *HTTPGateway) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", g.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", g.server.Addr, err)
	}
	g.listener = ln

	go func() {
		if err := g.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			common.ProxyLogger.Error("HTTP server error: %v", err)
		}
	}()

	return nil
}

// Stop shuts the HTTP server down gracefully
func (g *HTTPGateway) Stop() error {
	ctx, cancel := common.CreateContext(common.ShutdownTimeout)
	defer cancel()

	if g.server != nil {
		if err := g.server.Shutdown(ctx); err != nil {
			common.ProxyLogger.Error("HTTP server shutdown error: %v", err)
			return err
		}
	}
	return nil
}

// Handler returns the routed handler, for embedding and tests
func (g *HTTPGateway) Handler() http.Handler {
	return g.server.Handler
}

// Forwarder returns the upstream forwarder
func (g *HTTPGateway) Forwarder() *Forwarder {
	return g.forwarder
}

// Address returns the bound address of the HTTP server (host:port). If not yet started, returns configured Addr.
func (g *HTTPGateway) Address() string {
	if g.listener != nil {
		return g.listener.Addr().String()
	}
	return g.server.Addr
}

// Port returns the actual TCP port the server is listening on, or 0 if unavailable.
func (g *HTTPGateway) Port() int {
	if g.listener == nil {
		return 0
	}
	if addr, ok := g.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}
