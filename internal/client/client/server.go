package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/dmitrijs2005/feedbackkit/internal/common"
	"github.com/dmitrijs2005/feedbackkit/internal/logging"
	"github.com/dmitrijs2005/feedbackkit/internal/netx"
)

// Authenticator supplies bearer tokens. services.AuthService implements it.
// RefreshedToken receives the token the backend rejected.
type Authenticator interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshedToken(ctx context.Context, rejected string) (string, error)
}

// DeviceIdentity supplies the installation id for tracking headers.
type DeviceIdentity interface {
	InstallationID(ctx context.Context) (string, error)
}

type ServerConfig struct {
	APIRoot       string
	TenantID      string
	ApplicationID string

	// CacheTTL bounds how long cached GET bodies are served. Zero keeps
	// them until the process exits.
	CacheTTL time.Duration

	// Device tracking values, sent only to tracking endpoints.
	Locale string
	Debug  bool
}

type Server struct {
	cfg       ServerConfig
	root      *url.URL
	transport netx.Transport
	auth      Authenticator
	device    DeviceIdentity
	log       logging.Logger
	cache     *cache.Cache
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

type ServerOption func(*Server)

func WithDeviceIdentity(d DeviceIdentity) ServerOption {
	return func(s *Server) { s.device = d }
}

func WithLogger(l logging.Logger) ServerOption {
	return func(s *Server) { s.log = l }
}

// NewServer validates cfg.APIRoot and returns a server using transport for
// every request.
func NewServer(cfg ServerConfig, transport netx.Transport, auth Authenticator, opts ...ServerOption) (*Server, error) {
	if cfg.APIRoot == "" || transport == nil || auth == nil {
		return nil, ErrNotConfigured
	}

	root, err := url.Parse(cfg.APIRoot)
	if err != nil {
		return nil, common.Generic("invalid API root", err)
	}
	if !strings.HasSuffix(root.Path, "/") {
		root.Path += "/"
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}

	s := &Server{
		cfg:       cfg,
		root:      root,
		transport: transport,
		auth:      auth,
		log:       logging.Nop(),
		cache:     cache.New(ttl, 10*time.Minute),
		now:       time.Now,
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "resource_server")
	return s, nil
}

// ClearCache drops every cached response body.
func (s *Server) ClearCache() {
	s.cache.Flush()
}

func (s *Server) commonHeaders(h http.Header) {
	h.Set(common.HeaderPlatform, "go")
	h.Set(common.HeaderPlatformAgent, common.PlatformAgent)
	h.Set(common.HeaderSDKVersion, common.SDKVersion)
	if s.cfg.ApplicationID != "" {
		h.Set(common.HeaderApplicationID, s.cfg.ApplicationID)
	}
	if s.cfg.TenantID != "" {
		h.Set(common.HeaderTenantID, s.cfg.TenantID)
	}
}

func (s *Server) trackingHeaders(ctx context.Context, h http.Header) {
	if s.device != nil {
		id, err := s.device.InstallationID(ctx)
		if err != nil {
			s.log.Warn(ctx, "installation id unavailable", "error", err)
		} else {
			h.Set(common.HeaderDeviceID, id)
		}
	}
	if s.cfg.Locale != "" {
		h.Set(common.HeaderDeviceLocale, s.cfg.Locale)
	}
	_, offset := s.now().Zone()
	h.Set(common.HeaderDeviceTimeZoneOffset, strconv.Itoa(offset))
	if s.cfg.Debug {
		h.Set(common.HeaderDebug, "1")
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
