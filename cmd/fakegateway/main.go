// Command fakegateway runs a local stand-in for the streaming site's JSON-RPC
// gateway so the profile suite can run without production credentials.
package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/janisto/prima-profile-e2e/internal/config"
	"github.com/janisto/prima-profile-e2e/internal/http/routes"
	"github.com/janisto/prima-profile-e2e/internal/platform/auth"
	"github.com/janisto/prima-profile-e2e/internal/platform/firebase"
	applog "github.com/janisto/prima-profile-e2e/internal/platform/logging"
	profilesvc "github.com/janisto/prima-profile-e2e/internal/service/profile"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

type backends struct {
	auth     auth.Authenticator
	profiles profilesvc.Service
	store    string
	closer   io.Closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newBackends picks the in-memory stack unless a Firebase project is configured.
// With a project, profiles live in Firestore; accounts move to Firebase Auth
// only when an API key is also set.
func newBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	if cfg.FirebaseProjectID == "" {
		authn := auth.NewStaticAuthenticator(auth.DefaultTokenTTL)
		if cfg.HasCredentials() {
			authn.AddAccount(cfg.Email, cfg.Password)
		}
		return &backends{
			auth:     authn,
			profiles: profilesvc.NewMemoryStore(cfg.FakeMaxProfiles),
			store:    "memory",
			closer:   nopCloser{},
		}, nil
	}

	useFirebaseAuth := cfg.FirebaseAPIKey != ""
	clients, err := firebase.InitializeClients(ctx, firebase.Config{
		ProjectID:                    cfg.FirebaseProjectID,
		GoogleApplicationCredentials: cfg.CredentialsFile,
		WithAuth:                     useFirebaseAuth,
	})
	if err != nil {
		return nil, err
	}

	b := &backends{
		profiles: profilesvc.NewFirestoreStore(clients.Firestore, cfg.FakeMaxProfiles),
		store:    "firestore",
		closer:   clients,
	}
	if useFirebaseAuth {
		b.auth = auth.NewFirebaseAuthenticator(clients.Auth, cfg.FirebaseAPIKey)
	} else {
		authn := auth.NewStaticAuthenticator(auth.DefaultTokenTTL)
		if cfg.HasCredentials() {
			authn.AddAccount(cfg.Email, cfg.Password)
		}
		b.auth = authn
	}
	return b, nil
}

func newServer(cfg config.Config, b *backends) *http.Server {
	handler := routes.NewRouter(routes.Deps{
		Auth:     b.auth,
		Profiles: b.profiles,
		Store:    b.store,
		Version:  Version,
	})
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    64 << 10,
	}
}

func main() {
	defer func() {
		if err := applog.Sync(); err != nil {
			applog.LogError(context.Background(), "logger sync error", err)
		}
	}()
	if err := applog.Err(); err != nil {
		applog.LogError(context.Background(), "logger init error", err)
	}

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		applog.LogError(ctx, "invalid configuration", err)
		os.Exit(1)
	}
	if !cfg.HasCredentials() && cfg.FirebaseAPIKey == "" {
		applog.LogWarn(ctx, "TEST_EMAIL/TEST_PASSWORD not set; no account can sign in")
	}

	b, err := newBackends(ctx, cfg)
	if err != nil {
		applog.LogError(ctx, "backend init failed", err)
		os.Exit(1)
	}
	defer func() {
		if err := b.closer.Close(); err != nil {
			applog.LogError(ctx, "backend close error", err)
		}
	}()

	srv := newServer(cfg, b)
	listenErr := make(chan error, 1)
	go func() {
		applog.LogInfo(ctx, "gateway simulator listening",
			zap.String("addr", srv.Addr),
			zap.String("store", b.store),
			zap.Int("maxProfiles", cfg.FakeMaxProfiles),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-listenErr:
		applog.LogError(ctx, "listen failed", err, zap.String("addr", srv.Addr))
		return
	case <-stop:
		applog.LogInfo(ctx, "shutdown signal received")
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		applog.LogError(shutdownCtx, "server shutdown error", err)
	}
	applog.LogInfo(ctx, "server exited")
}
