package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/climatologylab/labsite/internal/config"
	"github.com/climatologylab/labsite/internal/database"
	"github.com/climatologylab/labsite/internal/logging"
	"github.com/climatologylab/labsite/internal/mail"
	"github.com/climatologylab/labsite/internal/media"
	"github.com/climatologylab/labsite/internal/model"
	"github.com/climatologylab/labsite/internal/server"
	"github.com/climatologylab/labsite/internal/session"
	"github.com/climatologylab/labsite/internal/store"
)

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.App.LogLevel)

	db, err := database.Open(cfg.App.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if len(os.Args) > 1 && os.Args[1] == "createuser" {
		if err := createUser(store.NewUserStore(db), os.Args[2:]); err != nil {
			slog.Error("failed to create user", "error", err)
			os.Exit(1)
		}
		return
	}

	sessionStore := session.NewStore(store.NewSessionStore(db), cfg.Auth.SessionTTL, []byte(cfg.App.SessionSecret))
	sessionStore.Options.Secure = cfg.App.SecureCookies

	sender, err := mail.New(cfg.Mail, logger.With("component", "mail"))
	if err != nil {
		slog.Error("failed to configure mail", "error", err)
		os.Exit(1)
	}

	storage, err := media.New(context.Background(), cfg.Storage, logger.With("component", "media"))
	if err != nil {
		slog.Error("failed to configure media storage", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var origins []string
	if u, err := url.Parse(cfg.App.BaseURL); err == nil && u.Host != "" {
		origins = []string{u.Host}
	}

	srv, err := server.New(db, server.Options{
		SiteName:       cfg.App.Name,
		AdminEmail:     cfg.App.AdminEmail,
		IdleTimeout:    cfg.Auth.DashboardIdleTimeout,
		ResetCodeTTL:   cfg.Auth.ResetCodeTTL,
		ResetAllowed:   cfg.Auth.AllowsReset,
		OriginPatterns: origins,
		TrustedProxies: cfg.App.TrustedProxies,
		Sessions:       session.NewManager(sessionStore),
		Mail:           sender,
		Storage:        storage,
		Registry:       reg,
	}, logger)
	if err != nil {
		slog.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              cfg.App.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					slog.Error("cleanup expired sessions", "error", err)
				} else if n > 0 {
					slog.Info("cleaned up expired sessions", "count", n)
				}
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("labsite starting", "addr", httpServer.Addr, "base_url", cfg.App.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	srv.Hub().Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

// createUser adds a dashboard account:
//
//	labsite createuser -email lab@example.edu -username lab -role faculty
//
// The password is read from LABSITE_NEW_PASSWORD so it stays out of shell
// history.
func createUser(users *store.UserStore, args []string) error {
	fs := flag.NewFlagSet("createuser", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	username := fs.String("username", "", "login name")
	role := fs.String("role", model.RoleEditor, "faculty or editor")
	if err := fs.Parse(args); err != nil {
		return err
	}

	password := os.Getenv("LABSITE_NEW_PASSWORD")
	switch {
	case *email == "" || *username == "":
		return errors.New("-email and -username are required")
	case password == "":
		return errors.New("LABSITE_NEW_PASSWORD is not set")
	case *role != model.RoleFaculty && *role != model.RoleEditor:
		return fmt.Errorf("unknown role %q", *role)
	}

	u, err := users.Create(*email, *username, password, *role)
	if err != nil {
		return err
	}
	slog.Info("user created", "id", u.ID, "username", u.Username, "role", u.Role)
	return nil
}
