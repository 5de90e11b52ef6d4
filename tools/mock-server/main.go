// Package main runs a mock Mercado Livre API server for local development.
// It serves the OAuth2 token endpoint with refresh token rotation and a few
// bearer-protected resources, so the CLI can be exercised without real
// application credentials.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/donaldgifford/meli-client/internal/mockapi"
)

type options struct {
	port         int
	clientID     string
	clientSecret string
	refreshToken string
	code         string
	redirectURI  string
	tokenTTL     time.Duration
}

func main() {
	opts := options{}
	flag.IntVar(&opts.port, "port", 8089, "port to listen on")
	flag.StringVar(&opts.clientID, "client-id", mockapi.DefaultClientID, "accepted client_id")
	flag.StringVar(&opts.clientSecret, "client-secret", mockapi.DefaultClientSecret, "accepted client_secret")
	flag.StringVar(&opts.refreshToken, "refresh-token", mockapi.DefaultRefreshToken, "additional valid refresh token")
	flag.StringVar(&opts.code, "code", "TG-mock-code", "single-use authorization code")
	flag.StringVar(&opts.redirectURI, "redirect-uri", "http://localhost:8089/callback", "redirect_uri bound to -code")
	flag.DurationVar(&opts.tokenTTL, "token-ttl", mockapi.DefaultTokenTTL, "lifetime of issued access tokens")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	srv := newServer(opts, logger)
	logger.Info("starting mock marketplace server", "addr", srv.Addr, "client_id", opts.clientID)

	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newServer(opts options, logger *slog.Logger) *http.Server {
	api := mockapi.New(
		mockapi.WithClient(opts.clientID, opts.clientSecret),
		mockapi.WithRefreshToken(opts.refreshToken),
		mockapi.WithAuthorizationCode(opts.code, opts.redirectURI),
		mockapi.WithTokenTTL(opts.tokenTTL),
		mockapi.WithLogger(logger),
	)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.port),
		Handler:      api.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}
