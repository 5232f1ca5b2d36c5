package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kakao/partnersso/adapters/kauth"
	"github.com/kakao/partnersso/adapters/tokenizer"
	"github.com/kakao/partnersso/service"
	transporthttp "github.com/kakao/partnersso/transport/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the SSO API for local apps",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.HTTP.ClientSecret == "" {
			return errors.New("http.client_secret is required to serve")
		}
		if cfg.Kauth.ClientID == "" {
			return errors.New("kauth.client_id is required to serve")
		}

		a, err := buildAgent(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer func() {
			_ = a.Close()
		}()

		tokenURL := cfg.Kauth.TokenURL
		if tokenURL == "" {
			tokenURL = kauth.TokenURL(cfg.DeploymentPhase())
		}
		exchanger := kauth.NewExchanger(tokenURL, cfg.Kauth.ClientID, cfg.Kauth.BundleID)
		login := service.NewLoginService(a.provider, exchanger, log.Logger.With().Str("component", "login").Logger())
		tk := tokenizer.NewJWTTokenizer([]byte(cfg.HTTP.ClientSecret), cfg.HTTP.ClientTokenTTL)

		gin.SetMode(gin.ReleaseMode)
		server := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           transporthttp.SetupRouter(a.provider, login, tk, log.Logger.With().Str("component", "http").Logger()),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			log.Info().Msgf("Starting server on %s...", cfg.HTTP.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("server failed")
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Info().Msg("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	},
}
