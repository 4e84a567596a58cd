package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"whitkirk-services/internal/youtube"
)

const callbackPath = "/callback"

// Auth runs the OAuth consent flow for the channel account and stores the token.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.ValidateYouTube(); err != nil {
		return err
	}
	secrets, closeSecrets, err := r.secrets(ctx)
	if err != nil {
		return err
	}
	defer closeSecrets()

	oauthConfig, err := youtube.LoadOAuthConfig(ctx, secrets)
	if err != nil {
		return err
	}
	addr := r.config.YouTube.AuthListenAddr
	oauthConfig.RedirectURL = "http://" + addr + callbackPath

	handler := youtube.NewCallbackHandler(oauthConfig, uuid.NewString())
	router := chi.NewRouter()
	router.Get(callbackPath, handler.ServeHTTP)

	srv := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	r.writePlain("Open this URL in a browser signed in to the channel account:\n\n%s\n\n", handler.AuthCodeURL())
	r.logger.Info("waiting for authorization", "addr", addr)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-serveErr:
		return fmt.Errorf("callback server: %w", err)
	case res := <-handler.Result():
		if res.Err != nil {
			return res.Err
		}
		if err := youtube.SaveToken(ctx, secrets, res.Token); err != nil {
			return err
		}
	}

	r.logger.Info("token saved")
	return nil
}

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Authorize access to the YouTube channel",
		Action: r.Auth,
	}
}
