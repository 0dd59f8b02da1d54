package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"neuroscreen/internal/config"
	"neuroscreen/internal/models"
	"neuroscreen/internal/repository"
	"neuroscreen/internal/router"
	"neuroscreen/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assessment JSON API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	conf, v, log, err := bootstrap(true)
	if err != nil {
		return err
	}
	defer log.Sync()

	// Install the configuration globally and watch it for edits.
	config.Watch(conf, v, log)

	// Load assessment questions at startup
	assessment, err := models.LoadAssessment(conf.Assessment.QuestionsPath)
	if err != nil {
		log.Error("Failed to load assessment", zap.Error(err))
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := repository.NewStore(assessment, log)
	sweeper := services.NewSweeper(log, store, func() (time.Duration, time.Duration) {
		live := config.Get()
		return live.Server.SweepInterval, live.Server.SessionTTL
	})
	sweeper.Start(ctx)
	defer func() {
		stop()
		sweeper.Wait()
	}()

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              ":" + conf.Server.Port,
		Handler:           router.Setup(log, store, conf),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening on http://localhost:" + conf.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Failed to run server", zap.Error(err))
			return err
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
