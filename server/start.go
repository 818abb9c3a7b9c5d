package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jkaberg/puntbox/config"
	apphttp "github.com/jkaberg/puntbox/http"
)

const shutdownTimeout = 5 * time.Second

// StartServers serves the status API until ctx is cancelled.
func StartServers(ctx context.Context, src *apphttp.Sources, httpConf *config.HTTPGlobal) error {
	addr := fmt.Sprintf("%s:%d", httpConf.IP, httpConf.Port)
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("error initializing server: %w", err)
	}

	log.Info().Str("host", addr).Msg("starting webserver")
	return Serve(ctx, l, apphttp.NewRouter(src))
}

// Serve runs h on l and shuts it down gracefully once ctx is done.
func Serve(ctx context.Context, l net.Listener, h stdhttp.Handler) error {
	srv := &stdhttp.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan error, 1)
	go func() { done <- srv.Serve(l) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}

	if err := <-done; err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
		return err
	}

	return nil
}
