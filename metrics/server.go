package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sourcegraph/conc"
)

const maxRequestsInFlight = 16

// Server exposes the prometheus registry over HTTP at /metrics.
type Server struct {
	srv      *http.Server
	listener net.Listener
}

func NewServer(gatherer stdprometheus.Gatherer, registerer stdprometheus.Registerer, listener net.Listener) *Server {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.InstrumentMetricHandler(
		registerer, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{MaxRequestsInFlight: maxRequestsInFlight}),
	)).Methods(http.MethodGet)
	return &Server{
		srv: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 30 * time.Second,
		},
		listener: listener,
	}
}

// Run serves until ctx is done, then shuts the server down.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error)
	defer close(errCh)
	var wg conc.WaitGroup
	defer wg.Wait()
	wg.Go(func() {
		if err := s.srv.Serve(s.listener); !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serve: %v", err)
		}
	})
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if err := s.srv.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("shutdown: %v", err)
		}
	}
	return nil
}
