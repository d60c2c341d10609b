package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Raja-karthikeya-137/ticketing-system/api"
	"github.com/Raja-karthikeya-137/ticketing-system/config"
	"github.com/Raja-karthikeya-137/ticketing-system/internal/service/booking"
	"github.com/Raja-karthikeya-137/ticketing-system/internal/service/issuance"
	"github.com/gin-gonic/gin"
)

// ReadinessCheck reports whether the backing store is reachable. It gates
// the health endpoint so load balancers stop routing when the store is down.
type ReadinessCheck func(ctx context.Context) error

// Run starts the HTTP server and blocks until the context is canceled or
// the server fails.
func Run(ctx context.Context, cfg *config.Config, issuanceSvc issuance.IssuanceUseCase, bookingSvc booking.BookingUseCase, ready ReadinessCheck) error {
	router := newRouter(issuanceSvc, bookingSvc, ready)

	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newRouter(issuanceSvc issuance.IssuanceUseCase, bookingSvc booking.BookingUseCase, ready ReadinessCheck) *gin.Engine {
	router := gin.Default()

	passHandler := api.NewPassHandler(issuanceSvc, bookingSvc)
	ticketHandler := api.NewTicketHandler(bookingSvc)

	passHandler.Register(router.Group("/api/passes"))
	ticketHandler.Register(router.Group("/api/tickets"))

	router.GET("/healthz", func(c *gin.Context) {
		if ready != nil {
			checkCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ready(checkCtx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "store unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
