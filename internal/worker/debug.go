package worker

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/pagectl/internal/observability"
)

// serveDebug exposes a loopback operator surface: health, live status, and
// prometheus metrics. It runs beside the control socket and never handles
// control-plane traffic.
func (s *Service) serveDebug(ctx context.Context, addr string) error {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	startedAt := time.Now()
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": time.Since(startedAt).String(),
			"name":   s.cfg.Name,
		})
	})
	r.GET("/status", func(c *gin.Context) {
		rec := s.server.Record()
		c.JSON(http.StatusOK, gin.H{
			"instance":        rec,
			"target":          s.sess.Target(),
			"queue_depth":     s.server.queue.Depth(),
			"console_entries": s.server.Console().Len(),
			"error_entries":   s.server.Errors().Len(),
		})
	})
	r.GET("/events", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"events": s.server.SearchEvents(c.Query("q")),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpServer := &http.Server{Addr: addr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("worker debug listener up")
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
