package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(store *Store) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, store.Status())
	})
	v1.GET("/tracks", func(c *gin.Context) {
		c.JSON(http.StatusOK, store.Tracks())
	})
	v1.GET("/tracks/:id", func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid track id"})
			return
		}
		for _, track := range store.Tracks() {
			if track.ID == id {
				c.JSON(http.StatusOK, track)
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
	})
	v1.GET("/summary", func(c *gin.Context) {
		c.JSON(http.StatusOK, store.Summaries())
	})
	return r
}

// Serve runs HTTP server until ctx is done
func Serve(ctx context.Context, log logs.Log, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("Status API listening on %v", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "Status API stopped")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "Can't shutdown status API")
		}
		return nil
	}
}
