package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"collab-server/config"
	"collab-server/core"
	"collab-server/handlers/api/documents"
	"collab-server/handlers/api/rooms"
	"collab-server/handlers/api/whiteboards"
	"collab-server/handlers/websocket"
	"collab-server/pkg/metrics"
	appmiddleware "collab-server/pkg/middleware"
	"collab-server/stores"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// isAllowedOrigin accepts the configured frontend plus any loopback origin.
// url.Hostname strips the brackets from IPv6 literals, so the bare "::1" is
// what an http://[::1]:5173 origin parses to.
func isAllowedOrigin(origin, frontendURL string) bool {
	if origin == "" {
		return false
	}
	if origin == frontendURL {
		return true
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch parsed.Scheme {
	case "http", "https":
		switch parsed.Hostname() {
		case "localhost", "127.0.0.1", "::1":
			return true
		}
	}
	return false
}

func setupRouter(cfg *config.Config, docStore core.DocumentStore, wbStore core.WhiteboardStore, collab *websocket.Collab) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	corsOptions := cors.Options{
		AllowedOrigins: []string{cfg.FrontendURL},
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			return isAllowedOrigin(origin, cfg.FrontendURL)
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	r.Use(cors.Handler(corsOptions))

	r.Route("/api", func(r chi.Router) {
		r.Use(appmiddleware.RateLimit(50, 100))

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", documents.HandleList(docStore))
			r.Post("/", documents.HandleCreate(docStore))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", documents.HandleGet(docStore))
				r.Delete("/", documents.HandleDelete(docStore, collab))
			})
		})

		r.Route("/whiteboards", func(r chi.Router) {
			r.Get("/", whiteboards.HandleList(wbStore))
			r.Post("/", whiteboards.HandleCreate(wbStore))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", whiteboards.HandleGet(wbStore))
				r.Delete("/", whiteboards.HandleDelete(wbStore, collab))
			})
		})

		r.Get("/rooms", rooms.HandleList(collab))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "OK"})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

func waitForShutdown(collab *websocket.Collab) {
	exit := make(chan struct{})
	signalC := make(chan os.Signal, 1)

	signal.Notify(signalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range signalC {
			switch s {
			case os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	collab.Close()
	os.Exit(0)
}

func main() {
	cfg := config.Load()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}
	logrus.SetLevel(level)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	docStore, wbStore := stores.GetStore(context.Background(), cfg)
	collab := websocket.New(docStore, wbStore, cfg.FrontendURL)

	r := setupRouter(cfg, docStore, wbStore, collab)
	r.Handle("/socket.io/", collab.Server().ServeHandler(nil))

	addr := ":" + cfg.Port
	logrus.WithFields(logrus.Fields{
		"addr":     addr,
		"frontend": cfg.FrontendURL,
	}).Info("starting server")
	go func() {
		if err := http.ListenAndServe(addr, r); err != nil {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	waitForShutdown(collab)
}
