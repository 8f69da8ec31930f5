package main

import (
	"collab-server/core"
	"collab-server/handlers/api/rooms"
	"collab-server/handlers/websocket"
	"collab-server/stores"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func setupRouter(store core.RoomStore, hub *websocket.Hub) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           300,
	}
	r.Use(cors.Handler(corsOptions))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	r.Route("/rooms", func(r chi.Router) {
		r.Post("/", rooms.HandleCreate(store))
		r.Get("/", rooms.HandleList(store))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", rooms.HandleGet(store))
			r.Patch("/", rooms.HandleUpdate(store))
		})
	})

	r.Get("/ws/rooms/{id}", hub.ServeWS)

	return r
}

func waitForShutdown(server *http.Server, hub *websocket.Hub) {
	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-signalC

	logrus.Info("Shutting down...")
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logrus.WithField("error", err).Error("Server shutdown failed")
	}
}

func main() {
	logLevel := flag.String("loglevel", "info", "Set the logging level: debug, info, warn, error, fatal, panic")
	listenAddr := flag.String("listen", ":3002", "Set the server listen address")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file loaded")
	}

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}
	logrus.SetLevel(level)

	store := stores.GetStore()
	hub := websocket.NewHub(store)
	r := setupRouter(store, hub)

	server := &http.Server{
		Addr:    *listenAddr,
		Handler: r,
	}

	go func() {
		logrus.WithField("addr", *listenAddr).Info("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	waitForShutdown(server, hub)
}
