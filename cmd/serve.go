package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"costbook/handlers"
	"costbook/middleware"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a := newApp(cfg)
	a.start()
	defer a.close()

	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerSecond))

	var history handlers.QuoteHistory
	if a.quotes != nil {
		history = a.quotes
	}
	handlers.NewHandlers(a.session, history).Register(r)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("🌐 Server starting on %s", cfg.Addr())
	log.Printf("📋 API:")
	log.Printf("   POST   /api/v1/project - Start a project")
	log.Printf("   POST   /api/v1/project/items - Add an item by link or name")
	log.Printf("   GET    /api/v1/project - Project rows and total")
	log.Printf("   GET    /api/v1/project/export?format=xlsx|csv|pdf - Export")
	log.Printf("   POST   /api/v1/resolve - Resolve a price now")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-stop:
		log.Println("🛑 Shutting down...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
