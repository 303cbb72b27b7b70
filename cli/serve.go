package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github/itish2003/pdfqa/controller"
	"github/itish2003/pdfqa/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if dir := a.cfg.InboxDir; dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		indexer := services.NewFileIndexingService(a.rag)
		go func() {
			indexer.ScanAndIndexDirectory(ctx, dir)
			indexer.WatchDirectory(ctx, dir)
		}()
	}

	router := controller.SetupRouter(controller.NewRAGController(a.rag), controller.NewDebugController(a.rag))
	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	port := a.cfg.Port
	log.Printf("Go Gin backend server starting on http://localhost:%s", port)
	log.Printf("Health check available at: http://localhost:%s/health", port)
	log.Printf("API endpoints:")
	log.Printf("  POST http://localhost:%s/api/v1/upload", port)
	log.Printf("  POST http://localhost:%s/api/v1/ask", port)
	log.Printf("  POST http://localhost:%s/api/v1/summarize", port)
	log.Printf("  GET  http://localhost:%s/api/v1/session/:session_id", port)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
