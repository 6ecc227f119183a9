package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/prdreview/internal/infrastructure/stream"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the review session over HTTP with SSE and WebSocket updates",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices(cmd)
		if err != nil {
			return err
		}
		defer services.Close()

		addr := serveAddr
		if addr == "" {
			addr = services.Config.Server.Addr
		}

		srv := stream.NewServer(addr, services.Session, services.Client, services.Logger.Named("stream"))
		fmt.Fprintf(cmd.OutOrStdout(), "Serving review session on %s (API %s)\n", addr, services.Client.BaseURL())
		fmt.Fprintln(cmd.OutOrStdout(), "  POST /api/review   GET /api/state   GET /events   GET /ws")

		if os.Getenv("PRDREVIEW_SKIP_SERVE_RUN") == "true" {
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			return NewCLIError("server stopped", "Check that the address is free", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config server.addr)")
	RootCmd.AddCommand(serveCmd)
}
