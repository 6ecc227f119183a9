package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	inframcp "github.com/felixgeelhaar/prdreview/internal/infrastructure/mcp"
	"github.com/spf13/cobra"
)

var (
	mcpTransport string
	mcpAddr      string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the PRD review MCP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices(cmd)
		if err != nil {
			return err
		}
		defer services.Close()

		server, err := inframcp.NewServer(services)
		if err != nil {
			return MapError(fmt.Errorf("failed to initialize server: %w", err))
		}

		if os.Getenv("PRDREVIEW_SKIP_MCP_START") == "true" {
			return nil
		}

		addr := mcpAddr
		if addr == "" {
			addr = services.Config.MCP.Addr
		}
		transport := strings.ToLower(mcpTransport)
		if transport == "websocket" {
			transport = inframcp.TransportWS
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := server.Serve(ctx, transport, addr); err != nil && !errors.Is(err, context.Canceled) {
			return NewCLIError("mcp server stopped", "Use --transport stdio, http or ws", err)
		}
		return nil
	},
}

var openapiCmd = &cobra.Command{
	Use:   "openapi",
	Short: "Generate an OpenAPI 3.0 document from the MCP tool registrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices(cmd)
		if err != nil {
			return err
		}
		defer services.Close()

		srv, err := inframcp.NewServer(services)
		if err != nil {
			return MapError(fmt.Errorf("failed to initialize server: %w", err))
		}

		data, err := srv.OpenAPI()
		if err != nil {
			return MapError(fmt.Errorf("failed to generate OpenAPI document: %w", err))
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	mcpCmd.Flags().StringVar(&mcpTransport, "transport", inframcp.TransportStdio, "Transport to use (stdio, http, ws)")
	mcpCmd.Flags().StringVar(&mcpAddr, "addr", "", "Address for http/ws transports (default from config mcp.addr)")
	mcpCmd.AddCommand(openapiCmd)
	RootCmd.AddCommand(mcpCmd)
}
