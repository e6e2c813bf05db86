package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AmyLu0828/the-resume-hub/internal/compile"
	"github.com/AmyLu0828/the-resume-hub/internal/polish"
	"github.com/AmyLu0828/the-resume-hub/internal/server"
	"github.com/AmyLu0828/the-resume-hub/internal/server/ratelimit"
	"github.com/AmyLu0828/the-resume-hub/templates"
)

var (
	servePort    int
	serveOffline bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the generation, compilation and polishing endpoints used by the resume editor.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides server.port)")
	serveCmd.Flags().BoolVar(&serveOffline, "offline", false, "Do not call the language model; always use the manual layout")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := appConfig
	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newLLMClient(ctx, cfg, serveOffline)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	deps := server.Deps{
		Template: templates.Source(cfg.Template.Path),
		Renderer: newRenderer(client),
		Compiler: newCompiler(cfg),
		Polisher: polish.New(client, cfg.Polish.Timeout),
		Store:    st,
	}
	if cfg.Storage.Bucket != "" {
		uploader, err := newPDFStore(ctx, cfg)
		if err != nil {
			st.Close()
			return err
		}
		deps.Uploader = uploader
	}

	srv, err := server.New(server.Config{
		Port:             cfg.Server.Port,
		CORSOrigins:      cfg.Server.CORSOrigins,
		RenderTimeout:    cfg.Render.Timeout,
		RequiredPackages: cfg.RequiredPackages,
		RateLimit:        ratelimit.NewConfig(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		Toolchain:        compile.Toolchain,
		DocumentTTL:      cfg.Server.DocumentTTL,
	}, deps)
	if err != nil {
		st.Close()
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}
