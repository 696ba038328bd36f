package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tsawler/timetable/internal/server"
)

func serveCmd(env *environment) *cobra.Command {
	opts := server.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the schedule converter over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.config()
			if err != nil {
				return err
			}
			srv, err := server.New(cfg, opts, env.logger())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&opts.Addr, "addr", opts.Addr, "listen address")
	cmd.Flags().Int64Var(&opts.MaxUploadBytes, "max-upload", opts.MaxUploadBytes, "maximum upload size in bytes")
	cmd.Flags().StringSliceVar(&opts.AllowedOrigins, "cors-origin", opts.AllowedOrigins, "allowed CORS origins")
	cmd.Flags().Float64Var(&opts.RequestsPerSecond, "rate", opts.RequestsPerSecond, "sustained uploads per second")
	cmd.Flags().IntVar(&opts.Burst, "burst", opts.Burst, "upload burst size")
	return cmd
}
