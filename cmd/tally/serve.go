package main

import (
	"github.com/spf13/cobra"

	"tally/api"
)

// newServeCommand creates the serve subcommand, which exposes the engine
// over HTTP until interrupted.
func newServeCommand() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the tally HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = cfg.Port
			}
			server := api.NewServer(api.ServerOptions{Port: port})
			return server.Start()
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on")
	return cmd
}
