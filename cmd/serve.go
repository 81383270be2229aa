package cmd

import (
	"github.com/emrgen/notebook/internal/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "serve",
		Short: "start the notebook server",
		Long:  "start the http api and the background jobs, configured by notebook.yaml and NOTEBOOK_* variables",
		Run: func(cmd *cobra.Command, args []string) {
			if err := server.Start(); err != nil {
				logrus.Fatalf("error starting server: %v", err)
			}
		},
	}

	return command
}
