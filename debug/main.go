package main

import (
	"os"

	"github.com/emrgen/notebook/internal/server"
	"github.com/sirupsen/logrus"
)

func main() {
	if os.Getenv("NOTEBOOK_HTTP_PORT") == "" {
		_ = os.Setenv("NOTEBOOK_HTTP_PORT", "4001")
	}
	if os.Getenv("NOTEBOOK_LOG_LEVEL") == "" {
		_ = os.Setenv("NOTEBOOK_LOG_LEVEL", "debug")
	}

	if err := server.Start(); err != nil {
		logrus.Fatalf("error starting server: %v", err)
	}
}
