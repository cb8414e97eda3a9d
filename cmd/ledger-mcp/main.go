package main

import (
	"context"
	"fmt"
	"os"

	"pocketledger/internal/cli"
	"pocketledger/internal/log"
	"pocketledger/internal/tools"

	"github.com/mark3labs/mcp-go/server"
)

func main() {
	cli.LoadEnvFile()
	// stdout carries the MCP protocol; logs go to stderr.
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stderr).WithComponent(log.ComponentMCP)
	cfg := cli.LoadAndValidateConfig(logger)

	ledger, err := cli.OpenLedger(context.Background(), cfg, logger, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open ledger: %v\n", err)
		os.Exit(1)
	}
	defer ledger.Close()

	s := server.NewMCPServer(
		"pocketledger",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	tools.RegisterTools(s, ledger)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
