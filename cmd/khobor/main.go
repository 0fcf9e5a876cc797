package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adda-Baaj/khobor-search/internal/cli"
	"github.com/Adda-Baaj/khobor-search/internal/config"
	"github.com/Adda-Baaj/khobor-search/internal/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "khobor: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli.SetVersionInfo(version, commit, date)
	return cli.Execute(ctx, cli.Deps{
		LoadConfig: config.Load,
		NewLogger:  logger.Init,
		Out:        os.Stdout,
	}, os.Args[1:])
}
