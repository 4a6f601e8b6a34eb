package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/aussiebroadwan/postboard/internal/postboard/cli"
)

func main() {
	// A .env file is optional; real environment variables take precedence.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, nil, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	os.Exit(code)
}
