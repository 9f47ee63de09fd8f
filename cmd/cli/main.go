package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ayurlekha/ayurlekha/internal/buildinfo"
	"github.com/ayurlekha/ayurlekha/internal/client/cli"
	"github.com/ayurlekha/ayurlekha/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)
}
