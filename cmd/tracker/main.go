package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mklimuk/job-pilot/pkg/app"
	"github.com/mklimuk/job-pilot/pkg/cli"
	"github.com/mklimuk/job-pilot/pkg/config"
	"github.com/mklimuk/job-pilot/pkg/logging"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Usage = func() {
		cli.New(config.Default(), nil, nil).Run(context.Background(), []string{"help"})
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	log := logging.NewConsole(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.New(cfg, app.OpenStore(cfg, log), log).Run(ctx, flag.Args())
	stop()
	log.Sync()
	os.Exit(code)
}
