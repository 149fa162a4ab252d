// FILE: lixenwraith/layered/cmd/watchdemo/main.go

// watchdemo tails a configuration key across a layered chain: edit the
// file while it runs and watch the resolved value change.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/lixenwraith/layered"
)

func main() {
	var (
		configPath   = pflag.String("config", "config.toml", "configuration file to watch")
		envPrefix    = pflag.String("env-prefix", "APP_", "environment variable prefix")
		key          = pflag.String("key", "server.port", "dotted key to watch")
		pollInterval = pflag.Duration("poll-interval", time.Second, "file poll interval")
		logLevel     = pflag.String("log-level", "info", "log level: debug, info, warn, error")
		allowMissing = pflag.Bool("allow-missing", true, "start even if the file does not exist yet")
	)
	pflag.Parse()

	logger := layered.NewLogger(os.Stderr, *logLevel)

	builder := layered.NewBuilder().
		WithArgs(pflag.Args()).
		WithEnvPrefix(*envPrefix).
		WithFile(*configPath).
		WithPollInterval(*pollInterval).
		WithChangeEvents().
		WithLogger(logger)
	if *allowMissing {
		builder = builder.WithAllowMissing()
	}

	reader, err := builder.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "watchdemo:", err)
		os.Exit(1)
	}
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("watching %q in %s (ctrl-c to stop)\n", *key, *configPath)
	for update := range reader.Watch(ctx, *key) {
		switch {
		case update.Err != nil:
			fmt.Printf("%s  error: %v\n", time.Now().Format(time.TimeOnly), update.Err)
		case update.Result.Value == nil:
			fmt.Printf("%s  %s = <absent>\n", time.Now().Format(time.TimeOnly), *key)
		default:
			fmt.Printf("%s  %s = %s\n", time.Now().Format(time.TimeOnly), *key, update.Result.Value)
		}
	}
}
