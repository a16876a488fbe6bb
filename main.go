package main

import (
	"cmp"
	"context"
	"os"
	"os/signal"

	"github.com/thepwagner/madison/pkg/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	configPath := cmp.Or(os.Getenv("MADISON_CONFIG"), server.DefaultConfigPath)
	if err := server.Run(ctx, configPath); err != nil {
		panic(err)
	}
}
