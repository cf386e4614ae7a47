package main

import (
	"context"
	"flag"
	"log"

	"github.com/dmitrijs2005/chirp/internal/client/cli"
)

func main() {
	cfg := &cli.Config{}
	flag.StringVar(&cfg.ServerURL, "a", "ws://localhost:8080/ws", "server websocket URL")
	flag.StringVar(&cfg.UserID, "u", "", "user id (e.g. you@example.com)")
	flag.StringVar(&cfg.DisplayName, "n", "", "display name for a new account")
	flag.Parse()

	if cfg.UserID == "" {
		log.Fatal("user id is required (-u)")
	}

	app := cli.NewApp(cfg)
	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}
}
