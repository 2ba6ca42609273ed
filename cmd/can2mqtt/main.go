package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/canctl/internal/bridge"
	"github.com/danmuck/canctl/internal/config"
	"github.com/danmuck/canctl/internal/logging"
)

func main() {
	configPath := flag.String("config", "bridge.toml", "path to the bridge config file")
	flag.Parse()

	logging.ConfigureRuntime()

	cfg, err := config.LoadBridgeConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	serviceCfg, err := config.ServiceConfig(cfg)
	if err != nil {
		fatal(err)
	}

	if err := bridge.NewService(serviceCfg).Run(); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "can2mqtt: %v\n", err)
	os.Exit(1)
}
