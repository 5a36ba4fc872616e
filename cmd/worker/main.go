package main

import (
	"flag"
	"log"

	"github.com/postcode-matcher/app/config"
	"github.com/postcode-matcher/cmd"
)

var Version = "development"

func main() {
	configFile := flag.String("config", "", "config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cmd.Work(Version, cfg); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
