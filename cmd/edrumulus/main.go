package main

import (
	"flag"

	"github.com/thijstriemstra/edrumulus"
)

func main() {
	configPath := flag.String("config", "", "path to the pads configuration file")
	flag.Parse()

	edrumulus.Main(*configPath)
}
