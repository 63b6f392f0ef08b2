package main

import (
	"AirQualityPrep/src/cli"
	"AirQualityPrep/src/config"
	"fmt"
	"os"
)

func main() {
	if err := cli.NewRootCmd(config.LoadConfig).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
