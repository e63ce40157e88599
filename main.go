package main

import (
	"flag"
	"fmt"
	"os"

	"trwlexporter/internal/di"
	"trwlexporter/internal/structures"
)

func main() {
	flags := &structures.CliFlags{}
	flag.StringVar(&flags.ConfigPath, "c", "config.yaml", "path to the yaml config file")
	flag.BoolVar(&flags.DebugMode, "d", false, "enable debug mode (console logging)")
	flag.Parse()

	_, err := di.InitApp(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %s\n", err)
		os.Exit(1)
	}
}
