package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"axiloop/config"
)

func main() {
	cli := parseArgs(os.Args[1:])

	cfg := config.LoadConfigOrDefault()
	if cli.Config != "" {
		var err error
		cfg, err = config.Load(cli.Config)
		checkf(err, "failed to load configuration %s", cli.Config)
	}

	switch cli.mode {
	case loopbackMode:
		loopbackMain(cli.Loopback, cfg)
	case streamMode:
		streamMain(cli.Stream, cfg)
	case viewMode:
		viewMain(cli.View, cfg)
	case mosaicMode:
		mosaicMain(cli.Mosaic, cfg)
	case filterMode:
		filterMain(cli.Filter, cfg)
	case initConfigMode:
		initConfigMain(cli.InitConfig, cli.Config)
	case versionMode:
		printVersion()
	}
}

func initConfigMain(args InitConfig, path string) {
	if path == "" {
		path = config.DefaultPath()
	}
	if _, err := os.Stat(path); err == nil && !args.Force {
		fatalf("%s already exists (use --force to overwrite)", path)
	}
	checkf(config.Save(path, config.Default()), "failed to write configuration")
	fmt.Println("configuration written to", path)
}

func printVersion() {
	version := "(devel)"
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		version = bi.Main.Version
	}
	fmt.Println("axiloop", version)
}
