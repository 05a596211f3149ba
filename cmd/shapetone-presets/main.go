package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/shapetone/shapetone/catalog"
	"github.com/shapetone/shapetone/config"
	"github.com/shapetone/shapetone/version"
)

func main() {
	configFile := flag.String("config", "", "read the configuration from `file` instead of the user config directory")
	dir := flag.String("dir", "", "load user presets from `directory` instead of the configured one")
	builtin := flag.Bool("builtin", false, "list only the built-in presets")
	validate := flag.Bool("validate", false, "validate the presets instead of listing them; exit status is 1 on problems")
	export := flag.String("export", "", "write the preset with the given `id` to standard output")
	versionFlag := flag.Bool("v", false, "print version")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	var presets *catalog.Catalog
	var err error
	if *builtin {
		presets, err = catalog.Builtin()
	} else {
		userDir := *dir
		if userDir == "" {
			cfg, err := config.Load(*configFile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
				os.Exit(1)
			}
			userDir = cfg.UserPresetDir()
		}
		presets, err = catalog.Load(userDir)
	}
	if presets == nil {
		fmt.Fprintf(os.Stderr, "could not load presets: %v\n", err)
		os.Exit(1)
	}
	retval := 0
	if err != nil {
		fmt.Fprintf(os.Stderr, "some presets could not be read: %v\n", err)
		retval = 1
	}
	switch {
	case *export != "":
		p, ok := presets.Preset(*export)
		if !ok {
			fmt.Fprintf(os.Stderr, "no preset %q\n", *export)
			os.Exit(1)
		}
		if err := catalog.Encode(os.Stdout, p); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	case *validate:
		if err := presets.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			retval = 1
		} else {
			fmt.Printf("%d presets ok\n", presets.Len())
		}
	default:
		if err := catalog.Report(os.Stdout, presets); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			retval = 1
		}
	}
	os.Exit(retval)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Shapetone command line utility for listing, validating and exporting instrument presets.\nUsage: %s [flags]\n", os.Args[0])
	flag.PrintDefaults()
}
