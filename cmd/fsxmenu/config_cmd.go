// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/fsxmenu/internal/config"
)

func runConfigCLI(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage(stderr)
		return 0
	}

	switch args[0] {
	case "init":
		return runConfigInit(args[1:], stdout, stderr)
	case "validate":
		return runConfigValidate(args[1:], stdout, stderr)
	case "dump":
		return runConfigDump(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage(stderr)
		return 2
	}
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  fsxmenu config init [--file|-f fsxmenu.yaml] [--force]")
	fmt.Fprintln(w, "  fsxmenu config validate [--file|-f fsxmenu.yaml]")
	fmt.Fprintln(w, "  fsxmenu config dump [--file|-f fsxmenu.yaml]")
}

// defaultConfigFile is where init writes when no file is named.
func defaultConfigFile() string {
	if p := strings.TrimSpace(os.Getenv(config.EnvConfigPath)); p != "" {
		return p
	}
	root := strings.TrimSpace(os.Getenv(config.EnvRoot))
	if root == "" {
		root = "."
	}
	return filepath.Join(root, "fsxmenu.yaml")
}

func fileFlags(name string, stderr io.Writer) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var file string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	return fs, &file
}

func runConfigInit(args []string, stdout, stderr io.Writer) int {
	fs, file := fileFlags("fsxmenu config init", stderr)
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	path := strings.TrimSpace(*file)
	if path == "" {
		path = defaultConfigFile()
	}
	if err := config.WriteDefault(path, *force); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "wrote %s\n", path)
	return 0
}

func runConfigValidate(args []string, stdout, stderr io.Writer) int {
	fs, file := fileFlags("fsxmenu config validate", stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	path := resolveConfigPath(*file)

	if _, err := config.NewLoader(path, version).Load(); err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", describe(path), err)
		return 1
	}
	fmt.Fprintf(stdout, "%s is valid\n", describe(path))
	return 0
}

func runConfigDump(args []string, stdout, stderr io.Writer) int {
	fs, file := fileFlags("fsxmenu config dump", stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	path := resolveConfigPath(*file)

	cfg, err := config.NewLoader(path, version).Load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", describe(path), err)
		return 1
	}
	out, err := config.Marshal(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	_, _ = stdout.Write(out)
	return 0
}

func describe(path string) string {
	if path == "" {
		return "environment configuration"
	}
	return path
}
