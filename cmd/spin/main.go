// Package main resolves a single round offline and prints it as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/cory-johannsen/wheels/internal/config"
	"github.com/cory-johannsen/wheels/internal/game/dice"
	"github.com/cory-johannsen/wheels/internal/game/round"
	"github.com/cory-johannsen/wheels/internal/game/wheel"
	"github.com/cory-johannsen/wheels/internal/observability"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "spin: %v\n", err)
		os.Exit(1)
	}
}

// run parses args, resolves one round, and writes the state JSON to stdout
// followed by the replacement message when -replace is given. With
// -dump-wheels it writes the active wheel definitions as YAML instead.
func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("spin", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cheat := fs.Bool("cheat", false, "the player cheated last round")
	win := fs.Bool("win", false, "the player won last round")
	seed := fs.Int64("seed", 0, "seed for a reproducible round (0 = crypto source)")
	wheelsFile := fs.String("wheels", "", "path to a wheels YAML file (default: built-in wheels)")
	replace := fs.String("replace", "", "wheel to re-roll with the Replacement wheel")
	verbose := fs.Bool("v", false, "log every draw to stderr")
	dump := fs.Bool("dump-wheels", false, "print the wheel definitions as YAML and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	registry := wheel.DefaultRegistry()
	if *wheelsFile != "" {
		if registry, err = wheel.LoadRegistry(*wheelsFile); err != nil {
			return err
		}
	}

	if *dump {
		data, err := wheel.MarshalRegistry(registry)
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	}

	var src dice.Source = dice.NewCryptoSource()
	if *seed != 0 {
		src = dice.NewSeededSource(*seed)
	}
	engine := round.NewEngine(registry, dice.NewLoggedPicker(dice.NewPicker(src), logger), logger)

	st, err := engine.Resolve(*cheat, *win)
	if err != nil {
		return fmt.Errorf("resolving round: %w", err)
	}
	var msg string
	if *replace != "" {
		if st, msg, err = engine.ApplyReplacement(st, *replace); err != nil {
			return fmt.Errorf("applying replacement: %w", err)
		}
	}

	out, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding round: %w", err)
	}
	if _, err := fmt.Fprintln(stdout, string(out)); err != nil {
		return err
	}
	if msg != "" {
		_, err = fmt.Fprintln(stdout, msg)
	}
	return err
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	return observability.NewLogger(config.LoggingConfig{Level: "debug", Format: "console"}, "spin")
}
