/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package cli provides the storagectl command definitions.
//
// Every command except version loads a config file, builds its storages and
// operates on the one named by --storage.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/suparena/modelstore"
	"github.com/suparena/modelstore/config"
	"github.com/suparena/modelstore/errors"
)

const runtimeKey = "runtime"

// App creates the storagectl application writing results to out.
func App(out io.Writer) *cli.App {
	info := modelstore.GetVersionInfo()
	return &cli.App{
		Name:    "storagectl",
		Usage:   "Inspect and edit the storages declared in a modelstore config",
		Version: info.String(),
		Writer:  out,
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			findCommand(),
			hasCommand(),
			listCommand(),
			flushCommand(),
			removeCommand(),
			clearCommand(),
			versionCommand(),
		},
		After: func(c *cli.Context) error {
			if rt, ok := c.App.Metadata[runtimeKey].(*config.Runtime); ok {
				return rt.Close()
			}
			return nil
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path of the storage config file",
			EnvVars: []string{"MODELSTORE_CONFIG"},
			Value:   "modelstore.yaml",
		},
		&cli.StringSliceFlag{
			Name:  "env-file",
			Usage: "Environment files loaded before the config (missing files are skipped)",
			Value: cli.NewStringSlice(".env"),
		},
		&cli.StringFlag{
			Name:    "storage",
			Aliases: []string{"s"},
			Usage:   "Name of the storage to operate on",
			EnvVars: []string{"MODELSTORE_STORAGE"},
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Log backend activity to stderr",
		},
	}
}

// target is the storage a command operates on.
type target struct {
	name    string
	storage modelstore.Storage
	model   modelstore.ModelType
}

func resolve(c *cli.Context) (*target, error) {
	name := c.String("storage")
	if name == "" {
		return nil, fmt.Errorf("--storage is required")
	}

	if err := config.LoadEnv(c.StringSlice("env-file")...); err != nil {
		return nil, err
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	rt, err := config.Build(c.Context, cfg, config.WithLogger(logger), config.WithRegisterer(nil))
	if err != nil {
		return nil, err
	}
	c.App.Metadata[runtimeKey] = rt

	storage, err := rt.GetStorage(name)
	if err != nil {
		return nil, err
	}

	model, _ := rt.Model(name)
	t := &target{name: name, storage: storage, model: model}
	return t, nil
}

func requireID(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("%s expects exactly one ID argument", c.Command.Name)
	}
	return c.Args().First(), nil
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func findCommand() *cli.Command {
	return &cli.Command{
		Name:      "find",
		Usage:     "Print the model stored under ID",
		ArgsUsage: "ID",
		Action: func(c *cli.Context) error {
			id, err := requireID(c)
			if err != nil {
				return err
			}
			t, err := resolve(c)
			if err != nil {
				return err
			}
			model, err := t.storage.Find(c.Context, id)
			if err != nil {
				return err
			}
			if model == nil {
				return errors.NewNotFoundError(t.model.String(), id)
			}
			return printJSON(c, model)
		},
	}
}

func hasCommand() *cli.Command {
	return &cli.Command{
		Name:      "has",
		Usage:     "Report whether a model is stored under ID",
		ArgsUsage: "ID",
		Action: func(c *cli.Context) error {
			id, err := requireID(c)
			if err != nil {
				return err
			}
			t, err := resolve(c)
			if err != nil {
				return err
			}
			has, err := t.storage.Has(c.Context, id)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, has)
			return err
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "Print every model of the storage",
		Action: func(c *cli.Context) error {
			t, err := resolve(c)
			if err != nil {
				return err
			}
			models, err := t.storage.FindAll(c.Context)
			if err != nil {
				return err
			}
			return printJSON(c, models)
		},
	}
}

func flushCommand() *cli.Command {
	return &cli.Command{
		Name:      "flush",
		Usage:     "Store a JSON model under ID, or under a new UUID when ID is omitted",
		ArgsUsage: "[ID]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "JSON model body, - reads stdin",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() > 1 {
				return fmt.Errorf("flush expects at most one ID argument")
			}
			id := c.Args().First()
			if id == "" {
				id = uuid.NewString()
			}

			body := []byte(c.String("data"))
			if c.String("data") == "-" {
				var err error
				if body, err = io.ReadAll(c.App.Reader); err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
			}

			t, err := resolve(c)
			if err != nil {
				return err
			}
			model, err := t.model.Decode(body, json.Unmarshal)
			if err != nil {
				return errors.NewValidationError("data", err.Error())
			}

			ok, err := t.storage.Flush(c.Context, id, model)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("storage %q did not store %s", t.name, id)
			}
			_, err = fmt.Fprintln(c.App.Writer, id)
			return err
		},
	}
}

func removeCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Aliases:   []string{"rm"},
		Usage:     "Remove the model stored under ID",
		ArgsUsage: "ID",
		Action: func(c *cli.Context) error {
			id, err := requireID(c)
			if err != nil {
				return err
			}
			t, err := resolve(c)
			if err != nil {
				return err
			}

			// Chains route removals by the model, so look it up first.
			model, err := t.storage.Find(c.Context, id)
			if err != nil {
				return err
			}
			if model == nil {
				return errors.NewNotFoundError(t.model.String(), id)
			}
			ok, err := t.storage.Remove(c.Context, id, model)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, ok)
			return err
		},
	}
}

func clearCommand() *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Remove every model of the storage",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "yes",
				Usage: "Confirm the removal",
			},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("yes") {
				return fmt.Errorf("clear removes every model; pass --yes to confirm")
			}
			t, err := resolve(c)
			if err != nil {
				return err
			}
			ok, err := t.storage.RemoveAll(c.Context)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, ok)
			return err
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(c *cli.Context) error {
			info := modelstore.GetVersionInfo()
			w := c.App.Writer
			fmt.Fprintf(w, "storagectl version %s\n", info.Version)
			fmt.Fprintf(w, "Git commit: %s\n", info.GitCommit)
			fmt.Fprintf(w, "Build date: %s\n", info.BuildDate)
			fmt.Fprintf(w, "Go version: %s\n", info.GoVersion)
			fmt.Fprintf(w, "Platform:   %s\n", info.Platform)
			return nil
		},
	}
}

// Run executes storagectl with args.
func Run(ctx context.Context, out io.Writer, args []string) error {
	return App(out).RunContext(ctx, args)
}
