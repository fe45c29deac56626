package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/redkv/internal/infra/buildinfo"
	"github.com/yndnr/redkv/internal/storage/snapshot"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintf(c.App.Writer, "redkv-server %s\n", buildinfo.String())
	}

	return &cli.App{
		Name:    "redkv-server",
		Usage:   "in-memory key-value server speaking the Redis protocol",
		Version: buildinfo.Get().Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML configuration file",
				EnvVars: []string{"REDKV_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "path to a .env file with REDKV_* variables",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "listen host (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "listen port (overrides server.port)",
			},
			&cli.StringFlag{
				Name:  "snapshot",
				Usage: "snapshot file path (overrides storage.snapshot_path)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error (overrides log.level)",
			},
		},
		Commands: []*cli.Command{keygenCommand()},
		Action: func(c *cli.Context) error {
			opts := loaderOptions(c)
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return run(c.Context, cfg, c.String("config"), opts)
		},
	}
}

// keygenCommand prints a random master key for security.snapshot_key.
func keygenCommand() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "print a random hex-encoded snapshot encryption key",
		Action: func(c *cli.Context) error {
			key, err := snapshot.GenerateKey(32)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, hex.EncodeToString(key))
			return nil
		},
	}
}
