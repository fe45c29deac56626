package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/redkv/internal/cli/config"
	"github.com/yndnr/redkv/internal/cli/connection"
	"github.com/yndnr/redkv/internal/cli/output"
	"github.com/yndnr/redkv/internal/cli/repl"
	"github.com/yndnr/redkv/internal/infra/buildinfo"
	"github.com/yndnr/redkv/pkg/resp"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:      "redkv-cli",
		Usage:     "redkv command-line client",
		UsageText: "redkv-cli [options] [command [arg...]]",
		Version:   buildinfo.Version,
		Flags:     globalFlags(),
		Action:    rootAction,
		HideHelpCommand: true,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI config file (default ~/.redkv/cli.yaml)",
			EnvVars: []string{"REDKV_CLI_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "host",
			Aliases: []string{"H"},
			Usage:   "server host",
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "server port",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "dial and request timeout",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "reply format: text, raw, json",
		},
		&cli.BoolFlag{
			Name:  "raw",
			Usage: "shorthand for --output raw",
		},
		&cli.BoolFlag{
			Name:  "no-history",
			Usage: "do not read or write the REPL history file",
		},
	}
}

// GlobalFlags holds the parsed global flags.
type GlobalFlags struct {
	ConfigPath string
	Overrides  map[string]any
	NoHistory  bool
}

// ParseGlobalFlags extracts global flags from context. Only flags set on
// the command line become overrides.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	overrides := map[string]any{}
	if c.IsSet("host") {
		overrides["connection.host"] = c.String("host")
	}
	if c.IsSet("port") {
		overrides["connection.port"] = c.Int("port")
	}
	if c.IsSet("timeout") {
		overrides["connection.timeout"] = c.Duration("timeout")
	}
	if c.IsSet("output") {
		overrides["output.format"] = c.String("output")
	}
	if c.Bool("raw") {
		overrides["output.format"] = string(output.FormatRaw)
	}
	return &GlobalFlags{
		ConfigPath: c.String("config"),
		Overrides:  overrides,
		NoHistory:  c.Bool("no-history"),
	}
}

func rootAction(c *cli.Context) error {
	flags := ParseGlobalFlags(c)
	cfg, err := config.Load(flags.ConfigPath, flags.Overrides)
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	formatter := output.NewFormatter(format)

	addr := cfg.Connection.Addr()
	client, err := connection.Dial(c.Context, addr, cfg.Connection.Timeout)
	if err != nil {
		return err
	}
	defer client.Close()

	if c.Args().Present() {
		return runOnce(c, client, formatter)
	}

	history := repl.NewHistory()
	switch {
	case flags.NoHistory || cfg.History.Disabled:
		history = repl.NewHistoryFile("")
	case cfg.History.File != "":
		history = repl.NewHistoryFile(cfg.History.File)
	}
	return repl.New(client,
		repl.WithIO(c.App.Reader, c.App.Writer),
		repl.WithFormatter(formatter),
		repl.WithHistory(history),
		repl.WithPrompt(addr),
	).Run()
}

// runOnce sends the positional arguments as one command. An error reply
// makes the process exit with status 1.
func runOnce(c *cli.Context, client repl.Doer, formatter output.Formatter) error {
	reply, err := client.Do(c.Args().Slice()...)
	if err != nil {
		return err
	}
	if err := formatter.Format(c.App.Writer, reply); err != nil {
		return err
	}
	if _, failed := reply.(resp.Error); failed {
		return cli.Exit("", 1)
	}
	return nil
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
