package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yndnr/redkv/internal/cli/output"
	"github.com/yndnr/redkv/pkg/resp"
)

// Doer sends one command and returns the server's reply.
type Doer interface {
	Do(args ...string) (resp.Frame, error)
}

// REPL reads commands line by line, sends them and prints the replies.
type REPL struct {
	input     io.Reader
	output    io.Writer
	client    Doer
	formatter output.Formatter
	completer *Completer
	history   *History
	prompt    string
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithFormatter sets the reply formatter. The default is text.
func WithFormatter(f output.Formatter) Option {
	return func(r *REPL) {
		r.formatter = f
	}
}

// WithHistory replaces the default history.
func WithHistory(h *History) Option {
	return func(r *REPL) {
		r.history = h
	}
}

// WithPrompt sets the prompt, usually the server address.
func WithPrompt(addr string) Option {
	return func(r *REPL) {
		r.prompt = addr + "> "
	}
}

// New creates a REPL talking to client.
func New(client Doer, opts ...Option) *REPL {
	r := &REPL{
		input:     os.Stdin,
		output:    os.Stdout,
		client:    client,
		formatter: &output.TextFormatter{},
		completer: NewCompleter(),
		history:   NewHistory(),
		prompt:    "redkv> ",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts the loop. It returns nil on EOF, exit or QUIT, and the
// connection error when the server goes away.
func (r *REPL) Run() error {
	_ = r.history.Load()
	defer func() { _ = r.history.Save() }()

	reader := bufio.NewReader(r.input)
	for {
		fmt.Fprint(r.output, r.prompt)

		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := err != nil

		if line = strings.TrimSpace(line); line != "" {
			r.history.Add(line)
			stop, execErr := r.execute(line)
			if execErr != nil {
				return execErr
			}
			if stop {
				return nil
			}
		}
		if eof {
			fmt.Fprintln(r.output)
			return nil
		}
	}
}

// execute handles one input line. stop reports that the session is over.
func (r *REPL) execute(line string) (stop bool, err error) {
	args, err := SplitArgs(line)
	if err != nil {
		fmt.Fprintf(r.output, "Error: %v\n", err)
		return false, nil
	}
	if len(args) == 0 {
		return false, nil
	}

	switch strings.ToLower(args[0]) {
	case "exit":
		return true, nil
	case "clear":
		fmt.Fprint(r.output, "\033[H\033[2J")
		return false, nil
	case "help":
		r.help(args[1:])
		return false, nil
	}

	reply, err := r.client.Do(args...)
	if err != nil {
		fmt.Fprintf(r.output, "Error: %v\n", err)
		return true, err
	}
	if err := r.formatter.Format(r.output, reply); err != nil {
		return true, err
	}
	return strings.EqualFold(args[0], "quit"), nil
}

func (r *REPL) help(args []string) {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}
	matches := r.completer.Complete(prefix)
	if len(matches) == 0 {
		fmt.Fprintf(r.output, "No command matches %q\n", prefix)
		return
	}
	fmt.Fprintln(r.output, strings.Join(matches, " "))
}
