package repl

import (
	"sort"
	"strings"

	"github.com/yndnr/redkv/internal/core/command"
)

// Completer matches command names by prefix.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over the server commands plus the
// client-side help and exit words.
func NewCompleter() *Completer {
	cmds := make([]string, 0, len(command.Names)+3)
	for _, n := range command.Names {
		cmds = append(cmds, strings.ToUpper(n))
	}
	cmds = append(cmds, "HELP", "EXIT", "CLEAR")
	sort.Strings(cmds)
	return &Completer{commands: cmds}
}

// Complete returns the commands starting with prefix, ignoring case.
func (c *Completer) Complete(prefix string) []string {
	prefix = strings.ToUpper(prefix)
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}

// Known reports whether name is a command, ignoring case.
func (c *Completer) Known(name string) bool {
	name = strings.ToUpper(name)
	i := sort.SearchStrings(c.commands, name)
	return i < len(c.commands) && c.commands[i] == name
}
