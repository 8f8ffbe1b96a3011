// Package plugins hosts Go plugins that extend the client with commands,
// timed callbacks and their own windows.
package plugins

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/containerd/errdefs"
)

var (
	// ErrCommandExists indicates a command name is already registered.
	ErrCommandExists = fmt.Errorf("plugin command: %w", errdefs.ErrAlreadyExists)
	// ErrUsage indicates a command was called with the wrong number of arguments.
	ErrUsage = fmt.Errorf("usage: %w", errdefs.ErrInvalidArgument)
)

// Command is a slash command contributed by a plugin.
type Command struct {
	// Name includes the leading slash.
	Name    string
	MinArgs int
	// MaxArgs < 0 means unbounded.
	MaxArgs int
	Usage   string
	Help    string
	Run     func(args []string) error
	plugin  string
}

// Plugin returns the name of the plugin that registered the command.
func (c Command) Plugin() string { return c.plugin }

// Registry holds plugin commands.
type Registry struct {
	mu       sync.Mutex
	commands map[string]Command
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds cmd. Names are normalized to a leading slash.
func (r *Registry) Register(cmd Command) error {
	name := strings.TrimSpace(cmd.Name)
	if name == "" || cmd.Run == nil {
		return fmt.Errorf("%w: command needs a name and a callback", errdefs.ErrInvalidArgument)
	}
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	cmd.Name = name
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.commands[name]; ok {
		return fmt.Errorf("%w: %s", ErrCommandExists, name)
	}
	r.commands[name] = cmd
	return nil
}

// Lookup finds a command by name.
func (r *Registry) Lookup(name string) (Command, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Commands lists the registered commands by name.
func (r *Registry) Commands() []Command {
	r.mu.Lock()
	out := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		out = append(out, cmd)
	}
	r.mu.Unlock()
	slices.SortFunc(out, func(a, b Command) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Run validates the argument count and runs the command. It reports false
// when no plugin owns name.
func (r *Registry) Run(name string, args []string) (bool, error) {
	cmd, ok := r.Lookup(name)
	if !ok {
		return false, nil
	}
	if len(args) < cmd.MinArgs || (cmd.MaxArgs >= 0 && len(args) > cmd.MaxArgs) {
		usage := cmd.Usage
		if usage == "" {
			usage = cmd.Name
		}
		return true, fmt.Errorf("%w: %s", ErrUsage, usage)
	}
	return true, cmd.Run(args)
}
