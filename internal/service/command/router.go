// Package command implements the slash commands of the interactive chat.
package command

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Session is the mutable state of one chat.
type Session struct {
	UserID    string
	SessionID string
	Grounded  bool
}

type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, sess *Session, args []string) (string, error)
}

type Router struct {
	commands map[string]Command
}

func New(commands []Command) *Router {
	c := &Router{
		commands: make(map[string]Command),
	}

	for _, cmd := range commands {
		c.commands[cmd.Name()] = cmd
	}
	c.commands[helpName] = &helpCommand{router: c}
	return c
}

// Execute runs input if it is a slash command. The bool reports whether
// input was consumed.
func (c *Router) Execute(ctx context.Context, sess *Session, input string) (string, bool) {
	if !strings.HasPrefix(input, "/") {
		return "", false
	}

	parts := strings.Fields(input)
	name := strings.TrimPrefix(parts[0], "/")
	args := parts[1:]

	cmd, ok := c.commands[name]
	if !ok {
		return fmt.Sprintf("Unknown command: /%s", name), true
	}

	result, err := cmd.Execute(ctx, sess, args)
	if err != nil {
		return formatter.Error(err), true
	}
	return result, true
}

// ListCommands is sorted by name.
func (c *Router) ListCommands() []Command {
	res := make([]Command, 0, len(c.commands))
	for _, cmd := range c.commands {
		res = append(res, cmd)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name() < res[j].Name() })
	return res
}
