package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sandevgo/riskmon/internal/core"
)

const helpName = "help"

var errUsage = errors.New("invalid arguments")

type ShortClearer interface {
	Clear(ctx context.Context, userID, sessionID string) error
}

type FactRecaller interface {
	RetrieveFacts(ctx context.Context, userID, query string, topK int) core.FactsResult
}

// NewCommands builds the chat commands. A nil tier drops its command.
func NewCommands(short ShortClearer, long FactRecaller, topK int) []Command {
	cmds := []Command{
		&groundedCommand{},
		&sessionCommand{},
	}
	if short != nil {
		cmds = append(cmds, &clearCommand{short: short})
	}
	if long != nil {
		cmds = append(cmds, &factsCommand{long: long, topK: topK})
	}
	return cmds
}

type helpCommand struct {
	router *Router
}

func (c *helpCommand) Name() string        { return helpName }
func (c *helpCommand) Description() string { return "List commands" }

func (c *helpCommand) Execute(_ context.Context, _ *Session, _ []string) (string, error) {
	var items []string
	for _, cmd := range c.router.ListCommands() {
		items = append(items, fmt.Sprintf("/%-9s %s", cmd.Name(), cmd.Description()))
	}
	return formatter.Combine(formatter.Info("Commands"), formatter.List(items)), nil
}

type groundedCommand struct{}

func (c *groundedCommand) Name() string        { return "grounded" }
func (c *groundedCommand) Description() string { return "Show or toggle grounded answers" }

func (c *groundedCommand) Execute(_ context.Context, sess *Session, args []string) (string, error) {
	if len(args) == 0 {
		return formatter.Combine(
			formatter.Label("Grounded", onOff(sess.Grounded)),
			formatter.Usage("/grounded on|off"),
		), nil
	}

	switch strings.ToLower(args[0]) {
	case "on", "true", "1":
		sess.Grounded = true
	case "off", "false", "0":
		sess.Grounded = false
	default:
		return "", fmt.Errorf("%w: want on or off, got %q", errUsage, args[0])
	}
	return formatter.Success("grounded answers " + onOff(sess.Grounded)), nil
}

type sessionCommand struct{}

func (c *sessionCommand) Name() string        { return "session" }
func (c *sessionCommand) Description() string { return "Show or switch the session id" }

func (c *sessionCommand) Execute(_ context.Context, sess *Session, args []string) (string, error) {
	if len(args) == 0 {
		return formatter.Combine(
			formatter.Label("User", sess.UserID),
			formatter.Label("Session", sess.SessionID),
			formatter.Usage("/session <id>"),
		), nil
	}
	sess.SessionID = args[0]
	return formatter.Success("switched to session " + sess.SessionID), nil
}

type clearCommand struct {
	short ShortClearer
}

func (c *clearCommand) Name() string        { return "clear" }
func (c *clearCommand) Description() string { return "Forget this session's turns" }

func (c *clearCommand) Execute(ctx context.Context, sess *Session, _ []string) (string, error) {
	if err := c.short.Clear(ctx, sess.UserID, sess.SessionID); err != nil {
		return "", fmt.Errorf("failed to clear session: %w", err)
	}
	return formatter.Success("session " + sess.SessionID + " cleared"), nil
}

type factsCommand struct {
	long FactRecaller
	topK int
}

func (c *factsCommand) Name() string        { return "facts" }
func (c *factsCommand) Description() string { return "Recall long-term facts, optionally ranked by a query" }

func (c *factsCommand) Execute(ctx context.Context, sess *Session, args []string) (string, error) {
	res := c.long.RetrieveFacts(ctx, sess.UserID, strings.Join(args, " "), c.topK)
	if len(res.Facts) == 0 {
		return formatter.Info("No facts stored"), nil
	}

	items := make([]string, 0, len(res.Facts))
	for _, f := range res.Facts {
		items = append(items, f.Text)
	}
	return formatter.Combine(formatter.Info(fmt.Sprintf("%d fact(s)", len(items))), formatter.List(items)), nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
