package main

import (
	"context"
	"fmt"
	"strings"

	"gc-portfolio/internal/chat"
)

const helpText = `Commands:
  /toggle         open or close the chat window
  /preset <text>  send a quick message
  /clear          clear the conversation
  /history        print the saved conversation
  /quit           exit
Anything else is sent to the assistant.`

// handleLine runs one line of terminal input. It returns text to print and
// whether the client should exit.
func handleLine(ctx context.Context, m *chat.Manager, line string) (string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		res := m.SendUserMessage(ctx, line)
		if res.Err != nil {
			return fmt.Sprintf("(request failed: %v)", res.Err), false
		}
		return "", false
	}

	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case "/toggle":
		if err := m.Toggle(ctx); err != nil {
			return fmt.Sprintf("(could not save window state: %v)", err), false
		}
		return "", false
	case "/preset":
		if strings.TrimSpace(arg) == "" {
			return "usage: /preset <text>", false
		}
		m.SendPresetMessage(ctx, arg)
		return "", false
	case "/clear":
		if err := m.ClearHistory(ctx); err != nil {
			return fmt.Sprintf("(could not clear saved history: %v)", err), false
		}
		return "", false
	case "/history":
		return formatHistory(m.State()), false
	case "/quit", "/exit":
		return "", true
	case "/help":
		return helpText, false
	default:
		return fmt.Sprintf("unknown command %s\n%s", cmd, helpText), false
	}
}

func formatHistory(s chat.Session) string {
	if len(s.History) == 0 {
		return "(no messages)"
	}
	var b strings.Builder
	for _, msg := range s.History {
		fmt.Fprintf(&b, "%s: %s\n", msg.Sender, msg.Text)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
