// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/ragchat-tui/internal/config"
	"github.com/jeranaias/ragchat-tui/internal/model"
	"github.com/jeranaias/ragchat-tui/internal/session"
	"github.com/jeranaias/ragchat-tui/internal/texmath"
	"github.com/jeranaias/ragchat-tui/internal/ui/components"
	"github.com/jeranaias/ragchat-tui/internal/ui/styles"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides line editing and persistent input history for the
// line-mode chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a line editor and loads the saved history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(dir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line with the given prompt. Non-blank input is added to
// the history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory writes the history file, owner read/write only.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

type chatOptions struct {
	login loginFlags
}

func newChatCommand(g *globals) *cobra.Command {
	opts := &chatOptions{}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat in line mode without the full-screen UI",
		Long: `Start a line-mode conversation. Input has history (up/down) and the
answers are rendered with bracketed math shown as formulas.

Commands during chat:
  /help       Show commands
  /history    Show the conversation
  /quit       Exit (also Ctrl+D)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, g.env, opts)
		},
	}
	opts.login.register(cmd)
	return cmd
}

func runChat(cmd *cobra.Command, env *Env, opts *chatOptions) error {
	if !IsTTY() {
		return &TTYRequiredError{Operation: "chat"}
	}
	out := cmd.OutOrStdout()

	creds, err := opts.login.resolve(cmd.InOrStdin(), out)
	if err != nil {
		return err
	}
	client := newClient(env)
	token, err := login(cmd.Context(), client, creds)
	if err != nil {
		return err
	}

	sess := session.New(session.ConfigFrom(env.Config), session.Options{
		Backend: client,
		Math:    texmath.Renderer{},
		Logger:  env.Logger,
	})
	defer sess.Close()
	sess.SetToken(token)

	repl := &chatREPL{
		sess:  sess,
		theme: styles.NewTheme(env.Config.UI.Theme),
		width: GetTerminalWidth(),
		out:   out,
	}
	printWelcome(out, creds.username, serverOf(env.Config))

	input := NewChatCLI()
	defer input.Close()

	for {
		line, err := input.ReadInput(PromptStyle.Render("ragchat> "))
		if err != nil {
			// Ctrl+C, Ctrl+D and closed input all end the chat.
			fmt.Fprintln(out)
			fmt.Fprintln(out, InfoStyle.Render("Goodbye!"))
			return nil
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "/"):
			if !repl.command(line) {
				fmt.Fprintln(out, InfoStyle.Render("Goodbye!"))
				return nil
			}
			continue
		case strings.EqualFold(line, "exit"), strings.EqualFold(line, "quit"):
			fmt.Fprintln(out, InfoStyle.Render("Goodbye!"))
			return nil
		}

		repl.ask(cmd, line)
	}
}

// =============================================================================
// REPL
// =============================================================================

type chatREPL struct {
	sess  *session.ChatSession
	theme *styles.Theme
	width int
	out   io.Writer
}

// ask sends one question. Ctrl+C while waiting cancels the request.
func (r *chatREPL) ask(cmd *cobra.Command, text string) {
	r.sess.SetDraft(text)
	query, ok := r.sess.BeginSubmit()
	if !ok {
		return
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	reply, err := r.sess.Exchange(ctx, query)
	stop()

	msg := r.sess.CompleteSubmit(reply, err)
	if msg == nil {
		return
	}
	r.sess.AnnotatePending()
	r.print(msg)
}

func (r *chatREPL) print(msg *model.Message) {
	var bubble *components.MessageBubble
	if view, ok := r.sess.View(msg.ID); ok {
		bubble = components.NewMessageBubble(msg, view.Tree, r.theme)
	} else {
		bubble = components.NewMessageBubble(msg, nil, r.theme)
	}
	bubble.SetWidth(r.width)
	fmt.Fprintln(r.out, bubble.View())
	fmt.Fprintln(r.out)
}

// command runs a slash command and reports whether the chat continues.
func (r *chatREPL) command(line string) bool {
	name := strings.ToLower(strings.Fields(line)[0])
	switch name {
	case "/quit", "/q", "/exit":
		return false
	case "/help", "/h", "/?":
		printChatHelp(r.out)
	case "/history":
		r.printHistory()
	default:
		fmt.Fprintf(r.out, "%s unknown command %s (try /help)\n", WarningStyle.Render("[!]"), name)
	}
	return true
}

func (r *chatREPL) printHistory() {
	msgs := r.sess.Messages()
	if len(msgs) == 0 {
		fmt.Fprintln(r.out, InfoStyle.Render("[No messages yet]"))
		return
	}
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, TitleStyle.Render("Conversation"))
	for i, msg := range msgs {
		role := PromptStyle.Render(msg.Role.DisplayName())
		if msg.IsAssistant() {
			role = TitleStyle.Render(msg.Role.DisplayName())
		}
		fmt.Fprintf(r.out, "  %d. %s: %s\n", i+1, role, msg.Preview(100))
	}
	fmt.Fprintln(r.out)
}

func printWelcome(w io.Writer, user, server string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, TitleStyle.Render("ragchat"))
	fmt.Fprintf(w, "%s %s @ %s\n", InfoStyle.Render("Logged in as"), ValueStyle.Render(user), server)
	fmt.Fprintln(w, styles.RenderInfo("Type a question, /help for commands, Ctrl+D to exit."))
	fmt.Fprintln(w)
}

func printChatHelp(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, TitleStyle.Render("Commands"))
	fmt.Fprintf(w, "  %s %s\n", LabelStyle.Render("/help"), "Show this help")
	fmt.Fprintf(w, "  %s %s\n", LabelStyle.Render("/history"), "Show the conversation")
	fmt.Fprintf(w, "  %s %s\n", LabelStyle.Render("/quit"), "Exit")
	fmt.Fprintf(w, "  %s %s\n", LabelStyle.Render("Ctrl+C"), "Cancel a pending answer")
	fmt.Fprintln(w)
}
