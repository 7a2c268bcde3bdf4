// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/ragchat-tui/internal/annotate"
	"github.com/jeranaias/ragchat-tui/internal/markup"
	"github.com/jeranaias/ragchat-tui/internal/texmath"
)

// =============================================================================
// ASK COMMAND
// =============================================================================

type askOptions struct {
	login loginFlags
	raw   bool
}

func newAskCommand(g *globals) *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question and print the answer",
		Example: `  ragchat ask -u alice "what is the area of a circle of radius [r]?"
  echo "$PASS" | ragchat ask -u alice --password-stdin "define [\frac{a}{b}]"
  RAGCHAT_USER=alice RAGCHAT_PASSWORD=secret ragchat ask --raw "hello"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, g.env, opts, strings.Join(args, " "))
		},
	}
	opts.login.register(cmd)
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "Print the answer exactly as returned")
	return cmd
}

func runAsk(cmd *cobra.Command, env *Env, opts *askOptions, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return &UsageError{Reason: "empty question"}
	}

	creds, err := opts.login.resolve(cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client := newClient(env)
	token, err := login(ctx, client, creds)
	if err != nil {
		return err
	}

	reply, err := client.Query(ctx, token, question)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	env.Logger.Debug("answer received", zap.Int("bytes", len(reply)))

	out := cmd.OutOrStdout()
	if opts.raw {
		fmt.Fprintln(out, reply)
		return nil
	}

	annot := &annotate.Annotator{
		Math:     texmath.Renderer{},
		SkipCode: env.Config.Annotate.SkipCode,
		Logger:   env.Logger,
	}
	tty := isTerminalWriter(out)
	text := annotateMarkdown(reply, annot, tty)
	if tty {
		text = renderMarkdown(text, GetTerminalWidth())
	}
	writeAnswer(out, text)
	return nil
}

func writeAnswer(w io.Writer, text string) {
	text = strings.TrimRight(text, "\n")
	fmt.Fprintln(w, text)
}

// =============================================================================
// MARKDOWN
// =============================================================================

// renderMarkdown renders markdown for the terminal, returning the input when
// the renderer cannot be built.
func renderMarkdown(content string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-2),
	)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// annotateMarkdown replaces bracketed math in a markdown reply with its
// rendered text. Fenced code blocks are left alone when the annotator skips
// code. With escape set, the math text is escaped for a markdown renderer.
func annotateMarkdown(src string, a *annotate.Annotator, escape bool) string {
	var b strings.Builder
	fence := ""

	for _, line := range strings.SplitAfter(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if marker := fenceMarker(trimmed); marker != "" {
			switch {
			case fence == "":
				fence = marker
			case strings.HasPrefix(trimmed, fence):
				fence = ""
			}
			b.WriteString(line)
			continue
		}
		if fence != "" && a.SkipCode {
			b.WriteString(line)
			continue
		}

		for _, n := range a.AnnotateText(line) {
			if n.Kind != markup.KindMath {
				b.WriteString(n.Text)
				continue
			}
			text := n.Rendered
			if text == "" {
				text = n.Text
			}
			if escape && fence == "" {
				text = markdownEscaper.Replace(text)
			}
			b.WriteString(text)
		}
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
)

func fenceMarker(line string) string {
	for _, m := range []string{"```", "~~~"} {
		if strings.HasPrefix(line, m) {
			return m
		}
	}
	return ""
}
