package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/askdb-labs/askdb/internal/agent"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

// replState carries mutable session state between prompt lines.
type replState struct {
	lastSQL string
	format  string
}

func runAskREPL(cmd *cobra.Command, cmdCtx *CommandContext) error {
	ctx := cmd.Context()

	ag, err := cmdCtx.NewAgent(ctx)
	if err != nil {
		return err
	}

	historyFile := filepath.Join(os.TempDir(), ".askdb_history")
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".askdb_history")
	}

	completer := newReplCompleter(ctx, cmdCtx)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "askdb> ",
		HistoryFile:     historyFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize interactive mode: %w", err)
	}
	defer func() { _ = rl.Close() }()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "askdb interactive mode (%s)\n", cmdCtx.DB.DialectName())
	_, _ = fmt.Fprintln(out, "Ask questions in plain English. Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(out)

	state := &replState{format: cmdCtx.Cfg.Output}

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if quit := handleDotCommand(ctx, cmd, cmdCtx, state, line); quit {
				break
			}
			continue
		}

		answerOne(cmd, ag, state, line)
	}

	return nil
}

func answerOne(cmd *cobra.Command, ag *agent.Agent, state *replState, question string) {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	result, err := ag.Answer(cmd.Context(), question)
	if err != nil {
		var unsafeErr *agent.UnsafeError
		if errors.As(err, &unsafeErr) {
			_, _ = fmt.Fprintf(errOut, "%s %s\n", styleRed("Rejected:"), unsafeErr.Gate.Reason)
			state.lastSQL = unsafeErr.SQL
			return
		}
		var exhausted *agent.ExhaustedError
		if errors.As(err, &exhausted) {
			_, _ = fmt.Fprintf(errOut, "%s could not answer after %d attempts: %v\n",
				styleRed("Giving up:"), exhausted.Attempts, exhausted.LastErr)
			state.lastSQL = exhausted.LastSQL
			return
		}
		_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		return
	}

	state.lastSQL = result.SQL
	_, _ = fmt.Fprintln(out, styleFaint(result.SQL))
	if err := renderResult(out, resultData(result), state.format); err != nil {
		_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
	}
	_, _ = fmt.Fprintln(out)
}

// handleDotCommand runs a dot-command and reports whether the REPL should exit.
func handleDotCommand(ctx context.Context, cmd *cobra.Command, cmdCtx *CommandContext, state *replState, line string) bool {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(out)

	case ".sql":
		if state.lastSQL == "" {
			_, _ = fmt.Fprintln(out, "No SQL generated yet")
		} else {
			_, _ = fmt.Fprintln(out, state.lastSQL)
		}

	case ".tables":
		tables, err := cmdCtx.DB.Tables(ctx)
		if err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			break
		}
		for _, t := range tables {
			_, _ = fmt.Fprintln(out, t)
		}

	case ".schema":
		if len(parts) > 1 {
			if err := showTableSchema(ctx, out, cmdCtx, parts[1]); err != nil {
				_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			}
			break
		}
		text, err := cmdCtx.Schema.Context(ctx)
		if err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			break
		}
		_, _ = fmt.Fprintln(out, text)

	case ".output":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(out, "Output format: %s\n", state.format)
			break
		}
		switch parts[1] {
		case "table", "json", "csv", "md":
			state.format = parts[1]
		default:
			_, _ = fmt.Fprintf(errOut, "Unknown format: %s (want table, json, csv, or md)\n", parts[1])
		}

	case ".clear":
		fmt.Print("\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(errOut, "Unknown command: %s (type .help for commands)\n", command)
	}

	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help            Show this help message
  .tables          List queryable tables
  .schema [table]  Show the schema context, or one table's columns
  .sql             Show the last generated SQL statement
  .output <fmt>    Set the output format (table, json, csv, md)
  .clear           Clear the screen
  .quit / .exit    Exit

Tips:
  - Anything that is not a dot-command is treated as a question
  - Use arrow keys to navigate history
  - Tab completion works for table names
`
	_, _ = fmt.Fprintln(w, help)
}

// newReplCompleter creates a readline completer for table names.
func newReplCompleter(ctx context.Context, cmdCtx *CommandContext) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface

	if tables, err := cmdCtx.DB.Tables(ctx); err == nil {
		for _, name := range tables {
			items = append(items, readline.PcItem(name))
		}
	}

	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema"),
		readline.PcItem(".sql"),
		readline.PcItem(".output",
			readline.PcItem("table"),
			readline.PcItem("json"),
			readline.PcItem("csv"),
			readline.PcItem("md"),
		),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}
