package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/askdb-labs/askdb/internal/agent"
	"github.com/spf13/cobra"
)

// NewAskCommand creates the ask command.
func NewAskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question in plain English",
		Long: `Translate a natural-language question into SQL, run it read-only
against the configured database, and render the results.

Generated statements pass through a safety gate first: anything other
than a single SELECT is rejected before it reaches the database. When a
statement fails to execute, the database error is fed back to the model
and a corrected statement is tried, up to the attempt budget.

When invoked without arguments on a terminal, enters interactive mode.`,
		Example: `  # One-shot question
  askdb ask "how many orders shipped last month?"

  # Pipe a question in
  echo "top 5 customers by revenue" | askdb ask

  # JSON output for scripting
  askdb ask "daily signups this week" -o json

  # Interactive mode
  askdb ask`,
		RunE: runAsk,
	}

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	// Determine question source
	var question string
	switch {
	case len(args) > 0:
		question = strings.Join(args, " ")
	case !isTerminal(os.Stdin):
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		question = strings.TrimSpace(string(content))
	default:
		// No input, TTY detected - enter interactive mode
		return runAskREPL(cmd, cmdCtx)
	}

	if question == "" {
		return fmt.Errorf("no question provided")
	}

	ag, err := cmdCtx.NewAgent(cmd.Context())
	if err != nil {
		return err
	}

	return askAndRender(cmd, cmdCtx, ag, question)
}

func askAndRender(cmd *cobra.Command, cmdCtx *CommandContext, ag *agent.Agent, question string) error {
	w := cmd.OutOrStdout()

	result, err := ag.Answer(cmd.Context(), question)
	if err != nil {
		return presentAnswerError(cmd, err)
	}

	// Table output gets the statement above the results; structured
	// formats stay clean for piping.
	if cmdCtx.Cfg.Output == "table" || cmdCtx.Cfg.Output == "" {
		_, _ = fmt.Fprintln(w, styleFaint(result.SQL))
		if result.Attempt > 1 {
			_, _ = fmt.Fprintln(w, styleFaint(fmt.Sprintf("(succeeded on attempt %d)", result.Attempt)))
		}
		_, _ = fmt.Fprintln(w)
	}

	return renderResult(w, resultData(result), cmdCtx.Cfg.Output)
}

func presentAnswerError(cmd *cobra.Command, err error) error {
	var unsafeErr *agent.UnsafeError
	if errors.As(err, &unsafeErr) {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", styleRed("Rejected:"), unsafeErr.Gate.Reason)
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", styleFaint(unsafeErr.SQL))
		return fmt.Errorf("refusing to run unsafe SQL")
	}

	var exhausted *agent.ExhaustedError
	if errors.As(err, &exhausted) {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s could not answer after %d attempts\n",
			styleRed("Giving up:"), exhausted.Attempts)
		if exhausted.LastSQL != "" {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Last attempt: %s\n", styleFaint(exhausted.LastSQL))
		}
		return exhausted.LastErr
	}

	return err
}
