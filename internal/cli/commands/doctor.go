package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/askdb-labs/askdb/internal/config"
	"github.com/askdb-labs/askdb/internal/llm"
	"github.com/askdb-labs/askdb/internal/schema"
	"github.com/askdb-labs/askdb/pkg/adapter"
	"github.com/spf13/cobra"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // Output format: text, json
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that askdb is ready to answer questions",
		Long: `Verify the local setup end to end: configuration, model provider
credentials, database connectivity, and schema visibility.

Each check reports pass, warn, or fail with a short explanation of how
to fix it.`,
		Example: `  # Run all checks
  askdb doctor

  # Machine-readable output
  askdb doctor --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "text", "Output format: text, json")

	return cmd
}

// HealthCheck is a single doctor check result.
type HealthCheck struct {
	Group  string `json:"group"`
	Name   string `json:"name"`
	Status string `json:"status"` // "pass", "warn", "fail"
	Detail string `json:"detail,omitempty"`
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Checks    []HealthCheck `json:"checks"`
	FailCount int           `json:"fail_count"`
	WarnCount int           `json:"warn_count"`
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}

	var checks []HealthCheck
	add := func(group, name, status, detail string) {
		checks = append(checks, HealthCheck{Group: group, Name: name, Status: status, Detail: detail})
	}

	// Configuration
	if cfg.ConfigFile != "" {
		add("configuration", "config file", "pass", cfg.ConfigFile)
	} else {
		add("configuration", "config file", "warn", "no askdb.yaml found, using defaults")
	}
	add("configuration", "database driver", "pass", cfg.Database.Driver)
	if cfg.HintsFile != "" {
		if _, err := schema.LoadHints(cfg.HintsFile); err != nil {
			add("configuration", "hints file", "fail", err.Error())
		} else {
			add("configuration", "hints file", "pass", cfg.HintsFile)
		}
	}

	// Model provider
	keyEnv := llm.APIKeyEnvName(llm.Config{Provider: cfg.LLM.Provider, APIKeyEnv: cfg.LLM.APIKeyEnv})
	if os.Getenv(keyEnv) == "" {
		add("model provider", "api key", "fail", fmt.Sprintf("export %s to enable generation", keyEnv))
	} else {
		add("model provider", "api key", "pass", keyEnv+" is set")

		if _, err := llm.New(llm.Config{
			Provider:  cfg.LLM.Provider,
			Model:     cfg.LLM.Model,
			APIKeyEnv: cfg.LLM.APIKeyEnv,
		}); err != nil {
			add("model provider", "provider", "fail", err.Error())
		} else {
			add("model provider", "provider", "pass", cfg.LLM.Provider)
		}
	}

	// Database
	checkDatabase(cmd, cfg, add)

	out := buildDoctorOutput(checks)

	if opts.Format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	} else {
		renderDoctorText(cmd, out)
	}

	if out.FailCount > 0 {
		return fmt.Errorf("%d check(s) failed", out.FailCount)
	}
	return nil
}

func checkDatabase(cmd *cobra.Command, cfg *config.Config, add func(group, name, status, detail string)) {
	db, err := adapter.NewAdapter(cfg.Database.AdapterConfig(), config.GetLogger(cmd.Context()))
	if err != nil {
		add("database", "adapter", "fail", err.Error())
		return
	}

	ctx := cmd.Context()
	start := time.Now()
	if err := db.Connect(ctx, cfg.Database.AdapterConfig()); err != nil {
		add("database", "connection", "fail", err.Error())
		return
	}
	defer func() { _ = db.Close() }()
	add("database", "connection", "pass", fmt.Sprintf("connected in %s", time.Since(start).Round(time.Millisecond)))

	tables, err := db.Tables(ctx)
	if err != nil {
		add("database", "schema introspection", "fail", err.Error())
		return
	}
	if len(tables) == 0 {
		add("database", "schema introspection", "warn", "no tables visible in schema "+cfg.Database.Schema)
		return
	}
	add("database", "schema introspection", "pass", fmt.Sprintf("%d tables visible", len(tables)))
}

func buildDoctorOutput(checks []HealthCheck) *DoctorOutput {
	out := &DoctorOutput{Checks: checks}
	for _, c := range checks {
		switch c.Status {
		case "fail":
			out.FailCount++
		case "warn":
			out.WarnCount++
		}
	}
	return out
}

func renderDoctorText(cmd *cobra.Command, out *DoctorOutput) {
	w := cmd.OutOrStdout()
	titleCaser := cases.Title(language.English)

	var lastGroup string
	for _, c := range out.Checks {
		if c.Group != lastGroup {
			if lastGroup != "" {
				_, _ = fmt.Fprintln(w)
			}
			_, _ = fmt.Fprintln(w, styleBold(titleCaser.String(c.Group)))
			lastGroup = c.Group
		}

		mark := styleGreen("✓")
		switch c.Status {
		case "fail":
			mark = styleRed("✗")
		case "warn":
			mark = styleYellow("!")
		}

		detail := ""
		if c.Detail != "" {
			detail = "  " + styleFaint(c.Detail)
		}
		_, _ = fmt.Fprintf(w, "  %s %s%s\n", mark, c.Name, detail)
	}

	_, _ = fmt.Fprintln(w)
	switch {
	case out.FailCount > 0:
		_, _ = fmt.Fprintln(w, styleRed(fmt.Sprintf("%d check(s) failed", out.FailCount)))
	case out.WarnCount > 0:
		_, _ = fmt.Fprintln(w, styleYellow(fmt.Sprintf("Ready, with %d warning(s)", out.WarnCount)))
	default:
		_, _ = fmt.Fprintln(w, styleGreen("All checks passed"))
	}
}
