package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/vanpelt/trainer/internal/client"
	"github.com/vanpelt/trainer/internal/models"
)

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "📚 List the steps of the served scenario",
	Long: `# 📚 Scenario Steps

**Lists every step the server discovered, in order.**

Steps with a check script are marked with ✅.`,
	Args: cobra.NoArgs,
	RunE: runSteps,
}

var checkCmd = &cobra.Command{
	Use:   "check <step>",
	Short: "✅ Run the check script of a step",
	Long: `# ✅ Run a Step Check

**Runs the check script of a step and prints its result.**

Exits non-zero when the check fails, which makes it handy in CI for scenario authors.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	numberStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

var errCheckFailed = errors.New("check did not pass")

func init() {
	rootCmd.AddCommand(stepsCmd)
	rootCmd.AddCommand(checkCmd)
}

func runSteps(cmd *cobra.Command, args []string) error {
	api, err := client.New(serverURL)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	scenario, err := api.Scenario(ctx)
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}
	steps, err := api.Steps(ctx)
	if err != nil {
		return fmt.Errorf("failed to load steps: %w", err)
	}

	printSteps(cmd.OutOrStdout(), scenario, steps)
	return nil
}

func printSteps(w io.Writer, scenario models.Scenario, steps []models.Step) {
	if scenario.Name != "" {
		fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render(scenario.Name))
	}
	if len(steps) == 0 {
		fmt.Fprintln(w, "No steps found")
		return
	}
	for _, step := range steps {
		marker := "  "
		if step.HasCheck {
			marker = "✅"
		}
		fmt.Fprintf(w, "%s %s %s\n", numberStyle.Render(fmt.Sprintf("%2d.", step.Number)), marker, step.Title)
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	number, err := strconv.Atoi(args[0])
	if err != nil || number < 1 {
		return fmt.Errorf("invalid step number %q", args[0])
	}

	api, err := client.New(serverURL)
	if err != nil {
		return err
	}

	result, err := api.Check(cmd.Context(), number)
	if err != nil {
		return fmt.Errorf("failed to run check: %w", err)
	}

	cmd.SilenceUsage = true
	if !printCheckResult(cmd.OutOrStdout(), number, result) {
		return errCheckFailed
	}
	return nil
}

// printCheckResult reports whether the check passed
func printCheckResult(w io.Writer, number int, result models.CheckResult) bool {
	if result.Success {
		fmt.Fprintf(w, "%s Step %d passed\n", passStyle.Render("✓"), number)
	} else {
		fmt.Fprintf(w, "%s Step %d failed\n", failStyle.Render("✗"), number)
	}
	if result.Message != "" {
		fmt.Fprintln(w, result.Message)
	}
	return result.Success
}

