package util

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
)

// DefaultErrorExitCode is the exit code for any command that failed.
const DefaultErrorExitCode = 1

// RunHelp shows the command's help text. Parents without a direct action
// use it as their Run.
func RunHelp(cmd *cobra.Command, args []string) {
	_ = cmd.Help()
}

// CheckErr prints a user-friendly error to STDERR and exits with a non-zero
// exit code. Unrecognized errors get an "error: " prefix.
func CheckErr(err error) {
	if err == nil {
		return
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "error: ") {
		msg = fmt.Sprintf("error: %s", msg)
	}
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(DefaultErrorExitCode)
}

// ColorStatus renders a lifecycle status string in the conventional color:
// green for done, red for dead ends, cyan for in flight, plain otherwise.
func ColorStatus(status string) string {
	switch status {
	case string(entity.TaskStatusCompleted):
		return color.GreenString(status)
	case string(entity.TaskStatusFailed), string(entity.ExecutionStatusTimedOut):
		return color.RedString(status)
	case string(entity.TaskStatusRunning):
		return color.CyanString(status)
	case string(entity.TaskStatusBlocked):
		return color.YellowString(status)
	default:
		return status
	}
}

// ColorOutcome renders an archive outcome: green for SUCCEEDED, yellow for
// PARTIAL, red for FAILED.
func ColorOutcome(outcome entity.Outcome) string {
	switch outcome {
	case entity.OutcomeSucceeded:
		return color.GreenString(string(outcome))
	case entity.OutcomePartial:
		return color.YellowString(string(outcome))
	case entity.OutcomeFailed:
		return color.RedString(string(outcome))
	default:
		return string(outcome)
	}
}
