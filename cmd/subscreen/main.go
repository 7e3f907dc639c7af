// Command subscreen reviews investor subscription questionnaires from JSON
// files.
//
// Usage:
//
//	# Full review, decisions printed to stdout
//	subscreen review --input questionnaires.json
//
//	# Rule checks only, written to a file
//	subscreen validate --input questionnaires.json --output validated.json
//
//	# Check a ruleset before deploying it
//	subscreen ruleset lint rulesets/default.yaml
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	exitFn(run(os.Args, os.Stdout, os.Stderr))
}

var exitFn = os.Exit

// runtimeError marks failures that happen after the command line was
// accepted. Everything else cobra returns is a usage error.
type runtimeError struct {
	err error
}

func (e runtimeError) Error() string { return e.err.Error() }

func (e runtimeError) Unwrap() error { return e.err }

func failure(format string, args ...any) error {
	return runtimeError{err: fmt.Errorf(format, args...)}
}

var errUsage = errors.New("usage")

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	root := newRootCmd()
	root.SetOut(stdout)
	root.SetErr(stderr)
	if len(args) > 1 {
		root.SetArgs(args[1:])
	} else {
		root.SetArgs([]string{})
	}

	err := root.Execute()
	if err == nil {
		return 0
	}

	var rtErr runtimeError
	if errors.As(err, &rtErr) {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if !errors.Is(err, errUsage) {
		fmt.Fprintln(stderr, err.Error())
	}
	return 2
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "subscreen",
		Short:         "Review investor subscription questionnaires",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          printUsage,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.AddCommand(newReviewCmd(), newValidateCmd(), newRulesetCmd())
	return root
}

func printUsage(cmd *cobra.Command, _ []string) error {
	fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
	return errUsage
}

func envOrDefault(key string, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}
