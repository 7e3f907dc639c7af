package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davidahmann/subscreen/internal/ambiguity"
	"github.com/davidahmann/subscreen/internal/ruleset"
)

func newRulesetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ruleset",
		Short: "Inspect review rulesets",
		RunE:  printUsage,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "lint <ruleset_path>",
		Short: "Load a ruleset and compile its markers",
		Args:  cobra.ExactArgs(1),
		RunE:  lintRuleset,
	})
	return cmd
}

func lintRuleset(cmd *cobra.Command, args []string) error {
	loaded, err := ruleset.Load(args[0])
	if err != nil {
		return failure("%w", err)
	}
	if _, err := ambiguity.New(loaded.Ruleset.AmbiguityConfig()); err != nil {
		return failure("%w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ok ruleset_id=%s ruleset_hash=%s\n", loaded.Ruleset.RulesetID, loaded.Hash)
	return nil
}
