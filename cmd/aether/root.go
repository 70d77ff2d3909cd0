package main

import (
	"errors"

	"github.com/aethergen/aether/apperr"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "aether",
	Short: "Parse text against a generalized, conditional, self-hosting grammar",
	Long: `aether is a thin driver over the Aether parsing engine:
- Loads a .aether grammar file and builds its immutable IR once.
- Opens a session against a source file with a -D condition assignment.
- Parses and prints the AST (default), CST, or raw BSR set.

It intentionally does not help author grammars, generate code, or scaffold
projects -- those are out of scope.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() int {
	err := rootCmd.Execute()
	if err != nil {
		return exitError(err)
	}
	return 0
}

// exitCodeFor maps an error to the §6 exit codes: 0 success (never reached
// here), 1 grammar error, 2 parse error, 3 cancelled. Anything else
// (flag-parsing errors, file-not-found) also exits 1, alongside grammar
// load failures, since both mean "the run never got to parse."
func exitCodeFor(err error) int {
	var cancelled *apperr.Cancelled
	if errors.As(err, &cancelled) {
		return 3
	}
	var synErr *apperr.SyntacticError
	if errors.As(err, &synErr) {
		return 2
	}
	return 1
}
