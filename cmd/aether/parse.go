package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/aethergen/aether/condition"
	"github.com/aethergen/aether/forest"
	"github.com/aethergen/aether/metalang"
	"github.com/aethergen/aether/session"
	"github.com/spf13/cobra"
)

var parseFlags = struct {
	conditions *[]string
	cst        *bool
	bsr        *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "parse <grammar.aether> <source>",
		Short:   "Parse a source file against an Aether grammar",
		Example: `  aether parse grammar.aether source.txt -D legacy -D strict=false`,
		Args:    cobra.ExactArgs(2),
		RunE:    runParse,
	}
	parseFlags.conditions = cmd.Flags().StringArrayP("define", "D", nil, "condition assignment name[=bool], default true")
	parseFlags.cst = cmd.Flags().Bool("cst", false, "print the concrete syntax tree instead of the AST")
	parseFlags.bsr = cmd.Flags().Bool("bsr", false, "print the raw BSR set instead of the AST")
	rootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	if *parseFlags.cst && *parseFlags.bsr {
		return fmt.Errorf("--cst and --bsr cannot both be set")
	}

	grammarSrc, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("cannot read grammar file %s: %w", args[0], err)
	}
	ir, slots, err := metalang.Compile(grammarSrc)
	if err != nil {
		return err
	}

	values, err := parseConditionFlags(*parseFlags.conditions)
	if err != nil {
		return err
	}
	σ, err := condition.NewAssignment(ir.Conditions, values)
	if err != nil {
		return err
	}

	src, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("cannot read source file %s: %w", args[1], err)
	}

	s, err := session.Open(ir, slots, src, σ)
	if err != nil {
		return err
	}
	defer s.Close()
	fmt.Fprintf(os.Stderr, "session %s: parsing %s\n", s.ID(), args[1])

	result, err := s.Parse(context.Background())
	if err != nil {
		return err
	}

	switch {
	case *parseFlags.bsr:
		for _, e := range s.BSR().All() {
			fmt.Fprintf(os.Stdout, "(%d, %d, %d, %d)\n", e.Slot, e.I, e.K, e.J)
		}
	case *parseFlags.cst:
		forest.PrintTree(os.Stdout, result.CST)
	default:
		forest.PrintTree(os.Stdout, result.AST)
	}
	return nil
}

// parseConditionFlags turns repeated -D name[=bool] flags into a values
// map. A name given without "=bool" defaults to true; any condition name
// never mentioned at all defaults to false (condition.NewAssignment's own
// default, per §4.10).
func parseConditionFlags(defs []string) (map[string]bool, error) {
	values := map[string]bool{}
	for _, d := range defs {
		name, rest, hasValue := strings.Cut(d, "=")
		if name == "" {
			return nil, fmt.Errorf("invalid -D value %q: empty condition name", d)
		}
		if !hasValue {
			values[name] = true
			continue
		}
		v, err := strconv.ParseBool(rest)
		if err != nil {
			return nil, fmt.Errorf("invalid -D value %q: %w", d, err)
		}
		values[name] = v
	}
	return values, nil
}
