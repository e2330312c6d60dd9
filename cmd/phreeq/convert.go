package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"phreeqcore/pkg/units"
)

func newConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "convert <formula> <amount> <from> <to>",
		Short:   "Convert an amount of a species between mol, mmol, mg and ug",
		Example: "  phreeq convert CaCO3 100 mg mmol",
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("amount %q: %w", args[1], err)
			}
			from, err := units.Parse(args[2])
			if err != nil {
				return err
			}
			to, err := units.Parse(args[3])
			if err != nil {
				return err
			}
			v, err := units.Convert(args[0], amount, from, to)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%g %s\n", v, to)
			return err
		},
	}
}
