package cli

import (
	"github.com/spf13/cobra"

	"github.com/meur/tiermaker/internal/models"
)

// NewSeedCmd builds the command that fills an empty tier list with the
// default S to F tiers.
func NewSeedCmd() *cobra.Command {
	a := newApp()
	cmd := newSeedCmd(a)
	a.bindStateFlags(cmd)
	return cmd
}

func newSeedCmd(a *app) *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Add the default S, A, B, C, D and F tiers to an empty list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.out = cmd.OutOrStdout()
			e, err := a.open()
			if err != nil {
				return err
			}
			defer e.Close()

			if reset {
				if _, err := e.session.Reset(); err != nil {
					return err
				}
			}
			doc, seeded, err := e.session.Seed(models.DefaultTiers())
			if err != nil {
				return err
			}
			if a.jsonMode {
				return outputJSON(a.out, doc.Tiers)
			}
			if !seeded {
				printWarning(a.out, "Tier list already has %d tiers, nothing seeded (use --reset to start over)", len(doc.Tiers))
				return nil
			}
			printSuccess(a.out, "Seeded %d tiers", len(doc.Tiers))
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "Discard the current tier list first")
	return cmd
}
