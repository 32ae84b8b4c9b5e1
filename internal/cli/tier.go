package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newTierCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tier",
		Short: "Manage tiers",
	}
	cmd.AddCommand(newTierAddCmd(a), newTierRmCmd(a), newTierMvCmd(a), newTierLsCmd(a))
	return cmd
}

func newTierAddCmd(a *app) *cobra.Command {
	var color string
	cmd := &cobra.Command{
		Use:   "add <label>",
		Short: "Add a tier at the lowest priority",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open()
			if err != nil {
				return err
			}
			defer e.Close()

			tier, ok, err := e.session.AddTier(args[0], color)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("tier label must not be empty")
			}
			if a.jsonMode {
				return outputJSON(a.out, tier)
			}
			printSuccess(a.out, "Added tier %s (%s)", tier.Label, tier.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&color, "color", "", "Tier color (default #ff0000)")
	return cmd
}

func newTierRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <tier-id>",
		Short: "Delete a tier; its items go back to the pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open()
			if err != nil {
				return err
			}
			defer e.Close()

			doc, err := e.session.DeleteTier(args[0])
			if err != nil {
				return err
			}
			if a.jsonMode {
				return outputJSON(a.out, doc.Tiers)
			}
			printSuccess(a.out, "Deleted tier %s", args[0])
			return nil
		},
	}
}

func newTierMvCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <tier-id> <position>",
		Short: "Move a tier to a new position (0 is the highest)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid position %q", args[1])
			}
			e, err := a.open()
			if err != nil {
				return err
			}
			defer e.Close()

			doc, err := e.session.MoveTier(args[0], pos)
			if err != nil {
				return err
			}
			if a.jsonMode {
				return outputJSON(a.out, doc.Tiers)
			}
			printTiers(a.out, doc)
			return nil
		},
	}
}

func newTierLsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List tiers in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open()
			if err != nil {
				return err
			}
			defer e.Close()

			doc, err := e.session.Load()
			if err != nil {
				return err
			}
			if a.jsonMode {
				return outputJSON(a.out, doc.Tiers)
			}
			printTiers(a.out, doc)
			return nil
		},
	}
}
