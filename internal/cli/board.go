package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/meur/tiermaker/internal/board"
)

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the tier list",
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
				return outputJSON(a.out, doc)
			}
			printBoard(a.out, doc)
			return nil
		},
	}
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Finish building tiers and start sorting items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open()
			if err != nil {
				return err
			}
			defer e.Close()

			doc, err := e.session.ValidateTiers()
			if errors.Is(err, board.ErrNoTiers) {
				return errors.New("add at least one tier first")
			}
			if err != nil {
				return err
			}
			if a.jsonMode {
				return outputJSON(a.out, map[string]int{"step": doc.Step})
			}
			printSuccess(a.out, "Tiers validated, now sorting items")
			return nil
		},
	}
}

func newToggleImporterCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-importer",
		Short: "Show or hide the image importer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open()
			if err != nil {
				return err
			}
			defer e.Close()

			doc, err := e.session.ToggleImporter()
			if err != nil {
				return err
			}
			if a.jsonMode {
				return outputJSON(a.out, map[string]bool{"showImporter": doc.ShowImporter})
			}
			if doc.ShowImporter {
				printSuccess(a.out, "Importer shown")
			} else {
				printSuccess(a.out, "Importer hidden")
			}
			return nil
		},
	}
}
