package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/meur/tiermaker/internal/board"
	"github.com/meur/tiermaker/internal/client"
	"github.com/meur/tiermaker/internal/models"
	"github.com/meur/tiermaker/internal/tierlist"
)

func newItemCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage items",
	}
	cmd.AddCommand(
		newItemImportCmd(a),
		newItemAssignCmd(a),
		newItemUnassignCmd(a),
		newItemRmCmd(a),
		newItemLsCmd(a),
	)
	return cmd
}

func newItemImportCmd(a *app) *cobra.Command {
	var name, description string
	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Upload images and add them to the unassigned pool",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open()
			if err != nil {
				return err
			}
			defer e.Close()

			imported, err := a.importFiles(cmd, e, args, name, description, name == "" && len(args) > 1)
			if a.jsonMode {
				if jerr := outputJSON(a.out, imported); jerr != nil {
					return jerr
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Item name (defaults to Untitled, or the file name when importing several)")
	cmd.Flags().StringVar(&description, "description", "", "Item description")
	return cmd
}

// importFiles uploads each file and adds it as an item. With nameFromFile
// each item is named after its file. Failures are reported per file and
// summarized in the returned error.
func (a *app) importFiles(cmd *cobra.Command, e *env, paths []string, name, description string, nameFromFile bool) ([]models.Item, error) {
	ctx := cmd.Context()
	if !e.monitor.Check(ctx) {
		return []models.Item{}, fmt.Errorf("%w at %s", client.ErrServiceDown, e.client.BaseURL())
	}

	imported := []models.Item{}
	failed := 0
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			failed++
			printWarning(cmd.ErrOrStderr(), "%v", err)
			continue
		}
		itemName := name
		if nameFromFile {
			itemName = trimExt(filepath.Base(path))
		}
		item, err := e.session.ImportImage(ctx, tierlist.ImportRequest{
			Filename:    filepath.Base(path),
			Data:        data,
			Name:        itemName,
			Description: description,
		})
		if err != nil {
			failed++
			printWarning(cmd.ErrOrStderr(), "%v", err)
			continue
		}
		imported = append(imported, item)
		if !a.jsonMode {
			printSuccess(a.out, "Imported %s as %s", path, item.ID)
		}
	}
	if failed > 0 {
		return imported, fmt.Errorf("%d of %d images failed to import", failed, len(paths))
	}
	return imported, nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

func newItemAssignCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <item-id> <tier-id>",
		Short: "Put an item in a tier",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tierID := args[1]
			return a.assign(args[0], &tierID)
		},
	}
}

func newItemUnassignCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unassign <item-id>",
		Short: "Put an item back in the unassigned pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.assign(args[0], nil)
		},
	}
}

func (a *app) assign(itemID string, tierID *string) error {
	e, err := a.open()
	if err != nil {
		return err
	}
	defer e.Close()

	doc, err := e.session.Assign(itemID, tierID)
	if err != nil {
		return err
	}
	item, ok := doc.Items[itemID]
	if a.jsonMode {
		return outputJSON(a.out, item)
	}
	switch {
	case !ok:
		printWarning(a.out, "No item %s", itemID)
	case item.TierID == nil && tierID != nil:
		printWarning(a.out, "Tier %s not found, %s is unassigned", *tierID, item.Name)
	case item.TierID == nil:
		printSuccess(a.out, "Unassigned %s", item.Name)
	default:
		printSuccess(a.out, "Assigned %s to %s", item.Name, doc.Tiers[doc.FindTier(*item.TierID)].Label)
	}
	return nil
}

func newItemRmCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "rm <item-id>",
		Short: "Delete an item and its uploaded image",
		Long: `Delete an item and its uploaded image.

If the image cannot be deleted from the upload server the item is kept,
unless --force is given, in which case it is removed locally anyway.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open()
			if err != nil {
				return err
			}
			defer e.Close()

			_, err = e.session.DeleteItem(cmd.Context(), args[0], force)
			if errors.Is(err, tierlist.ErrRemoteDelete) {
				return fmt.Errorf("%w (use --force to delete locally anyway)", err)
			}
			if err != nil {
				return err
			}
			if a.jsonMode {
				return outputJSON(a.out, map[string]interface{}{"deleted": true, "id": args[0]})
			}
			printSuccess(a.out, "Deleted item %s", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete locally even if the server delete fails")
	return cmd
}

func newItemLsCmd(a *app) *cobra.Command {
	var unassigned bool
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List items",
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
			var items []models.Item
			if unassigned {
				items = board.Unassigned(doc)
			} else {
				for _, it := range doc.Items {
					items = append(items, it)
				}
				sort.Slice(items, func(i, j int) bool {
					if items[i].Name != items[j].Name {
						return items[i].Name < items[j].Name
					}
					return items[i].ID < items[j].ID
				})
			}
			if a.jsonMode {
				if items == nil {
					items = []models.Item{}
				}
				return outputJSON(a.out, items)
			}
			printItems(a.out, items)
			return nil
		},
	}
	cmd.Flags().BoolVar(&unassigned, "unassigned", false, "Only list items in no tier")
	return cmd
}
