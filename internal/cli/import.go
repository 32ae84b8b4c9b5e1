package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/meur/tiermaker/internal/upload"
)

// NewImportCmd builds the command that uploads every image in a directory.
func NewImportCmd() *cobra.Command {
	a := newApp()
	cmd := newImportDirCmd(a)
	a.bindStateFlags(cmd)
	return cmd
}

func newImportDirCmd(a *app) *cobra.Command {
	var recursive bool
	var description string
	cmd := &cobra.Command{
		Use:   "import-dir <dir>",
		Short: "Upload every image in a directory as a new item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.out = cmd.OutOrStdout()
			paths, err := findImages(args[0], recursive)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no images found in %s", args[0])
			}

			e, err := a.open()
			if err != nil {
				return err
			}
			defer e.Close()

			imported, err := a.importFiles(cmd, e, paths, "", description, true)
			if a.jsonMode {
				if jerr := outputJSON(a.out, imported); jerr != nil {
					return jerr
				}
			} else if len(imported) > 0 {
				printSuccess(a.out, "Imported %d images", len(imported))
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Descend into subdirectories")
	cmd.Flags().StringVar(&description, "description", "", "Description for every imported item")
	return cmd
}

// findImages lists files under dir whose extension maps to an accepted
// image type, sorted by path.
func findImages(dir string, recursive bool) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && upload.Allowed(upload.TypeByExtension(d.Name(), nil)) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
