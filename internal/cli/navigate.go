package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/morozRed/notegraph/internal/errs"
	"github.com/morozRed/notegraph/internal/fileutil"
)

type resolveOutput struct {
	Path    string `json:"path"`
	Visible string `json:"visible"`
	Hidden  bool   `json:"hidden"`
}

func RunResolve(cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	svc, _, _, err := openNotebook(commandContext(cmd), cmd, nil)
	if err != nil {
		return err
	}

	path := args[0]
	id, ok := svc.ResolveVisible(path)
	if !ok {
		return fmt.Errorf("%w: nothing visible at or above %q", errs.ErrNotFound, path)
	}
	out := resolveOutput{Path: path, Visible: id, Hidden: id != strings.Trim(path, "/")}
	if asJSON {
		return fileutil.PrintJSON(out)
	}
	fmt.Println(out.Visible)
	return nil
}

func RunLinks(cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	svc, _, _, err := openNotebook(commandContext(cmd), cmd, nil)
	if err != nil {
		return err
	}

	found, err := svc.Links(commandContext(cmd), args[0])
	if err != nil {
		return err
	}
	if asJSON {
		return fileutil.PrintJSON(found)
	}
	for _, link := range found {
		if link.Resolved {
			fmt.Printf("%s -> %s\n", link.Raw, link.Target)
		} else {
			fmt.Printf("%s (unresolved)\n", link.Raw)
		}
	}
	return nil
}

func RunSearch(cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("failed to read --limit flag: %w", err)
	}
	if limit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", limit)
	}
	svc, _, _, err := openNotebook(commandContext(cmd), cmd, nil)
	if err != nil {
		return err
	}

	results := svc.Search(strings.Join(args, " "), limit)
	if asJSON {
		return fileutil.PrintJSON(results)
	}
	if len(results) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for _, r := range results {
		line := fmt.Sprintf("%-8s %s  score=%.3f", r.Kind, r.ID, r.Score)
		if r.Focus != "" && r.Focus != r.ID {
			line += "  (inside " + r.Focus + ")"
		}
		fmt.Println(line)
	}
	return nil
}
