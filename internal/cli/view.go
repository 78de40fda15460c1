package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/morozRed/notegraph/internal/fileutil"
	"github.com/morozRed/notegraph/internal/graph"
)

func RunView(cmd *cobra.Command, args []string) error {
	collapse, err := OptionalStringSliceFlag(cmd, "collapse")
	if err != nil {
		return err
	}
	expand, err := OptionalStringSliceFlag(cmd, "expand")
	if err != nil {
		return err
	}
	asJSONL, err := OptionalBoolFlag(cmd, "jsonl", false)
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}

	svc, _, _, err := openNotebook(commandContext(cmd), cmd, nil)
	if err != nil {
		return err
	}
	for _, id := range expand {
		if !svc.Expand(id) {
			slog.Warn("region not expanded", "region", id)
		}
	}
	for _, id := range collapse {
		if !svc.Collapse(id) {
			slog.Warn("region not collapsed", "region", id)
		}
	}

	projection := svc.Project()
	if asJSONL {
		data, err := fileutil.EncodeJSONL(projection.Elements())
		if err != nil {
			return fmt.Errorf("failed to encode graph: %w", err)
		}
		_, err = os.Stdout.Write(data)
		return err
	}
	if asJSON {
		return fileutil.PrintJSON(projection)
	}
	for _, el := range projection.Elements() {
		fmt.Println(FormatElement(el))
	}
	return nil
}

// FormatElement renders one projected element as a single line.
func FormatElement(el graph.Element) string {
	switch data := el.Data.(type) {
	case graph.RegionView:
		state := "expanded"
		if data.Collapsed {
			state = "collapsed"
		}
		return fmt.Sprintf("region %s (%s)", data.ID, state)
	case graph.Node:
		return fmt.Sprintf("file   %s", data.ID)
	case graph.EdgeView:
		if data.Derived {
			return fmt.Sprintf("edge   %s -> %s (derived)", data.Source, data.Target)
		}
		return fmt.Sprintf("edge   %s -> %s", data.Source, data.Target)
	default:
		return fmt.Sprintf("%s %v", el.Group, el.Data)
	}
}
