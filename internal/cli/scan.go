package cli

import (
	"github.com/spf13/cobra"
)

func RunScan(cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}

	progress := newScanProgressReporter("scan", asJSON)
	_, cfg, report, err := openNotebook(commandContext(cmd), cmd, progress.Update)
	if err != nil {
		return err
	}
	progress.Done(report.Synthesis.Sources)

	return PrintScanSummary(NewScanSummary(cfg.Root, report), asJSON)
}
