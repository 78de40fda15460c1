package cli

import (
	"fmt"
	"strings"

	"github.com/morozRed/notegraph/internal/fileutil"
	"github.com/morozRed/notegraph/internal/notebook"
)

type ScanSummary struct {
	Mode          string   `json:"mode"`
	RootPath      string   `json:"root_path"`
	Generation    uint64   `json:"generation"`
	Nodes         int      `json:"nodes"`
	Regions       int      `json:"regions"`
	Edges         int      `json:"edges"`
	Unresolved    int      `json:"unresolved"`
	Changed       int      `json:"changed"`
	Deleted       int      `json:"deleted"`
	Impacted      int      `json:"impacted"`
	DurationMS    int64    `json:"duration_ms"`
	Collapsed     []string `json:"collapsed,omitempty"`
	FailedFiles   []string `json:"failed_files,omitempty"`
	ChangedFiles  []string `json:"changed_files,omitempty"`
	DeletedFiles  []string `json:"deleted_files,omitempty"`
	ImpactedFiles []string `json:"impacted_files,omitempty"`
}

func NewScanSummary(rootPath string, report notebook.ScanReport) ScanSummary {
	summary := ScanSummary{
		Mode:        "scan",
		RootPath:    rootPath,
		Generation:  report.Generation,
		Nodes:       report.Nodes,
		Regions:     report.Regions,
		Edges:       report.Edges,
		Unresolved:  report.Synthesis.Unresolved,
		DurationMS:  report.Duration.Milliseconds(),
		Collapsed:   report.Collapsed,
		FailedFiles: report.Synthesis.Failed,
	}
	if report.Changes != nil {
		summary.ChangedFiles = report.Changes.Changed
		summary.DeletedFiles = report.Changes.Deleted
		summary.ImpactedFiles = report.Changes.Impacted
		summary.Changed = len(report.Changes.Changed)
		summary.Deleted = len(report.Changes.Deleted)
		summary.Impacted = len(report.Changes.Impacted)
	}
	return summary
}

func PrintScanSummary(summary ScanSummary, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(summary)
	}

	fmt.Printf(
		"%s: nodes=%d regions=%d edges=%d unresolved=%d changed=%d deleted=%d impacted=%d duration=%dms\n",
		summary.Mode,
		summary.Nodes,
		summary.Regions,
		summary.Edges,
		summary.Unresolved,
		summary.Changed,
		summary.Deleted,
		summary.Impacted,
		summary.DurationMS,
	)

	if len(summary.Collapsed) > 0 {
		fmt.Printf("collapsed (%d): %s\n", len(summary.Collapsed), SummarizePaths(summary.Collapsed, 8))
	}
	if len(summary.FailedFiles) > 0 {
		fmt.Printf("unreadable files (%d): %s\n", len(summary.FailedFiles), SummarizePaths(summary.FailedFiles, 8))
	}
	if len(summary.ChangedFiles) > 0 {
		fmt.Printf("changed files (%d): %s\n", len(summary.ChangedFiles), SummarizePaths(summary.ChangedFiles, 8))
	}
	if len(summary.DeletedFiles) > 0 {
		fmt.Printf("deleted files (%d): %s\n", len(summary.DeletedFiles), SummarizePaths(summary.DeletedFiles, 8))
	}
	if len(summary.ImpactedFiles) > 0 {
		fmt.Printf("impacted files (%d): %s\n", len(summary.ImpactedFiles), SummarizePaths(summary.ImpactedFiles, 8))
	}
	return nil
}

func SummarizePaths(paths []string, max int) string {
	if len(paths) <= max {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s ... (+%d more)", strings.Join(paths[:max], ", "), len(paths)-max)
}
