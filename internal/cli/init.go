package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/morozRed/notegraph/internal/config"
	"github.com/morozRed/notegraph/internal/fileutil"
	"github.com/morozRed/notegraph/internal/ignore"
)

const defaultIgnoreFile = `# Paths excluded from the graph, gitignore syntax.
# .git/, node_modules/ and .notegraph/ are always excluded.
`

func RunInit(cmd *cobra.Command, args []string) error {
	rootPath, err := OptionalStringFlag(cmd, "root")
	if err != nil {
		return err
	}
	if rootPath == "" {
		if rootPath, err = resolveWorkingDirectory(); err != nil {
			return err
		}
	}

	cfg := config.Default()
	data, err := config.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to render default config: %w", err)
	}

	configPath := filepath.Join(rootPath, config.FileName)
	if err := fileutil.WriteIfMissing(configPath, data, 0o644); err != nil {
		return err
	}
	ignorePath := filepath.Join(rootPath, ignore.FileName)
	if err := fileutil.WriteIfMissing(ignorePath, []byte(defaultIgnoreFile), 0o644); err != nil {
		return err
	}

	fmt.Printf("Initialized notebook config at %s\n", configPath)
	return nil
}
