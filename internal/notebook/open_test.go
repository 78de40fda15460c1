package notebook

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morozRed/notegraph/internal/config"
	"github.com/morozRed/notegraph/internal/state"
)

func TestOpenAppliesConfigAndSavedState(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, docsFiles())
	writeFiles(t, root, map[string]string{
		".notegraphignore": "docs/sub/\n",
		"vendor/lib.js":    `import "../index.html"`,
	})
	st := state.NewState()
	st.SetCollapsed([]string{"docs"})
	require.NoError(t, st.Save(root))

	cfg := config.Default()
	cfg.Root = root
	cfg.Ignore = []string{"vendor/"}

	svc, err := Open(cfg, nil, nil)
	require.NoError(t, err)
	report, err := svc.Rescan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Nodes)
	assert.Equal(t, []string{"docs"}, report.Collapsed)
	assert.True(t, svc.Ignore().ShouldIgnore("vendor/lib.js", false))
	_, writable := svc.PathEditing()
	assert.True(t, writable)
}

func TestOpenReadOnly(t *testing.T) {
	cfg := config.Default()
	cfg.Root = t.TempDir()
	cfg.ReadOnly = true

	svc, err := Open(cfg, nil, nil)
	require.NoError(t, err)
	_, writable := svc.PathEditing()
	assert.False(t, writable)
}
