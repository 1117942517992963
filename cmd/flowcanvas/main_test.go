package main

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/flowcanvas/internal/adapters/file"
	"github.com/aretw0/flowcanvas/internal/testutils"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var greeting = map[string]string{
	"start.md": "---\ntype: message\nnext: bye\n---\nWelcome!",
	"bye.md":   "---\ntype: end\n---\nBye!",
}

// run executes the root command. Flags persist between runs, so every call
// passes the store flags it relies on.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "flowcanvas version")
}

func TestWorkflow(t *testing.T) {
	ctx := context.Background()
	flowDir := t.TempDir()
	testutils.WriteFlow(t, flowDir, greeting)
	storeDir := t.TempDir()
	store := []string{"--tenant", "acme", "--backend", "file", "--path", storeDir, "--log-level", "error"}

	out, err := run(t, append([]string{"graph", flowDir}, store...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, `start(("Welcome!"))`)

	out, err = run(t, "validate", flowDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Flow is valid!")

	out, err = run(t, append([]string{"import", flowDir}, store...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 2 questions (0 references dropped)")

	records, err := file.New(storeDir).List(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].IsFirst)
	for _, r := range records {
		assert.NotNil(t, r.Position, "import lays the flow out")
	}

	out, err = run(t, append([]string{"node", "add", "end", "--parent", records[0].ID}, store...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "end")

	records, err = file.New(storeDir).List(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, records, 3)

	_, err = run(t, append([]string{"node", "rm", records[0].ID}, store...)...)
	assert.ErrorIs(t, err, domain.ErrStartNodeProtected)

	img := filepath.Join(t.TempDir(), "flow.png")
	_, err = run(t, append([]string{"export", "--format", "png", "--out", img}, store...)...)
	require.NoError(t, err)
	f, err := os.Open(img)
	require.NoError(t, err)
	defer f.Close()
	_, err = png.Decode(f)
	assert.NoError(t, err)

	mdDir := t.TempDir()
	_, err = run(t, append([]string{"export", "--format", "markdown", "--out", mdDir}, store...)...)
	require.NoError(t, err)
	entries, err := os.ReadDir(mdDir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestValidate_BrokenJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	dump := `[{"_id":"q1","type":"message","text":"Hi","isFirst":true,"nextQuestionId":"ghost"}]`
	require.NoError(t, os.WriteFile(path, []byte(dump), 0644))

	_, err := run(t, "validate", path)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorContains(t, err, "Missing node: 'ghost'")
}

func TestImport_RequiresTenant(t *testing.T) {
	flowDir := t.TempDir()
	testutils.WriteFlow(t, flowDir, greeting)

	_, err := run(t, "import", flowDir, "--tenant", "", "--backend", "memory")
	assert.ErrorIs(t, err, domain.ErrMissingContext)
}
