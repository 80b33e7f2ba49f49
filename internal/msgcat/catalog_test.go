package msgcat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMessages(t *testing.T) {
	c := MustDefault()

	s, err := c.Render("finish.white", nil)
	require.NoError(t, err)
	assert.Equal(t, "White wins", s)

	s, err = c.Render("turn.countdown", map[string]any{"Player": "Black", "Seconds": 3})
	require.NoError(t, err)
	assert.Equal(t, "Black (AI) moves in 3s", s)

	for _, key := range []string{
		"turn.white", "turn.black", "finish.draw", "hud.header_hotseat",
		"error.illegal_move", "error.not_your_turn", "error.finished",
		"error.no_history", "error.not_found", "error.bad_request",
	} {
		assert.True(t, c.Has(key), key)
	}
}

func TestRenderMissing(t *testing.T) {
	c := MustDefault()

	_, err := c.Render("no.such.key", nil)
	assert.Error(t, err)

	_, err = c.Render("error.not_found", map[string]any{})
	assert.Error(t, err, "missing data key must fail")

	assert.Equal(t, "fallback", c.Text("no.such.key", nil, "fallback"))
	var nilCat *Catalog
	assert.Equal(t, "fb", nilCat.Text("finish.white", nil, "fb"))
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "10-finish.yaml"), []byte("finish:\n  white: \"흰색 승리\"\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20-extra.yml"), []byte("custom:\n  hello: \"hi {{.Name}}\"\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	c, err := New(dir)
	require.NoError(t, err)

	assert.Equal(t, "흰색 승리", c.Text("finish.white", nil, ""))
	assert.Equal(t, "Black wins", c.Text("finish.black", nil, ""))
	assert.Equal(t, "hi kim", c.Text("custom.hello", map[string]string{"Name": "kim"}, ""))
}

func TestOverrideDirRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("finish:\n  draw: one\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("finish:\n  draw: two\n"), 0o600))

	_, err := New(dir)
	assert.ErrorContains(t, err, "duplicate override key")
}

func TestNonStringLeafRejected(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("finish:\n  draw: 3\n"), 0o600))
	_, err := New(dir)
	assert.Error(t, err)
}
