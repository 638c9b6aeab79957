package download

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"
)

func TestWithState_Commit(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)
	target := filepath.Join(t.TempDir(), "Downloads")

	var tempDir string
	err := WithState(func(state *State) error {
		tempDir = state.tempDir
		assert.Equal(target, filepath.Dir(tempDir), "temp dir should default to inside the target dir")
		f, err := state.CreateTemp("*.part")
		require.NoError(err)
		_, err = f.WriteString("video bytes")
		require.NoError(err)
		path, err := state.Commit(f, "clip.mp4")
		require.NoError(err)
		assert.Equal(filepath.Join(target, "clip.mp4"), path)
		return nil
	}, WithTargetDir(target))
	require.NoError(err)

	data, err := os.ReadFile(filepath.Join(target, "clip.mp4"))
	require.NoError(err)
	assert.Equal("video bytes", string(data))
	_, err = os.Stat(tempDir)
	assert.True(os.IsNotExist(err), "temp dir should be removed")
}

func TestWithState_Uncommitted(t *testing.T) {
	assert := assert_.New(t)
	target := t.TempDir()
	boom := errors.New("boom")

	err := WithState(func(state *State) error {
		f, err := state.CreateTemp("*.part")
		if err != nil {
			return err
		}
		_ = f.Close()
		return boom
	}, WithTargetDir(target))
	assert.ErrorIs(err, boom)

	// Nothing is left behind in the target dir
	entries, err := os.ReadDir(target)
	assert.NoError(err)
	assert.Empty(entries)
}

func TestWithState_TempDir(t *testing.T) {
	assert := assert_.New(t)
	target := t.TempDir()
	temp := t.TempDir()

	err := WithState(func(state *State) error {
		assert.Equal(temp, filepath.Dir(state.tempDir))
		return nil
	}, WithTargetDir(target), WithTempDir(temp))
	assert.NoError(err)
}
