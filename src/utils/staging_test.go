package utils

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeString(s string) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	}
}

func TestStagingCommit(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "plots", "a.png")
	b := filepath.Join(dir, "out", "b.csv")

	st := &Staging{}
	require.NoError(t, st.Stage(a, writeString("A")))
	require.NoError(t, st.Stage(b, writeString("B")))

	// 提交前目标文件不存在
	assert.NoFileExists(t, a)
	assert.NoFileExists(t, b)

	require.NoError(t, st.Commit())
	st.Discard()

	data, err := os.ReadFile(a)
	require.NoError(t, err)
	assert.Equal(t, "A", string(data))
	data, err = os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, "B", string(data))

	entries, err := os.ReadDir(filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStagingDiscardOnLaterFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	plots := filepath.Join(dir, "plots", "nested")
	st := &Staging{}
	require.NoError(t, st.Stage(filepath.Join(plots, "a.png"), writeString("A")))

	err := st.Stage(filepath.Join(blocker, "out.csv"), writeString("B"))
	require.ErrorIs(t, err, ErrWriteFile)
	st.Discard()

	// 临时文件和本次新建的目录都被删除
	assert.NoDirExists(t, filepath.Join(dir, "plots"))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStagingWriteError(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "sub", "x.csv")
	boom := errors.New("boom")

	st := &Staging{}
	err := st.Stage(target, func(io.Writer) error { return boom })
	require.ErrorIs(t, err, boom)
	st.Discard()

	assert.NoDirExists(t, filepath.Join(dir, "sub"))
}

func TestStagingKeepsExistingDirs(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "keep")
	require.NoError(t, os.Mkdir(existing, 0755))

	st := &Staging{}
	require.NoError(t, st.Stage(filepath.Join(existing, "x.csv"), writeString("x")))
	st.Discard()

	assert.DirExists(t, existing)
	entries, err := os.ReadDir(existing)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
