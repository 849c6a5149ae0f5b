package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "tbsu/internal/errors"
)

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0644))
	return path
}

func TestFindTableFiles(t *testing.T) {
	dir := t.TempDir()
	b := touch(t, filepath.Join(dir, "b.xlsx"))
	a := touch(t, filepath.Join(dir, "a.CSV"))
	touch(t, filepath.Join(dir, "~$b.xlsx"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "nested", "c.csv"))

	found, err := FindTableFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, found)

	_, err = FindTableFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	jan := touch(t, filepath.Join(dir, "2024-01.csv"))
	feb := touch(t, filepath.Join(dir, "2024-02.csv"))
	extra := touch(t, filepath.Join(dir, "extra", "z.xlsx"))
	touch(t, filepath.Join(dir, "empty", "readme.txt"))

	tests := []struct {
		name   string
		inputs []string
		want   []string
	}{
		{name: "plain files keep order", inputs: []string{feb, jan}, want: []string{feb, jan}},
		{name: "directory", inputs: []string{filepath.Join(dir, "extra")}, want: []string{extra}},
		{name: "glob", inputs: []string{filepath.Join(dir, "2024-*.csv")}, want: []string{jan, feb}},
		{name: "mixed", inputs: []string{extra, filepath.Join(dir, "*.csv")}, want: []string{extra, jan, feb}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.inputs...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpand_NothingFound(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "empty", "readme.txt"))

	for _, input := range []string{
		filepath.Join(dir, "missing.csv"),
		filepath.Join(dir, "*.xlsx"),
		filepath.Join(dir, "empty"),
	} {
		_, err := Expand(input)
		require.Error(t, err, input)
		assert.Equal(t, apperrors.ErrTypeNotFound, apperrors.TypeOf(err), input)
	}
}
