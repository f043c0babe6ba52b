package archive

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/expensetracker/internal/config"
)

func TestDir_Archive(t *testing.T) {
	root := t.TempDir()
	a := Dir{Root: root}

	loc, err := a.Archive(context.Background(), "Chase1234_Activity.CSV", []byte("a,b\n1,2\n"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(loc, root))
	assert.True(t, strings.HasSuffix(loc, "-Chase1234_Activity.CSV"))

	got, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(got))
}

func TestObjectName(t *testing.T) {
	now := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)

	name := objectName(`C:\Users\me\My Statement (1).csv`, now)
	assert.True(t, strings.HasPrefix(name, "statements/2024/03/09/"), name)
	assert.True(t, strings.HasSuffix(name, "-My_Statement__1_.csv"), name)

	name = objectName("../../etc/passwd", now)
	assert.Equal(t, "statements/2024/03/09", filepath.ToSlash(filepath.Dir(name)))

	name = objectName("", now)
	assert.True(t, strings.HasSuffix(name, "-statement"), name)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	a, closeFn, err := New(ctx, config.ArchiveConfig{})
	require.NoError(t, err)
	assert.IsType(t, Nop{}, a)
	require.NoError(t, closeFn())

	loc, err := a.Archive(ctx, "x.csv", []byte("x"))
	require.NoError(t, err)
	assert.Empty(t, loc)

	dir := t.TempDir()
	a, closeFn, err = New(ctx, config.ArchiveConfig{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, Dir{Root: dir}, a)
	require.NoError(t, closeFn())
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv", contentType("a.csv"))
	assert.Contains(t, contentType("a.XLSX"), "spreadsheetml")
}
