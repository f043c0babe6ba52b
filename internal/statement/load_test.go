package statement

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formats.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[format]]
name = "AmexGold"
headers = ["Date", "Description", "Amount", "Extended Details"]
date_layouts = ["01/02/2006"]
account = "Amex Gold"
category_fallback = "Payment"

[format.fields]
date = "Date"
amount = "Amount"
description = "Description"
`), 0o644))

	formats, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, formats, 1)
	f := formats[0]
	assert.Equal(t, "AmexGold", f.Name)
	assert.Equal(t, "Amex Gold", f.Account)
	assert.Equal(t, []string{"01/02/2006"}, f.DateLayouts)
	assert.Equal(t, "Description", f.Fields.Description)

	r := DefaultRegistry()
	require.NoError(t, r.Register(f))
	m, err := r.Detect([]string{"Date", "Description", "Card Member", "Amount", "Extended Details"})
	require.NoError(t, err)
	assert.Equal(t, "AmexGold", m.Format.Name)
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formats.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[format]]
name = "Half"
headers = ["Date", "Amount"]
[format.fields]
date = "Date"
amount = "Amount"
`), 0o644))

	_, err := LoadFile(path)
	assert.ErrorContains(t, err, "description")

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
