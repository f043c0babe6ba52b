package statement

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

type formatsFile struct {
	Format []Format `toml:"format"`
}

// LoadFile reads [[format]] tables from a TOML file and validates each entry.
func LoadFile(path string) ([]Format, error) {
	var ff formatsFile
	if _, err := toml.DecodeFile(path, &ff); err != nil {
		return nil, fmt.Errorf("parse formats file %s: %w", path, err)
	}
	for _, f := range ff.Format {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return ff.Format, nil
}
