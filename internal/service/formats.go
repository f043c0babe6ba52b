package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jask/expensetracker/internal/database/repository"
	"github.com/jask/expensetracker/internal/statement"
)

var (
	// ErrFormatConflict means a format name is owned by a built-in or the formats file.
	ErrFormatConflict = errors.New("format name is reserved")
	// ErrFormatNotFound means no stored format has the given name.
	ErrFormatNotFound = errors.New("format not found")
)

// Format sources, in precedence order.
const (
	SourceBuiltin = "builtin"
	SourceFile    = "file"
	SourceStored  = "stored"
)

// FormatInfo is a known format and where it came from.
type FormatInfo struct {
	statement.Format
	Source string `json:"source"`
}

// FormatService is the custom mapping store: built-ins, then the configured TOML file, then
// formats registered at runtime.
type FormatService struct {
	Repo *repository.FormatRepo
	File string
	Log  zerolog.Logger
}

// List returns every known format. A stored definition that no longer decodes is skipped with a
// warning rather than failing the listing.
func (s *FormatService) List(ctx context.Context) ([]FormatInfo, error) {
	var out []FormatInfo
	for _, f := range statement.Builtins() {
		out = append(out, FormatInfo{Format: f, Source: SourceBuiltin})
	}
	if s.File != "" {
		formats, err := statement.LoadFile(s.File)
		if err != nil {
			return nil, err
		}
		for _, f := range formats {
			out = append(out, FormatInfo{Format: f, Source: SourceFile})
		}
	}
	if s.Repo == nil {
		return out, nil
	}
	records, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stored formats: %w", err)
	}
	for _, rec := range records {
		f, err := statement.UnmarshalDefinition([]byte(rec.Definition))
		if err != nil {
			s.Log.Warn().Err(err).Str("format", rec.Name).Msg("skipping stored format")
			continue
		}
		out = append(out, FormatInfo{Format: f, Source: SourceStored})
	}
	return out, nil
}

// Registry builds a detection registry from List. When two sources share a name the earlier
// source wins.
func (s *FormatService) Registry(ctx context.Context) (*statement.Registry, error) {
	infos, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	reg, _ := statement.NewRegistry()
	for _, info := range infos {
		if err := reg.Register(info.Format); err != nil {
			s.Log.Warn().Err(err).Str("format", info.Name).Str("source", info.Source).Msg("format not registered")
		}
	}
	return reg, nil
}

// Register validates f and stores it, replacing a stored format of the same name.
func (s *FormatService) Register(ctx context.Context, f statement.Format) error {
	if s.Repo == nil {
		return fmt.Errorf("format store not configured")
	}
	f.Name = strings.TrimSpace(f.Name)
	if err := f.Validate(); err != nil {
		return err
	}
	infos, err := s.List(ctx)
	if err != nil {
		return err
	}
	if err := reserved(infos, f.Name); err != nil {
		return err
	}
	def, err := f.MarshalDefinition()
	if err != nil {
		return fmt.Errorf("encode format: %w", err)
	}
	if err := s.Repo.Upsert(ctx, repository.FormatRecord{Name: f.Name, Definition: string(def)}); err != nil {
		return fmt.Errorf("store format %s: %w", f.Name, err)
	}
	s.Log.Info().Str("format", f.Name).Int("headers", len(f.Headers)).Msg("format registered")
	return nil
}

// Delete removes a format registered at runtime. Built-in and file formats cannot be deleted.
func (s *FormatService) Delete(ctx context.Context, name string) error {
	if s.Repo == nil {
		return fmt.Errorf("format store not configured")
	}
	name = strings.TrimSpace(name)
	infos, err := s.List(ctx)
	if err != nil {
		return err
	}
	if err := reserved(infos, name); err != nil {
		return err
	}
	rec, err := s.Repo.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("load format %s: %w", name, err)
	}
	if rec == nil {
		return fmt.Errorf("%w: %s", ErrFormatNotFound, name)
	}
	if _, err := s.Repo.Delete(ctx, rec.Name); err != nil {
		return fmt.Errorf("delete format %s: %w", name, err)
	}
	s.Log.Info().Str("format", rec.Name).Msg("format deleted")
	return nil
}

func reserved(infos []FormatInfo, name string) error {
	for _, info := range infos {
		if info.Source != SourceStored && strings.EqualFold(info.Name, name) {
			return fmt.Errorf("%w: %s is a %s format", ErrFormatConflict, info.Name, info.Source)
		}
	}
	return nil
}
