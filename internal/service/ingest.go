package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jask/expensetracker/internal/archive"
	"github.com/jask/expensetracker/internal/classify"
	"github.com/jask/expensetracker/internal/database/repository"
	"github.com/jask/expensetracker/internal/statement"
)

var (
	// ErrAccountRequired means neither the caller nor the detected format named an account.
	ErrAccountRequired = errors.New("account selection is required")
	// ErrNoValidRows means the batch produced no stored and no duplicate rows.
	ErrNoValidRows = errors.New("no valid expenses found to insert")
)

// IngestService runs one statement through read, detect, map, classify and persist.
type IngestService struct {
	Formats    *FormatService
	Classifier *classify.Classifier
	Persister  *Persister
	Archiver   archive.Archiver // optional
	Timeout    time.Duration    // zero means no deadline beyond ctx
	MaxRows    int
	Log        zerolog.Logger
}

// Request is one uploaded statement. Account and Format are optional overrides.
type Request struct {
	Filename string
	Body     io.Reader
	Account  string
	Format   string
}

// Result summarizes a batch.
type Result struct {
	Format     string
	Account    string
	Archived   string
	Accepted   []repository.Expense
	Duplicates int
	Rejected   []*statement.RowError
}

func (r Result) RejectedCount() int { return len(r.Rejected) }

// Errors renders the row rejections as "line N: reason".
func (r Result) Errors() []string {
	out := make([]string, 0, len(r.Rejected))
	for _, e := range r.Rejected {
		out = append(out, e.Error())
	}
	return out
}

// Ingest processes req. Row problems never abort the batch; they land in Result.Rejected. On
// cancellation or deadline the partial result is returned with the context error.
func (s *IngestService) Ingest(ctx context.Context, req Request) (Result, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	log := s.Log.With().Str("file", req.Filename).Logger()

	data, err := io.ReadAll(req.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read upload: %w", err)
	}

	var res Result
	if s.Archiver != nil {
		loc, err := s.Archiver.Archive(ctx, req.Filename, data)
		if err != nil {
			log.Warn().Err(err).Msg("archive failed")
		}
		res.Archived = loc
	}

	sheet, err := statement.Read(req.Filename, bytes.NewReader(data), s.MaxRows)
	if err != nil {
		return res, fmt.Errorf("read statement: %w", err)
	}

	format, err := s.resolveFormat(ctx, log, req.Format, sheet.Header)
	if err != nil {
		return res, err
	}
	res.Format = format.Name

	res.Account = strings.TrimSpace(req.Account)
	if res.Account == "" {
		res.Account = format.Account
	}
	if res.Account == "" {
		return res, ErrAccountRequired
	}
	log = log.With().Str("format", format.Name).Str("account", res.Account).Logger()

	for _, bad := range sheet.Bad {
		log.Warn().Int("line", bad.Line).Str("reason", bad.Reason).Msg("row rejected")
		res.Rejected = append(res.Rejected, bad)
	}

	for i, row := range sheet.Rows {
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Int("processed", i).Msg("ingest interrupted")
			return res, fmt.Errorf("ingest interrupted: %w", err)
		}
		line := sheet.Lines[i]

		tx, err := statement.Map(format, row, line, res.Account)
		if err != nil {
			var rerr *statement.RowError
			if !errors.As(err, &rerr) {
				rerr = &statement.RowError{Line: line, Reason: err.Error(), Err: statement.ErrRowRejected}
			}
			log.Warn().Int("line", line).Str("reason", rerr.Reason).Msg("row rejected")
			res.Rejected = append(res.Rejected, rerr)
			continue
		}

		classified := s.Classifier.Classify(tx)
		exp, inserted, err := s.Persister.Persist(ctx, classified)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, fmt.Errorf("ingest interrupted: %w", ctxErr)
			}
			log.Error().Err(err).Int("line", line).Msg("row not stored")
			res.Rejected = append(res.Rejected, &statement.RowError{Line: line, Reason: err.Error(), Err: err})
			continue
		}
		if !inserted {
			log.Debug().Int("line", line).Str("description", exp.Description).Str("date", exp.Date).
				Int64("amount_cents", exp.AmountCents).Msg("duplicate skipped")
			res.Duplicates++
			continue
		}
		res.Accepted = append(res.Accepted, exp)
	}

	log.Info().Int("accepted", len(res.Accepted)).Int("duplicates", res.Duplicates).
		Int("rejected", res.RejectedCount()).Msg("ingest complete")

	if len(res.Accepted) == 0 && res.Duplicates == 0 {
		return res, ErrNoValidRows
	}
	return res, nil
}

func (s *IngestService) resolveFormat(ctx context.Context, log zerolog.Logger, name string, header []string) (statement.Format, error) {
	reg, err := s.Formats.Registry(ctx)
	if err != nil {
		return statement.Format{}, err
	}
	if name = strings.TrimSpace(name); name != "" {
		f, ok := reg.Lookup(name)
		if !ok {
			return statement.Format{}, fmt.Errorf("%w: no format named %q", statement.ErrUnknownFormat, name)
		}
		if err := statement.CheckHeader(f, header); err != nil {
			return statement.Format{}, err
		}
		return f, nil
	}
	m, err := reg.Detect(header)
	if err != nil {
		return statement.Format{}, err
	}
	if len(m.Tied) > 0 {
		log.Warn().Str("format", m.Format.Name).Strs("tied", m.Tied).Msg("ambiguous header, using earliest registered format")
	}
	return m.Format, nil
}
