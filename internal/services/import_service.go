package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "refdata/internal/errors"
	"refdata/internal/logger"
	"refdata/internal/metrics"
	"refdata/internal/models"
	"refdata/internal/sequence"
)

// processSequence is the sequencer entity type of process requests.
const processSequence = "process_request"

// RowResult is the outcome of one imported row. RowIndex counts data rows
// from 1; the header is not a row.
type RowResult struct {
	RowIndex int               `json:"rowIndex"`
	Success  bool              `json:"success"`
	Message  string            `json:"message"`
	Data     any               `json:"data,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
}

// importService runs bulk CSV inserts. Each row goes through the same create
// pipeline as a single request, in its own transaction.
type importService struct {
	db       *gorm.DB
	seq      *sequence.Sequencer
	creators map[string]RowCreator
}

// NewImportService creates a new ImportServicer. creators maps an entity
// slug to the service creating its rows.
func NewImportService(db *gorm.DB, seq *sequence.Sequencer, creators map[string]RowCreator) ImportServicer {
	return &importService{db: db, seq: seq, creators: creators}
}

// Import reads a CSV file whose header names entity fields and creates one
// record per row. A failed row never affects its neighbours. The returned
// process request carries the per-row report.
func (s *importService) Import(ctx context.Context, slug string, file io.Reader, fileName, actor string) (*models.ProcessRequest, error) {
	creator, ok := s.creators[slug]
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrNotFound, "unknown entity '"+slug+"'")
	}

	proc, err := s.open(ctx, slug, fileName, actor)
	if err != nil {
		return nil, err
	}
	log := logger.Get().With("process_id", proc.ProcessID, "entity", slug)

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		msg := "file has no readable header"
		if !errors.Is(err, io.EOF) {
			msg = fmt.Sprintf("%s: %v", msg, err)
		}
		log.Warnw("bulk import failed", "reason", msg)
		return s.finish(ctx, proc, models.ProcessStatusFailed, nil, msg)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var report []RowResult
	for res, err := range s.rows(ctx, reader, header, creator, actor) {
		if err != nil {
			msg := fmt.Sprintf("import stopped after %d rows: %v", len(report), err)
			log.Errorw("bulk import failed", "rows", len(report), "error", err)
			return s.finish(ctx, proc, models.ProcessStatusFailed, report, msg)
		}
		result := "succeeded"
		if !res.Success {
			result = "failed"
		}
		metrics.BulkRows.WithLabelValues(slug, result).Inc()
		report = append(report, res)
	}

	log.Infow("bulk import completed", "rows", len(report))
	return s.finish(ctx, proc, models.ProcessStatusCompleted, report, "")
}

// rows lazily creates one record per CSV row. A malformed row is reported
// as a failed row; a cancelled context or a failing reader ends the sequence
// with a non-nil error.
func (s *importService) rows(ctx context.Context, reader *csv.Reader, header []string, creator RowCreator, actor string) iter.Seq2[RowResult, error] {
	return func(yield func(RowResult, error) bool) {
		for index := 1; ; index++ {
			if err := ctx.Err(); err != nil {
				yield(RowResult{}, err)
				return
			}
			record, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				var parseErr *csv.ParseError
				if !errors.As(err, &parseErr) {
					yield(RowResult{}, err)
					return
				}
				if !yield(RowResult{RowIndex: index, Message: "unreadable row: " + err.Error()}, nil) {
					return
				}
				continue
			}
			if len(record) != len(header) {
				msg := fmt.Sprintf("row has %d columns, header has %d", len(record), len(header))
				if !yield(RowResult{RowIndex: index, Message: msg}, nil) {
					return
				}
				continue
			}

			input := make(map[string]any, len(header))
			for i, name := range header {
				if cell := strings.TrimSpace(record[i]); cell != "" {
					input[name] = cell
				}
			}

			if !yield(createRow(ctx, creator, index, input, actor), nil) {
				return
			}
		}
	}
}

func createRow(ctx context.Context, creator RowCreator, index int, input map[string]any, actor string) RowResult {
	rec, err := creator.CreateRow(ctx, input, actor)
	if err != nil {
		res := RowResult{RowIndex: index, Message: err.Error()}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			res.Message = appErr.Message
			res.Errors = appErr.Fields
			if appErr.IsServerFault() {
				res.Message = apperrors.ErrInternalServer.Message
			}
		}
		return res
	}
	return RowResult{RowIndex: index, Success: true, Message: "created", Data: rec}
}

func (s *importService) open(ctx context.Context, slug, fileName, actor string) (*models.ProcessRequest, error) {
	proc := &models.ProcessRequest{
		Type:     models.ProcessTypeBulkInsert,
		Entity:   slug,
		Status:   models.ProcessStatusInitialised,
		FileName: fileName,
	}
	proc.CreatedByUser = actor

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.seq.Next(tx, processSequence)
		if err != nil {
			return err
		}
		proc.ProcessID = n
		return tx.Create(proc).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, fmt.Errorf("open process request: %w", err))
	}

	if err := s.db.WithContext(ctx).Model(proc).Update("status", models.ProcessStatusRunning).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return proc, nil
}

func (s *importService) finish(ctx context.Context, proc *models.ProcessRequest, status models.ProcessStatus, report []RowResult, message string) (*models.ProcessRequest, error) {
	if report == nil {
		report = []RowResult{}
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	proc.Status = status
	proc.Message = message
	proc.Total = len(report)
	proc.Succeeded, proc.Failed = 0, 0
	for _, r := range report {
		if r.Success {
			proc.Succeeded++
		} else {
			proc.Failed++
		}
	}
	proc.Payload = datatypes.JSON(payload)

	if err := s.db.WithContext(context.WithoutCancel(ctx)).Save(proc).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return proc, nil
}
