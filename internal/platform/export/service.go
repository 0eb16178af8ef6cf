// Package export renders patient documents and hands them to storage and the
// share notifier. A document that cannot be shared is removed again, so an
// export either completes or leaves nothing behind.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/domain/records"
	"github.com/clinicdesk/clinicdesk/internal/platform/apierr"
	"github.com/clinicdesk/clinicdesk/internal/platform/blobstore"
	"github.com/clinicdesk/clinicdesk/internal/platform/reportgen"
	"github.com/clinicdesk/clinicdesk/internal/platform/webhook"
	"github.com/clinicdesk/clinicdesk/pkg/clinicdate"
)

var (
	ErrDocumentNotFound = fmt.Errorf("exported document %w", apierr.ErrNotFound)
	ErrShareFailed      = errors.New("share failed")
)

const contentTypeHTML = "text/html"

// RecordFetcher retrieves the aggregated record for a patient.
type RecordFetcher interface {
	GetRecord(ctx context.Context, patientID string) (*records.PatientRecord, error)
}

// Renderer turns a record into a named document.
type Renderer interface {
	Render(rec *records.PatientRecord, kind reportgen.Kind) (string, error)
	FileName(patientName string, kind reportgen.Kind) string
}

// Sharer notifies an outside party that a document was exported.
type Sharer interface {
	Send(ctx context.Context, ev webhook.Event) (webhook.Outcome, error)
}

// Document is a rendered, not yet stored, patient document.
type Document struct {
	PatientID string
	Kind      reportgen.Kind
	FileName  string
	HTML      string
}

// Result describes a stored export.
type Result struct {
	ID           string `json:"id"`
	URI          string `json:"uri"`
	FileName     string `json:"file_name"`
	Kind         string `json:"kind"`
	Size         int64  `json:"size"`
	Shared       bool   `json:"shared"`
	ShareOutcome string `json:"share_outcome"`
}

type Service struct {
	records  RecordFetcher
	renderer Renderer
	blobs    blobstore.BlobStore
	sharer   Sharer
	baseURI  string
	now      clinicdate.Clock
	log      zerolog.Logger
}

// NewService wires the export pipeline. sharer may be nil, in which case
// every export skips sharing. baseURI prefixes the id in Result.URI.
func NewService(rf RecordFetcher, r Renderer, blobs blobstore.BlobStore, sharer Sharer, baseURI string, now clinicdate.Clock, log zerolog.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		records:  rf,
		renderer: r,
		blobs:    blobs,
		sharer:   sharer,
		baseURI:  strings.TrimRight(baseURI, "/"),
		now:      now,
		log:      log.With().Str("component", "export").Logger(),
	}
}

// Render builds the document for a patient without storing it.
func (s *Service) Render(ctx context.Context, patientID string, kind reportgen.Kind) (*Document, error) {
	rec, err := s.records.GetRecord(ctx, patientID)
	if err != nil {
		return nil, err
	}
	html, err := s.renderer.Render(rec, kind)
	if err != nil {
		return nil, err
	}
	return &Document{
		PatientID: patientID,
		Kind:      kind,
		FileName:  s.renderer.FileName(rec.Patient.Name, kind),
		HTML:      html,
	}, nil
}

// Export renders, stores and shares a patient document. When the share
// notification fails the stored document is deleted and ErrShareFailed is
// returned.
func (s *Service) Export(ctx context.Context, patientID string, kind reportgen.Kind, createdBy string) (*Result, error) {
	doc, err := s.Render(ctx, patientID, kind)
	if err != nil {
		return nil, err
	}

	meta, err := s.blobs.Upload(ctx, blobstore.BlobMetadata{
		FileName:    doc.FileName,
		ContentType: contentTypeHTML,
		PatientID:   patientID,
		Kind:        string(kind),
		CreatedBy:   createdBy,
	}, strings.NewReader(doc.HTML))
	if err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	res := &Result{
		ID:           meta.ID,
		URI:          s.baseURI + "/" + meta.ID,
		FileName:     meta.FileName,
		Kind:         string(kind),
		Size:         meta.Size,
		ShareOutcome: string(webhook.OutcomeSkipped),
	}
	if s.sharer == nil {
		return res, nil
	}

	outcome, err := s.sharer.Send(ctx, webhook.Event{
		ID:         uuid.New().String(),
		Type:       webhook.EventDocumentExported,
		DocumentID: meta.ID,
		PatientID:  patientID,
		Kind:       string(kind),
		FileName:   meta.FileName,
		URI:        res.URI,
		Timestamp:  s.now().UTC(),
	})
	if err != nil {
		// Cleanup must run even when the request was cancelled.
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), meta.ID); delErr != nil {
			s.log.Error().Err(delErr).Str("document_id", meta.ID).Msg("failed to remove unshared document")
		}
		return nil, fmt.Errorf("%w: %v", ErrShareFailed, err)
	}
	res.ShareOutcome = string(outcome)
	res.Shared = outcome == webhook.OutcomeDelivered
	return res, nil
}

// Open returns a stored export's content and metadata.
func (s *Service) Open(ctx context.Context, id string) (io.ReadCloser, *blobstore.BlobMetadata, error) {
	rc, meta, err := s.blobs.Download(ctx, id)
	if errors.Is(err, blobstore.ErrBlobNotFound) {
		return nil, nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return rc, meta, nil
}

// WriteFile saves doc under dir using its suggested file name and returns
// the written path. The file appears complete or not at all.
func WriteFile(dir string, doc *Document) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(doc.FileName))
	if err := blobstore.WriteFileAtomic(path, []byte(doc.HTML)); err != nil {
		return "", err
	}
	return path, nil
}
