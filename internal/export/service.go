package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"willvault/api/internal/will"
)

// Archiver keeps a copy of every rendered PDF.
type Archiver interface {
	Put(ctx context.Context, ownerID, documentID string, res *Result) (string, error)
}

type pdfFunc func(ctx context.Context, html, title string) (*Result, error)

// Service provides will preview and PDF export
type Service struct {
	archive   Archiver
	logger    *zap.Logger
	renderPDF pdfFunc
	now       func() time.Time
}

// NewService creates an export service. archive may be nil.
func NewService(archive Archiver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{archive: archive, logger: logger, renderPDF: RenderPDF, now: time.Now}
}

// Preview renders the will as an HTML page.
func (s *Service) Preview(doc will.Document) (*Result, error) {
	html, err := RenderWillHTML(BuildPreview(doc, s.now()))
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	return &Result{
		Data:     []byte(html),
		Filename: documentTitle(doc) + ".html",
		MimeType: "text/html; charset=utf-8",
	}, nil
}

// PDF renders the will through headless Chrome. Archive failures are logged;
// the caller still gets the PDF.
func (s *Service) PDF(ctx context.Context, doc will.Document, ownerID string) (*Result, error) {
	html, err := RenderWillHTML(BuildPreview(doc, s.now()))
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	res, err := s.renderPDF(ctx, html, documentTitle(doc))
	if err != nil {
		return nil, err
	}
	if s.archive != nil {
		key, err := s.archive.Put(ctx, ownerID, doc.ID, res)
		if err != nil {
			s.logger.Warn("archive will pdf", zap.String("document_id", doc.ID), zap.Error(err))
		} else {
			s.logger.Info("archived will pdf", zap.String("document_id", doc.ID), zap.String("key", key))
		}
	}
	return res, nil
}

func documentTitle(doc will.Document) string {
	title := "digital-asset-will"
	if doc.PersonalInfo != nil {
		if name := strings.TrimSpace(doc.PersonalInfo.FullName); name != "" {
			title = sanitizeFilename(name + " digital will")
		}
	}
	return title
}
