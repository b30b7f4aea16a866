package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/repository"
	"github.com/straye-as/renewal-api/internal/storage"
	"go.uber.org/zap"
)

// Upload is a file received from a client
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Stored-name prefixes per upload source
const (
	PrefixSigned     = "signed"
	PrefixDocument   = "doc"
	PrefixStaff      = "staff"
	PrefixInvitation = "inv"
	PrefixProtocol   = "prot"
)

// DocumentService owns every stored artifact. Resident documents follow a
// pending, store, confirm sequence so a row never claims a file that was not
// written, and Reconcile sweeps whatever a crash left behind.
type DocumentService struct {
	docs      *repository.DocumentRepository
	staff     *repository.StaffMessageRepository
	complexes *repository.ComplexRepository
	store     storage.Storage
	logger    *zap.Logger
	now       func() time.Time
}

func NewDocumentService(
	docs *repository.DocumentRepository,
	staff *repository.StaffMessageRepository,
	complexes *repository.ComplexRepository,
	store storage.Storage,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		docs:      docs,
		staff:     staff,
		complexes: complexes,
		store:     store,
		logger:    logger,
		now:       time.Now,
	}
}

// SaveFile stores up under a generated name and returns that name
func (s *DocumentService) SaveFile(ctx context.Context, kind storage.Kind, prefix string, up *Upload) (string, error) {
	name := storage.GenerateName(prefix, up.FileName)
	if err := s.saveNamed(ctx, kind, name, up); err != nil {
		return "", err
	}
	return name, nil
}

func (s *DocumentService) saveNamed(ctx context.Context, kind storage.Kind, name string, up *Upload) error {
	contentType := up.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if _, err := s.store.Save(ctx, kind, name, contentType, up.Reader, up.Size); err != nil {
		return fmt.Errorf("failed to store file: %w", err)
	}
	return nil
}

// StoreResidentDocument records the document as pending, writes the file and
// then confirms the row. A failed write removes the pending row again.
func (s *DocumentService) StoreResidentDocument(ctx context.Context, residentID uint, docType string, role domain.UploaderRole, prefix string, up *Upload) (*domain.ResidentDocument, error) {
	doc := &domain.ResidentDocument{
		ResidentID:     residentID,
		FileName:       storage.SanitizeFileName(up.FileName),
		FilePath:       storage.GenerateName(prefix, up.FileName),
		DocType:        docType,
		UploadedByRole: role,
		Status:         domain.DocumentStatusPending,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to record document: %w", err)
	}

	if err := s.saveNamed(ctx, storage.KindResidentDocs, doc.FilePath, up); err != nil {
		if delErr := s.docs.Delete(ctx, doc.ID); delErr != nil {
			s.logger.Warn("failed to drop pending document row", zap.Uint("document_id", doc.ID), zap.Error(delErr))
		}
		return nil, err
	}

	if err := s.docs.MarkConfirmed(ctx, doc.ID); err != nil {
		s.logger.Warn("document stored but not confirmed; left for reconciliation",
			zap.Uint("document_id", doc.ID),
			zap.String("file", doc.FilePath),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to confirm document: %w", err)
	}
	doc.Status = domain.DocumentStatusConfirmed

	s.logger.Info("resident document stored",
		zap.Uint("resident_id", residentID),
		zap.String("doc_type", docType),
		zap.String("role", string(role)),
		zap.String("file", doc.FilePath),
	)
	return doc, nil
}

// OpenResidentDocument returns a confirmed document by its stored name
func (s *DocumentService) OpenResidentDocument(ctx context.Context, name string) (io.ReadCloser, *domain.ResidentDocument, error) {
	doc, err := s.docs.GetByFilePath(ctx, name)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to look up document: %w", err)
	}
	if doc.Status != domain.DocumentStatusConfirmed {
		return nil, nil, ErrNotFound
	}
	rc, err := s.OpenFile(ctx, storage.KindResidentDocs, name)
	if err != nil {
		return nil, nil, err
	}
	return rc, doc, nil
}

// OpenFile opens a stored artifact, mapping a missing file to ErrNotFound
func (s *DocumentService) OpenFile(ctx context.Context, kind storage.Kind, name string) (io.ReadCloser, error) {
	if !storage.ValidName(name) {
		return nil, ErrNotFound
	}
	rc, err := s.store.Open(ctx, kind, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rc, nil
}

// DeleteFile removes a stored artifact, logging instead of failing
func (s *DocumentService) DeleteFile(ctx context.Context, kind storage.Kind, name string) {
	if name == "" {
		return
	}
	if err := s.store.Delete(ctx, kind, name); err != nil {
		s.logger.Warn("failed to delete file", zap.String("kind", string(kind)), zap.String("file", name), zap.Error(err))
	}
}

// ReconcileReport summarizes one sweep
type ReconcileReport struct {
	PendingDocuments int
	PendingStaff     int
	Orphans          int
}

// Reconcile removes uploads that never completed. Pending rows older than
// maxAge are dropped together with their files, then stored files older than
// maxAge that no row references are deleted. Files behind confirmed rows are
// never touched.
func (s *DocumentService) Reconcile(ctx context.Context, maxAge time.Duration) (ReconcileReport, error) {
	var report ReconcileReport
	cutoff := s.now().Add(-maxAge)

	docs, err := s.docs.ListStalePending(ctx, cutoff)
	if err != nil {
		return report, fmt.Errorf("failed to list pending documents: %w", err)
	}
	for _, doc := range docs {
		s.DeleteFile(ctx, storage.KindResidentDocs, doc.FilePath)
		if err := s.docs.Delete(ctx, doc.ID); err != nil {
			return report, fmt.Errorf("failed to delete pending document %d: %w", doc.ID, err)
		}
		report.PendingDocuments++
	}

	msgs, err := s.staff.ListStalePendingFiles(ctx, cutoff)
	if err != nil {
		return report, fmt.Errorf("failed to list pending staff files: %w", err)
	}
	for _, msg := range msgs {
		s.DeleteFile(ctx, storage.KindStaffFiles, msg.FilePath)
		if err := s.staff.DetachFile(ctx, msg.ID); err != nil {
			return report, fmt.Errorf("failed to detach staff file %d: %w", msg.ID, err)
		}
		report.PendingStaff++
	}

	referenced := map[storage.Kind]func(context.Context) ([]string, error){
		storage.KindResidentDocs: s.docs.ReferencedFiles,
		storage.KindStaffFiles:   s.staff.ReferencedFiles,
		storage.KindInvitations:  s.complexes.ReferencedFiles,
		storage.KindProtocols:    s.complexes.ReferencedFiles,
	}
	for _, kind := range storage.Kinds {
		names, err := referenced[kind](ctx)
		if err != nil {
			return report, fmt.Errorf("failed to list referenced %s: %w", kind, err)
		}
		inUse := make(map[string]bool, len(names))
		for _, n := range names {
			inUse[n] = true
		}

		objects, err := s.store.List(ctx, kind)
		if err != nil {
			return report, fmt.Errorf("failed to list stored %s: %w", kind, err)
		}
		for _, obj := range objects {
			if inUse[obj.Name] || obj.ModTime.After(cutoff) {
				continue
			}
			s.DeleteFile(ctx, kind, obj.Name)
			report.Orphans++
		}
	}

	s.logger.Info("upload reconciliation finished",
		zap.Int("pending_documents", report.PendingDocuments),
		zap.Int("pending_staff_files", report.PendingStaff),
		zap.Int("orphans", report.Orphans),
	)
	return report, nil
}
