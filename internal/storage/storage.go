package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/renewal-api/internal/config"
	"go.uber.org/zap"
)

// Kind is one of the fixed artifact directories under the uploads root
type Kind string

const (
	KindResidentDocs Kind = "resident_docs"
	KindStaffFiles   Kind = "staff_files"
	KindInvitations  Kind = "invitations"
	KindProtocols    Kind = "protocols"
)

// Kinds lists every artifact kind
var Kinds = []Kind{KindResidentDocs, KindStaffFiles, KindInvitations, KindProtocols}

// ErrNotFound is returned by Open when the object does not exist
var ErrNotFound = errors.New("file not found")

// Object describes a stored file
type Object struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Storage keeps uploaded artifacts. Names are flat within a kind.
type Storage interface {
	// Save writes data under kind/name. size may be -1 when unknown.
	Save(ctx context.Context, kind Kind, name, contentType string, data io.Reader, size int64) (int64, error)
	// Open returns ErrNotFound for a missing object
	Open(ctx context.Context, kind Kind, name string) (io.ReadCloser, error)
	// Delete treats a missing object as already deleted
	Delete(ctx context.Context, kind Kind, name string) error
	List(ctx context.Context, kind Kind) ([]Object, error)
}

// NewStorage creates the backend selected by cfg.Mode
func NewStorage(cfg *config.StorageConfig, logger *zap.Logger) (Storage, error) {
	switch cfg.Mode {
	case "local", "":
		return NewLocalStorage(cfg.LocalBasePath)
	case "cloud", "azure":
		if cfg.CloudConnectionString == "" {
			return nil, fmt.Errorf("cloud connection string required for azure storage")
		}
		return NewAzureBlobStorage(cfg.CloudConnectionString, cfg.CloudContainer, logger)
	case "minio", "s3":
		return NewMinioStorage(MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported storage mode: %s", cfg.Mode)
	}
}

// KindFromString maps the public download segment to a kind
func KindFromString(s string) (Kind, bool) {
	switch s {
	case "invitation", "invitations":
		return KindInvitations, true
	case "protocol", "protocols":
		return KindProtocols, true
	case "resident_docs":
		return KindResidentDocs, true
	case "staff_files":
		return KindStaffFiles, true
	}
	return "", false
}

var unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// SanitizeFileName strips directories and characters that are unsafe in object names
func SanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "file"
	}
	return name
}

// GenerateName builds a collision-resistant stored name: <prefix>_<uuid>_<basename>
func GenerateName(prefix, original string) string {
	return fmt.Sprintf("%s_%s_%s", prefix, uuid.New().String(), SanitizeFileName(original))
}

// ValidName rejects names that could escape the kind directory
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\") && !strings.Contains(name, "..")
}
