package storage

import (
	"errors"

	"coaching-assistant-api/internal/models"
)

var (
	// ErrNotFound means the path does not exist in the backend.
	ErrNotFound = errors.New("storage: path not found")

	// ErrExists means the destination already exists.
	ErrExists = errors.New("storage: path already exists")

	// ErrInvalidPath means the path escapes the storage root or is empty
	// where a name is required.
	ErrInvalidPath = errors.New("storage: invalid path")
)

// Storage is the boundary to the document store. Listings feed the
// cache-first read path; mutations are reported to the invalidation
// router by the handlers, not here.
type Storage interface {
	// List returns the direct children of a folder.
	List(path string) ([]models.FileInfo, error)

	// Upload writes a file, creating parent folders as needed.
	Upload(path string, content []byte) error

	// Download returns a file's content and its MIME type.
	Download(path string) ([]byte, string, error)

	// Delete removes a file, or a folder when recursive is set.
	Delete(path string, recursive bool) error

	// Move renames a file or folder.
	Move(source, destination string) error

	// Copy duplicates a file.
	Copy(source, destination string) error

	// CreateFolder makes a folder (and parents).
	CreateFolder(path string) error

	// Search returns files under path whose name contains query.
	Search(path, query string) ([]models.FileInfo, error)

	// Info describes a single file or folder.
	Info(path string) (models.FileInfo, error)

	// Stats summarizes the whole backend.
	Stats() (models.StorageStats, error)
}
