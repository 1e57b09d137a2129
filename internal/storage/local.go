package storage

import (
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"coaching-assistant-api/internal/models"
)

// LocalStorage keeps documents on the local filesystem under a single
// root directory. It is the development backend; production deployments
// put an object store behind the same Storage interface.
type LocalStorage struct {
	root string
}

// NewLocalStorage creates (if needed) and wraps the root directory.
func NewLocalStorage(root string) (*LocalStorage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &LocalStorage{root: abs}, nil
}

// resolve maps a logical storage path onto the filesystem, rejecting
// anything that would escape the root.
func (l *LocalStorage) resolve(p string) (string, error) {
	cleaned := path.Clean("/" + strings.TrimPrefix(p, "/"))
	if strings.Contains(cleaned, "..") {
		return "", ErrInvalidPath
	}
	return filepath.Join(l.root, filepath.FromSlash(cleaned)), nil
}

func (l *LocalStorage) logicalPath(full string) string {
	rel, err := filepath.Rel(l.root, full)
	if err != nil {
		return ""
	}
	return filepath.ToSlash(rel)
}

func fileInfoFrom(logical string, entry fs.FileInfo) models.FileInfo {
	ext := ""
	if !entry.IsDir() {
		ext = strings.ToLower(path.Ext(entry.Name()))
	}
	return models.FileInfo{
		Name:      entry.Name(),
		Path:      logical,
		Size:      entry.Size(),
		Extension: ext,
		IsFolder:  entry.IsDir(),
		Modified:  entry.ModTime(),
	}
}

// List implements Storage.List.
func (l *LocalStorage) List(p string) ([]models.FileInfo, error) {
	full, err := l.resolve(p)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	files := make([]models.FileInfo, 0, len(entries))
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfoFrom(l.logicalPath(filepath.Join(full, entry.Name())), info))
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].IsFolder != files[j].IsFolder {
			return files[i].IsFolder
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// Upload implements Storage.Upload.
func (l *LocalStorage) Upload(p string, content []byte) error {
	full, err := l.resolve(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, content, 0o644)
}

// Download implements Storage.Download.
func (l *LocalStorage) Download(p string) ([]byte, string, error) {
	full, err := l.resolve(p)
	if err != nil {
		return nil, "", err
	}
	content, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	contentType := mime.TypeByExtension(path.Ext(p))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return content, contentType, nil
}

// Delete implements Storage.Delete.
func (l *LocalStorage) Delete(p string, recursive bool) error {
	full, err := l.resolve(p)
	if err != nil {
		return err
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	if info.IsDir() {
		if !recursive {
			return fmt.Errorf("%w: %s is a folder; delete requires recursive", ErrInvalidPath, p)
		}
		return os.RemoveAll(full)
	}
	return os.Remove(full)
}

// Move implements Storage.Move.
func (l *LocalStorage) Move(source, destination string) error {
	src, err := l.resolve(source)
	if err != nil {
		return err
	}
	dst, err := l.resolve(destination)
	if err != nil {
		return err
	}
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return ErrNotFound
	}
	if _, err := os.Stat(dst); err == nil {
		return ErrExists
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.Rename(src, dst)
}

// Copy implements Storage.Copy.
func (l *LocalStorage) Copy(source, destination string) error {
	content, _, err := l.Download(source)
	if err != nil {
		return err
	}
	dst, err := l.resolve(destination)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dst); err == nil {
		return ErrExists
	}
	return l.Upload(destination, content)
}

// CreateFolder implements Storage.CreateFolder.
func (l *LocalStorage) CreateFolder(p string) error {
	full, err := l.resolve(p)
	if err != nil {
		return err
	}
	return os.MkdirAll(full, 0o755)
}

// Search implements Storage.Search with a case-insensitive name match.
func (l *LocalStorage) Search(p, query string) ([]models.FileInfo, error) {
	full, err := l.resolve(p)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(query)
	var matches []models.FileInfo
	walkErr := filepath.Walk(full, func(fullPath string, info fs.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() || strings.HasPrefix(info.Name(), ".") {
			return nil
		}
		if strings.Contains(strings.ToLower(info.Name()), query) {
			matches = append(matches, fileInfoFrom(l.logicalPath(fullPath), info))
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return matches, nil
}

// Info implements Storage.Info.
func (l *LocalStorage) Info(p string) (models.FileInfo, error) {
	full, err := l.resolve(p)
	if err != nil {
		return models.FileInfo{}, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return models.FileInfo{}, ErrNotFound
		}
		return models.FileInfo{}, err
	}
	return fileInfoFrom(strings.TrimPrefix(path.Clean("/"+p), "/"), info), nil
}

// Stats implements Storage.Stats.
func (l *LocalStorage) Stats() (models.StorageStats, error) {
	var stats models.StorageStats
	err := filepath.Walk(l.root, func(fullPath string, info fs.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if fullPath == l.root || strings.HasPrefix(info.Name(), ".") {
			return nil
		}
		if info.IsDir() {
			stats.TotalFolders++
		} else {
			stats.TotalFiles++
			stats.TotalBytes += info.Size()
		}
		return nil
	})
	return stats, err
}

var _ Storage = (*LocalStorage)(nil)
