package handlers

import (
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"

	"coaching-assistant-api/internal/cache"
	"coaching-assistant-api/internal/models"
	"coaching-assistant-api/internal/storage"

	"github.com/gin-gonic/gin"
)

// MoveCopyRequest represents a move or copy request payload
type MoveCopyRequest struct {
	Source      string `json:"source" binding:"required"`
	Destination string `json:"destination" binding:"required"`
}

// CreateFolderRequest represents the folder creation payload
type CreateFolderRequest struct {
	Path string `json:"path" binding:"required"`
}

// DeleteBatchRequest represents a batch delete payload
type DeleteBatchRequest struct {
	Paths []string `json:"paths" binding:"required,min=1"`
}

// storageStatus maps storage errors to HTTP status codes.
func storageStatus(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrExists):
		return http.StatusConflict
	case errors.Is(err, storage.ErrInvalidPath):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// sortFiles orders a listing in place: folders first, then by the
// requested column. Unknown columns fall back to name.
func sortFiles(files []models.FileInfo, sortBy, sortOrder string) {
	desc := sortOrder == "desc"
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if a.IsFolder != b.IsFolder {
			return a.IsFolder
		}
		var less bool
		switch sortBy {
		case "size":
			less = a.Size < b.Size
		case "modified":
			less = a.Modified.Before(b.Modified)
		default:
			less = strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
		if desc {
			return !less
		}
		return less
	})
}

// ListFiles handles GET /api/files
// Cache-first: a hit serves the cached listing without touching storage.
func (a *API) ListFiles(c *gin.Context) {
	path := c.DefaultQuery("path", "")
	sortBy := c.DefaultQuery("sortBy", "name")
	sortOrder := c.DefaultQuery("sortOrder", "asc")

	key := cache.FileListKey(path, sortBy, sortOrder)
	if cached, ok := a.Cache.Get(key); ok {
		c.JSON(http.StatusOK, gin.H{
			"path":   path,
			"files":  cached,
			"cached": true,
		})
		return
	}

	files, err := a.Storage.List(path)
	if err != nil {
		c.JSON(storageStatus(err), gin.H{"error": "Failed to list files"})
		return
	}
	sortFiles(files, sortBy, sortOrder)

	a.Cache.Set(key, files, cache.ListingTTL)
	c.JSON(http.StatusOK, gin.H{
		"path":   path,
		"files":  files,
		"cached": false,
	})
}

// SearchFiles handles GET /api/files/search
func (a *API) SearchFiles(c *gin.Context) {
	path := c.DefaultQuery("path", "")
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'q' is required"})
		return
	}

	key := cache.SearchKey(path, query)
	if cached, ok := a.Cache.Get(key); ok {
		c.JSON(http.StatusOK, gin.H{
			"query":   query,
			"results": cached,
			"cached":  true,
		})
		return
	}

	results, err := a.Storage.Search(path, query)
	if err != nil {
		c.JSON(storageStatus(err), gin.H{"error": "Search failed"})
		return
	}

	a.Cache.Set(key, results, cache.ListingTTL)
	c.JSON(http.StatusOK, gin.H{
		"query":   query,
		"results": results,
		"cached":  false,
	})
}

// UploadFiles handles POST /api/files/upload (multipart, one or more files)
func (a *API) UploadFiles(c *gin.Context) {
	path := c.DefaultPostForm("path", "")

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Multipart form is required"})
		return
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one file is required"})
		return
	}

	uploaded := make([]string, 0, len(uploads))
	for _, fh := range uploads {
		src, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
			return
		}
		content, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
			return
		}

		target := fh.Filename
		if path != "" {
			target = strings.TrimSuffix(path, "/") + "/" + fh.Filename
		}
		if err := a.Storage.Upload(target, content); err != nil {
			c.JSON(storageStatus(err), gin.H{"error": "Failed to store " + fh.Filename})
			return
		}
		uploaded = append(uploaded, target)
	}

	// Purge stale listings before the caller can observe success.
	a.Router.OnMutation(path, cache.MutationCreate)

	c.JSON(http.StatusCreated, gin.H{
		"uploaded": uploaded,
		"count":    len(uploaded),
	})
}

// DownloadFile handles GET /api/files/download
func (a *API) DownloadFile(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'path' is required"})
		return
	}

	content, mimeType, err := a.Storage.Download(path)
	if err != nil {
		c.JSON(storageStatus(err), gin.H{"error": "Failed to download file"})
		return
	}

	name := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		name = path[i+1:]
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, mimeType, content)
}

// FileInfo handles GET /api/files/info
func (a *API) FileInfo(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'path' is required"})
		return
	}

	info, err := a.Storage.Info(path)
	if err != nil {
		c.JSON(storageStatus(err), gin.H{"error": "File not found"})
		return
	}
	c.JSON(http.StatusOK, info)
}

// DeleteFile handles DELETE /api/files
func (a *API) DeleteFile(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'path' is required"})
		return
	}
	recursive := c.Query("recursive") == "true"

	if err := a.Storage.Delete(path, recursive); err != nil {
		c.JSON(storageStatus(err), gin.H{"error": "Failed to delete"})
		return
	}

	a.Router.OnMutation(path, cache.MutationDelete)

	c.JSON(http.StatusOK, gin.H{"message": "Deleted successfully", "path": path})
}

// DeleteBatch handles POST /api/files/delete-batch
// Partial failure is reported per path; invalidation still runs for the
// paths that were deleted.
func (a *API) DeleteBatch(c *gin.Context) {
	var req DeleteBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A non-empty 'paths' array is required"})
		return
	}

	deleted := make([]string, 0, len(req.Paths))
	failed := make(map[string]string)
	for _, p := range req.Paths {
		if err := a.Storage.Delete(p, true); err != nil {
			failed[p] = err.Error()
			continue
		}
		deleted = append(deleted, p)
	}

	for _, p := range deleted {
		a.Router.OnMutation(p, cache.MutationDelete)
	}

	status := http.StatusOK
	if len(failed) > 0 && len(deleted) == 0 {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{
		"deleted": deleted,
		"failed":  failed,
	})
}

// MoveFile handles POST /api/files/move
func (a *API) MoveFile(c *gin.Context) {
	var req MoveCopyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Source and destination are required"})
		return
	}

	if err := a.Storage.Move(req.Source, req.Destination); err != nil {
		c.JSON(storageStatus(err), gin.H{"error": "Failed to move"})
		return
	}

	// Both ends of the move can hold stale listings.
	a.Router.OnMutation(req.Source, cache.MutationMove)
	a.Router.OnMutation(req.Destination, cache.MutationMove)

	c.JSON(http.StatusOK, gin.H{
		"message":     "Moved successfully",
		"source":      req.Source,
		"destination": req.Destination,
	})
}

// CopyFile handles POST /api/files/copy
func (a *API) CopyFile(c *gin.Context) {
	var req MoveCopyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Source and destination are required"})
		return
	}

	if err := a.Storage.Copy(req.Source, req.Destination); err != nil {
		c.JSON(storageStatus(err), gin.H{"error": "Failed to copy"})
		return
	}

	a.Router.OnMutation(req.Destination, cache.MutationCopy)

	c.JSON(http.StatusOK, gin.H{
		"message":     "Copied successfully",
		"source":      req.Source,
		"destination": req.Destination,
	})
}

// CreateFolder handles POST /api/folders
func (a *API) CreateFolder(c *gin.Context) {
	var req CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Folder path is required"})
		return
	}

	if err := a.Storage.CreateFolder(req.Path); err != nil {
		c.JSON(storageStatus(err), gin.H{"error": "Failed to create folder"})
		return
	}

	a.Router.OnMutation(req.Path, cache.MutationCreate)

	c.JSON(http.StatusCreated, gin.H{"message": "Folder created", "path": req.Path})
}

// StorageStats handles GET /api/storage/stats
func (a *API) StorageStats(c *gin.Context) {
	stats, err := a.Storage.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute storage stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
