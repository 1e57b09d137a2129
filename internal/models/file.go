package models

import "time"

// FileInfo describes a stored file or folder as returned by listings
type FileInfo struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Extension string    `json:"extension"`
	IsFolder  bool      `json:"isFolder"`
	Modified  time.Time `json:"modified"`
}

// StorageStats summarizes the storage backend contents
type StorageStats struct {
	TotalFiles   int   `json:"totalFiles"`
	TotalFolders int   `json:"totalFolders"`
	TotalBytes   int64 `json:"totalBytes"`
}
