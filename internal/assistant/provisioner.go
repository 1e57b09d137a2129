package assistant

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log"
	"sort"
	"strings"

	"coaching-assistant-api/internal/models"
	"coaching-assistant-api/internal/storage"
)

// suitableExtensions are the file types worth indexing into a vector
// store. Everything else is skipped.
var suitableExtensions = map[string]bool{
	".txt": true, ".md": true, ".pdf": true, ".doc": true, ".docx": true,
	".json": true, ".csv": true, ".html": true, ".xml": true,
}

// Fingerprint identifies a folder's indexable content: the folder path
// plus a digest over the suitable files' paths, sizes and modification
// times. Any change to the indexed set produces a new fingerprint, which
// is what drives the lifecycle manager to rebuild the vector store.
func Fingerprint(folderPath string, files []models.FileInfo) string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		if f.IsFolder || !suitableExtensions[f.Extension] {
			continue
		}
		names = append(names, fmt.Sprintf("%s|%d|%d", f.Path, f.Size, f.Modified.UnixNano()))
	}
	sort.Strings(names)
	sum := md5.Sum([]byte(strings.Join(names, "\n")))
	return folderPath + "@" + hex.EncodeToString(sum[:])
}

// folderFromFingerprint recovers the folder path a fingerprint covers.
func folderFromFingerprint(fingerprint string) string {
	if i := strings.LastIndex(fingerprint, "@"); i >= 0 {
		return fingerprint[:i]
	}
	return fingerprint
}

// VectorStoreProvisioner builds session vector stores from folder
// content and implements lifecycle.Provisioner.
type VectorStoreProvisioner struct {
	client *Client
	store  storage.Storage
}

// NewVectorStoreProvisioner wires the API client to the document store.
func NewVectorStoreProvisioner(client *Client, store storage.Storage) *VectorStoreProvisioner {
	return &VectorStoreProvisioner{client: client, store: store}
}

// Create provisions a vector store holding the folder's suitable files.
// Per-file upload failures are logged and skipped; an empty folder still
// yields a (file-less) store so the session can proceed.
func (p *VectorStoreProvisioner) Create(ctx context.Context, fingerprint string) (string, error) {
	folder := folderFromFingerprint(fingerprint)

	vectorStoreID, err := p.client.CreateVectorStore(ctx, "Session Documents - "+folder)
	if err != nil {
		return "", err
	}

	files, err := p.store.List(folder)
	if err != nil {
		// The store was created but cannot be filled; clean it up rather
		// than handing back a half-provisioned resource.
		if delErr := p.client.DeleteVectorStore(ctx, vectorStoreID); delErr != nil {
			log.Printf("assistant: cleanup of %s after failed provisioning also failed: %v", vectorStoreID, delErr)
		}
		return "", fmt.Errorf("listing %s for vector store: %w", folder, err)
	}

	attached := 0
	for _, f := range files {
		if f.IsFolder || !suitableExtensions[f.Extension] {
			continue
		}
		content, _, err := p.store.Download(f.Path)
		if err != nil {
			log.Printf("assistant: skipping %s: %v", f.Path, err)
			continue
		}
		fileID, err := p.client.UploadFile(ctx, f.Name, content)
		if err != nil {
			log.Printf("assistant: upload of %s failed: %v", f.Path, err)
			continue
		}
		if err := p.client.AttachFile(ctx, vectorStoreID, fileID); err != nil {
			log.Printf("assistant: attaching %s to %s failed: %v", f.Path, vectorStoreID, err)
			continue
		}
		attached++
	}
	log.Printf("assistant: vector store %s created for %s (%d files)", vectorStoreID, folder, attached)
	return vectorStoreID, nil
}

// Destroy removes a vector store; an already-deleted ID is success.
func (p *VectorStoreProvisioner) Destroy(ctx context.Context, resourceID string) error {
	return p.client.DeleteVectorStore(ctx, resourceID)
}
