package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"inspection_server/server/domain"
)

// DiskStore keeps attachments as plain files under a single storage root.
// The on-disk name is "<id>_<original-name>", so the original filename
// survives a process restart without a metadata record.
type DiskStore struct {
	root string
}

// NewDiskStore creates the storage root if it does not exist yet. Creation
// is idempotent; failure here is fatal to startup.
func NewDiskStore(root string) (*DiskStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %s: %w", root, err)
	}
	return &DiskStore{root: root}, nil
}

func (s *DiskStore) Root() string {
	return s.root
}

func (s *DiskStore) Save(ctx context.Context, id, originalName string, data []byte) error {
	name := sanitizeName(originalName)
	if name == "" {
		return fmt.Errorf("%w: filename is required", domain.ErrValidation)
	}
	return s.writeFile(id+"_"+name, data)
}

func (s *DiskStore) Open(ctx context.Context, id string) (io.ReadCloser, Info, error) {
	name, err := s.find(id)
	if err != nil {
		return nil, Info{}, err
	}
	path := filepath.Join(s.root, name)
	stat, err := os.Stat(path)
	if err != nil {
		return nil, Info{}, fmt.Errorf("%w: stat %s: %v", domain.ErrStorage, name, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, Info{}, fmt.Errorf("%w: open %s: %v", domain.ErrStorage, name, err)
	}
	info := Info{
		ID:           id,
		OriginalName: strings.TrimPrefix(name, id+"_"),
		SizeBytes:    stat.Size(),
		ModTime:      stat.ModTime(),
	}
	return f, info, nil
}

func (s *DiskStore) SaveThumbnail(ctx context.Context, id string, data []byte) error {
	return s.writeFile(id+thumbSuffix, data)
}

func (s *DiskStore) OpenThumbnail(ctx context.Context, id string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, id+thumbSuffix))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no thumbnail for %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: open thumbnail for %s: %v", domain.ErrStorage, id, err)
	}
	return f, nil
}

// writeFile stages the content in a temp file within the root and renames
// it into place, so a matching key never exposes partial content.
func (s *DiskStore) writeFile(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", domain.ErrStorage, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %v", domain.ErrStorage, name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: sync %s: %v", domain.ErrStorage, name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %v", domain.ErrStorage, name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.root, name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: rename %s: %v", domain.ErrStorage, name, err)
	}
	return nil
}

func (s *DiskStore) find(id string) (string, error) {
	if strings.TrimSpace(id) == "" || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("%w: attachment %q", domain.ErrNotFound, id)
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return "", fmt.Errorf("%w: read storage root: %v", domain.ErrStorage, err)
	}
	prefix := id + "_"
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		return name, nil
	}
	return "", fmt.Errorf("%w: attachment %q", domain.ErrNotFound, id)
}

// sanitizeName strips any path components from a client-supplied filename.
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(name)
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return strings.TrimSpace(name)
}
