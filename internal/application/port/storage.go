package port

import "context"

// FileStorage abstracts blob persistence for generated documents and
// proof-of-delivery uploads
type FileStorage interface {
	Save(ctx context.Context, path string, data []byte) error
	Exists(ctx context.Context, path string) (bool, error)
}

// FolderManager manages per-entity folder layout on the storage backend
type FolderManager interface {
	CreateFolder(ctx context.Context, name string) (string, error)
}
