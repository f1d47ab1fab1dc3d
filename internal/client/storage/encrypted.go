package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/feedbackkit/internal/common"
	"github.com/dmitrijs2005/feedbackkit/internal/cryptox"
)

// KeyProvider supplies the symmetric key for sealed media.
type KeyProvider interface {
	Key(ctx context.Context) ([]byte, error)
}

// EncryptedFileSystemMedium seals every value with AES-GCM before it
// reaches disk.
type EncryptedFileSystemMedium struct {
	files *FileSystemMedium
	keys  KeyProvider
}

var (
	_ Medium = (*EncryptedFileSystemMedium)(nil)
	_ Lister = (*EncryptedFileSystemMedium)(nil)
)

func NewEncryptedFileSystemMedium(files *FileSystemMedium, keys KeyProvider) *EncryptedFileSystemMedium {
	return &EncryptedFileSystemMedium{files: files, keys: keys}
}

func (m *EncryptedFileSystemMedium) Read(ctx context.Context, name string) ([]byte, error) {
	sealed, err := m.files.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	key, err := m.keys.Key(ctx)
	if err != nil {
		return nil, err
	}
	data, err := cryptox.Open(sealed, key)
	if err != nil {
		if errors.Is(err, cryptox.ErrCiphertextTooShort) {
			return nil, common.FileSystem(m.files.path(name), "sealed file is truncated")
		}
		return nil, common.Generic(fmt.Sprintf("unable to decrypt %s", name), err)
	}
	return data, nil
}

func (m *EncryptedFileSystemMedium) Write(ctx context.Context, name string, data []byte) error {
	key, err := m.keys.Key(ctx)
	if err != nil {
		return err
	}
	sealed, err := cryptox.Seal(data, key)
	if err != nil {
		return common.System(err)
	}
	return m.files.Write(ctx, name, sealed)
}

func (m *EncryptedFileSystemMedium) Delete(ctx context.Context, name string) error {
	return m.files.Delete(ctx, name)
}

func (m *EncryptedFileSystemMedium) List(ctx context.Context) ([]string, error) {
	return m.files.List(ctx)
}
