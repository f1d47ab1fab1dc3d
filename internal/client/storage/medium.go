// Package storage persists SDK state (credentials, installation id, cached
// content) through interchangeable media and a lazily loaded module cache.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/feedbackkit/internal/common"
)

// Medium stores opaque values by name. Read returns common.ErrorNotFound
// when the name has never been written or was deleted. Delete of a missing
// name is not an error.
type Medium interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
}

// Lister is implemented by media that can enumerate stored names.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// Read decodes the JSON value stored under name into out. It reports false
// with a nil error when nothing is stored.
func Read(ctx context.Context, m Medium, name string, out any) (bool, error) {
	data, err := m.Read(ctx, name)
	if errors.Is(err, common.ErrorNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, common.JSON(fmt.Errorf("decode %s: %w", name, err))
	}
	return true, nil
}

func Write(ctx context.Context, m Medium, name string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return common.JSON(fmt.Errorf("encode %s: %w", name, err))
	}
	return m.Write(ctx, name, data)
}

func Delete(ctx context.Context, m Medium, name string) error {
	return m.Delete(ctx, name)
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return common.Messagef("invalid storage name %q", name)
	}
	return nil
}
