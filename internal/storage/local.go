// Package storage は申請画像ファイルの保管を提供する。
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

// LocalImageStore はローカルディスク上のアカウントごとのディレクトリに画像を保管する。
// ディレクトリ構成は {root}/{account_id}/{file_name}。
type LocalImageStore struct {
	root string
}

// NewLocalImageStore はLocalImageStoreを生成する。
func NewLocalImageStore(root string) *LocalImageStore {
	return &LocalImageStore{root: root}
}

func (s *LocalImageStore) path(accountID int64, fileName string) (string, error) {
	if fileName == "" || fileName != filepath.Base(fileName) || fileName == "." || fileName == ".." {
		return "", fmt.Errorf("invalid image file name: %q", fileName)
	}
	return filepath.Join(s.root, strconv.FormatInt(accountID, 10), fileName), nil
}

// Delete はアカウントに紐づく指定ファイルを削除する。存在しないファイルはエラーにしない。
func (s *LocalImageStore) Delete(ctx context.Context, accountID int64, fileNames ...string) error {
	for _, name := range fileNames {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, err := s.path(accountID, name)
		if err != nil {
			return err
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to delete image %s: %w", name, err)
		}
	}
	return nil
}

// Save は画像を保存する。
func (s *LocalImageStore) Save(accountID int64, fileName string, data []byte) error {
	p, err := s.path(accountID, fileName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}
	if err := os.WriteFile(p, data, 0o640); err != nil {
		return fmt.Errorf("failed to write image %s: %w", fileName, err)
	}
	return nil
}
