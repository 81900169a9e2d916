package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// SaveFileSuffix 存档文件后缀
const SaveFileSuffix = ".sav"

// FileStore 基于本地目录的存储
// 每个槽位对应 {dir}/{slot}.sav
type FileStore struct {
	dir string
}

// NewFileStore 创建文件存储
//
// 参数：
//   - dir: 存档目录，不存在时自动创建
//
// 返回：
//   - *FileStore: 文件存储实例
//   - error: 如果创建目录失败返回错误
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create save directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path 返回槽位对应的文件路径
func (s *FileStore) Path(slot string) string {
	return filepath.Join(s.dir, slot+SaveFileSuffix)
}

// Read 读取槽位文件
func (s *FileStore) Read(slot string) ([]byte, error) {
	if err := ValidateSlot(slot); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path(slot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read save file: %w", err)
	}
	return data, nil
}

// Write 写入槽位文件
// 先写临时文件再重命名，避免写到一半的存档覆盖旧存档
func (s *FileStore) Write(slot string, data []byte) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}

	path := s.Path(slot)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write save file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace save file: %w", err)
	}
	return nil
}

// Delete 删除槽位文件，文件不存在不视为错误
func (s *FileStore) Delete(slot string) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}

	if err := os.Remove(s.Path(slot)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete save file: %w", err)
	}
	return nil
}
