package storage

import (
	"fmt"

	"github.com/quasilyte/gdata/v2"
)

// gdata 中存放存档的对象名，槽位名作为属性名
const runsObject = "runs"

// GdataStore 基于 gdata 的跨平台存储
// 数据保存在系统的用户数据目录（Linux 下为 ~/.local/share/{AppName}）
type GdataStore struct {
	manager *gdata.Manager
}

// OpenGdataStore 打开指定应用名的 gdata 存储
func OpenGdataStore(appName string) (*GdataStore, error) {
	manager, err := gdata.Open(gdata.Config{
		AppName: appName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gdata manager: %w", err)
	}
	return NewGdataStore(manager), nil
}

// NewGdataStore 使用已有的 gdata Manager 创建存储
func NewGdataStore(manager *gdata.Manager) *GdataStore {
	return &GdataStore{manager: manager}
}

// Read 读取槽位数据
func (s *GdataStore) Read(slot string) ([]byte, error) {
	if err := ValidateSlot(slot); err != nil {
		return nil, err
	}

	if !s.manager.ObjectPropExists(runsObject, slot) {
		return nil, ErrNotFound
	}

	data, err := s.manager.LoadObjectProp(runsObject, slot)
	if err != nil {
		return nil, fmt.Errorf("failed to load run save: %w", err)
	}
	return data, nil
}

// Write 写入槽位数据
func (s *GdataStore) Write(slot string, data []byte) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}

	if err := s.manager.SaveObjectProp(runsObject, slot, data); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// Delete 删除槽位数据，不存在不视为错误
func (s *GdataStore) Delete(slot string) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}

	if !s.manager.ObjectPropExists(runsObject, slot) {
		return nil
	}
	if err := s.manager.DeleteObjectProp(runsObject, slot); err != nil {
		return fmt.Errorf("failed to delete run save: %w", err)
	}
	return nil
}
