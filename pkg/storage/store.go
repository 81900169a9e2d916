// Package storage 提供按槽位读写字节数据的存储后端
//
// 存储层对数据内容不透明：编码和版本检查由上层（存档管理器）负责。
// 槽位不存在时返回 ErrNotFound，这不是故障，调用方应视为“没有存档”。
package storage

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrNotFound 槽位中没有数据
var ErrNotFound = errors.New("slot not found")

// Store 字节存储接口
type Store interface {
	// Read 读取槽位数据，不存在时返回 ErrNotFound
	Read(slot string) ([]byte, error)
	// Write 写入（覆盖）槽位数据
	Write(slot string, data []byte) error
	// Delete 删除槽位，不存在不视为错误
	Delete(slot string) error
}

var slotPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidateSlot 验证槽位名合法性
//
// 规则：
//   - 不能为空，长度不超过 64
//   - 只能包含字母、数字、下划线、连字符（槽位名会直接用作文件名）
func ValidateSlot(slot string) error {
	if slot == "" {
		return fmt.Errorf("slot name is required")
	}
	if !slotPattern.MatchString(slot) {
		return fmt.Errorf("invalid slot name %q: only letters, digits, '_' and '-' are allowed (max 64)", slot)
	}
	return nil
}
