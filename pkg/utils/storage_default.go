//go:build !android

package utils

// EnsureStorageDir 非 Android 平台由 gdata 自行创建目录，这里什么都不做
func EnsureStorageDir() error {
	return nil
}
