//go:build !mobile

// 普通构建时的占位文件，绑定代码只在 -tags mobile 下编译
package mobile

// Dummy 让包在桌面构建中也能被引用
func Dummy() {}
