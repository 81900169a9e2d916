//go:build !mobile

package utils

import "os"

// IsMobile 是否以移动端方式运行
// 桌面端编译时返回 false；设置 ASTRORUN_MOBILE_EMULATE=1 可在桌面上模拟触摸界面
func IsMobile() bool {
	return os.Getenv("ASTRORUN_MOBILE_EMULATE") == "1"
}
