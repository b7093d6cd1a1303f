package version

import (
	"fmt"

	"github.com/blang/semver/v4"
)

// Version 为当前构建的语义化版本号，可在构建时通过
// -ldflags "-X .../pkg/version.Version=x.y.z" 覆盖。
var Version = "0.1.0"

// Get 解析并返回当前构建版本。
// 版本号不合法时返回错误，便于在启动阶段尽早暴露构建配置问题。
func Get() (semver.Version, error) {
	v, err := semver.ParseTolerant(Version)
	if err != nil {
		return semver.Version{}, fmt.Errorf("version: parse %q: %w", Version, err)
	}
	return v, nil
}

// String 返回可打印的版本字符串。
func String() string {
	v, err := Get()
	if err != nil {
		return Version
	}
	return v.String()
}
