// Package main 启动应用程序
package main

import "github.com/artguard/artguard/pkg/cmd"

//	@title			ArtGuard API
//	@version		1.0
//	@description	ArtGuard 是一个艺术品图像鉴别服务，提供图片上传、分类扫描、历史记录管理与统计分析等功能。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

func main() {
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}
