// Package queue 定义消息主题常量与通配模式，供发布/订阅使用.
package queue

// 主题命名规范：ag.<域>.<动作>[.<状态>]，尽量稳定且向后兼容.
// 域：scan(扫描记录)、artifact(图片制品)、usage(调用量)
// 动作/状态：stored/completed/deleted/failed 等

const (
	// 扫描领域.
	TopicScanStored    = "ag.scan.stored"    // 图片已写入对象存储并创建扫描记录（状态 uploaded）
	TopicScanCompleted = "ag.scan.completed" // 分类结果已写回扫描记录（状态 completed）
	TopicScanDeleted   = "ag.scan.deleted"   // 扫描记录被删除（单条或批量）
	TopicScanFailed    = "ag.scan.failed"    // 扫描管线失败（分类或持久化阶段）

	// 制品领域.
	TopicArtifactStored  = "ag.artifact.stored"  // 制品写入对象存储完成
	TopicArtifactDeleted = "ag.artifact.deleted" // 制品从对象存储删除

	// 调用量领域.
	TopicUsageRecorded = "ag.usage.recorded" // API Key 调用量记录
)

// 主题分组，用于批量操作或权限控制.
var (
	// 扫描相关主题集合.
	ScanTopics = []string{
		TopicScanStored, TopicScanCompleted, TopicScanDeleted, TopicScanFailed,
	}

	// 制品相关主题集合.
	ArtifactTopics = []string{
		TopicArtifactStored, TopicArtifactDeleted,
	}
)
