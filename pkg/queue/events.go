package queue

import "github.com/ThreeDotsLabs/watermill/message"

// -------------------------- 基于业务封装 events --------------------------

// PublishScanStored 发布 ag.scan.stored 事件。
// 图片写入对象存储并创建扫描记录后调用，通知下游流程（如异步分类、审计等）。
// 可通过可选项 opts 注入 TraceID、Producer 等头部信息。
func PublishScanStored(pub message.Publisher, payload ScanStoredPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicScanStored, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicScanStored, msg)
}

// PublishScanCompleted 发布 ag.scan.completed 事件。
func PublishScanCompleted(pub message.Publisher, payload ScanCompletedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicScanCompleted, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicScanCompleted, msg)
}

// PublishScanDeleted 发布 ag.scan.deleted 事件。
func PublishScanDeleted(pub message.Publisher, payload ScanDeletedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicScanDeleted, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicScanDeleted, msg)
}

// PublishScanFailed 发布 ag.scan.failed 事件。
func PublishScanFailed(pub message.Publisher, payload ScanFailedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicScanFailed, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicScanFailed, msg)
}

// ParseScanStored 将 Watermill 消息解析为强类型 Envelope（ScanStoredPayload）。
func ParseScanStored(msg *message.Message) (Message[ScanStoredPayload], error) {
	return ParseWatermillMessage[ScanStoredPayload](msg)
}

// ParseScanCompleted 将 Watermill 消息解析为强类型 Envelope（ScanCompletedPayload）。
func ParseScanCompleted(msg *message.Message) (Message[ScanCompletedPayload], error) {
	return ParseWatermillMessage[ScanCompletedPayload](msg)
}
