package network

import "errors"

// Stage 表示网络收发链路中的处理阶段。
//
// 主要用于在回调中标记错误发生的位置，便于监控与排查。
type Stage string

const (
	StageAccept   Stage = "accept"    // 接受新连接
	StageRecvLine Stage = "recv_line" // 从底层连接读取一行
	StageDispatch Stage = "dispatch"  // 行 -> 业务处理
	StageSendLine Stage = "send_line" // 向底层连接写出一行
)

// 统一的错误码常量。
//
// 注意：这些是用于日志/监控的稳定字符串，真正的 error 对象在下面通过 errors.New 构造。
const (
	ErrCodeAcceptFailed   = "network:accept_failed"
	ErrCodeRecvFailed     = "network:recv_failed"
	ErrCodeDispatchFailed = "network:dispatch_failed"
	ErrCodeSendFailed     = "network:send_failed"
)

var (
	// ErrAcceptFailed 表示接受新连接失败。
	ErrAcceptFailed = errors.New(ErrCodeAcceptFailed)

	// ErrRecvFailed 表示在读取底层连接数据时发生错误。
	ErrRecvFailed = errors.New(ErrCodeRecvFailed)

	// ErrDispatchFailed 表示在将消息行分发给业务处理时发生错误。
	ErrDispatchFailed = errors.New(ErrCodeDispatchFailed)

	// ErrSendFailed 表示在发送数据到对端时发生错误。
	ErrSendFailed = errors.New(ErrCodeSendFailed)
)
