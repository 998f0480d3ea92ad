package errcode

// 错误码约定（用于通知消息等跨进程载荷）：
// - 0：无错误
// - 4xxx：业务可恢复类错误（资源缺失、权限拒绝，流程可继续）
// - 5xxx：系统错误（需要中断流程）
const (
	OK              = 0
	ResourceMissing = 4004
	AccessDenied    = 4003
	SystemError     = 5000
)
