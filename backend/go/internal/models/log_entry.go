package models

// LogEntry 定义了用于结构化日志的统一数据格式。
type LogEntry struct {
	// ServiceName 是产生这条日志的服务名称。
	ServiceName string `json:"service_name"`

	// TraceID 用于串联同一个请求在多个组件中的日志。
	TraceID string `json:"trace_id,omitempty"`

	// UserID 标识了与此日志事件相关的用户（如果适用）。
	UserID string `json:"user_id,omitempty"`

	RequestInfo *RequestInfo `json:"request_info,omitempty"`

	Error *ErrorInfo `json:"error,omitempty"`

	// Payload 用于存放任何其他与业务逻辑相关的结构化数据。
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// RequestInfo 存储了关于 HTTP 请求的上下文信息。
type RequestInfo struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	RemoteAddr string `json:"remote_addr"`
	UserAgent  string `json:"user_agent"`
	Status     int    `json:"status,omitempty"`
	LatencyMs  int64  `json:"latency_ms,omitempty"`
}

// ErrorInfo 存储了关于错误的结构化信息。
type ErrorInfo struct {
	Message    string `json:"message"`
	Type       string `json:"type,omitempty"`        // 错误的类型，例如 "validation", "index"
	StatusCode int    `json:"status_code,omitempty"` // 相关的HTTP状态码
}
