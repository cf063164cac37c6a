package transport

// Frame 与中继服务交换的 JSON 文本消息
//
// 客户端 -> 中继：首帧 {"type":"host","payload":...} 或
// {"type":"join","session":"AB12CD","payload":...}，
// 之后为 {"type":"send","target":"<client id 或空>","payload":...}
//
// 中继 -> 客户端：首帧应答 {"type":"hosted"|"welcome",...}，
// 拒绝时 {"type":"error","error":"session_not_found"}，
// 之后为 {"type":"event","event":"game","client":"<发送者>","payload":...}
type Frame struct {
	Type      string       `json:"type"`
	Event     EventName    `json:"event,omitempty"`
	Session   string       `json:"session,omitempty"`
	Client    string       `json:"client,omitempty"`
	Target    string       `json:"target,omitempty"`
	MessageID string       `json:"message_id,omitempty"`
	Payload   []byte       `json:"payload,omitempty"`
	Clients   []ClientInfo `json:"clients,omitempty"`
	Max       int          `json:"max,omitempty"`
	Error     string       `json:"error,omitempty"`
}

const (
	FrameHost    = "host"
	FrameJoin    = "join"
	FrameSend    = "send"
	FrameHosted  = "hosted"
	FrameWelcome = "welcome"
	FrameEvent   = "event"
	FrameError   = "error"
)

// Frame.Error 中的中继错误码
const (
	CodeSessionNotFound = "session_not_found"
	CodeSessionFull     = "session_full"
	CodeBadRequest      = "bad_request"
)

// ErrorFromCode 把中继错误码映射回哨兵错误
func ErrorFromCode(code string) error {
	switch code {
	case CodeSessionNotFound:
		return ErrSessionNotFound
	case CodeSessionFull:
		return ErrSessionFull
	default:
		return ErrClosed
	}
}
