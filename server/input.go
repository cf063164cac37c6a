package server

import (
	"time"

	"github.com/allejako/snake-sub000/transport"
)

// Inbound 客户端发来的一条 send 帧，由房间单线程循环解释并路由
type Inbound struct {
	From   string
	Target string // 为空表示广播给除发送者外的所有人
	Data   []byte
}

// pending 延迟投递队列中的一项
type pending struct {
	to  string
	due time.Time
	msg []byte
}

// eventFrame 构造发往客户端的事件帧
func eventFrame(session string, name transport.EventName, from, msgID string, payload []byte) transport.Frame {
	return transport.Frame{
		Type:      transport.FrameEvent,
		Event:     name,
		Session:   session,
		Client:    from,
		MessageID: msgID,
		Payload:   payload,
	}
}
