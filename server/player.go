package server

// Member 会话中的一个客户端连接（中继只转发，不理解游戏内容）
type Member struct {
	ID      string
	Payload []byte // 建房/加入时携带的负载（例如昵称），加入者会在 welcome 中看到
	IsHost  bool

	Conn *ClientConn // 网络连接的发送端（写协程）
}

// NewMember 创建成员
func NewMember(id string, payload []byte, isHost bool, conn *ClientConn) *Member {
	return &Member{ID: id, Payload: payload, IsHost: isHost, Conn: conn}
}
