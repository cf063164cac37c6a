package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/allejako/snake-sub000/logging"
	"github.com/allejako/snake-sub000/transport"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	handshakeWait  = 10 * time.Second
	maxMessageSize = 1 << 20 // 1MB
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
type ClientConn struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func NewClientConn(ws *websocket.Conn) *ClientConn {
	return &ClientConn{
		ws:   ws,
		send: make(chan []byte, 256),
		done: make(chan struct{}),
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃）
func (c *ClientConn) Enqueue(b []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- b:
		return true
	default:
		// 为了实时性，丢弃消息（防止阻塞会话循环）
		return false
	}
}

// Close 通知写协程写完队列后关闭连接；可重复调用
func (c *ClientConn) Close() {
	c.once.Do(func() { close(c.done) })
}

// writePump 独立协程，负责从 send 队列写出到 WS，并定时 ping
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case msg := <-c.send:
			if !c.write(msg) {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			// 关闭前把已排队的消息写完（例如 closed 事件）
			for {
				select {
				case msg := <-c.send:
					if !c.write(msg) {
						return
					}
				default:
					c.ws.SetWriteDeadline(time.Now().Add(writeWait))
					_ = c.ws.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		}
	}
}

func (c *ClientConn) write(msg []byte) bool {
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, msg) == nil
}

// readPump 读取客户端 send 帧并注入会话
func (c *ClientConn) readPump(room *Room, memberID string) {
	// 读泵退出时，通知会话在循环线程中移除该成员
	defer room.RequestLeave(memberID)
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error { c.ws.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		var f transport.Frame
		if err := json.Unmarshal(data, &f); err != nil {
			logging.Log.Debugf("session %s: bad frame from %s: %v", room.ID, memberID, err)
			continue
		}
		if f.Type != transport.FrameSend {
			continue
		}
		room.OnInput(Inbound{From: memberID, Target: f.Target, Data: f.Payload})
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 演示环境：允许所有来源（生产环境需严格限制）
		return true
	},
}

// HandleWS WebSocket 接入：首帧为 host 或 join，之后只接受 send 帧
func (m *RoomManager) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Log.Warnf("upgrade error: %v", err)
		return
	}

	ws.SetReadDeadline(time.Now().Add(handshakeWait))
	var first transport.Frame
	if err := ws.ReadJSON(&first); err != nil {
		logging.Log.Debugf("handshake read: %v", err)
		_ = ws.Close()
		return
	}

	var room *Room
	isHost := false
	switch first.Type {
	case transport.FrameHost:
		room = m.CreateRoom(first.Max)
		isHost = true
	case transport.FrameJoin:
		var ok bool
		if room, ok = m.GetRoom(first.Session); !ok {
			refuse(ws, transport.CodeSessionNotFound)
			return
		}
	default:
		refuse(ws, transport.CodeBadRequest)
		return
	}

	client := NewClientConn(ws)
	member := NewMember(transport.NewClientID(), first.Payload, isHost, client)
	if !room.RequestJoin(member) {
		refuse(ws, transport.CodeSessionNotFound)
		return
	}
	go client.writePump()
	go client.readPump(room, member.ID)
}

// refuse 握手阶段直接写回错误并关闭连接
func refuse(ws *websocket.Conn, code string) {
	ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = ws.WriteJSON(transport.Frame{Type: transport.FrameError, Error: code})
	_ = ws.Close()
}
