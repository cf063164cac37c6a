// Package transport 会话之间的发布/订阅层：创建或加入会话、广播或定向发送、接收事件
package transport

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// EventName 入站事件类型
type EventName string

const (
	EventJoined EventName = "joined"
	EventLeaved EventName = "leaved"
	EventGame   EventName = "game"
	EventClosed EventName = "closed"
)

// Broadcast 作为 Send 的目标时发给其他所有客户端
const Broadcast = ""

var (
	ErrSessionNotFound = errors.New("transport: session not found")
	ErrSessionFull     = errors.New("transport: session full")
	ErrClosed          = errors.New("transport: connection closed")
	ErrUnknownClient   = errors.New("transport: unknown destination client")
)

// Event 一条入站通知。Sender 是事件涉及的客户端：加入者、离开者或游戏消息的作者
type Event struct {
	Name      EventName
	MessageID string
	Sender    string
	Payload   []byte
}

// Callback 在 Poll 期间接收事件
type Callback func(Event)

// ListenerID 已注册回调的标识
type ListenerID int

// ClientInfo 已连接的客户端；Payload 为其创建或加入时携带的数据
type ClientInfo struct {
	ClientID string `json:"client_id"`
	Payload  []byte `json:"payload,omitempty"`
}

// HostOptions 新会话的配置
type HostOptions struct {
	Payload    []byte
	MaxClients int
}

// HostResult 新会话与房主自己的 client id
type HostResult struct {
	SessionID string
	ClientID  string
}

// JoinResult 加入的会话、自己的 client id，以及按加入顺序排列的已有客户端（房主在前）
type JoinResult struct {
	SessionID string
	ClientID  string
	Clients   []ClientInfo
}

// Transport 引擎对网络的全部要求。事件由实现排队，只在 Poll 内、
// 于调用方协程交给监听者，因此游戏状态无需加锁
type Transport interface {
	Host(ctx context.Context, opts HostOptions) (HostResult, error)
	Join(ctx context.Context, sessionID string, payload []byte) (JoinResult, error)
	Listen(cb Callback) ListenerID
	Unlisten(id ListenerID)
	// Send 不因网络阻塞；dest 为 client id 或 Broadcast
	Send(payload []byte, dest string) error
	// Poll 投递排队的事件，返回投递数量
	Poll() int
	Close() error
}

// NewSessionCode 生成简短的大写会话码
func NewSessionCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}

// NewClientID 生成新的 client id
func NewClientID() string {
	return uuid.NewString()
}

// listeners 两种实现共用的监听者登记表
type listeners struct {
	next  ListenerID
	order []ListenerID
	cbs   map[ListenerID]Callback
}

func (l *listeners) add(cb Callback) ListenerID {
	if l.cbs == nil {
		l.cbs = make(map[ListenerID]Callback)
	}
	l.next++
	l.cbs[l.next] = cb
	l.order = append(l.order, l.next)
	return l.next
}

func (l *listeners) remove(id ListenerID) {
	if _, ok := l.cbs[id]; !ok {
		return
	}
	delete(l.cbs, id)
	for i, v := range l.order {
		if v == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

func (l *listeners) dispatch(ev Event) {
	for _, id := range l.order {
		if cb, ok := l.cbs[id]; ok {
			cb(ev)
		}
	}
}
