package transport

import (
	"context"
	"sync"
)

// DefaultMaxClients HostOptions 未指定时的会话人数上限
const DefaultMaxClients = 8

// DropFunc 决定 from -> to 的一条消息是否在途中丢失
type DropFunc func(from, to string, payload []byte) bool

// Network 进程内的中继替身；同一 Network 上的 Endpoint 可以互相创建、加入会话
type Network struct {
	mu       sync.Mutex
	sessions map[string]*memSession
	drop     DropFunc
}

type memSession struct {
	id      string
	hostID  string
	max     int
	members []*Endpoint
}

// NewNetwork 创建空网络
func NewNetwork() *Network {
	return &Network{sessions: make(map[string]*memSession)}
}

// SetDrop 设置丢包模型；nil 表示全部送达
func (n *Network) SetDrop(fn DropFunc) {
	n.mu.Lock()
	n.drop = fn
	n.mu.Unlock()
}

// Endpoint 在网络上创建一个未连接的客户端
func (n *Network) Endpoint() *Endpoint {
	return &Endpoint{net: n, id: NewClientID()}
}

// Endpoint Network 上的一个客户端，实现 Transport
type Endpoint struct {
	net     *Network
	id      string
	payload []byte
	session *memSession

	mu    sync.Mutex
	inbox []Event

	listeners
}

// ID 本端的 client id
func (e *Endpoint) ID() string {
	return e.id
}

func (e *Endpoint) Host(ctx context.Context, opts HostOptions) (HostResult, error) {
	if err := ctx.Err(); err != nil {
		return HostResult{}, err
	}
	n := e.net
	n.mu.Lock()
	defer n.mu.Unlock()

	limit := opts.MaxClients
	if limit <= 0 {
		limit = DefaultMaxClients
	}
	s := &memSession{id: NewSessionCode(), hostID: e.id, max: limit}
	for n.sessions[s.id] != nil {
		s.id = NewSessionCode()
	}
	e.payload = opts.Payload
	s.members = append(s.members, e)
	n.sessions[s.id] = s
	e.session = s
	return HostResult{SessionID: s.id, ClientID: e.id}, nil
}

func (e *Endpoint) Join(ctx context.Context, sessionID string, payload []byte) (JoinResult, error) {
	if err := ctx.Err(); err != nil {
		return JoinResult{}, err
	}
	n := e.net
	n.mu.Lock()
	defer n.mu.Unlock()

	s, ok := n.sessions[sessionID]
	if !ok {
		return JoinResult{}, ErrSessionNotFound
	}
	if len(s.members) >= s.max {
		return JoinResult{}, ErrSessionFull
	}
	existing := make([]ClientInfo, 0, len(s.members))
	for _, m := range s.members {
		existing = append(existing, ClientInfo{ClientID: m.id, Payload: m.payload})
	}
	e.payload = payload
	e.session = s
	s.members = append(s.members, e)
	for _, m := range s.members {
		if m != e {
			m.enqueue(Event{Name: EventJoined, MessageID: NewClientID(), Sender: e.id, Payload: payload})
		}
	}
	return JoinResult{SessionID: s.id, ClientID: e.id, Clients: existing}, nil
}

func (e *Endpoint) Listen(cb Callback) ListenerID {
	return e.listeners.add(cb)
}

func (e *Endpoint) Unlisten(id ListenerID) {
	e.listeners.remove(id)
}

func (e *Endpoint) Send(payload []byte, dest string) error {
	n := e.net
	n.mu.Lock()
	defer n.mu.Unlock()

	s := e.session
	if s == nil {
		return ErrClosed
	}
	msgID := NewClientID()
	delivered := false
	for _, m := range s.members {
		if m == e || (dest != Broadcast && m.id != dest) {
			continue
		}
		delivered = true
		if n.drop != nil && n.drop(e.id, m.id, payload) {
			continue
		}
		buf := append([]byte(nil), payload...)
		m.enqueue(Event{Name: EventGame, MessageID: msgID, Sender: e.id, Payload: buf})
	}
	if dest != Broadcast && !delivered {
		return ErrUnknownClient
	}
	return nil
}

func (e *Endpoint) Poll() int {
	e.mu.Lock()
	batch := e.inbox
	e.inbox = nil
	e.mu.Unlock()

	for _, ev := range batch {
		e.listeners.dispatch(ev)
	}
	return len(batch)
}

// Close 离开会话：其他人收到 leaved；房主离开时还会收到 closed，会话随之销毁
func (e *Endpoint) Close() error {
	n := e.net
	n.mu.Lock()
	defer n.mu.Unlock()

	s := e.session
	if s == nil {
		return nil
	}
	e.session = nil
	for i, m := range s.members {
		if m == e {
			s.members = append(s.members[:i], s.members[i+1:]...)
			break
		}
	}
	for _, m := range s.members {
		m.enqueue(Event{Name: EventLeaved, MessageID: NewClientID(), Sender: e.id})
	}
	if e.id == s.hostID {
		for _, m := range s.members {
			m.enqueue(Event{Name: EventClosed, MessageID: NewClientID(), Sender: e.id})
			m.session = nil
		}
		delete(n.sessions, s.id)
	}
	return nil
}

func (e *Endpoint) enqueue(ev Event) {
	e.mu.Lock()
	e.inbox = append(e.inbox, ev)
	e.mu.Unlock()
}
