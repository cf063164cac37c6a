package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/allejako/snake-sub000/logging"
)

const (
	writeWait     = 5 * time.Second
	inboxCapacity = 1024
)

// WSTransport 通过一条 websocket 与中继通信：读协程排队事件，Poll 在调用方协程分发
type WSTransport struct {
	url    string
	dialer *websocket.Dialer

	conn    *websocket.Conn
	writeMu sync.Mutex
	inbox   chan Event
	done    chan struct{}
	once    sync.Once

	sessionID string
	clientID  string

	listeners
}

// NewWSTransport 指向 url 处的中继，如 "ws://localhost:8080/ws"；Host 或 Join 时才拨号
func NewWSTransport(url string) *WSTransport {
	return &WSTransport{
		url:    url,
		dialer: websocket.DefaultDialer,
		inbox:  make(chan Event, inboxCapacity),
		done:   make(chan struct{}),
	}
}

// SessionID 当前所在的会话
func (t *WSTransport) SessionID() string {
	return t.sessionID
}

func (t *WSTransport) Host(ctx context.Context, opts HostOptions) (HostResult, error) {
	reply, err := t.handshake(ctx, Frame{Type: FrameHost, Payload: opts.Payload, Max: opts.MaxClients}, FrameHosted)
	if err != nil {
		return HostResult{}, err
	}
	return HostResult{SessionID: reply.Session, ClientID: reply.Client}, nil
}

func (t *WSTransport) Join(ctx context.Context, sessionID string, payload []byte) (JoinResult, error) {
	reply, err := t.handshake(ctx, Frame{Type: FrameJoin, Session: sessionID, Payload: payload}, FrameWelcome)
	if err != nil {
		return JoinResult{}, err
	}
	return JoinResult{SessionID: reply.Session, ClientID: reply.Client, Clients: reply.Clients}, nil
}

// handshake 拨号、发送首帧并等待中继应答，之后才启动读协程，应答不会被当成事件
func (t *WSTransport) handshake(ctx context.Context, hello Frame, want string) (Frame, error) {
	if t.conn != nil {
		return Frame{}, fmt.Errorf("transport: already connected to %s", t.sessionID)
	}
	conn, resp, err := t.dialer.DialContext(ctx, t.url, http.Header{})
	if err != nil {
		return Frame{}, fmt.Errorf("transport: dial %s: %w", t.url, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
		conn.SetReadDeadline(deadline)
	}
	if err := conn.WriteJSON(hello); err != nil {
		conn.Close()
		return Frame{}, fmt.Errorf("transport: send %s: %w", hello.Type, err)
	}
	var reply Frame
	if err := conn.ReadJSON(&reply); err != nil {
		conn.Close()
		return Frame{}, fmt.Errorf("transport: await %s: %w", want, err)
	}
	if reply.Type == FrameError {
		conn.Close()
		return Frame{}, ErrorFromCode(reply.Error)
	}
	if reply.Type != want {
		conn.Close()
		return Frame{}, fmt.Errorf("transport: expected %s, got %s", want, reply.Type)
	}
	conn.SetWriteDeadline(time.Time{})
	conn.SetReadDeadline(time.Time{})

	t.conn = conn
	t.sessionID = reply.Session
	t.clientID = reply.Client
	go t.readPump()
	logging.Log.Infof("transport: %s session=%s client=%s", want, t.sessionID, t.clientID)
	return reply, nil
}

// readPump 持续排队中继事件，连接断开后补一个 closed
func (t *WSTransport) readPump() {
	defer t.push(Event{Name: EventClosed, Sender: t.clientID})
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			select {
			case <-t.done:
			default:
				logging.Log.Warnf("transport: read: %v", err)
			}
			return
		}
		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			logging.Log.Warnf("transport: bad frame: %v", err)
			continue
		}
		if f.Type != FrameEvent {
			continue
		}
		t.push(Event{Name: f.Event, MessageID: f.MessageID, Sender: f.Client, Payload: f.Payload})
	}
}

func (t *WSTransport) push(ev Event) {
	select {
	case t.inbox <- ev:
	case <-t.done:
	}
}

func (t *WSTransport) Listen(cb Callback) ListenerID {
	return t.listeners.add(cb)
}

func (t *WSTransport) Unlisten(id ListenerID) {
	t.listeners.remove(id)
}

func (t *WSTransport) Send(payload []byte, dest string) error {
	if t.conn == nil {
		return ErrClosed
	}
	select {
	case <-t.done:
		return ErrClosed
	default:
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := t.conn.WriteJSON(Frame{Type: FrameSend, Target: dest, Payload: payload}); err != nil {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return nil
}

// Poll 非阻塞地取完排队事件
func (t *WSTransport) Poll() int {
	n := 0
	for {
		select {
		case ev := <-t.inbox:
			t.listeners.dispatch(ev)
			n++
		default:
			return n
		}
	}
}

func (t *WSTransport) Close() error {
	var err error
	t.once.Do(func() {
		close(t.done)
		if t.conn == nil {
			return
		}
		t.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
		_ = t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		t.writeMu.Unlock()
		err = t.conn.Close()
	})
	return err
}
