package server

import (
	"encoding/json"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/allejako/snake-sub000/logging"
	"github.com/allejako/snake-sub000/transport"
)

// RoomConfig 可热更新的会话规则（模拟弱网 + 人数上限）
type RoomConfig struct {
	SimulateDelayMinMs int     `json:"simulateDelayMinMs"`
	SimulateDelayMaxMs int     `json:"simulateDelayMaxMs"`
	SimulateDropProb   float64 `json:"simulateDropProb"`
	MaxClients         int     `json:"maxClients"`
}

// Room 一个中继会话：成员与路由状态只在单线程循环中修改
type Room struct {
	ID     string
	HostID string

	members map[string]*Member
	order   []string // 加入顺序（房主在前）

	joinChan  chan *Member
	leaveChan chan string
	inputChan chan Inbound

	queue   []pending
	lastDue map[string]time.Time // 每个接收者的最后投递时间，保证同一接收者内有序

	mu  sync.Mutex
	cfg RoomConfig

	metrics *RoomMetrics
	clients int32
	rng     *rand.Rand

	done      chan struct{}
	closeOnce sync.Once
	onClose   func(id string)

	tickerStarted bool
}

// NewRoom 创建会话，初始化数据结构
func NewRoom(id string, maxClients int, onClose func(string)) *Room {
	if maxClients <= 0 {
		maxClients = transport.DefaultMaxClients
	}
	return &Room{
		ID:        id,
		members:   make(map[string]*Member),
		joinChan:  make(chan *Member, 16),
		leaveChan: make(chan string, 64),
		inputChan: make(chan Inbound, 256), // 足够缓冲，避免网络读阻塞影响转发
		lastDue:   make(map[string]time.Time),
		cfg:       RoomConfig{MaxClients: maxClients},
		metrics:   &RoomMetrics{},
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		done:      make(chan struct{}),
		onClose:   onClose,
	}
}

// Config 返回当前规则副本
func (r *Room) Config() RoomConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

// UpdateConfig 在锁内修改规则
func (r *Room) UpdateConfig(fn func(*RoomConfig)) RoomConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.cfg)
	if r.cfg.SimulateDelayMinMs < 0 {
		r.cfg.SimulateDelayMinMs = 0
	}
	if r.cfg.SimulateDelayMaxMs < r.cfg.SimulateDelayMinMs {
		r.cfg.SimulateDelayMaxMs = r.cfg.SimulateDelayMinMs
	}
	if r.cfg.SimulateDropProb < 0 {
		r.cfg.SimulateDropProb = 0
	}
	if r.cfg.SimulateDropProb > 1 {
		r.cfg.SimulateDropProb = 1
	}
	if r.cfg.MaxClients <= 0 {
		r.cfg.MaxClients = transport.DefaultMaxClients
	}
	return r.cfg
}

// Metrics 返回指标
func (r *Room) Metrics() *RoomMetrics {
	return r.metrics
}

// ClientCount 当前成员数（可在任意协程读取）
func (r *Room) ClientCount() int {
	return int(atomic.LoadInt32(&r.clients))
}

// Done 会话结束后关闭
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// RequestJoin 请求在循环线程中加入成员；会话已结束时返回 false
func (r *Room) RequestJoin(m *Member) bool {
	if r.closed() {
		return false
	}
	select {
	case r.joinChan <- m:
		return true
	case <-r.done:
		return false
	}
}

// RequestLeave 请求在循环线程中移除成员，避免并发改动会话状态
func (r *Room) RequestLeave(id string) {
	select {
	case r.leaveChan <- id:
	case <-r.done:
	}
}

// OnInput 入站帧（不阻塞：拥塞时丢弃，保证读协程不被背压）
func (r *Room) OnInput(in Inbound) {
	r.metrics.IncFramesIn()
	select {
	case r.inputChan <- in:
	default:
		r.metrics.IncChanFullDiscarded()
	}
}

// admit 处理加入：首个房主收到 hosted，其余加入者收到 welcome 并通知已有成员
func (r *Room) admit(m *Member, now time.Time) {
	if m.IsHost {
		if r.HostID != "" {
			r.reject(m, transport.CodeBadRequest)
			return
		}
		r.HostID = m.ID
		r.add(m)
		r.sendFrame(m, transport.Frame{Type: transport.FrameHosted, Session: r.ID, Client: m.ID})
		logging.Log.Infof("session %s hosted by %s", r.ID, m.ID)
		return
	}
	if len(r.order) >= r.Config().MaxClients {
		r.reject(m, transport.CodeSessionFull)
		return
	}
	existing := make([]transport.ClientInfo, 0, len(r.order))
	for _, id := range r.order {
		existing = append(existing, transport.ClientInfo{ClientID: id, Payload: r.members[id].Payload})
	}
	r.add(m)
	r.sendFrame(m, transport.Frame{Type: transport.FrameWelcome, Session: r.ID, Client: m.ID, Clients: existing})
	r.notifyOthers(m.ID, transport.EventJoined, m.Payload, now)
	logging.Log.Infof("session %s: %s joined (%d clients)", r.ID, m.ID, len(r.order))
}

func (r *Room) add(m *Member) {
	r.members[m.ID] = m
	r.order = append(r.order, m.ID)
	atomic.StoreInt32(&r.clients, int32(len(r.order)))
	r.metrics.IncJoins()
}

func (r *Room) reject(m *Member, code string) {
	logging.Log.Infof("session %s: rejecting %s: %s", r.ID, m.ID, code)
	r.sendFrame(m, transport.Frame{Type: transport.FrameError, Session: r.ID, Error: code})
	m.Conn.Close()
}

// LeavePlayer 移除成员；房主离开时通知其他人 leaved + closed 并结束会话
func (r *Room) LeavePlayer(id string, now time.Time) {
	m, ok := r.members[id]
	if !ok {
		return
	}
	delete(r.members, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	delete(r.lastDue, id)
	atomic.StoreInt32(&r.clients, int32(len(r.order)))
	r.metrics.IncLeaves()
	m.Conn.Close()
	logging.Log.Infof("session %s: %s left", r.ID, id)

	r.notifyOthers(id, transport.EventLeaved, nil, now)
	if id != r.HostID {
		return
	}
	r.flush(time.Time{})
	r.notifyOthers(id, transport.EventClosed, nil, now)
	r.flush(time.Time{})
	for _, other := range r.members {
		other.Conn.Close()
	}
	r.shutdown()
}

// ProcessInputs 处理当前积压的所有事件（非阻塞 drain）
func (r *Room) ProcessInputs(now time.Time) {
	for {
		select {
		case m := <-r.joinChan:
			r.admit(m, now)
		case id := <-r.leaveChan:
			r.LeavePlayer(id, now)
		case in := <-r.inputChan:
			r.route(in, now)
		default:
			return
		}
		if r.closed() {
			return
		}
	}
}

// route 把一条 send 帧转成 game 事件发给目标（或广播），经过模拟丢包与延迟
func (r *Room) route(in Inbound, now time.Time) {
	if _, ok := r.members[in.From]; !ok {
		return
	}
	cfg := r.Config()
	msg, err := json.Marshal(eventFrame(r.ID, transport.EventGame, in.From, transport.NewClientID(), in.Data))
	if err != nil {
		logging.Log.Errorf("session %s: encode: %v", r.ID, err)
		return
	}
	for _, to := range r.order {
		if to == in.From || (in.Target != transport.Broadcast && to != in.Target) {
			continue
		}
		if cfg.SimulateDropProb > 0 && r.rng.Float64() < cfg.SimulateDropProb {
			r.metrics.IncDropsSimulated()
			continue
		}
		r.deliver(to, msg, now, r.delay(cfg))
	}
}

func (r *Room) delay(cfg RoomConfig) time.Duration {
	if cfg.SimulateDelayMaxMs <= 0 {
		return 0
	}
	ms := cfg.SimulateDelayMinMs
	if span := cfg.SimulateDelayMaxMs - cfg.SimulateDelayMinMs; span > 0 {
		ms += r.rng.Intn(span + 1)
	}
	return time.Duration(ms) * time.Millisecond
}

// notifyOthers 发送 joined/leaved/closed 等控制事件（不丢包，但与同一接收者的延迟帧保持顺序）
func (r *Room) notifyOthers(about string, name transport.EventName, payload []byte, now time.Time) {
	msg, err := json.Marshal(eventFrame(r.ID, name, about, transport.NewClientID(), payload))
	if err != nil {
		return
	}
	for _, to := range r.order {
		if to != about {
			r.deliver(to, msg, now, 0)
		}
	}
}

// deliver 立即写入发送队列，或在有延迟/前序延迟帧时进入延迟队列
func (r *Room) deliver(to string, msg []byte, now time.Time, delay time.Duration) {
	due := now.Add(delay)
	if last, ok := r.lastDue[to]; ok && last.After(due) {
		due = last
	}
	if !due.After(now) {
		r.write(to, msg)
		return
	}
	r.lastDue[to] = due
	r.queue = append(r.queue, pending{to: to, due: due, msg: msg})
	r.metrics.IncDelayed()
}

// flush 投递所有到期的延迟帧；零值时间表示全部投递
func (r *Room) flush(now time.Time) {
	if len(r.queue) == 0 {
		return
	}
	kept := r.queue[:0]
	for _, p := range r.queue {
		if now.IsZero() || !p.due.After(now) {
			r.write(p.to, p.msg)
			continue
		}
		kept = append(kept, p)
	}
	r.queue = kept
	for to, last := range r.lastDue {
		if now.IsZero() || !last.After(now) {
			delete(r.lastDue, to)
		}
	}
}

func (r *Room) write(to string, msg []byte) {
	m, ok := r.members[to]
	if !ok {
		return
	}
	if m.Conn.Enqueue(msg) {
		r.metrics.IncFramesOut()
	} else {
		r.metrics.IncChanFullDiscarded()
	}
}

func (r *Room) sendFrame(m *Member, f transport.Frame) {
	msg, err := json.Marshal(f)
	if err != nil {
		return
	}
	if m.Conn.Enqueue(msg) {
		r.metrics.IncFramesOut()
	}
}

func (r *Room) closed() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func (r *Room) shutdown() {
	r.closeOnce.Do(func() {
		close(r.done)
		if r.onClose != nil {
			r.onClose(r.ID)
		}
		logging.Log.Infof("session %s closed", r.ID)
	})
}
