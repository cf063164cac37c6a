package server

import (
	"net/http"
	"sort"
	"sync"

	"github.com/allejako/snake-sub000/transport"
)

// RoomManager 管理多个中继会话的生命周期
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

var (
	defaultManager *RoomManager
	once           sync.Once
)

// NewRoomManager 创建独立的管理器（测试或多实例时使用）
func NewRoomManager() *RoomManager {
	return &RoomManager{rooms: make(map[string]*Room)}
}

// GetRoomManager 单例管理器
func GetRoomManager() *RoomManager {
	once.Do(func() {
		defaultManager = NewRoomManager()
	})
	return defaultManager
}

// CreateRoom 以新的会话码创建会话，并确保开始循环
func (m *RoomManager) CreateRoom(maxClients int) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := transport.NewSessionCode()
	for m.rooms[id] != nil {
		id = transport.NewSessionCode()
	}
	r := NewRoom(id, maxClients, m.removeRoom)
	m.rooms[id] = r
	r.StartTicker()
	return r
}

// GetRoom 按会话码查找
func (m *RoomManager) GetRoom(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

func (m *RoomManager) removeRoom(id string) {
	m.mu.Lock()
	delete(m.rooms, id)
	m.mu.Unlock()
}

// RoomInfo 会话列表中的一项
type RoomInfo struct {
	Session string `json:"session"`
	Clients int    `json:"clients"`
}

// List 返回按会话码排序的会话列表
func (m *RoomManager) List() []RoomInfo {
	m.mu.RLock()
	out := make([]RoomInfo, 0, len(m.rooms))
	for id, r := range m.rooms {
		out = append(out, RoomInfo{Session: id, Clients: r.ClientCount()})
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Session < out[j].Session })
	return out
}

// Mux 中继的全部 HTTP 路由
func (m *RoomManager) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", m.HandleWS)
	// 管理与监控接口
	mux.HandleFunc("/admin/config", m.HandleAdminConfig)
	mux.HandleFunc("/metrics", m.HandleMetrics)
	mux.HandleFunc("/sessions", m.HandleSessions)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
