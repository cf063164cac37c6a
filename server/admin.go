package server

import (
	"encoding/json"
	"net/http"

	"github.com/allejako/snake-sub000/logging"
)

// HandleAdminConfig 提供会话规则的读取与更新（热更新弱网模拟）
// GET /admin/config?session=AB12CD  返回当前配置
// POST /admin/config?session=AB12CD 以 JSON 载荷更新部分字段
func (m *RoomManager) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session")
	room, ok := m.GetRoom(id)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	type cfg struct {
		SimulateDelayMinMs *int     `json:"simulateDelayMinMs,omitempty"`
		SimulateDelayMaxMs *int     `json:"simulateDelayMaxMs,omitempty"`
		SimulateDropProb   *float64 `json:"simulateDropProb,omitempty"`
		MaxClients         *int     `json:"maxClients,omitempty"`
	}

	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(room.Config())
		return
	case http.MethodPost:
		var body cfg
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		cur := room.UpdateConfig(func(c *RoomConfig) {
			if body.SimulateDelayMinMs != nil {
				c.SimulateDelayMinMs = *body.SimulateDelayMinMs
			}
			if body.SimulateDelayMaxMs != nil {
				c.SimulateDelayMaxMs = *body.SimulateDelayMaxMs
			}
			if body.SimulateDropProb != nil {
				c.SimulateDropProb = *body.SimulateDropProb
			}
			if body.MaxClients != nil {
				c.MaxClients = *body.MaxClients
			}
		})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "config": cur})
		logging.Log.Infof("config updated: session=%s delay=[%d,%d] drop=%.2f max=%d",
			id, cur.SimulateDelayMinMs, cur.SimulateDelayMaxMs, cur.SimulateDropProb, cur.MaxClients)
		return
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
}

// HandleMetrics 输出指定会话的运行指标
// GET /metrics?session=AB12CD
func (m *RoomManager) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session")
	room, ok := m.GetRoom(id)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	payload := map[string]any{
		"session": id,
		"clients": room.ClientCount(),
		"metrics": room.Metrics().Snapshot(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

// HandleSessions 列出当前所有会话
// GET /sessions
func (m *RoomManager) HandleSessions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(m.List())
}
