package server

import (
	"sync/atomic"
)

// RoomMetrics 记录会话运行期的关键指标（用于监控与调试）
type RoomMetrics struct {
	FramesIn          int64 // 收到的 send 帧数
	FramesOut         int64 // 写入发送队列的帧数
	DropsSimulated    int64 // 因模拟丢包被丢弃的帧数
	Delayed           int64 // 因模拟延迟进入延迟队列的帧数
	ChanFullDiscarded int64 // 因发送队列满被丢弃的帧数
	Joins             int64
	Leaves            int64
}

func (m *RoomMetrics) IncFramesIn()          { atomic.AddInt64(&m.FramesIn, 1) }
func (m *RoomMetrics) IncFramesOut()         { atomic.AddInt64(&m.FramesOut, 1) }
func (m *RoomMetrics) IncDropsSimulated()    { atomic.AddInt64(&m.DropsSimulated, 1) }
func (m *RoomMetrics) IncDelayed()           { atomic.AddInt64(&m.Delayed, 1) }
func (m *RoomMetrics) IncChanFullDiscarded() { atomic.AddInt64(&m.ChanFullDiscarded, 1) }
func (m *RoomMetrics) IncJoins()             { atomic.AddInt64(&m.Joins, 1) }
func (m *RoomMetrics) IncLeaves()            { atomic.AddInt64(&m.Leaves, 1) }

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *RoomMetrics) Snapshot() map[string]any {
	return map[string]any{
		"frames_in":           atomic.LoadInt64(&m.FramesIn),
		"frames_out":          atomic.LoadInt64(&m.FramesOut),
		"drops_simulated":     atomic.LoadInt64(&m.DropsSimulated),
		"delayed":             atomic.LoadInt64(&m.Delayed),
		"chan_full_discarded": atomic.LoadInt64(&m.ChanFullDiscarded),
		"joins":               atomic.LoadInt64(&m.Joins),
		"leaves":              atomic.LoadInt64(&m.Leaves),
	}
}
