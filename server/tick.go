package server

import "time"

const (
	// FlushPerSecond 延迟队列检查频率（100 Hz）
	FlushPerSecond = 100
)

var tickInterval = time.Duration(1000/FlushPerSecond) * time.Millisecond // 10ms

// StartTicker 启动会话的单线程循环：处理加入/离开/转发 → 投递到期的延迟帧
func (r *Room) StartTicker() {
	if r.tickerStarted {
		return
	}
	r.tickerStarted = true
	go func() {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-r.done:
				return
			case m := <-r.joinChan:
				r.admit(m, time.Now())
			case id := <-r.leaveChan:
				r.LeavePlayer(id, time.Now())
			case in := <-r.inputChan:
				r.route(in, time.Now())
			case now := <-ticker.C:
				r.ProcessInputs(now)
				if !r.closed() {
					r.flush(now)
				}
			}
		}
	}()
}
