package online

import (
	"errors"

	"github.com/allejako/snake-sub000/game"
	"github.com/allejako/snake-sub000/logging"
	"github.com/allejako/snake-sub000/transport"
	"github.com/allejako/snake-sub000/wire"
)

// Frame 主循环的一轮：投递传输事件、推进倒计时，到了 tick 间隔就推进游戏。
// 返回本轮是否跑了模拟
func (s *Session) Frame(nowMs int64) bool {
	if s.State == HostSetup || s.State == Disconnected {
		return false
	}
	s.tr.Poll()
	s.dispatch(nowMs)
	if s.connLost {
		s.disconnect("connection lost")
	}

	if s.State == Countdown && nowMs >= s.countdownEnd {
		s.lastTick = nowMs
		s.setState(Playing)
		return false
	}
	if s.State != Playing || nowMs-s.lastTick < int64(s.Game.TickMs) {
		return false
	}
	s.lastTick = nowMs
	if s.Game.IsHost {
		s.hostTick(nowMs)
	} else {
		s.clientTick()
	}
	return true
}

func (s *Session) hostTick(nowMs int64) {
	g := s.Game
	g.Tick()
	for _, ev := range g.DrainEvents() {
		if ev.Kind == game.EventEliminated && ev.Slot == g.LocalIndex {
			s.respawnLocal()
		}
	}

	for _, slot := range g.RemoteCollisions() {
		if s.collided[slot] {
			continue
		}
		p, _ := g.Player(slot)
		s.collided[slot] = true
		logging.Log.Debugf("online: slot %d collided", slot)
		s.send(&wire.Document{Command: wire.CmdPlayerCollided}, p.ClientID)
	}

	g.UpdateCombos(nowMs)

	if g.MatchOver() {
		s.Winner = g.SelectWinner()
		g.AwardWin(s.Winner)
		s.broadcastState()
		winner := s.Winner
		s.broadcast(&wire.Document{Command: wire.CmdGameOver, Winner: &winner})
		s.setState(GameOver)
		logging.Log.Infof("online: match over, winner slot %d", s.Winner)
		return
	}
	s.broadcastState()
	g.ClearAteFood()
}

// clientTick 推进本地玩家，并把状态变化即时报告给房主
func (s *Session) clientTick() {
	g := s.Game
	g.Tick()
	for _, ev := range g.DrainEvents() {
		if ev.Slot != g.LocalIndex {
			continue
		}
		switch ev.Kind {
		case game.EventFoodEaten:
			s.sendHost(positional(wire.CmdFoodEaten, ev.Pos))
		case game.EventFoodDropped:
			s.sendHost(positional(wire.CmdFoodAdded, ev.Pos))
		case game.EventDied:
			p, _ := g.Local()
			lives := p.Lives
			s.sendHost(&wire.Document{Command: wire.CmdPlayerDied, Lives: &lives})
		case game.EventEliminated:
			if pos, dir, ok := s.respawnLocal(); ok {
				doc := positional(wire.CmdPlayerRespawned, pos)
				d := int(dir)
				doc.Dir = &d
				s.sendHost(doc)
			}
		}
	}
	s.sendHost(wire.Report(g))
}

// respawnLocal 死亡动画结束后，若还有生命则复活本地玩家
func (s *Session) respawnLocal() (game.Position, game.Direction, bool) {
	g := s.Game
	p, ok := g.Local()
	if !ok || p.Lives <= 0 {
		return game.Position{}, 0, false
	}
	pos := g.FindSafeSpawnPosition()
	dir := g.SpawnHeading(pos)
	g.Respawn(g.LocalIndex, pos, dir)
	return pos, dir, true
}

func positional(cmd string, pos game.Position) *wire.Document {
	x, y := pos.X, pos.Y
	return &wire.Document{Command: cmd, X: &x, Y: &y}
}

func (s *Session) broadcastState() {
	s.broadcast(wire.Snapshot(s.Game))
}

func (s *Session) broadcast(doc *wire.Document) {
	s.send(doc, transport.Broadcast)
}

func (s *Session) sendHost(doc *wire.Document) {
	s.send(doc, s.Game.HostClientID)
}

// send 编码并发送；失败时标记连接丢失，下一次 Frame 处理
func (s *Session) send(doc *wire.Document, dest string) {
	if s.connLost {
		return
	}
	data, err := wire.Encode(s.codec, doc)
	if err != nil {
		logging.Log.Errorf("online: %v", err)
		return
	}
	err = s.tr.Send(data, dest)
	if errors.Is(err, transport.ErrUnknownClient) {
		logging.Log.Debugf("online: %q to departed client %s", doc.Command, dest)
		return
	}
	if err != nil {
		s.connLost = true
		s.ErrorMessage = err.Error()
		logging.Log.Warnf("online: send %q to %q: %v", doc.Command, dest, err)
	}
}
