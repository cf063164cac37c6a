package online

import (
	"errors"

	"github.com/allejako/snake-sub000/game"
	"github.com/allejako/snake-sub000/logging"
	"github.com/allejako/snake-sub000/transport"
	"github.com/allejako/snake-sub000/wire"
)

type msgKind int

const (
	msgJoined msgKind = iota
	msgLeft
	msgState
	msgCommand
	msgClosed
)

// message 解码后的传输事件
type message struct {
	kind   msgKind
	sender string
	doc    *wire.Document
}

// receive 传输层监听回调：只入队，由 dispatch 在主循环里应用
func (s *Session) receive(ev transport.Event) {
	m := message{sender: ev.Sender}
	switch ev.Name {
	case transport.EventJoined:
		m.kind = msgJoined
		if len(ev.Payload) > 0 {
			m.doc, _ = wire.Decode(s.codec, ev.Payload)
		}
	case transport.EventLeaved:
		m.kind = msgLeft
	case transport.EventClosed:
		m.kind = msgClosed
	case transport.EventGame:
		doc, err := wire.Decode(s.codec, ev.Payload)
		if err != nil {
			if !errors.Is(err, wire.ErrPartial) {
				logging.Log.Warnf("online: dropping message from %s: %v", ev.Sender, err)
				return
			}
			logging.Log.Warnf("online: partial message from %s: %v", ev.Sender, err)
		}
		m.doc = doc
		m.kind = msgCommand
		if doc.IsState() {
			m.kind = msgState
		}
	default:
		return
	}
	s.pending = append(s.pending, m)
}

// dispatch 按到达顺序应用所有排队的消息
func (s *Session) dispatch(nowMs int64) {
	for len(s.pending) > 0 {
		m := s.pending[0]
		s.pending = s.pending[1:]
		if s.State == Disconnected {
			continue
		}
		switch m.kind {
		case msgJoined:
			s.onJoined(m)
		case msgLeft:
			s.onLeft(m.sender)
		case msgClosed:
			s.disconnect("session closed")
		case msgState:
			s.onState(m)
		case msgCommand:
			if s.Game.IsHost {
				s.onClientCommand(m)
			} else {
				s.onHostCommand(m, nowMs)
			}
		}
	}
	s.pending = nil
}

func (s *Session) onJoined(m message) {
	g := s.Game
	if !g.IsHost || m.sender == s.LocalClientID {
		return
	}
	slot := g.FreeSlot()
	if slot == game.NoSlot || s.State != Lobby {
		logging.Log.Infof("online: turning away %s (state=%s)", m.sender, s.State)
		s.send(&wire.Document{Command: wire.CmdLobbyFull}, m.sender)
		return
	}
	name := ""
	if m.doc != nil && m.doc.PlayerName != nil {
		name = *m.doc.PlayerName
	}
	g.Join(slot, m.sender, name)
	logging.Log.Infof("online: %s (%s) joined slot %d", m.sender, name, slot)
	s.broadcastState()
}

// onLeft 同时处理传输层的 leaved 事件与 player_disconnect 命令
func (s *Session) onLeft(clientID string) {
	g := s.Game
	if clientID == "" || clientID == s.LocalClientID {
		return
	}
	if !g.IsHost && clientID == g.HostClientID {
		s.disconnect("host left the session")
		return
	}
	slot := g.SlotByClient(clientID)
	if slot == game.NoSlot {
		return
	}
	g.Leave(slot)
	s.collided[slot] = false
	logging.Log.Infof("online: %s left slot %d", clientID, slot)
	if g.IsHost {
		s.broadcastState()
	}
}

func (s *Session) onState(m message) {
	g := s.Game
	if !g.IsHost {
		if m.sender != g.HostClientID {
			return
		}
		wasReady := false
		if p, ok := g.Local(); ok {
			wasReady = p.Ready
		}
		wire.Apply(g, m.doc)
		// 房主改了我们的准备状态时，占位蛇跟着重建
		if p, ok := g.Local(); ok && s.State == Lobby && p.Ready != wasReady {
			g.SetReady(g.LocalIndex, p.Ready)
		}
		return
	}
	// 客户端上报：只认发送者自己的槽位
	slot := g.SlotByClient(m.sender)
	if slot == game.NoSlot || slot >= len(m.doc.Players) {
		return
	}
	p, _ := g.Player(slot)
	before := *p
	wire.ApplyReport(p, &m.doc.Players[slot])
	g.CueChanges(slot, &before)
	g.Recount()
}

// onClientCommand 协议的房主一侧
func (s *Session) onClientCommand(m message) {
	g := s.Game
	doc := m.doc
	if doc.Command == wire.CmdPlayerDisconnect {
		id := doc.ClientID
		if id == "" {
			id = m.sender
		}
		s.onLeft(id)
		return
	}
	slot := g.SlotByClient(m.sender)
	if slot == game.NoSlot {
		return
	}
	p, _ := g.Player(slot)
	logging.Log.Debugf("online: %s from slot %d", doc.Command, slot)

	switch doc.Command {
	case wire.CmdToggleReady:
		if s.State != Lobby {
			return
		}
		if doc.Ready != nil {
			g.SetReady(slot, *doc.Ready)
		} else {
			g.ToggleReady(slot)
		}
		s.broadcastState()
	case wire.CmdFoodEaten:
		x, y, ok := doc.At()
		if !ok {
			return
		}
		if g.ConsumeFood(game.Position{X: x, Y: y}) {
			g.CreditFood(slot)
		}
	case wire.CmdFoodAdded:
		x, y, ok := doc.At()
		pos := game.Position{X: x, Y: y}
		if ok && !g.Board.OutOfBounds(pos) {
			g.AddLooseFood(pos)
		}
	case wire.CmdPlayerDied:
		if doc.Lives != nil && *doc.Lives >= 0 {
			p.Lives = *doc.Lives
		}
		if p.Alive && p.DeathState == game.Running {
			before := *p
			p.DeathState = game.Dying
			g.CueChanges(slot, &before)
		}
	case wire.CmdPlayerRespawned:
		x, y, ok := doc.At()
		pos := game.Position{X: x, Y: y}
		if !ok || g.Board.OutOfBounds(pos) {
			return
		}
		dir := game.Direction(-1)
		if doc.Dir != nil {
			dir = game.Direction(*doc.Dir)
		}
		g.Respawn(slot, pos, dir)
		s.collided[slot] = false
	}
}

// onHostCommand 协议的客户端一侧：命令只接受来自房主的
func (s *Session) onHostCommand(m message, nowMs int64) {
	g := s.Game
	doc := m.doc
	if doc.Command == wire.CmdPlayerDisconnect {
		id := doc.ClientID
		if id == "" {
			id = m.sender
		}
		s.onLeft(id)
		return
	}
	if m.sender != g.HostClientID {
		return
	}
	logging.Log.Debugf("online: %s from host", doc.Command)

	switch doc.Command {
	case wire.CmdStartGame:
		if s.State != Lobby && s.State != GameOver {
			return
		}
		g.StartMatch()
		if p, ok := g.Local(); ok && doc.Lives != nil && *doc.Lives > 0 {
			p.Lives = *doc.Lives
		}
		s.Winner = game.NoSlot
		countdown := int64(0)
		if doc.CountdownMs != nil && *doc.CountdownMs > 0 {
			countdown = *doc.CountdownMs
		}
		s.countdownEnd = nowMs + countdown
		s.setState(Countdown)
	case wire.CmdGameOver:
		s.Winner = game.NoSlot
		if doc.Winner != nil {
			s.Winner = *doc.Winner
		}
		s.setState(GameOver)
	case wire.CmdPlayerCollided:
		if s.State == Playing {
			g.Kill(g.LocalIndex)
		}
	case wire.CmdLobbyFull:
		s.ErrorMessage = "lobby is full"
		s.disconnect(s.ErrorMessage)
		if err := s.tr.Close(); err != nil {
			logging.Log.Warnf("online: close: %v", err)
		}
	}
}
