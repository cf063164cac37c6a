// Package online 一场联机对局：持有游戏状态、通过 transport 通信，并划分各端的权威范围
package online

import (
	"context"
	"errors"
	"fmt"

	"github.com/allejako/snake-sub000/game"
	"github.com/allejako/snake-sub000/logging"
	"github.com/allejako/snake-sub000/transport"
	"github.com/allejako/snake-sub000/wire"
)

// State 会话生命周期
type State int

const (
	HostSetup State = iota
	Lobby
	Countdown
	Playing
	GameOver
	// Disconnected 为终态
	Disconnected
)

func (s State) String() string {
	switch s {
	case HostSetup:
		return "host_setup"
	case Lobby:
		return "lobby"
	case Countdown:
		return "countdown"
	case Playing:
		return "playing"
	case GameOver:
		return "game_over"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidState = errors.New("online: operation not valid in current state")
	ErrNilTransport = errors.New("online: nil transport")
)

// DefaultCountdownMs 房主宣布的开局倒计时
const DefaultCountdownMs = 3000

// Config 会话配置
type Config struct {
	Game        game.Config `json:"game"`
	CountdownMs int64       `json:"countdownMs"`
	// "json" 或 "msgpack"，各端必须一致
	Codec string `json:"codec"`
	// 创建会话时传给 transport，0 表示由 transport 决定
	MaxClients int `json:"maxClients"`
}

// DefaultConfig 默认会话配置
func DefaultConfig() Config {
	return Config{
		Game:        game.DefaultConfig(),
		CountdownMs: DefaultCountdownMs,
		Codec:       wire.JSON.Name(),
	}
}

// Session 一局游戏的联机上下文。与游戏本身一样由单个协程驱动，传输事件只在 Frame 内处理
type Session struct {
	Game *game.Game

	State         State
	LocalClientID string
	Name          string
	// 最近一次传输失败的描述，用于显示
	ErrorMessage string
	// game_over 宣布的胜者槽位，此前为 NoSlot
	Winner int

	cfg      Config
	tr       transport.Transport
	codec    wire.Codec
	listener transport.ListenerID

	listening bool
	connLost  bool

	countdownEnd int64
	lastTick     int64
	// 本条命内已通知过碰撞的远端槽位
	collided [game.MaxPlayers]bool

	pending []message
}

// NewSession 准备使用 tr 的会话；Host 或 Join 之前不发送任何东西
func NewSession(tr transport.Transport, cfg Config, name string) (*Session, error) {
	if tr == nil {
		return nil, ErrNilTransport
	}
	codec, err := wire.CodecByName(cfg.Codec)
	if err != nil {
		return nil, err
	}
	if cfg.CountdownMs < 0 {
		cfg.CountdownMs = 0
	}
	g := game.NewGame(cfg.Game, nil)
	g.Online = true
	return &Session{
		Game:   g,
		State:  HostSetup,
		Name:   name,
		Winner: game.NoSlot,
		cfg:    cfg,
		tr:     tr,
		codec:  codec,
	}, nil
}

// Host 创建会话，本地玩家坐 0 号槽位
func (s *Session) Host(ctx context.Context) error {
	if s.State != HostSetup {
		return ErrInvalidState
	}
	hello, err := s.hello()
	if err != nil {
		return err
	}
	s.listen()
	res, err := s.tr.Host(ctx, transport.HostOptions{Payload: hello, MaxClients: s.cfg.MaxClients})
	if err != nil {
		s.fail(err)
		return fmt.Errorf("online: host: %w", err)
	}

	g := s.Game
	g.IsHost = true
	g.SessionID = res.SessionID
	g.HostClientID = res.ClientID
	s.LocalClientID = res.ClientID
	g.Join(0, res.ClientID, s.Name)
	g.SetLocal(0)
	s.setState(Lobby)
	logging.Log.Infof("online: hosting session=%s client=%s", res.SessionID, res.ClientID)
	return nil
}

// Join 加入已有会话：已连接的客户端按加入顺序占槽位，本地玩家取下一个空位；
// 与房主不一致时由房主的第一份快照纠正
func (s *Session) Join(ctx context.Context, sessionID string) error {
	if s.State != HostSetup {
		return ErrInvalidState
	}
	if sessionID == "" {
		return fmt.Errorf("online: join: %w", transport.ErrSessionNotFound)
	}
	hello, err := s.hello()
	if err != nil {
		return err
	}
	// 先监听，避免漏掉加入后立即发来的消息
	s.listen()
	res, err := s.tr.Join(ctx, sessionID, hello)
	if err != nil {
		s.fail(err)
		return fmt.Errorf("online: join %s: %w", sessionID, err)
	}

	g := s.Game
	g.SessionID = res.SessionID
	s.LocalClientID = res.ClientID
	for i, c := range res.Clients {
		if i == 0 {
			g.HostClientID = c.ClientID
		}
		if i >= game.MaxPlayers {
			break
		}
		g.Join(i, c.ClientID, s.nameFrom(c.Payload))
	}
	if slot := g.FreeSlot(); slot != game.NoSlot {
		g.Join(slot, res.ClientID, s.Name)
		g.SetLocal(slot)
	}
	s.setState(Lobby)
	logging.Log.Infof("online: joined session=%s client=%s slot=%d", res.SessionID, res.ClientID, g.LocalIndex)
	return nil
}

func (s *Session) hello() ([]byte, error) {
	name := s.Name
	return wire.Encode(s.codec, &wire.Document{Command: wire.CmdHello, PlayerName: &name})
}

// nameFrom 从 hello 载荷中取显示名
func (s *Session) nameFrom(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}
	doc, err := wire.Decode(s.codec, payload)
	if doc == nil || doc.PlayerName == nil {
		if err != nil {
			logging.Log.Debugf("online: unreadable hello: %v", err)
		}
		return ""
	}
	return *doc.PlayerName
}

func (s *Session) listen() {
	if s.listening {
		return
	}
	s.listener = s.tr.Listen(s.receive)
	s.listening = true
}

func (s *Session) unlisten() {
	if !s.listening {
		return
	}
	s.tr.Unlisten(s.listener)
	s.listening = false
}

// fail 记录创建或加入失败，游戏状态保持不变
func (s *Session) fail(err error) {
	s.unlisten()
	s.ErrorMessage = err.Error()
	logging.Log.Warnf("online: %v", err)
}

func (s *Session) setState(next State) {
	if s.State == next {
		return
	}
	logging.Log.Infof("online: %s -> %s", s.State, next)
	s.State = next
}

// disconnect 进入终态
func (s *Session) disconnect(reason string) {
	if s.State == Disconnected {
		return
	}
	if s.ErrorMessage == "" {
		s.ErrorMessage = reason
	}
	s.unlisten()
	s.setState(Disconnected)
}

// IsHost 本进程是否为房主
func (s *Session) IsHost() bool {
	return s.Game.IsHost
}

// SessionID 其他玩家加入用的会话码
func (s *Session) SessionID() string {
	return s.Game.SessionID
}

// ConnectionLost 是否有发送失败
func (s *Session) ConnectionLost() bool {
	return s.connLost
}

// SetDirection 为本地玩家缓存一次转向
func (s *Session) SetDirection(dir game.Direction) bool {
	p, ok := s.Game.Local()
	if !ok || p.Snake.Len() == 0 {
		return false
	}
	return p.Input.Push(dir, p.Snake.Dir)
}

// ToggleReady 切换本地玩家的准备状态：房主直接广播大厅；
// 客户端先本地预测，再把期望值发给房主
func (s *Session) ToggleReady() error {
	if s.State != Lobby {
		return ErrInvalidState
	}
	g := s.Game
	if _, ok := g.Local(); !ok {
		return ErrInvalidState
	}
	ready := g.ToggleReady(g.LocalIndex)
	if g.IsHost {
		s.broadcastState()
		return nil
	}
	s.sendHost(&wire.Document{Command: wire.CmdToggleReady, Ready: &ready})
	return nil
}

// CanStart 房主是否可以开局
func (s *Session) CanStart() bool {
	return s.Game.IsHost && s.State == Lobby && s.Game.AllPlayersReady()
}

// StartGame 重置回合并宣布倒计时；发送时长而非截止时间，各端按自己的时钟计时
func (s *Session) StartGame(nowMs int64) error {
	if !s.CanStart() {
		return ErrInvalidState
	}
	g := s.Game
	g.StartMatch()
	s.collided = [game.MaxPlayers]bool{}
	s.Winner = game.NoSlot
	s.countdownEnd = nowMs + s.cfg.CountdownMs
	s.setState(Countdown)

	countdown := s.cfg.CountdownMs
	lives := g.Config().Lives
	s.broadcast(&wire.Document{Command: wire.CmdStartGame, CountdownMs: &countdown, Lives: &lives})
	s.broadcastState()
	return nil
}

// CountdownRemaining 距开局剩余毫秒数
func (s *Session) CountdownRemaining(nowMs int64) int64 {
	if s.State != Countdown || nowMs >= s.countdownEnd {
		return 0
	}
	return s.countdownEnd - nowMs
}

// ReturnToLobby 离开结算界面，所有人回到未准备；房主重新广播大厅
func (s *Session) ReturnToLobby() error {
	if s.State != GameOver {
		return ErrInvalidState
	}
	g := s.Game
	if g.IsHost {
		for i := 0; i < game.MaxPlayers; i++ {
			g.SetReady(i, false)
		}
	} else {
		g.SetReady(g.LocalIndex, false)
	}
	s.setState(Lobby)
	if g.IsHost {
		s.broadcastState()
	}
	return nil
}

// Leave 宣布离开、关闭 transport 并结束会话
func (s *Session) Leave() error {
	if s.State == Disconnected {
		return nil
	}
	if s.State != HostSetup {
		doc := &wire.Document{Command: wire.CmdPlayerDisconnect, ClientID: s.LocalClientID}
		if s.Game.IsHost {
			s.broadcast(doc)
		} else {
			s.sendHost(doc)
		}
	}
	s.disconnect("left session")
	if err := s.tr.Close(); err != nil {
		return fmt.Errorf("online: leave: %w", err)
	}
	return nil
}

// DrainCues 取走上次调用以来产生的音效提示
func (s *Session) DrainCues() []game.Cue {
	return s.Game.DrainCues()
}
