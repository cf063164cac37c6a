package game

import (
	"math/rand"
	"time"
)

// MaxPlayers 槽位数
const MaxPlayers = 4

// NoSlot 表示没有槽位
const NoSlot = -1

// Game 共享竞技场：棋盘、四个玩家槽位与掉落食物。非并发安全，只由一个协程持有
type Game struct {
	Board Board

	players   [MaxPlayers]Player
	looseFood []Position

	TotalJoined   int
	ActivePlayers int

	IsHost bool
	// Online 时只模拟本地槽位，远端槽位由网络驱动
	Online     bool
	LocalIndex int
	TickMs     int

	SessionID    string
	HostClientID string

	// 本局开始时的玩家数
	matchPlayers int

	cfg    Config
	rng    *rand.Rand
	cues   []Cue
	events []Event
}

// NewGame 创建空竞技场；rng 为 nil 时以当前时间播种
func NewGame(cfg Config, rng *rand.Rand) *Game {
	cfg = cfg.withDefaults()
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	g := &Game{
		Board:      Board{Width: cfg.Width, Height: cfg.Height},
		looseFood:  make([]Position, 0, cfg.LooseFoodCapacity),
		LocalIndex: NoSlot,
		TickMs:     cfg.TickMs,
		cfg:        cfg,
		rng:        rng,
	}
	g.Board.Food = Position{X: cfg.Width / 2, Y: cfg.Height / 2}
	return g
}

// Config 返回创建时的规则
func (g *Game) Config() Config {
	return g.cfg
}

// Player 返回槽位；越界时返回 false
func (g *Game) Player(slot int) (*Player, bool) {
	if slot < 0 || slot >= MaxPlayers {
		return nil, false
	}
	return &g.players[slot], true
}

// Local 本地玩家的槽位
func (g *Game) Local() (*Player, bool) {
	return g.Player(g.LocalIndex)
}

// SetLocal 标记本进程模拟的槽位
func (g *Game) SetLocal(slot int) bool {
	if _, ok := g.Player(slot); !ok {
		return false
	}
	for i := range g.players {
		g.players[i].IsLocal = i == slot
	}
	g.LocalIndex = slot
	return true
}

// FreeSlot 第一个空槽位，没有则 NoSlot
func (g *Game) FreeSlot() int {
	for i := range g.players {
		if !g.players[i].Joined {
			return i
		}
	}
	return NoSlot
}

// SlotByClient 按 client id 查找已加入的槽位
func (g *Game) SlotByClient(clientID string) int {
	if clientID == "" {
		return NoSlot
	}
	for i := range g.players {
		if g.players[i].Joined && g.players[i].ClientID == clientID {
			return i
		}
	}
	return NoSlot
}

// Join 占用槽位；单局字段不动，由 StartMatch 重置
func (g *Game) Join(slot int, clientID, name string) bool {
	p, ok := g.Player(slot)
	if !ok {
		return false
	}
	if !p.Joined {
		local := p.IsLocal
		p.reset()
		p.IsLocal = local
		p.Joined = true
		p.Lives = g.cfg.Lives
		g.TotalJoined++
	}
	p.ClientID = clientID
	p.Name = name
	return true
}

// Leave 释放槽位，同步维护加入/存活计数
func (g *Game) Leave(slot int) bool {
	p, ok := g.Player(slot)
	if !ok || !p.Joined {
		return false
	}
	wasAlive := p.Alive
	p.reset()
	g.TotalJoined--
	if wasAlive && g.ActivePlayers > 0 {
		g.ActivePlayers--
	}
	if g.LocalIndex == slot {
		g.LocalIndex = NoSlot
	}
	return true
}

// Recount 按槽位标志重算 TotalJoined 与 ActivePlayers（网络整体改写槽位之后使用）
func (g *Game) Recount() {
	g.TotalJoined = 0
	g.ActivePlayers = 0
	for i := range g.players {
		if g.players[i].Joined {
			g.TotalJoined++
		}
		if g.players[i].Alive {
			g.ActivePlayers++
		}
	}
}

// StartPosition 槽位的固定出生点：各占一角，朝向内侧
func (g *Game) StartPosition(slot int) (Position, Direction) {
	w, h := g.Board.Width, g.Board.Height
	switch slot {
	case 1:
		return Position{X: w - 5, Y: h - 5}, DirLeft
	case 2:
		return Position{X: w - 5, Y: 4}, DirDown
	case 3:
		return Position{X: 4, Y: h - 5}, DirUp
	default:
		return Position{X: 4, Y: 4}, DirRight
	}
}

// ToggleReady 切换准备状态：准备后在出生点放占位蛇，取消则移除
func (g *Game) ToggleReady(slot int) bool {
	p, ok := g.Player(slot)
	if !ok || !p.Joined {
		return false
	}
	g.SetReady(slot, !p.Ready)
	return p.Ready
}

// SetReady 设置准备状态及对应的占位蛇
func (g *Game) SetReady(slot int, ready bool) {
	p, ok := g.Player(slot)
	if !ok || !p.Joined {
		return
	}
	p.Ready = ready
	if ready {
		pos, dir := g.StartPosition(slot)
		p.Snake = NewSnake(pos, dir)
	} else {
		p.Snake.Clear()
	}
}

// ReadyCount 已准备的玩家数
func (g *Game) ReadyCount() int {
	n := 0
	for i := range g.players {
		if g.players[i].Joined && g.players[i].Ready {
			n++
		}
	}
	return n
}

// AllPlayersReady 至少一人加入且全部已准备
func (g *Game) AllPlayersReady() bool {
	return g.TotalJoined >= 1 && g.ReadyCount() == g.TotalJoined
}

// StartMatch 重置单局字段（包括准备状态），所有已加入玩家出生
func (g *Game) StartMatch() {
	g.looseFood = g.looseFood[:0]
	g.ActivePlayers = 0
	for i := range g.players {
		p := &g.players[i]
		if !p.Joined {
			continue
		}
		p.resetRound(g.cfg.Lives)
		p.Ready = false
		pos, dir := g.StartPosition(i)
		p.Snake = NewSnake(pos, dir)
		p.Alive = true
		p.DeathState = Running
		g.ActivePlayers++
	}
	g.matchPlayers = g.TotalJoined
	g.cues = nil
	g.events = nil
	g.RespawnFood()
}

// MatchPlayers 本局开始时的玩家数
func (g *Game) MatchPlayers() int {
	return g.matchPlayers
}

// LooseFood 掉落的食物；切片归 g 所有
func (g *Game) LooseFood() []Position {
	return g.looseFood
}

// AddLooseFood 未满时追加
func (g *Game) AddLooseFood(pos Position) bool {
	if len(g.looseFood) >= g.cfg.LooseFoodCapacity {
		return false
	}
	g.looseFood = append(g.looseFood, pos)
	return true
}

// LooseFoodIndex pos 处食物的下标，没有则 -1
func (g *Game) LooseFoodIndex(pos Position) int {
	for i, f := range g.looseFood {
		if f == pos {
			return i
		}
	}
	return -1
}

// RemoveLooseFood 用最后一项覆盖第 i 项
func (g *Game) RemoveLooseFood(i int) bool {
	n := len(g.looseFood)
	if i < 0 || i >= n {
		return false
	}
	g.looseFood[i] = g.looseFood[n-1]
	g.looseFood = g.looseFood[:n-1]
	return true
}

// SetLooseFood 整体替换，超出容量的截断
func (g *Game) SetLooseFood(items []Position) {
	g.looseFood = g.looseFood[:0]
	for _, pos := range items {
		if !g.AddLooseFood(pos) {
			return
		}
	}
}

// ClearAteFood 清掉所有槽位本 tick 的进食标志
func (g *Game) ClearAteFood() {
	for i := range g.players {
		g.players[i].AteFood = false
	}
}

// IsOver 回合结束：最多剩一条活蛇
func (g *Game) IsOver() bool {
	return g.ActivePlayers <= 1
}

// PlayersWithLives 还有生命的已加入玩家数
func (g *Game) PlayersWithLives() int {
	n := 0
	for i := range g.players {
		if g.players[i].Joined && g.players[i].Lives > 0 {
			n++
		}
	}
	return n
}

// MatchOver 联机结束条件：无人有生命，或多人对局只剩一人有生命
func (g *Game) MatchOver() bool {
	left := g.PlayersWithLives()
	if left == 0 {
		return true
	}
	return left <= 1 && g.matchPlayers > 1
}

// SelectWinner 依次取：仍在场且有生命的第一人、有生命的第一人、最高分者；无人加入时 NoSlot
func (g *Game) SelectWinner() int {
	for i := range g.players {
		p := &g.players[i]
		if p.Joined && p.Lives > 0 && p.Alive && p.DeathState != GameOver {
			return i
		}
	}
	for i := range g.players {
		if g.players[i].Joined && g.players[i].Lives > 0 {
			return i
		}
	}
	winner, best := NoSlot, -1
	for i := range g.players {
		p := &g.players[i]
		if p.Joined && p.Score > best {
			winner, best = i, p.Score
		}
	}
	return winner
}

// AwardWin 胜场 +1
func (g *Game) AwardWin(slot int) {
	if p, ok := g.Player(slot); ok && p.Joined {
		p.Wins++
	}
}

// MoveLocal 把本地玩家连同本地状态迁到槽位 to，旧槽位清空等网络填充
func (g *Game) MoveLocal(to int) bool {
	src, ok := g.Local()
	if !ok {
		return false
	}
	dst, ok := g.Player(to)
	if !ok || to == g.LocalIndex {
		return false
	}
	*dst = *src
	*src = Player{}
	return g.SetLocal(to)
}
