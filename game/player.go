package game

// DeathState 一条命内只前进：Running、Dying、GameOver
type DeathState int

const (
	Running DeathState = iota
	Dying
	GameOver
)

func (s DeathState) String() string {
	switch s {
	case Running:
		return "running"
	case Dying:
		return "dying"
	case GameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Player 四个槽位之一
type Player struct {
	Snake Snake
	Input InputBuffer

	Joined     bool
	Alive      bool
	Ready      bool
	DeathState DeathState

	Score       int
	FruitsEaten int
	Lives       int

	ComboCount  int
	ComboExpiry int64 // unix 毫秒；等待设置时为 ComboArmPending
	ComboBest   int

	// AteFood 吃到食物的那个 tick 置位，远端据此播放音效
	AteFood bool

	ClientID string
	Name     string
	IsLocal  bool
	Wins     int
}

// InPlay 是否有一条活着、在移动的蛇
func (p *Player) InPlay() bool {
	return p.Joined && p.Alive && p.DeathState == Running
}

// resetRound 清空单局字段
func (p *Player) resetRound(lives int) {
	p.Score = 0
	p.FruitsEaten = 0
	p.Lives = lives
	p.ComboCount = 0
	p.ComboExpiry = 0
	p.ComboBest = 0
	p.AteFood = false
	p.Input.Clear()
}

// reset 恢复为未加入状态
func (p *Player) reset() {
	*p = Player{}
}
