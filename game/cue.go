package game

import "fmt"

// CueKind 音效层可能关心的提示类型
type CueKind int

const (
	CueEat CueKind = iota
	CueExplosion
	CueComboTier
)

// Cue 抽象的“刚刚发生了什么”信号。引擎自身不播放声音，由上层每帧取走
type Cue struct {
	Kind CueKind
	Slot int
	Tier int
}

func (c Cue) String() string {
	switch c.Kind {
	case CueEat:
		return "eat"
	case CueExplosion:
		return "explosion"
	case CueComboTier:
		return fmt.Sprintf("combo-tier-%d", c.Tier)
	default:
		return "unknown"
	}
}

// EventKind 会话层需要上报的模拟状态变化
type EventKind int

const (
	// EventFoodEaten Pos 为被吃掉的格子
	EventFoodEaten EventKind = iota
	// EventDied 玩家从 Running 进入 Dying
	EventDied
	// EventFoodDropped 死亡中的蛇在 Pos 留下食物
	EventFoodDropped
	// EventEliminated 死亡动画结束
	EventEliminated
)

// Event 某个槽位的一次状态变化
type Event struct {
	Kind EventKind
	Slot int
	Pos  Position
}

func (g *Game) cue(c Cue) {
	g.cues = append(g.cues, c)
}

func (g *Game) emit(e Event) {
	g.events = append(g.events, e)
}

// CueChanges 槽位被网络数据改写后，按改写前后的差异补发提示：
// Running 进入死亡时爆炸，连击升档，远端玩家 ate_food 由 0 变 1 时吃食物。
// 本地玩家的吃食物与死亡由本地模拟提示，这里只补连击档位（连击由房主结算）。
func (g *Game) CueChanges(slot int, before *Player) {
	p, ok := g.Player(slot)
	if !ok || !p.Joined || before == nil {
		return
	}
	if before.Alive && before.DeathState == Running && p.DeathState != Running {
		g.cue(Cue{Kind: CueExplosion, Slot: slot})
	}
	if tier := ComboTier(p.ComboCount); tier > ComboTier(before.ComboCount) {
		g.cue(Cue{Kind: CueComboTier, Slot: slot, Tier: tier})
	}
	if !p.IsLocal && p.AteFood && !before.AteFood {
		g.cue(Cue{Kind: CueEat, Slot: slot})
	}
}

// DrainCues 取走上次调用以来记录的提示
func (g *Game) DrainCues() []Cue {
	out := g.cues
	g.cues = nil
	return out
}

// DrainEvents 取走上次调用以来记录的事件
func (g *Game) DrainEvents() []Event {
	out := g.events
	g.events = nil
	return out
}
