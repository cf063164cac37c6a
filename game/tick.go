package game

// simulates 本进程是否推进该槽位：离线时全部，联机时只有本地槽位
func (g *Game) simulates(slot int) bool {
	if !g.Online {
		return true
	}
	return slot == g.LocalIndex
}

// authoritative 本进程是否裁决食物、分数与玩家间碰撞
func (g *Game) authoritative() bool {
	return !g.Online || g.IsHost
}

// Tick 推进一步：先死亡动画，再移动。返回是否仍有死亡动画在播放
func (g *Game) Tick() bool {
	animating := g.UpdateDeathAnimations()
	g.Update()
	return animating
}

// Update 所有被模拟的存活蛇前进一格。按槽位顺序处理，迎头相撞时先按小槽位判定
func (g *Game) Update() {
	for i := range g.players {
		if !g.simulates(i) {
			continue
		}
		p := &g.players[i]
		if !p.Joined || !p.Alive || p.DeathState != Running || p.Snake.Len() == 0 {
			continue
		}
		p.AteFood = false
		if dir, ok := p.Input.Pop(); ok {
			p.Snake.ChangeDirection(dir)
		}

		next := p.Snake.NextHead()
		if g.Board.OutOfBounds(next) {
			g.Kill(i)
			continue
		}
		if g.collides(i, next) {
			g.Kill(i)
			continue
		}

		grow, atePrimary := false, false
		if next == g.Board.Food {
			grow, atePrimary = true, true
		} else if idx := g.LooseFoodIndex(next); idx >= 0 {
			grow = true
			g.RemoveLooseFood(idx)
		}

		p.Snake.Step(next, grow)

		if !grow {
			continue
		}
		g.emit(Event{Kind: EventFoodEaten, Slot: i, Pos: next})
		if g.authoritative() {
			g.CreditFood(i)
			if atePrimary {
				g.RespawnFood()
			}
		} else {
			p.AteFood = true
			g.cue(Cue{Kind: CueEat, Slot: i})
		}
	}
}

// collides 检查新头是否撞上自身（不含尾节）；本进程裁决玩家间碰撞时，
// 还检查其他活蛇的全部节。别人的尾巴不排除：它同时移动，腾出的格子尚不可知
func (g *Game) collides(slot int, next Position) bool {
	p := &g.players[slot]
	if p.Snake.OccupiesExcludingTail(next) {
		return true
	}
	if !g.authoritative() {
		return false
	}
	for j := range g.players {
		if j == slot {
			continue
		}
		o := &g.players[j]
		if !o.Joined || !o.Alive || o.Snake.Len() == 0 {
			continue
		}
		if o.Snake.Occupies(next) {
			return true
		}
	}
	return false
}

// Kill 运行中的玩家进入 Dying 并扣一条命
func (g *Game) Kill(slot int) bool {
	p, ok := g.Player(slot)
	if !ok || !p.Alive || p.DeathState != Running {
		return false
	}
	p.DeathState = Dying
	if p.Lives > 0 {
		p.Lives--
	}
	p.Input.Clear()
	g.cue(Cue{Kind: CueExplosion, Slot: slot})
	g.emit(Event{Kind: EventDied, Slot: slot})
	return true
}

// UpdateDeathAnimations 每条被模拟的死亡中的蛇去掉一个头节并在原处留下食物；
// 节数耗尽即结束（GameOver、不再存活、存活数 -1）。返回是否仍有动画
func (g *Game) UpdateDeathAnimations() bool {
	animating := false
	for i := range g.players {
		if !g.simulates(i) {
			continue
		}
		p := &g.players[i]
		if p.DeathState != Dying {
			continue
		}
		if head, ok := p.Snake.Head(); ok && g.AddLooseFood(head) {
			g.emit(Event{Kind: EventFoodDropped, Slot: i, Pos: head})
		}
		if p.Snake.RemoveHead() {
			animating = true
			continue
		}
		p.DeathState = GameOver
		p.Alive = false
		if g.ActivePlayers > 0 {
			g.ActivePlayers--
		}
		g.emit(Event{Kind: EventEliminated, Slot: i})
	}
	return animating
}

// RemoteCollisions 头部落在其他活蛇上的远端玩家。只在房主上有意义
func (g *Game) RemoteCollisions() []int {
	var hits []int
	for i := range g.players {
		if i == g.LocalIndex {
			continue
		}
		p := &g.players[i]
		if !p.InPlay() {
			continue
		}
		head, ok := p.Snake.Head()
		if !ok {
			continue
		}
		for j := range g.players {
			if j == i {
				continue
			}
			o := &g.players[j]
			if o.Joined && o.Alive && o.Snake.Occupies(head) {
				hits = append(hits, i)
				break
			}
		}
	}
	return hits
}

// RespawnFood 把主食物移到没有蛇和掉落食物的格子；FoodAttempts 次失败后随便取一格
func (g *Game) RespawnFood() {
	for i := 0; i < g.cfg.FoodAttempts; i++ {
		pos := g.Board.RandomCell(g.rng)
		if !g.cellTaken(pos) {
			g.Board.Food = pos
			return
		}
	}
	g.Board.Food = g.Board.RandomCell(g.rng)
}

func (g *Game) cellTaken(pos Position) bool {
	for i := range g.players {
		p := &g.players[i]
		if p.Joined && p.Snake.Occupies(pos) {
			return true
		}
	}
	return g.LooseFoodIndex(pos) >= 0
}

// ConsumeFood 处理上报的 food_eaten：主食物重新放置，掉落食物移除。
// 该处已无食物时返回 false（例如被别人先吃了）
func (g *Game) ConsumeFood(pos Position) bool {
	if pos == g.Board.Food {
		g.RespawnFood()
		return true
	}
	if idx := g.LooseFoodIndex(pos); idx >= 0 {
		return g.RemoveLooseFood(idx)
	}
	return false
}
