package game

const (
	// SpawnMargin 复活点离墙的距离
	SpawnMargin = 3
	// SpawnAttempts 最大尝试次数，之后退回棋盘中心
	SpawnAttempts = 100
)

// FindSafeSpawnPosition 在边距内找一个 3x3 邻域没有蛇身和主食物的格子，
// SpawnAttempts 次都失败则返回棋盘中心
func (g *Game) FindSafeSpawnPosition() Position {
	w, h := g.Board.Width-2*SpawnMargin, g.Board.Height-2*SpawnMargin
	if w > 0 && h > 0 {
		for i := 0; i < SpawnAttempts; i++ {
			pos := Position{
				X: SpawnMargin + g.rng.Intn(w),
				Y: SpawnMargin + g.rng.Intn(h),
			}
			if g.areaClear(pos) {
				return pos
			}
		}
	}
	return Position{X: g.Board.Width / 2, Y: g.Board.Height / 2}
}

func (g *Game) areaClear(center Position) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			cell := Position{X: center.X + dx, Y: center.Y + dy}
			if cell == g.Board.Food {
				return false
			}
			for i := range g.players {
				p := &g.players[i]
				if p.Joined && p.Snake.Occupies(cell) {
					return false
				}
			}
		}
	}
	return true
}

// SpawnHeading 让 pos 处的新蛇朝向棋盘中部
func (g *Game) SpawnHeading(pos Position) Direction {
	if pos.X < g.Board.Width/2 {
		return DirRight
	}
	return DirLeft
}

// Respawn 在 pos 给 slot 一条新的两节蛇并回到场上
func (g *Game) Respawn(slot int, pos Position, dir Direction) bool {
	p, ok := g.Player(slot)
	if !ok || !p.Joined {
		return false
	}
	if !dir.Valid() {
		dir = g.SpawnHeading(pos)
	}
	p.Snake = NewSnake(pos, dir)
	p.Input.Clear()
	p.DeathState = Running
	if !p.Alive {
		p.Alive = true
		g.ActivePlayers++
	}
	return true
}
