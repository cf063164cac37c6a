package game

var allDirections = [...]Direction{DirUp, DirDown, DirLeft, DirRight}

// Autopilot 为 slot 选一个下一步不会撞墙撞身的方向：优先离主食物最近的，
// 距离相同保持当前方向。无界面玩家用它代替键盘
func Autopilot(g *Game, slot int) Direction {
	p, ok := g.Player(slot)
	if !ok || p.Snake.Len() == 0 {
		return DirUp
	}
	head, _ := p.Snake.Head()
	best, bestDist := p.Snake.Dir, -1
	for _, dir := range allDirections {
		if dir == p.Snake.Dir.Opposite() {
			continue
		}
		next := head.Step(dir)
		if !g.safeCell(slot, next) {
			continue
		}
		d := manhattan(next, g.Board.Food)
		if bestDist < 0 || d < bestDist || (d == bestDist && dir == p.Snake.Dir) {
			best, bestDist = dir, d
		}
	}
	return best
}

func (g *Game) safeCell(slot int, pos Position) bool {
	if g.Board.OutOfBounds(pos) {
		return false
	}
	for i := range g.players {
		o := &g.players[i]
		if !o.Joined || !o.Alive {
			continue
		}
		if i == slot {
			if o.Snake.OccupiesExcludingTail(pos) {
				return false
			}
		} else if o.Snake.Occupies(pos) {
			return false
		}
	}
	return true
}

func manhattan(a, b Position) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
