package game

// Position 棋盘格子
type Position struct {
	X int
	Y int
}

// Add 平移 d
func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

// Step dir 方向上的相邻格子
func (p Position) Step(dir Direction) Position {
	return p.Add(dir.Delta())
}

// Direction 朝向；数值即线上编码
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

// Valid 是否为四个方向之一
func (d Direction) Valid() bool {
	return d >= DirUp && d <= DirRight
}

// Opposite 反方向
func (d Direction) Opposite() Direction {
	switch d {
	case DirUp:
		return DirDown
	case DirDown:
		return DirUp
	case DirLeft:
		return DirRight
	case DirRight:
		return DirLeft
	default:
		return d
	}
}

// Delta 沿 d 走一步的偏移，Y 向下增长
func (d Direction) Delta() Position {
	switch d {
	case DirUp:
		return Position{X: 0, Y: -1}
	case DirDown:
		return Position{X: 0, Y: 1}
	case DirLeft:
		return Position{X: -1, Y: 0}
	case DirRight:
		return Position{X: 1, Y: 0}
	default:
		return Position{}
	}
}

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	default:
		return "none"
	}
}
