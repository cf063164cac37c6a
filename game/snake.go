package game

// SnakeCapacity 蛇的最大节数
const SnakeCapacity = 256

// Snake 有序的节列表，下标 0 为头
type Snake struct {
	Segments []Position
	Dir      Direction
}

// NewSnake 在 start 创建两节、朝向 dir 的蛇；第二节在头后一格
func NewSnake(start Position, dir Direction) Snake {
	segs := make([]Position, 2, 8)
	segs[0] = start
	segs[1] = start.Step(dir.Opposite())
	return Snake{Segments: segs, Dir: dir}
}

// Len 节数
func (s *Snake) Len() int {
	return len(s.Segments)
}

// Head 头节
func (s *Snake) Head() (Position, bool) {
	if len(s.Segments) == 0 {
		return Position{}, false
	}
	return s.Segments[0], true
}

// NextHead 下一步头将进入的格子
func (s *Snake) NextHead() Position {
	head, _ := s.Head()
	return head.Step(s.Dir)
}

// ChangeDirection 设定下一步方向，掉头忽略
func (s *Snake) ChangeDirection(dir Direction) {
	if !dir.Valid() || dir == s.Dir.Opposite() {
		return
	}
	s.Dir = dir
}

// Step 以 newHead 为新头前进；grow 且未满时保留尾巴，长度 +1
func (s *Snake) Step(newHead Position, grow bool) {
	n := len(s.Segments)
	if n == 0 {
		return
	}
	if grow && n < SnakeCapacity {
		s.Segments = append(s.Segments, s.Segments[n-1])
	}
	copy(s.Segments[1:], s.Segments[:len(s.Segments)-1])
	s.Segments[0] = newHead
}

// Occupies pos 上是否有蛇身
func (s *Snake) Occupies(pos Position) bool {
	for _, seg := range s.Segments {
		if seg == pos {
			return true
		}
	}
	return false
}

// OccupiesExcludingTail 不算尾节的 Occupies：不增长时尾巴与头同一步移动，
// 进入当前尾巴所在格不算碰撞
func (s *Snake) OccupiesExcludingTail(pos Position) bool {
	n := len(s.Segments)
	for i := 0; i < n-1; i++ {
		if s.Segments[i] == pos {
			return true
		}
	}
	return false
}

// RemoveHead 去掉头节，返回是否还有剩余
func (s *Snake) RemoveHead() bool {
	if len(s.Segments) == 0 {
		return false
	}
	copy(s.Segments, s.Segments[1:])
	s.Segments = s.Segments[:len(s.Segments)-1]
	return len(s.Segments) > 0
}

// Clear 清空
func (s *Snake) Clear() {
	s.Segments = s.Segments[:0]
}
