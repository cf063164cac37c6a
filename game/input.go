package game

// InputBufferSize 两个 tick 之间最多缓存的转向数
const InputBufferSize = 2

// InputBuffer 缓存按键：一个 tick 内连按两次转向，两步各生效一次
type InputBuffer struct {
	dirs  [InputBufferSize]Direction
	count int
}

// Push 入队 dir；缓冲已满、与上一个方向（空时为当前方向）相同或相反时忽略
func (b *InputBuffer) Push(dir Direction, current Direction) bool {
	if !dir.Valid() || b.count >= InputBufferSize {
		return false
	}
	last := current
	if b.count > 0 {
		last = b.dirs[b.count-1]
	}
	if dir == last || dir == last.Opposite() {
		return false
	}
	b.dirs[b.count] = dir
	b.count++
	return true
}

// Pop 取出最早的方向
func (b *InputBuffer) Pop() (Direction, bool) {
	if b.count == 0 {
		return DirUp, false
	}
	dir := b.dirs[0]
	copy(b.dirs[:], b.dirs[1:b.count])
	b.count--
	return dir, true
}

// Len 已缓存的方向数
func (b *InputBuffer) Len() int {
	return b.count
}

// Clear 清空
func (b *InputBuffer) Clear() {
	b.count = 0
}
