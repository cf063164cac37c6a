package game

import "math/rand"

// Board 棋盘尺寸与唯一的主食物
type Board struct {
	Width  int
	Height int
	Food   Position
}

// OutOfBounds pos 是否在 [0,Width) x [0,Height) 之外
func (b *Board) OutOfBounds(pos Position) bool {
	return pos.X < 0 || pos.Y < 0 || pos.X >= b.Width || pos.Y >= b.Height
}

// RandomCell 均匀随机一个格子
func (b *Board) RandomCell(rng *rand.Rand) Position {
	return Position{X: rng.Intn(b.Width), Y: rng.Intn(b.Height)}
}

// PlaceFood 把主食物放到蛇未占据的随机格子；一直采样直到找到，调用方需保证有空格
func PlaceFood(b *Board, s *Snake, rng *rand.Rand) {
	for {
		pos := b.RandomCell(rng)
		if s == nil || !s.Occupies(pos) {
			b.Food = pos
			return
		}
	}
}
