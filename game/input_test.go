package game

import "testing"

func TestInputBuffer(t *testing.T) {
	var b InputBuffer
	if b.Push(DirRight, DirRight) {
		t.Fatalf("repeating the current heading should be rejected")
	}
	if b.Push(DirLeft, DirRight) {
		t.Fatalf("reversal should be rejected")
	}
	if !b.Push(DirUp, DirRight) {
		t.Fatalf("turn should be accepted")
	}
	if b.Push(DirDown, DirRight) {
		t.Fatalf("reversal of the queued heading should be rejected")
	}
	if !b.Push(DirLeft, DirRight) {
		t.Fatalf("second turn should be accepted")
	}
	if b.Push(DirDown, DirRight) {
		t.Fatalf("buffer holds only %d entries", InputBufferSize)
	}

	if d, ok := b.Pop(); !ok || d != DirUp {
		t.Fatalf("expected up first, got %v %v", d, ok)
	}
	if d, ok := b.Pop(); !ok || d != DirLeft {
		t.Fatalf("expected left second, got %v %v", d, ok)
	}
	if _, ok := b.Pop(); ok {
		t.Fatalf("buffer should be empty")
	}
}

func TestInputBuffer_TwoTurnsOverTwoTicks(t *testing.T) {
	g := NewGame(Config{Width: 20, Height: 20}, nil)
	g.Join(0, "a", "a")
	g.StartMatch()
	g.Board.Food = Position{X: 0, Y: 19}
	p, _ := g.Player(0)
	p.Snake = NewSnake(Position{X: 10, Y: 10}, DirRight)

	p.Input.Push(DirUp, p.Snake.Dir)
	p.Input.Push(DirLeft, p.Snake.Dir)
	g.Update()
	if head, _ := p.Snake.Head(); head != (Position{X: 10, Y: 9}) {
		t.Fatalf("first tick should turn up, head %v", head)
	}
	g.Update()
	if head, _ := p.Snake.Head(); head != (Position{X: 9, Y: 9}) {
		t.Fatalf("second tick should turn left, head %v", head)
	}
}
