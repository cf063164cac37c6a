package game

import (
	"math/rand"
	"testing"
)

func newTestGame(w, h int) *Game {
	return NewGame(Config{Width: w, Height: h}, rand.New(rand.NewSource(7)))
}

func countJoined(g *Game) int {
	n := 0
	for i := 0; i < MaxPlayers; i++ {
		if p, _ := g.Player(i); p.Joined {
			n++
		}
	}
	return n
}

func TestPlayer_OutOfRange(t *testing.T) {
	g := newTestGame(10, 10)
	for _, slot := range []int{-1, MaxPlayers, 99} {
		if _, ok := g.Player(slot); ok {
			t.Fatalf("slot %d should be rejected", slot)
		}
		if g.Join(slot, "x", "x") {
			t.Fatalf("join on slot %d should fail", slot)
		}
	}
	if g.TotalJoined != 0 {
		t.Fatalf("failed joins must not count, got %d", g.TotalJoined)
	}
}

func TestJoinLeave_CountInvariant(t *testing.T) {
	g := newTestGame(20, 20)
	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 1000; i++ {
		slot := rng.Intn(MaxPlayers+2) - 1
		if rng.Intn(2) == 0 {
			g.Join(slot, "c", "n")
		} else {
			g.Leave(slot)
		}
		if got := countJoined(g); got != g.TotalJoined {
			t.Fatalf("step %d: TotalJoined=%d but %d slots joined", i, g.TotalJoined, got)
		}
	}
}

func TestReadyGating(t *testing.T) {
	g := newTestGame(20, 20)
	g.Join(0, "a", "alice")
	g.Join(1, "b", "bob")

	if g.AllPlayersReady() {
		t.Fatalf("nobody is ready yet")
	}
	g.ToggleReady(0)
	if g.AllPlayersReady() {
		t.Fatalf("only one of two is ready")
	}
	g.ToggleReady(1)
	if !g.AllPlayersReady() {
		t.Fatalf("both players are ready")
	}

	g.ToggleReady(1)
	p0, _ := g.Player(0)
	p1, _ := g.Player(1)
	if g.AllPlayersReady() {
		t.Fatalf("player 1 unreadied")
	}
	if p1.Snake.Len() != 0 {
		t.Fatalf("unready player should have no placeholder, got %d segments", p1.Snake.Len())
	}
	if p0.Snake.Len() != 2 {
		t.Fatalf("other player's placeholder must stay, got %d segments", p0.Snake.Len())
	}
}

func TestWallDeath_DyingOnceThenGameOver(t *testing.T) {
	g := newTestGame(20, 20)
	g.Join(0, "a", "a")
	g.StartMatch()
	g.Board.Food = Position{X: 0, Y: 0}
	p, _ := g.Player(0)
	p.Snake = NewSnake(Position{X: 10, Y: 10}, DirRight)

	ticks := 0
	for p.DeathState == Running {
		g.Tick()
		ticks++
		if ticks > 100 {
			t.Fatalf("snake never hit the wall")
		}
		if p.DeathState == Running {
			if head, _ := p.Snake.Head(); head.Y != 10 || head.X > 19 {
				t.Fatalf("unexpected head %v", head)
			}
		}
	}
	if ticks != 10 {
		t.Fatalf("expected death on tick 10, got %d", ticks)
	}
	if head, _ := p.Snake.Head(); head != (Position{X: 19, Y: 10}) {
		t.Fatalf("head should rest at the wall, got %v", head)
	}

	length := p.Snake.Len()
	dyingSeen := 0
	for i := 0; i < length; i++ {
		if p.DeathState == Running {
			t.Fatalf("death state regressed to running")
		}
		if p.DeathState == Dying {
			dyingSeen++
		}
		g.Tick()
	}
	if dyingSeen != length {
		t.Fatalf("expected %d dying ticks, saw %d", length, dyingSeen)
	}
	if p.DeathState != GameOver || p.Alive {
		t.Fatalf("expected game over after %d ticks, got %v alive=%v", length, p.DeathState, p.Alive)
	}
	if g.ActivePlayers != 0 {
		t.Fatalf("expected no active players, got %d", g.ActivePlayers)
	}
	g.Tick()
	if g.ActivePlayers != 0 || p.DeathState != GameOver {
		t.Fatalf("finished player must stay finished")
	}
}

func TestTwoPlayerElimination(t *testing.T) {
	g := newTestGame(20, 20)
	g.Join(0, "a", "alice")
	g.Join(1, "b", "bob")
	g.StartMatch()
	g.Board.Food = Position{X: 0, Y: 0}
	a, _ := g.Player(0)
	a.Snake = NewSnake(Position{X: 18, Y: 10}, DirRight)

	if g.ActivePlayers != 2 {
		t.Fatalf("expected 2 active players, got %d", g.ActivePlayers)
	}
	for i := 0; i < 10 && a.DeathState != GameOver; i++ {
		g.Tick()
	}
	if a.DeathState != GameOver {
		t.Fatalf("player A should have finished dying, state %v", a.DeathState)
	}
	if g.ActivePlayers != 1 {
		t.Fatalf("expected 1 active player, got %d", g.ActivePlayers)
	}
	if !g.IsOver() {
		t.Fatalf("round should be over")
	}
	if w := g.SelectWinner(); w != 1 {
		t.Fatalf("expected player B to win, got %d", w)
	}
	g.AwardWin(1)
	if b, _ := g.Player(1); b.Wins != 1 {
		t.Fatalf("winner's counter not incremented")
	}
}

func TestDeathAnimation_DropsFoodPerSegment(t *testing.T) {
	g := newTestGame(20, 20)
	g.Join(0, "a", "a")
	g.StartMatch()
	p, _ := g.Player(0)
	p.Snake = Snake{Segments: []Position{{X: 5, Y: 5}, {X: 4, Y: 5}, {X: 3, Y: 5}}, Dir: DirRight}
	g.Kill(0)

	for g.UpdateDeathAnimations() {
	}
	if p.DeathState != GameOver {
		t.Fatalf("expected game over, got %v", p.DeathState)
	}
	if got := len(g.LooseFood()); got != 3 {
		t.Fatalf("expected 3 dropped items, got %d", got)
	}
	if p.Lives != DefaultLives-1 {
		t.Fatalf("death should cost one life, have %d", p.Lives)
	}
}

func TestActivePlayers_NeverNegative(t *testing.T) {
	g := newTestGame(20, 20)
	g.Join(0, "a", "a")
	g.StartMatch()
	p, _ := g.Player(0)
	p.Snake = NewSnake(Position{X: 19, Y: 5}, DirRight)
	for i := 0; i < 10; i++ {
		g.Tick()
	}
	if g.ActivePlayers != 0 {
		t.Fatalf("expected 0, got %d", g.ActivePlayers)
	}
	g.Leave(0)
	if g.ActivePlayers != 0 || g.TotalJoined != 0 {
		t.Fatalf("counters went wrong: active=%d joined=%d", g.ActivePlayers, g.TotalJoined)
	}
}

func TestUpdate_EatPrimaryFood(t *testing.T) {
	g := newTestGame(20, 20)
	g.Join(0, "a", "a")
	g.StartMatch()
	p, _ := g.Player(0)
	p.Snake = NewSnake(Position{X: 5, Y: 5}, DirRight)
	g.Board.Food = Position{X: 6, Y: 5}
	g.DrainCues()

	g.Update()

	if p.Snake.Len() != 3 {
		t.Fatalf("expected growth to 3, got %d", p.Snake.Len())
	}
	if p.Score != FoodScore || p.FruitsEaten != 1 || !p.AteFood {
		t.Fatalf("unexpected bookkeeping: score=%d fruits=%d ate=%v", p.Score, p.FruitsEaten, p.AteFood)
	}
	if g.Board.Food == (Position{X: 6, Y: 5}) || p.Snake.Occupies(g.Board.Food) {
		t.Fatalf("food should respawn off the snake, at %v", g.Board.Food)
	}
	cues := g.DrainCues()
	if len(cues) != 1 || cues[0].String() != "eat" {
		t.Fatalf("expected one eat cue, got %v", cues)
	}
	events := g.DrainEvents()
	if len(events) != 1 || events[0].Kind != EventFoodEaten || events[0].Pos != (Position{X: 6, Y: 5}) {
		t.Fatalf("expected food eaten event, got %v", events)
	}
}

func TestUpdate_EatLooseFoodSwapsWithLast(t *testing.T) {
	g := newTestGame(20, 20)
	g.Join(0, "a", "a")
	g.StartMatch()
	g.Board.Food = Position{X: 0, Y: 0}
	p, _ := g.Player(0)
	p.Snake = NewSnake(Position{X: 5, Y: 5}, DirRight)
	a, b, c := Position{X: 1, Y: 1}, Position{X: 6, Y: 5}, Position{X: 2, Y: 2}
	g.AddLooseFood(a)
	g.AddLooseFood(b)
	g.AddLooseFood(c)

	g.Update()

	loose := g.LooseFood()
	if len(loose) != 2 || loose[0] != a || loose[1] != c {
		t.Fatalf("expected [a c], got %v", loose)
	}
	if p.Snake.Len() != 3 {
		t.Fatalf("loose food should grow the snake")
	}
}

func TestLooseFood_Capacity(t *testing.T) {
	g := NewGame(Config{Width: 10, Height: 10, LooseFoodCapacity: 2}, nil)
	if !g.AddLooseFood(Position{X: 1}) || !g.AddLooseFood(Position{X: 2}) {
		t.Fatalf("first two items should fit")
	}
	if g.AddLooseFood(Position{X: 3}) {
		t.Fatalf("third item exceeds capacity")
	}
	if g.RemoveLooseFood(5) {
		t.Fatalf("out-of-range removal must fail")
	}
}

func TestCombo_TiersAndExpiry(t *testing.T) {
	g := newTestGame(20, 20)
	g.Join(0, "a", "a")
	g.StartMatch()
	p, _ := g.Player(0)

	g.CreditFood(0)
	g.CreditFood(0)
	g.CreditFood(0)
	if p.Score != 10+10+20 {
		t.Fatalf("expected 40 points, got %d", p.Score)
	}
	tierCue := false
	for _, c := range g.DrainCues() {
		if c.String() == "combo-tier-1" {
			tierCue = true
		}
	}
	if !tierCue {
		t.Fatalf("expected a combo-tier-1 cue")
	}
	if p.ComboExpiry != ComboArmPending {
		t.Fatalf("expiry should wait to be armed, got %d", p.ComboExpiry)
	}

	g.UpdateCombos(1000)
	want := int64(1000) + g.ComboWindowMs(1)
	if p.ComboExpiry != want {
		t.Fatalf("expected expiry %d, got %d", want, p.ComboExpiry)
	}
	g.UpdateCombos(want - 1)
	if p.ComboCount != 3 {
		t.Fatalf("combo expired early")
	}
	g.UpdateCombos(want)
	if p.ComboCount != 0 || p.ComboBest != 3 {
		t.Fatalf("expected reset streak and best 3, got %d/%d", p.ComboCount, p.ComboBest)
	}
}

func TestComboWindow_GrowsWithTier(t *testing.T) {
	g := newTestGame(20, 20)
	prev := int64(0)
	for tier := 0; tier < 4; tier++ {
		w := g.ComboWindowMs(tier)
		if w <= prev {
			t.Fatalf("tier %d window %d not longer than %d", tier, w, prev)
		}
		prev = w
	}
	if g.ComboWindowMs(0) != int64(DefaultTickMs*15) {
		t.Fatalf("tier 0 window should be 15 ticks")
	}
}

func TestFindSafeSpawnPosition(t *testing.T) {
	g := newTestGame(20, 20)
	g.Join(0, "a", "a")
	g.StartMatch()
	for i := 0; i < 50; i++ {
		pos := g.FindSafeSpawnPosition()
		if pos.X < SpawnMargin || pos.Y < SpawnMargin || pos.X >= 20-SpawnMargin || pos.Y >= 20-SpawnMargin {
			t.Fatalf("spawn %v outside margin", pos)
		}
		if !g.areaClear(pos) {
			t.Fatalf("spawn %v has a crowded neighbourhood", pos)
		}
	}
}

func TestFindSafeSpawnPosition_FallsBackToCenter(t *testing.T) {
	g := newTestGame(10, 10)
	g.Join(0, "a", "a")
	p, _ := g.Player(0)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			p.Snake.Segments = append(p.Snake.Segments, Position{X: x, Y: y})
		}
	}
	if pos := g.FindSafeSpawnPosition(); pos != (Position{X: 5, Y: 5}) {
		t.Fatalf("expected centre fallback, got %v", pos)
	}
}

func TestRespawn_RestoresPlay(t *testing.T) {
	g := newTestGame(20, 20)
	g.Join(0, "a", "a")
	g.Join(1, "b", "b")
	g.StartMatch()
	g.Kill(0)
	for g.UpdateDeathAnimations() {
	}
	if g.ActivePlayers != 1 {
		t.Fatalf("expected 1 active, got %d", g.ActivePlayers)
	}
	pos := g.FindSafeSpawnPosition()
	g.Respawn(0, pos, g.SpawnHeading(pos))
	p, _ := g.Player(0)
	if !p.InPlay() || p.Snake.Len() != 2 || g.ActivePlayers != 2 {
		t.Fatalf("respawn failed: inplay=%v len=%d active=%d", p.InPlay(), p.Snake.Len(), g.ActivePlayers)
	}
}

func TestOnlineClient_SimulatesOnlyLocal(t *testing.T) {
	g := newTestGame(20, 20)
	g.Join(0, "host", "h")
	g.Join(1, "me", "m")
	g.StartMatch()
	g.Online = true
	g.SetLocal(1)
	host, _ := g.Player(0)
	me, _ := g.Player(1)
	hostHead, _ := host.Snake.Head()
	head, _ := me.Snake.Head()
	eaten := head.Step(me.Snake.Dir)
	g.Board.Food = eaten

	g.Update()

	if h, _ := host.Snake.Head(); h != hostHead {
		t.Fatalf("remote snake must not move locally")
	}
	if me.Snake.Len() != 3 {
		t.Fatalf("local snake should grow on food")
	}
	if me.Score != 0 {
		t.Fatalf("client must leave scoring to the host, got %d", me.Score)
	}
	if g.Board.Food != eaten {
		t.Fatalf("client must not respawn primary food")
	}
	events := g.DrainEvents()
	if len(events) != 1 || events[0].Kind != EventFoodEaten || events[0].Slot != 1 {
		t.Fatalf("expected a food eaten event for slot 1, got %v", events)
	}
}

func TestOnlineClient_IgnoresOtherSnakes(t *testing.T) {
	g := newTestGame(20, 20)
	g.Join(0, "host", "h")
	g.Join(1, "me", "m")
	g.StartMatch()
	g.Online = true
	g.SetLocal(1)
	host, _ := g.Player(0)
	me, _ := g.Player(1)
	me.Snake = NewSnake(Position{X: 10, Y: 10}, DirRight)
	host.Snake = NewSnake(Position{X: 11, Y: 5}, DirDown)
	host.Snake.Segments = append(host.Snake.Segments, Position{X: 11, Y: 10})
	g.Board.Food = Position{X: 0, Y: 0}

	g.Update()
	if me.DeathState != Running {
		t.Fatalf("inter-player outcome belongs to the host")
	}

	g.IsHost = true
	g.SetLocal(0)
	if hits := g.RemoteCollisions(); len(hits) != 1 || hits[0] != 1 {
		t.Fatalf("host should flag slot 1, got %v", hits)
	}
}

func TestMatchOverAndWinnerFallbacks(t *testing.T) {
	g := newTestGame(20, 20)
	g.Join(0, "a", "a")
	g.Join(1, "b", "b")
	g.StartMatch()
	a, _ := g.Player(0)
	b, _ := g.Player(1)
	if g.MatchOver() {
		t.Fatalf("both players have lives")
	}
	a.Lives = 0
	if !g.MatchOver() {
		t.Fatalf("one player with lives left ends a two-player match")
	}
	b.Lives = 0
	a.Score, b.Score = 30, 50
	if w := g.SelectWinner(); w != 1 {
		t.Fatalf("highest score should win when nobody has lives, got %d", w)
	}
}

func TestAutopilot_AvoidsWall(t *testing.T) {
	g := newTestGame(20, 20)
	g.Join(0, "a", "a")
	g.StartMatch()
	p, _ := g.Player(0)
	p.Snake = NewSnake(Position{X: 19, Y: 10}, DirRight)
	dir := Autopilot(g, 0)
	if dir == DirRight || dir == DirLeft {
		t.Fatalf("autopilot chose %v into the wall or a reversal", dir)
	}
}

func TestStartMatch_ClearsReadyAndCountsPlayers(t *testing.T) {
	g := newTestGame(20, 20)
	g.Join(0, "a", "alice")
	g.Join(1, "b", "bob")
	g.ToggleReady(0)
	g.ToggleReady(1)
	g.StartMatch()

	if g.ReadyCount() != 0 {
		t.Fatalf("ready flags must not survive into the match, got %d", g.ReadyCount())
	}
	if g.MatchPlayers() != 2 {
		t.Fatalf("match started with %d players, want 2", g.MatchPlayers())
	}
	g.Leave(1)
	if g.MatchPlayers() != 2 {
		t.Fatalf("a leave must not change the starting count")
	}
}

func TestCueChanges(t *testing.T) {
	g := newTestGame(20, 20)
	g.Join(0, "a", "alice")
	g.Join(1, "b", "bob")
	g.SetLocal(1)
	g.StartMatch()

	remote, _ := g.Player(0)
	before := *remote
	remote.DeathState = Dying
	remote.AteFood = true
	remote.ComboCount = 6
	g.CueChanges(0, &before)
	cues := g.DrainCues()
	want := []Cue{
		{Kind: CueExplosion, Slot: 0},
		{Kind: CueComboTier, Slot: 0, Tier: 2},
		{Kind: CueEat, Slot: 0},
	}
	if len(cues) != len(want) {
		t.Fatalf("got %v, want %v", cues, want)
	}
	for i := range want {
		if cues[i] != want[i] {
			t.Fatalf("cue %d: got %v, want %v", i, cues[i], want[i])
		}
	}

	local, _ := g.Player(1)
	before = *local
	local.AteFood = true
	local.ComboCount = 3
	g.CueChanges(1, &before)
	cues = g.DrainCues()
	if len(cues) != 1 || cues[0] != (Cue{Kind: CueComboTier, Slot: 1, Tier: 1}) {
		t.Fatalf("local slot should only cue the combo tier, got %v", cues)
	}

	before = *remote
	g.CueChanges(0, &before)
	if cues := g.DrainCues(); len(cues) != 0 {
		t.Fatalf("no change should mean no cue, got %v", cues)
	}
}
