package wire

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/allejako/snake-sub000/game"
)

func populatedGame(t *testing.T) *game.Game {
	t.Helper()
	g := game.NewGame(game.Config{Width: 30, Height: 20}, rand.New(rand.NewSource(3)))
	g.Join(0, "c-0", "alice")
	g.Join(1, "c-1", "bob")
	g.Join(2, "c-2", "carol")
	g.StartMatch()

	a, _ := g.Player(0)
	a.Score, a.FruitsEaten, a.ComboCount, a.ComboExpiry, a.ComboBest, a.Wins = 120, 7, 2, 99000, 5, 3
	a.Ready = true
	a.AteFood = true
	a.Snake = game.Snake{Segments: []game.Position{{X: 5, Y: 5}, {X: 5, Y: 6}, {X: 6, Y: 6}}, Dir: game.DirUp}

	b, _ := g.Player(1)
	b.Lives = 1
	g.Kill(1)
	g.UpdateDeathAnimations()

	c, _ := g.Player(2)
	c.Alive = false
	c.DeathState = game.GameOver
	c.Lives = 0
	c.Snake.Clear()
	g.Recount()

	g.AddLooseFood(game.Position{X: 1, Y: 2})
	g.AddLooseFood(game.Position{X: 3, Y: 4})
	return g
}

type playerView struct {
	Joined, Alive, Ready                    bool
	DeathState                              game.DeathState
	Lives, Score, Fruits, Combo, Best, Wins int
	Expiry                                  int64
	Segments                                []game.Position
	Dir                                     game.Direction
	ClientID, Name                          string
}

func view(p *game.Player) playerView {
	segs := append([]game.Position{}, p.Snake.Segments...)
	return playerView{
		Joined:     p.Joined,
		Alive:      p.Alive,
		Ready:      p.Ready,
		DeathState: p.DeathState,
		Lives:      p.Lives,
		Score:      p.Score,
		Fruits:     p.FruitsEaten,
		Combo:      p.ComboCount,
		Best:       p.ComboBest,
		Wins:       p.Wins,
		Expiry:     p.ComboExpiry,
		Segments:   segs,
		Dir:        p.Snake.Dir,
		ClientID:   p.ClientID,
		Name:       p.Name,
	}
}

func TestSnapshotApply_RoundTrip(t *testing.T) {
	for _, codec := range []Codec{JSON, Msgpack} {
		src := populatedGame(t)
		data, err := Encode(codec, Snapshot(src))
		if err != nil {
			t.Fatalf("%s: encode: %v", codec.Name(), err)
		}
		doc, err := Decode(codec, data)
		if err != nil {
			t.Fatalf("%s: decode: %v", codec.Name(), err)
		}

		dst := game.NewGame(game.Config{Width: 30, Height: 20}, nil)
		Apply(dst, doc)

		for i := 0; i < game.MaxPlayers; i++ {
			want, _ := src.Player(i)
			got, _ := dst.Player(i)
			if !reflect.DeepEqual(view(want), view(got)) {
				t.Fatalf("%s: slot %d mismatch\nwant %+v\ngot  %+v", codec.Name(), i, view(want), view(got))
			}
		}
		if dst.Board.Food != src.Board.Food {
			t.Fatalf("%s: food %v, want %v", codec.Name(), dst.Board.Food, src.Board.Food)
		}
		if !reflect.DeepEqual(dst.LooseFood(), src.LooseFood()) {
			t.Fatalf("%s: loose food %v, want %v", codec.Name(), dst.LooseFood(), src.LooseFood())
		}
		if dst.TotalJoined != 3 || dst.ActivePlayers != src.ActivePlayers {
			t.Fatalf("%s: counters joined=%d active=%d", codec.Name(), dst.TotalJoined, dst.ActivePlayers)
		}
	}
}

func TestSnapshot_SegmentsAreFlat(t *testing.T) {
	g := populatedGame(t)
	doc := Snapshot(g)
	if len(doc.Players) != game.MaxPlayers {
		t.Fatalf("expected %d records, got %d", game.MaxPlayers, len(doc.Players))
	}
	segs := *doc.Players[0].Segments
	want := []int{5, 5, 5, 6, 6, 6}
	if !reflect.DeepEqual(segs, want) {
		t.Fatalf("expected %v, got %v", want, segs)
	}
	if *doc.Players[0].AteFood != 1 {
		t.Fatalf("ate flag should encode as 1")
	}
}

func randomRecord(rng *rand.Rand) PlayerRecord {
	segs := make([]int, rng.Intn(12))
	for i := range segs {
		segs[i] = rng.Intn(50) - 5
	}
	var rec PlayerRecord
	if rng.Intn(2) == 0 {
		rec.Joined = ptr(rng.Intn(2) == 0)
	}
	if rng.Intn(2) == 0 {
		rec.Alive = ptr(rng.Intn(2) == 0)
	}
	if rng.Intn(2) == 0 {
		rec.DeathState = ptr(rng.Intn(5) - 1)
	}
	if rng.Intn(2) == 0 {
		rec.Lives = ptr(rng.Intn(5))
	}
	if rng.Intn(2) == 0 {
		rec.Segments = &segs
	}
	if rng.Intn(2) == 0 {
		rec.Direction = ptr(rng.Intn(6) - 1)
	}
	if rng.Intn(2) == 0 {
		rec.Score = ptr(rng.Intn(1000))
	}
	if rng.Intn(2) == 0 {
		rec.Ready = ptr(rng.Intn(2) == 0)
	}
	if rng.Intn(2) == 0 {
		rec.Name = ptr("n")
	}
	return rec
}

func TestApplyPlayer_LocalAuthorityPreserved(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for iter := 0; iter < 500; iter++ {
		p := &game.Player{
			Snake:      game.NewSnake(game.Position{X: 4, Y: 4}, game.DirLeft),
			Joined:     true,
			Alive:      true,
			DeathState: game.Dying,
			Lives:      2,
			IsLocal:    true,
			ClientID:   "me",
		}
		before := view(p)
		rec := randomRecord(rng)

		ApplyPlayer(p, &rec)

		after := view(p)
		if !reflect.DeepEqual(before.Segments, after.Segments) || before.Dir != after.Dir {
			t.Fatalf("iter %d: movement overwritten", iter)
		}
		if before.DeathState != after.DeathState || before.Alive != after.Alive || before.Lives != after.Lives {
			t.Fatalf("iter %d: life fields overwritten", iter)
		}
		if !p.IsLocal {
			t.Fatalf("iter %d: local marker cleared", iter)
		}
		if rec.Score != nil && p.Score != *rec.Score {
			t.Fatalf("iter %d: host-owned score not accepted", iter)
		}
	}
}

func TestApply_RemoteFieldsOverwritten(t *testing.T) {
	g := game.NewGame(game.Config{Width: 20, Height: 20}, nil)
	g.Join(1, "other", "o")
	rec := PlayerRecord{
		Alive:      ptr(true),
		DeathState: ptr(int(game.Dying)),
		Lives:      ptr(1),
		Segments:   &[]int{3, 3, 3, 4, 9},
		Direction:  ptr(int(game.DirDown)),
	}
	doc := &Document{Players: []PlayerRecord{{}, rec}}
	Apply(g, doc)

	p, _ := g.Player(1)
	if p.DeathState != game.Dying || !p.Alive || p.Lives != 1 || p.Snake.Dir != game.DirDown {
		t.Fatalf("remote fields not taken verbatim: %+v", view(p))
	}
	if len(p.Snake.Segments) != 2 || p.Snake.Segments[1] != (game.Position{X: 3, Y: 4}) {
		t.Fatalf("odd trailing coordinate should be dropped, got %v", p.Snake.Segments)
	}
	if g.ActivePlayers != 1 {
		t.Fatalf("counters should be rebuilt, active=%d", g.ActivePlayers)
	}
}

func TestApply_MissingFieldsKeepValues(t *testing.T) {
	g := game.NewGame(game.Config{Width: 20, Height: 20}, nil)
	g.Join(0, "x", "x")
	p, _ := g.Player(0)
	p.Score = 42
	g.Board.Food = game.Position{X: 2, Y: 2}

	Apply(g, &Document{Food: &Coord{X: 50, Y: 50}, Players: []PlayerRecord{{Name: ptr("renamed")}}})

	if p.Score != 42 || p.Name != "renamed" || !p.Joined {
		t.Fatalf("absent fields must be skipped: %+v", view(p))
	}
	if g.Board.Food != (game.Position{X: 2, Y: 2}) {
		t.Fatalf("out-of-bounds food must be ignored, got %v", g.Board.Food)
	}
}

func TestApply_FollowsLocalClientToNewSlot(t *testing.T) {
	g := game.NewGame(game.Config{Width: 20, Height: 20}, nil)
	g.Join(0, "host", "h")
	g.Join(1, "me", "m")
	g.SetLocal(1)
	me, _ := g.Player(1)
	me.Lives = 2

	doc := &Document{Players: []PlayerRecord{
		{ClientID: ptr("host"), Joined: ptr(true)},
		{ClientID: ptr("other"), Joined: ptr(true), Lives: ptr(3)},
		{ClientID: ptr("me"), Joined: ptr(true), Lives: ptr(3)},
	}}
	Apply(g, doc)

	if g.LocalIndex != 2 {
		t.Fatalf("local marker should move to slot 2, at %d", g.LocalIndex)
	}
	moved, _ := g.Player(2)
	if !moved.IsLocal || moved.Lives != 2 {
		t.Fatalf("local state should travel with the marker: %+v", view(moved))
	}
	other, _ := g.Player(1)
	if other.IsLocal || other.ClientID != "other" || other.Lives != 3 {
		t.Fatalf("vacated slot should take the network record: %+v", view(other))
	}
}

func TestReport_OnlyLocalSlot(t *testing.T) {
	g := populatedGame(t)
	g.SetLocal(1)
	doc := Report(g)
	for i, rec := range doc.Players {
		if (rec.Segments != nil) != (i == 1) {
			t.Fatalf("slot %d presence wrong in report", i)
		}
	}
	if doc.Food != nil || doc.LooseFood != nil {
		t.Fatalf("reports carry no food")
	}

	host := populatedGame(t)
	hp, _ := host.Player(1)
	hp.Score = 999
	ApplyReport(hp, &doc.Players[1])
	if hp.Score != 999 {
		t.Fatalf("reports must not touch host-owned score")
	}
}

func TestDecode_WrongTypeFieldIsSkipped(t *testing.T) {
	data := []byte(`{"food":{"x":1,"y":2},"players":[{"score":"lots","name":"ok"}]}`)
	doc, err := Decode(JSON, data)
	if doc == nil {
		t.Fatalf("expected a partial document, got error %v", err)
	}
	if doc.Food == nil || doc.Food.X != 1 {
		t.Fatalf("valid fields should survive")
	}
	if len(doc.Players) != 1 || doc.Players[0].Name == nil || *doc.Players[0].Name != "ok" {
		t.Fatalf("sibling fields should survive")
	}
	if _, err := Decode(JSON, []byte(`{not json`)); err == nil {
		t.Fatalf("syntax errors must fail")
	}
}

func TestCodecByName(t *testing.T) {
	for _, name := range []string{"", "json", "msgpack"} {
		if _, err := CodecByName(name); err != nil {
			t.Fatalf("%q: %v", name, err)
		}
	}
	if _, err := CodecByName("xml"); err == nil {
		t.Fatalf("unknown codec should fail")
	}
}
