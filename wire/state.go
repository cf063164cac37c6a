package wire

import "github.com/allejako/snake-sub000/game"

// Snapshot 生成 g 的完整状态文档
func Snapshot(g *game.Game) *Document {
	food := Coord{X: g.Board.Food.X, Y: g.Board.Food.Y}
	loose := make([]Coord, 0, len(g.LooseFood()))
	for _, f := range g.LooseFood() {
		loose = append(loose, Coord{X: f.X, Y: f.Y})
	}
	doc := &Document{
		Food:      &food,
		LooseFood: &loose,
		Players:   make([]PlayerRecord, game.MaxPlayers),
	}
	for i := range doc.Players {
		p, _ := g.Player(i)
		doc.Players[i] = Record(p)
	}
	return doc
}

// Report 客户端每个 tick 上报的文档：只填写自己的槽位
func Report(g *game.Game) *Document {
	doc := &Document{Players: make([]PlayerRecord, game.MaxPlayers)}
	if p, ok := g.Local(); ok {
		doc.Players[g.LocalIndex] = Record(p)
	}
	return doc
}

// Record 编码 p 的全部字段；IsLocal 属于进程状态，不上网络
func Record(p *game.Player) PlayerRecord {
	segs := make([]int, 0, 2*p.Snake.Len())
	for _, s := range p.Snake.Segments {
		segs = append(segs, s.X, s.Y)
	}
	ate := 0
	if p.AteFood {
		ate = 1
	}
	return PlayerRecord{
		Joined:      ptr(p.Joined),
		Alive:       ptr(p.Alive),
		DeathState:  ptr(int(p.DeathState)),
		Lives:       ptr(p.Lives),
		AteFood:     ptr(ate),
		Score:       ptr(p.Score),
		FruitsEaten: ptr(p.FruitsEaten),
		ComboCount:  ptr(p.ComboCount),
		ComboExpiry: ptr(p.ComboExpiry),
		ComboBest:   ptr(p.ComboBest),
		Wins:        ptr(p.Wins),
		Segments:    &segs,
		Direction:   ptr(int(p.Snake.Dir)),
		ClientID:    ptr(p.ClientID),
		Name:        ptr(p.Name),
		Ready:       ptr(p.Ready),
	}
}

// Apply 把房主快照合入 g：越界食物忽略，本地标记跟随本地 client id，
// 每个槽位经过 ApplyPlayer，之后重算计数，并按改写前后的差异补发提示音
func Apply(g *game.Game, doc *Document) {
	if doc == nil {
		return
	}
	if doc.Food != nil {
		pos := game.Position{X: doc.Food.X, Y: doc.Food.Y}
		if !g.Board.OutOfBounds(pos) {
			g.Board.Food = pos
		}
	}
	if doc.LooseFood != nil {
		items := make([]game.Position, 0, len(*doc.LooseFood))
		for _, c := range *doc.LooseFood {
			pos := game.Position{X: c.X, Y: c.Y}
			if !g.Board.OutOfBounds(pos) {
				items = append(items, pos)
			}
		}
		g.SetLooseFood(items)
	}
	followLocal(g, doc)
	for i := range doc.Players {
		p, ok := g.Player(i)
		if !ok {
			break
		}
		rec := &doc.Players[i]
		if p.IsLocal && rec.ClientID != nil && *rec.ClientID != p.ClientID {
			// 房主还没把我们安排到这个槽位
			continue
		}
		before := *p
		ApplyPlayer(p, rec)
		g.CueChanges(i, &before)
	}
	g.Recount()
}

// followLocal 文档把本地客户端安排在与加入时推断不同的槽位时，迁移本地标记
func followLocal(g *game.Game, doc *Document) {
	local, ok := g.Local()
	if !ok || local.ClientID == "" {
		return
	}
	for i := range doc.Players {
		rec := &doc.Players[i]
		if i >= game.MaxPlayers {
			return
		}
		if rec.ClientID != nil && *rec.ClientID == local.ClientID && i != g.LocalIndex {
			g.MoveLocal(i)
			return
		}
	}
}

// ApplyPlayer 本地权威掩码的唯一实现。房主结算的字段（分数、果子数、连击、
// 胜场、准备状态、名字、client id）所有端都接受；移动与生死字段只对远端玩家生效，
// 本地玩家自己的模拟从不被网络覆盖
func ApplyPlayer(p *game.Player, rec *PlayerRecord) {
	setInt(&p.Score, rec.Score)
	setInt(&p.FruitsEaten, rec.FruitsEaten)
	setInt(&p.ComboCount, rec.ComboCount)
	if rec.ComboExpiry != nil {
		p.ComboExpiry = *rec.ComboExpiry
	}
	setInt(&p.ComboBest, rec.ComboBest)
	setInt(&p.Wins, rec.Wins)
	setBool(&p.Ready, rec.Ready)
	if rec.Name != nil {
		p.Name = *rec.Name
	}
	if rec.ClientID != nil {
		p.ClientID = *rec.ClientID
	}

	if p.IsLocal {
		return
	}

	setBool(&p.Joined, rec.Joined)
	setBool(&p.Alive, rec.Alive)
	setInt(&p.Lives, rec.Lives)
	if rec.AteFood != nil {
		p.AteFood = *rec.AteFood != 0
	}
	applyMovement(p, rec)
}

// ApplyReport 把客户端上报合入房主持有的该槽位：只取移动与存活，
// 分数、生命和食物仍由房主决定
func ApplyReport(p *game.Player, rec *PlayerRecord) {
	if p.IsLocal {
		return
	}
	setBool(&p.Alive, rec.Alive)
	applyMovement(p, rec)
}

func applyMovement(p *game.Player, rec *PlayerRecord) {
	if rec.DeathState != nil {
		if ds := game.DeathState(*rec.DeathState); ds >= game.Running && ds <= game.GameOver {
			p.DeathState = ds
		}
	}
	if rec.Segments != nil {
		p.Snake.Segments = decodeSegments(*rec.Segments)
	}
	if rec.Direction != nil {
		if dir := game.Direction(*rec.Direction); dir.Valid() {
			p.Snake.Dir = dir
		}
	}
}

// decodeSegments 解包 x0,y0,x1,y1,...；多出的奇数个值丢弃，长度不超过蛇的容量
func decodeSegments(flat []int) []game.Position {
	n := len(flat) / 2
	if n > game.SnakeCapacity {
		n = game.SnakeCapacity
	}
	segs := make([]game.Position, n)
	for i := 0; i < n; i++ {
		segs[i] = game.Position{X: flat[2*i], Y: flat[2*i+1]}
	}
	return segs
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
