package game

const (
	// ComboArmPending 写在 ComboExpiry 里，表示等下一次 UpdateCombos 按墙钟计时；
	// tick 本身从不读时钟
	ComboArmPending int64 = -1

	// FoodScore 一个食物的基础分
	FoodScore = 10
)

// comboTierFloors[i] 达到第 i 档所需的连击数
var comboTierFloors = [...]int{0, 3, 6, 10}

// comboWindowTicks[i] 第 i 档的续命窗口（tick 数）
var comboWindowTicks = [...]int{15, 20, 25, 30}

// ComboTier 连击数对应的档位
func ComboTier(count int) int {
	tier := 0
	for i, floor := range comboTierFloors {
		if count >= floor {
			tier = i
		}
	}
	return tier
}

// ComboMultiplier 连击倍率
func ComboMultiplier(count int) int {
	return ComboTier(count) + 1
}

// ComboWindowMs 该档位下不进食还能保持连击的毫秒数
func (g *Game) ComboWindowMs(tier int) int64 {
	if tier < 0 {
		tier = 0
	}
	if tier >= len(comboWindowTicks) {
		tier = len(comboWindowTicks) - 1
	}
	return int64(g.TickMs) * int64(comboWindowTicks[tier])
}

// CreditFood 为 slot 结算一次进食：分数、果子数、连击；过期时间留给 UpdateCombos 设置
func (g *Game) CreditFood(slot int) {
	p, ok := g.Player(slot)
	if !ok {
		return
	}
	before := ComboTier(p.ComboCount)
	p.ComboCount++
	if p.ComboCount > p.ComboBest {
		p.ComboBest = p.ComboCount
	}
	p.ComboExpiry = ComboArmPending
	p.Score += FoodScore * ComboMultiplier(p.ComboCount)
	p.FruitsEaten++
	p.AteFood = true

	g.cue(Cue{Kind: CueEat, Slot: slot})
	if after := ComboTier(p.ComboCount); after > before {
		g.cue(Cue{Kind: CueComboTier, Slot: slot, Tier: after})
	}
}

// UpdateCombos 设置待定窗口，清掉超时的连击
func (g *Game) UpdateCombos(nowMs int64) {
	for i := range g.players {
		p := &g.players[i]
		if !p.Joined {
			continue
		}
		switch {
		case p.ComboExpiry == ComboArmPending:
			p.ComboExpiry = nowMs + g.ComboWindowMs(ComboTier(p.ComboCount))
		case p.ComboCount > 0 && p.ComboExpiry > 0 && nowMs >= p.ComboExpiry:
			p.ComboCount = 0
			p.ComboExpiry = 0
		}
	}
}
