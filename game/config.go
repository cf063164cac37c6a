package game

// Config 创建对局时的规则
type Config struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	// 每局初始生命
	Lives int `json:"lives"`
	// 掉落食物数组的上限
	LooseFoodCapacity int `json:"looseFoodCapacity"`
	// 模拟间隔（毫秒），连击窗口随之缩放
	TickMs int `json:"tickMs"`
	// 放食物时避让的最大尝试次数，超过后随便选一格
	FoodAttempts int `json:"foodAttempts"`
}

const (
	DefaultLives             = 3
	DefaultLooseFoodCapacity = 32
	DefaultTickMs            = 100
	DefaultFoodAttempts      = 1000
)

// DefaultConfig 标准规则，40x30 棋盘
func DefaultConfig() Config {
	return Config{
		Width:             40,
		Height:            30,
		Lives:             DefaultLives,
		LooseFoodCapacity: DefaultLooseFoodCapacity,
		TickMs:            DefaultTickMs,
		FoodAttempts:      DefaultFoodAttempts,
	}
}

// withDefaults 零值字段取默认值
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Width <= 0 {
		c.Width = d.Width
	}
	if c.Height <= 0 {
		c.Height = d.Height
	}
	if c.Lives <= 0 {
		c.Lives = d.Lives
	}
	if c.LooseFoodCapacity <= 0 {
		c.LooseFoodCapacity = d.LooseFoodCapacity
	}
	if c.TickMs <= 0 {
		c.TickMs = d.TickMs
	}
	if c.FoodAttempts <= 0 {
		c.FoodAttempts = d.FoodAttempts
	}
	return c
}
