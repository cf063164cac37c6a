// Package wire 定义各端交换的状态文档，以及把收到的文档合入本地对局的规则
package wire

// Document.Command 的取值；为空表示该文档是状态快照
const (
	CmdHello            = "hello"
	CmdStartGame        = "start_game"
	CmdGameOver         = "game_over"
	CmdToggleReady      = "toggle_ready"
	CmdFoodAdded        = "food_added"
	CmdPlayerDied       = "player_died"
	CmdPlayerRespawned  = "player_respawned"
	CmdPlayerDisconnect = "player_disconnect"
	CmdFoodEaten        = "food_eaten"
	CmdPlayerCollided   = "player_collided"
	CmdLobbyFull        = "lobby_full"
)

// Coord 线上的棋盘格子
type Coord struct {
	X int `json:"x" msgpack:"x"`
	Y int `json:"y" msgpack:"y"`
}

// PlayerRecord 线上的一个槽位。所有字段可选：nil 表示接收方保持原值
type PlayerRecord struct {
	Joined     *bool `json:"joined,omitempty" msgpack:"joined,omitempty"`
	Alive      *bool `json:"alive,omitempty" msgpack:"alive,omitempty"`
	DeathState *int  `json:"death_state,omitempty" msgpack:"death_state,omitempty"`
	Lives      *int  `json:"lives,omitempty" msgpack:"lives,omitempty"`
	// AteFood 吃到食物的那个 tick 为 1，仅用于音效
	AteFood     *int   `json:"ate_food,omitempty" msgpack:"ate_food,omitempty"`
	Score       *int   `json:"score,omitempty" msgpack:"score,omitempty"`
	FruitsEaten *int   `json:"fruits_eaten,omitempty" msgpack:"fruits_eaten,omitempty"`
	ComboCount  *int   `json:"combo_count,omitempty" msgpack:"combo_count,omitempty"`
	ComboExpiry *int64 `json:"combo_expiry,omitempty" msgpack:"combo_expiry,omitempty"`
	ComboBest   *int   `json:"combo_best,omitempty" msgpack:"combo_best,omitempty"`
	Wins        *int   `json:"wins,omitempty" msgpack:"wins,omitempty"`
	// Segments 扁平存放：x0,y0,x1,y1,...
	Segments  *[]int  `json:"segments,omitempty" msgpack:"segments,omitempty"`
	Direction *int    `json:"direction,omitempty" msgpack:"direction,omitempty"`
	ClientID  *string `json:"client_id,omitempty" msgpack:"client_id,omitempty"`
	Name      *string `json:"name,omitempty" msgpack:"name,omitempty"`
	Ready     *bool   `json:"ready,omitempty" msgpack:"ready,omitempty"`
}

// Document 既是每 tick 的状态快照，也是带外命令的信封
type Document struct {
	Command string `json:"command,omitempty" msgpack:"command,omitempty"`

	Food      *Coord         `json:"food,omitempty" msgpack:"food,omitempty"`
	LooseFood *[]Coord       `json:"loose_food,omitempty" msgpack:"loose_food,omitempty"`
	Players   []PlayerRecord `json:"players,omitempty" msgpack:"players,omitempty"`

	CountdownMs *int64  `json:"countdown_ms,omitempty" msgpack:"countdown_ms,omitempty"`
	Winner      *int    `json:"winner,omitempty" msgpack:"winner,omitempty"`
	X           *int    `json:"x,omitempty" msgpack:"x,omitempty"`
	Y           *int    `json:"y,omitempty" msgpack:"y,omitempty"`
	Dir         *int    `json:"dir,omitempty" msgpack:"dir,omitempty"`
	Lives       *int    `json:"lives,omitempty" msgpack:"lives,omitempty"`
	ClientID    string  `json:"client_id,omitempty" msgpack:"client_id,omitempty"`
	PlayerName  *string `json:"player_name,omitempty" msgpack:"player_name,omitempty"`
	// Ready toggle_ready 携带的期望值
	Ready *bool `json:"ready,omitempty" msgpack:"ready,omitempty"`
}

// IsState 文档是快照而非命令
func (d *Document) IsState() bool {
	return d.Command == ""
}

// At 返回带坐标命令的 X/Y
func (d *Document) At() (x, y int, ok bool) {
	if d.X == nil || d.Y == nil {
		return 0, 0, false
	}
	return *d.X, *d.Y, true
}

func ptr[T any](v T) *T {
	return &v
}
