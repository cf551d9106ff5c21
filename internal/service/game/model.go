package game

// 属性卡类型，每个玩家固定持有这十张
type AttributeType string

const (
	ATTR_PROFESSION AttributeType = "profession"
	ATTR_BIOLOGY    AttributeType = "biology"
	ATTR_BODY       AttributeType = "body"
	ATTR_HEALTH     AttributeType = "health"
	ATTR_HOBBY      AttributeType = "hobby"
	ATTR_PHOBIA     AttributeType = "phobia"
	ATTR_INVENTORY  AttributeType = "inventory"
	ATTR_BAGGAGE    AttributeType = "baggage"
	ATTR_FACT       AttributeType = "fact"
	ATTR_ACTION     AttributeType = "action"
)

// AttributeTypes 同时决定了属性卡的展示顺序
var AttributeTypes = []AttributeType{
	ATTR_PROFESSION,
	ATTR_BIOLOGY,
	ATTR_BODY,
	ATTR_HEALTH,
	ATTR_HOBBY,
	ATTR_PHOBIA,
	ATTR_INVENTORY,
	ATTR_BAGGAGE,
	ATTR_FACT,
	ATTR_ACTION,
}

func (t AttributeType) Valid() bool {
	for _, at := range AttributeTypes {
		if at == t {
			return true
		}
	}

	return false
}

type Attribute struct {
	Value      string        `json:"value"`
	IsRevealed bool          `json:"isRevealed"`
	Type       AttributeType `json:"type"`
}

type Player struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	IsHost        bool   `json:"isHost"`
	IsExiled      bool   `json:"isExiled"`
	AvatarID      int    `json:"avatarId"`
	VotesReceived int    `json:"votesReceived"`

	// 创建后只允许修改 IsRevealed，不允许增删
	Stats map[AttributeType]Attribute `json:"stats"`
}

func (p Player) clone() Player {
	stats := make(map[AttributeType]Attribute, len(p.Stats))
	for k, v := range p.Stats {
		stats[k] = v
	}

	p.Stats = stats

	return p
}

type Scenario struct {
	Disaster    string   `json:"disaster"`
	Description string   `json:"description"`
	BunkerSize  int      `json:"bunkerSize"`
	Capacity    int      `json:"capacity"`
	FoodSupply  string   `json:"foodSupply"`
	Equipment   []string `json:"equipment"`
	Location    string   `json:"location"`
	Enemy       string   `json:"enemy"`
}

// 顺时针 / 逆时针，仅作展示用途
const (
	DIRECTION_CW  = "CW"
	DIRECTION_CCW = "CCW"
)

// GameState 是房间唯一的聚合根，每次变更都会生成完整快照并广播
type GameState struct {
	// 以下两个字段由副本本地持有，从不经网络传输
	MyID   string `json:"-"`
	IsHost bool   `json:"-"`

	RoomID string `json:"roomId"`

	Phase              Phase     `json:"phase"`
	Round              int       `json:"round"`
	TurnDirection      string    `json:"turnDirection"`
	CurrentPlayerIndex int       `json:"currentPlayerIndex"`
	Players            []Player  `json:"players"`
	Bunker             *Scenario `json:"bunker"`
	History            []string  `json:"history"`
	Survivors          []Player  `json:"survivors"`
	EndingStory        *string   `json:"endingStory"`

	Timer          int  `json:"timer"`
	IsTimerRunning bool `json:"isTimerRunning"`

	VotingRound        int      `json:"votingRound"`
	Voters             []string `json:"voters"`
	CandidatesForExile []string `json:"candidatesForExile"`
	ExiledPlayerID     *string  `json:"exiledPlayerId"`
}

func NewGameState(roomID string) GameState {
	return GameState{
		RoomID:             roomID,
		Phase:              PHASE_LOBBY,
		Round:              1,
		TurnDirection:      DIRECTION_CW,
		Players:            make([]Player, 0),
		History:            make([]string, 0),
		Survivors:          make([]Player, 0),
		Voters:             make([]string, 0),
		CandidatesForExile: make([]string, 0),
	}
}

// Clone 深拷贝，保证已经广播出去的快照不会被后续变更影响
func (gs GameState) Clone() GameState {
	next := gs

	next.Players = make([]Player, len(gs.Players))
	for i, p := range gs.Players {
		next.Players[i] = p.clone()
	}

	next.Survivors = make([]Player, len(gs.Survivors))
	for i, p := range gs.Survivors {
		next.Survivors[i] = p.clone()
	}

	next.History = append(make([]string, 0, len(gs.History)), gs.History...)
	next.Voters = append(make([]string, 0, len(gs.Voters)), gs.Voters...)
	next.CandidatesForExile = append(make([]string, 0, len(gs.CandidatesForExile)), gs.CandidatesForExile...)

	if gs.Bunker != nil {
		bunker := *gs.Bunker
		bunker.Equipment = append([]string(nil), gs.Bunker.Equipment...)
		next.Bunker = &bunker
	}

	if gs.EndingStory != nil {
		story := *gs.EndingStory
		next.EndingStory = &story
	}

	if gs.ExiledPlayerID != nil {
		id := *gs.ExiledPlayerID
		next.ExiledPlayerID = &id
	}

	return next
}

// ActivePlayers 总是在稳定的插入顺序上按未被驱逐过滤，不单独维护列表
func (gs *GameState) ActivePlayers() []*Player {
	active := make([]*Player, 0, len(gs.Players))
	for i := range gs.Players {
		if !gs.Players[i].IsExiled {
			active = append(active, &gs.Players[i])
		}
	}

	return active
}

func (gs *GameState) CountActive() int {
	count := 0
	for _, p := range gs.Players {
		if !p.IsExiled {
			count++
		}
	}

	return count
}

func (gs *GameState) FindPlayer(id string) *Player {
	for i := range gs.Players {
		if gs.Players[i].ID == id {
			return &gs.Players[i]
		}
	}

	return nil
}

func (gs *GameState) Host() *Player {
	for i := range gs.Players {
		if gs.Players[i].IsHost {
			return &gs.Players[i]
		}
	}

	return nil
}

func (gs *GameState) HasVoted(playerID string) bool {
	for _, id := range gs.Voters {
		if id == playerID {
			return true
		}
	}

	return false
}

func (gs *GameState) resetVotes() {
	for i := range gs.Players {
		gs.Players[i].VotesReceived = 0
	}

	gs.Voters = gs.Voters[:0]
}

func (gs *GameState) capacity() int {
	if gs.Bunker == nil {
		return 0
	}

	return gs.Bunker.Capacity
}

// CalculateCapacity 一半人能进地堡，奇数向下取整
func CalculateCapacity(totalPlayers int) int {
	if totalPlayers < 0 {
		return 0
	}

	return totalPlayers / 2
}
