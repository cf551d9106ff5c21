package dto

import "time"

type ListGamesResponse struct {
	Games []FinishedGame `json:"games"`
}

// 已结束对局的摘要，来自归档
type FinishedGame struct {
	ID          int64     `json:"id"`
	RoomID      string    `json:"room_id"`
	Disaster    string    `json:"disaster"`
	Capacity    int       `json:"capacity"`
	Rounds      int       `json:"rounds"`
	PlayerCount int       `json:"player_count"`
	Survivors   []string  `json:"survivors"`
	Exiled      []string  `json:"exiled"`
	Ending      string    `json:"ending"`
	FinishedAt  time.Time `json:"finished_at"`
}
