package dto

import "time"

type CreateRoomRequest struct {
	HostName string `json:"host_name"`
}

// host_id 会出现在每个快照里，连接 websocket 时还必须带上只返回给房主的 host_key
type CreateRoomResponse struct {
	RoomID  string `json:"room_id"`
	HostID  string `json:"host_id"`
	HostKey string `json:"host_key"`
	JoinURL string `json:"join_url,omitempty"`
}

type RoomInfo struct {
	RoomID      string    `json:"room_id"`
	Phase       string    `json:"phase"`
	PlayerCount int       `json:"player_count"`
	Peers       int       `json:"peers"`
	CreatedAt   time.Time `json:"created_at"`
}
