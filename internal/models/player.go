package models

// Player represents a player-controller in a room
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	RoomCode  string `json:"roomCode"`
	ConnID    string `json:"-"`
	Connected bool   `json:"connected"`
}

// ReadyState is a player's answer to the pre-game ready check
type ReadyState struct {
	Ready  bool `json:"ready"`
	HasMic bool `json:"hasMic"`
}
