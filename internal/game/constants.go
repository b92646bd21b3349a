package game

import "time"

const (
	// RoomCodeLength is the length of generated room codes
	RoomCodeLength = 4

	// RoomCodeChars are the characters used for generating room codes
	RoomCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// CreateCooldown is how long one network identity waits between room creations
	CreateCooldown = 60 * time.Second

	// HostGracePeriod is how long a room survives without its host
	HostGracePeriod = 30 * time.Second

	// HostAwayNoticeAfter is how long the host must be gone before players are told
	HostAwayNoticeAfter = 5 * time.Second

	// RoomMaxAge is the age after which a room is collected regardless of activity
	RoomMaxAge = 2 * time.Hour

	// StaleSweepInterval is the period of the stale-room collection
	StaleSweepInterval = time.Hour

	// HostNoticeInterval is the period of the host-disconnect notice scan
	HostNoticeInterval = 2 * time.Second

	// LimiterPruneInterval is the period of rate limiter pruning
	LimiterPruneInterval = 5 * time.Minute

	// MinPlayers is the minimum number of players required to start a game
	MinPlayers = 1

	// MaxNameLength caps player display names
	MaxNameLength = 24
)
