package broadcast

// Outbound event names
const (
	EventRoomCreated        = "roomCreated"
	EventRoomReconnected    = "roomReconnected"
	EventRoomNotFound       = "roomNotFound"
	EventRoomClosed         = "roomClosed"
	EventPlayerJoined       = "playerJoined"
	EventPlayerLeft         = "playerLeft"
	EventPlayerDisconnected = "playerDisconnected"
	EventPlayerReconnected  = "playerReconnected"
	EventPlayerReadyStatus  = "playerReadyStatus"
	EventGameStarted        = "gameStarted"
	EventAllPlayersReady    = "allPlayersReady"
	EventGameCountdown      = "gameCountdown"
	EventGameStateUpdate    = "gameStateUpdate"
	EventGameEnded          = "gameEnded"
	EventReturnedToLobby    = "returnedToLobby"
	EventHostDisconnected   = "hostDisconnected"
	EventPlayerCommand      = "playerCommand"
	EventVoiceUnavailable   = "voiceUnavailable"
	EventError              = "error"
)

// Inbound event names
const (
	EventCreateRoom      = "createRoom"
	EventJoinRoom        = "joinRoom"
	EventReconnectRoom   = "reconnectRoom"
	EventReconnectPlayer = "reconnectPlayer"
	EventStartGame       = "startGame"
	EventPlayerReady     = "playerReady"
	EventPlayerNotReady  = "playerNotReady"
	EventRemovePlayer    = "removePlayer"
	EventLeaveRoom       = "leaveRoom"
	EventReturnToLobby   = "returnToLobby"
)
