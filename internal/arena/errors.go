package arena

import "errors"

var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrDuplicateRoom       = errors.New("room already exists")
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomFull            = errors.New("room is full")
	ErrMatchInProgress     = errors.New("match already in progress")
	ErrMatchAlreadyStarted = errors.New("match already started")
	ErrNotAuthorized       = errors.New("only the room creator can do that")
	ErrInsufficientPlayers = errors.New("at least 2 players are required")
	ErrNoActiveChallenge   = errors.New("no active challenge")
)
