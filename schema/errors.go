package schema

import (
	"errors"
	"fmt"

	"github.com/containerd/errdefs"
)

var (
	// ErrInvalidUser indicates an invalid user identifier.
	ErrInvalidUser = fmt.Errorf("invalid user: %w", errdefs.ErrInvalidArgument)
	// ErrInvalidJID indicates a malformed JID.
	ErrInvalidJID = fmt.Errorf("invalid jid: %w", errdefs.ErrInvalidArgument)
	// ErrInvalidPresence indicates an unknown presence value.
	ErrInvalidPresence = fmt.Errorf("invalid presence: %w", errdefs.ErrInvalidArgument)
	// ErrInvalidNick indicates an empty or malformed room nickname.
	ErrInvalidNick = fmt.Errorf("invalid nick: %w", errdefs.ErrInvalidArgument)
	// ErrLineOutOfRange indicates a buffer read past the stored lines.
	ErrLineOutOfRange = fmt.Errorf("buffer line: %w", errdefs.ErrOutOfRange)
	// ErrUnknownUser indicates a message addressed to a user the hub does not know.
	ErrUnknownUser = fmt.Errorf("unknown user: %w", errdefs.ErrNotFound)
	// ErrRoomNotFound indicates the room does not exist.
	ErrRoomNotFound = fmt.Errorf("room: %w", errdefs.ErrNotFound)
	// ErrOccupantNotFound indicates no occupant uses the nickname.
	ErrOccupantNotFound = fmt.Errorf("occupant: %w", errdefs.ErrNotFound)
	// ErrWindowNotFound indicates no window occupies the slot.
	ErrWindowNotFound = fmt.Errorf("window: %w", errdefs.ErrNotFound)
	// ErrNotInRoom indicates the user has not joined the room.
	ErrNotInRoom = fmt.Errorf("not in room: %w", errdefs.ErrFailedPrecondition)
	// ErrNotOwner indicates a room operation reserved for the owner.
	ErrNotOwner = fmt.Errorf("not owner: %w", errdefs.ErrPermissionDenied)
	// ErrNickInUse indicates another occupant already holds the nickname.
	ErrNickInUse = fmt.Errorf("nick in use: %w", errdefs.ErrConflict)
	// ErrNoFreeSlot indicates every window slot is taken.
	ErrNoFreeSlot = fmt.Errorf("no free window slot: %w", errdefs.ErrResourceExhausted)
	// ErrConsoleClose indicates an attempt to close the console window.
	ErrConsoleClose = errors.New("cannot close the console")
	// ErrInvalidCredentials indicates a failed password or verification code check.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", errdefs.ErrUnauthenticated)
	// ErrAccountExists indicates an account with the name is already stored.
	ErrAccountExists = fmt.Errorf("account: %w", errdefs.ErrAlreadyExists)
	// ErrAccountNotFound indicates no stored account has the name.
	ErrAccountNotFound = fmt.Errorf("account: %w", errdefs.ErrNotFound)
)
