package world

import (
	"github.com/google/uuid"

	"github.com/udisondev/portalgo/internal/message"
	"github.com/udisondev/portalgo/internal/model"
)

// Component tags the kinds of data an entity can carry.
type Component uint8

const (
	ComponentPlayer Component = iota + 1
	ComponentTransform
	ComponentTeleport
)

func (c Component) String() string {
	switch c {
	case ComponentPlayer:
		return "player"
	case ComponentTransform:
		return "transform"
	case ComponentTeleport:
		return "teleport"
	default:
		return "unknown"
	}
}

// Player marks an entity controlled by a connected player.
type Player struct {
	ID     uuid.UUID
	Name   string
	Sender message.Sender
}

// SendMessage delivers msg to the player. Players without a sender drop it.
func (p *Player) SendMessage(msg message.Message) {
	if p == nil || p.Sender == nil {
		return
	}
	p.Sender.SendMessage(msg)
}

// Transform is an entity's position and facing.
type Transform struct {
	Position model.Location
	Rotation model.Rotation
}

// Teleport is a one-shot request to move an entity. TeleportSystem consumes it.
type Teleport struct {
	WorldID  uuid.UUID
	Position model.Location
	Rotation model.Rotation
}

// NewTeleport builds a teleport request into the given world.
func NewTeleport(worldID uuid.UUID, position model.Location, rotation model.Rotation) Teleport {
	return Teleport{WorldID: worldID, Position: position, Rotation: rotation}
}
