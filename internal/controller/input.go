package controller

import (
	"errors"

	"github.com/playpool/cuesim/internal/events"
	"github.com/playpool/cuesim/internal/game"
)

// Input is one decoded key or pointer event. Dt is the key hold time in seconds,
// or the pointer delta for movement keys.
type Input struct {
	Dt  float64 `json:"dt"`
	Key string  `json:"key"`
}

// Rates applied per second of key hold.
const (
	AimRate     = 1.0
	FineAimRate = 0.1
	PowerRate   = 20.0
	PlaceRate   = 5.0
)

// Camera modes recorded on View for the renderer.
const (
	CameraAim = "aim"
	CameraTop = "top"
)

// View holds display toggles the controller records but never reads.
type View struct {
	Camera      string `json:"camera"`
	Help        bool   `json:"help"`
	PointerLock bool   `json:"pointer_lock"`
}

// HandleInput feeds one input to state s. Only Aim and PlaceBall react to input.
func HandleInput(c *Container, s Controller, in Input) (Controller, error) {
	switch s.Kind() {
	case KindAim:
		return aimInput(c, s, in)
	case KindPlaceBall:
		return placeBallInput(c, s, in)
	default:
		return s, nil
	}
}

func aimInput(c *Container, s Controller, in Input) (Controller, error) {
	cue := &c.Table.Cue

	switch in.Key {
	case "ArrowLeft":
		cue.Rotate(AimRate * in.Dt)
	case "ArrowRight":
		cue.Rotate(-AimRate * in.Dt)
	case "ShiftArrowLeft":
		cue.Rotate(FineAimRate * in.Dt)
	case "ShiftArrowRight":
		cue.Rotate(-FineAimRate * in.Dt)
	case "ArrowUp", "NumpadAdd", "Space":
		cue.AdjustPower(PowerRate * in.Dt)
	case "ArrowDown", "NumpadSubtract":
		cue.AdjustPower(-PowerRate * in.Dt)
	case "movementX", "movementXUp":
		cue.AdjustOffset(in.Dt, 0)
	case "movementY", "movementYUp":
		cue.AdjustOffset(0, in.Dt)
	case "SpaceUp":
		return shoot(c)
	case "A":
		c.View.Camera = CameraAim
		return s, nil
	case "KeyOUp":
		if c.View.Camera == CameraTop {
			c.View.Camera = CameraAim
		} else {
			c.View.Camera = CameraTop
		}
		return s, nil
	case "KeyHUp":
		c.View.Help = !c.View.Help
		return s, nil
	case "KeyPUp":
		c.View.PointerLock = !c.View.PointerLock
		return s, nil
	default:
		return s, nil
	}

	if err := c.broadcast(events.NewAimEvent(*cue)); err != nil {
		return nil, err
	}
	return s, nil
}

// shoot strikes the cue ball and sends the opponent the table as it was just before.
func shoot(c *Container) (Controller, error) {
	hit := events.HitEvent{Table: c.Table.Snapshot(), Cue: c.Table.Cue}
	c.Table.Hit()
	if err := c.broadcast(hit); err != nil {
		return nil, err
	}
	return PlayShot{}, nil
}

func placeBallInput(c *Container, s Controller, in Input) (Controller, error) {
	step := PlaceRate * in.Dt

	var delta game.Vec3
	switch in.Key {
	case "ArrowLeft":
		delta = game.NewVec3(-step, 0, 0)
	case "ArrowRight":
		delta = game.NewVec3(step, 0, 0)
	case "ArrowUp":
		delta = game.NewVec3(0, step, 0)
	case "ArrowDown":
		delta = game.NewVec3(0, -step, 0)
	case "Space", "SpaceUp", "Enter":
		if err := c.broadcast(events.WatchEvent{Table: c.Table.Snapshot()}); err != nil {
			return nil, err
		}
		return Aim{}, nil
	default:
		return s, nil
	}

	if err := c.Table.MoveCueBall(delta); err != nil {
		if errors.Is(err, game.ErrInvalidPlacement) {
			c.log.Debug().Err(err).Msg("placement rejected")
			return s, nil
		}
		return nil, err
	}
	return s, nil
}
