package controller

import (
	"fmt"

	"github.com/playpool/cuesim/internal/events"
)

// Replay feeds a journal of serialised events to a spectating container one at a
// time. Before the next event is queued the container is ticked until the current
// one is consumed and any shot it started has been reported at rest, so a journal
// ending on a HIT yields the simulated table rather than the one before the strike.
func Replay(c *Container, frames [][]byte) error {
	c.Spectator = true
	for i, frame := range frames {
		e, err := events.FromSerialised(frame)
		if err != nil {
			return fmt.Errorf("replay frame %d: %w", i, err)
		}
		c.EventQueue.Push(e)
		if err := c.settle(); err != nil {
			return fmt.Errorf("replay frame %d: %w", i, err)
		}
	}
	return nil
}

// settle ticks until both queues are drained and no shot is awaiting its result.
func (c *Container) settle() error {
	for !c.EventQueue.Empty() || !c.InputQueue.Empty() || c.shotPending() {
		if err := c.Tick(c.settings.Step); err != nil {
			return err
		}
	}
	return nil
}

// shotPending reports whether the current shot has yet to be reported at rest.
func (c *Container) shotPending() bool {
	return ShotInProgress(c.controller) && c.reportedShot != c.Table.ShotID
}
