package controller

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/playpool/cuesim/internal/events"
	"github.com/playpool/cuesim/internal/game"
	"github.com/playpool/cuesim/internal/logging"
	"github.com/playpool/cuesim/internal/queue"
)

// Settings controls the fixed-step schedule and the shot watchdog.
type Settings struct {
	Step           float64 // seconds per substep
	MinSubsteps    int     // substeps run per frame however short the frame
	MaxShotSeconds float64 // simulated seconds before a shot is halted; 0 disables
}

func DefaultSettings() Settings {
	return Settings{Step: 0.01, MinSubsteps: 15, MaxShotSeconds: 60}
}

// Container owns one game session: the table, the live controller, the input and
// event queues and the broadcast hook. Everything except the queues must only be
// touched from the goroutine calling Tick.
type Container struct {
	Table      *game.Table
	InputQueue *queue.Queue[Input]
	EventQueue *queue.Queue[events.GameEvent]
	View       View

	// Broadcast receives every serialised event this peer sends to the other.
	Broadcast func([]byte)
	OnChat    func(events.ChatEvent)

	// Spectator containers never take a turn: states that would hand this peer
	// the table become WatchAim instead.
	Spectator bool

	settings     Settings
	controller   Controller
	reportedShot int
	last         time.Time
	log          zerolog.Logger
}

func NewContainer(table *game.Table, settings Settings, log zerolog.Logger) *Container {
	if settings.Step <= 0 {
		settings.Step = DefaultSettings().Step
	}
	if settings.MinSubsteps <= 0 {
		settings.MinSubsteps = DefaultSettings().MinSubsteps
	}
	return &Container{
		Table:        table,
		InputQueue:   queue.New[Input](),
		EventQueue:   queue.New[events.GameEvent](),
		View:         View{Camera: CameraAim},
		Broadcast:    func([]byte) {},
		settings:     settings,
		controller:   Init{},
		reportedShot: -1,
		log:          logging.Component(log, "container"),
	}
}

func (c *Container) Controller() Controller {
	return c.controller
}

func (c *Container) SetController(s Controller) {
	c.controller = s
}

func (c *Container) Settings() Settings {
	return c.settings
}

// Advance runs the fixed substeps covering elapsed seconds, then the shot watchdog
// and the shot-completion detector.
func (c *Container) Advance(elapsed float64) error {
	steps := int(math.Floor(elapsed / c.settings.Step))
	if steps < c.settings.MinSubsteps {
		steps = c.settings.MinSubsteps
	}
	for i := 0; i < steps; i++ {
		if err := c.Table.Advance(c.settings.Step); err != nil {
			return fmt.Errorf("advance substep %d of %d: %w", i+1, steps, err)
		}
	}

	if !ShotInProgress(c.controller) {
		return nil
	}

	if c.settings.MaxShotSeconds > 0 && !c.Table.AllStationary() && c.Table.Elapsed > c.settings.MaxShotSeconds {
		c.log.Warn().
			Int("shot", c.Table.ShotID).
			Float64("elapsed", c.Table.Elapsed).
			Msg("shot exceeded time limit, halting table")
		c.Table.Halt()
	}

	if c.Table.AllStationary() && c.reportedShot != c.Table.ShotID {
		c.reportedShot = c.Table.ShotID
		c.Table.FinishShot()
		c.log.Debug().
			Int("shot", c.Table.ShotID).
			Int("outcomes", len(c.Table.Outcome)).
			Msg("shot at rest")
		c.EventQueue.Push(events.StationaryEvent{})
	}
	return nil
}

// ProcessEvents handles at most one queued input and one queued event, oldest first.
// The controller is left unchanged if either step fails.
func (c *Container) ProcessEvents() error {
	if in, ok := c.InputQueue.Pop(); ok {
		next, err := HandleInput(c, c.controller, in)
		if err != nil {
			return fmt.Errorf("input %q in %s: %w", in.Key, c.controller.Kind(), err)
		}
		c.swap(next, in.Key)
	}

	if e, ok := c.EventQueue.Pop(); ok {
		next, err := Apply(c, c.controller, e)
		if err != nil {
			return fmt.Errorf("event %s in %s: %w", e.Type(), c.controller.Kind(), err)
		}
		c.swap(next, string(e.Type()))
	}
	return nil
}

// Tick is the per-frame entry point.
func (c *Container) Tick(elapsed float64) error {
	if err := c.Advance(elapsed); err != nil {
		return err
	}
	return c.ProcessEvents()
}

// Animate ticks with the wall time since the previous call.
func (c *Container) Animate(now time.Time) error {
	var elapsed float64
	if !c.last.IsZero() {
		elapsed = now.Sub(c.last).Seconds()
	}
	c.last = now
	return c.Tick(elapsed)
}

func (c *Container) swap(next Controller, cause string) {
	if next.Kind() != c.controller.Kind() {
		c.log.Debug().
			Str("cause", cause).
			Stringer("from", c.controller.Kind()).
			Stringer("to", next.Kind()).
			Msg("controller transition")
	}
	c.controller = next
}

func (c *Container) spectate(s Controller) Controller {
	if !c.Spectator {
		return s
	}
	switch s.Kind() {
	case KindAim, KindPlaceBall:
		return WatchAim{}
	}
	return s
}

func (c *Container) broadcast(e events.GameEvent) error {
	data, err := events.Serialise(e)
	if err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}
	if c.Broadcast != nil {
		c.Broadcast(data)
	}
	return nil
}
