// Command simulate plays a scripted break between two headless containers wired
// back to back and prints what each side saw.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/rs/zerolog"

	"github.com/playpool/cuesim/internal/config"
	"github.com/playpool/cuesim/internal/controller"
	"github.com/playpool/cuesim/internal/events"
	"github.com/playpool/cuesim/internal/game"
	"github.com/playpool/cuesim/internal/logging"
	"github.com/playpool/cuesim/internal/queue"
)

const maxTicks = 200000

type options struct {
	Rack     string
	Seed     uint64
	Angle    float64
	Power    float64
	Settings controller.Settings
}

type report struct {
	Rack          string             `json:"rack"`
	Seed          uint64             `json:"seed"`
	Shots         int                `json:"shots"`
	Ticks         int                `json:"ticks"`
	Shooter       string             `json:"shooter"`
	Opponent      string             `json:"opponent"`
	Potted        []int              `json:"potted"`
	Fouls         []string           `json:"fouls"`
	FirstContact  int                `json:"first_contact"`
	PeersAgree    bool               `json:"peers_agree"`
	ReplayAgrees  bool               `json:"replay_agrees"`
	JournalFrames int                `json:"journal_frames"`
	Table         game.TableSnapshot `json:"table"`
	Outcome       []game.Outcome     `json:"outcome"`
}

func main() {
	cfg := config.Load()

	opts := options{
		Settings: controller.Settings{
			Step:           cfg.StepSeconds,
			MinSubsteps:    cfg.MinSubsteps,
			MaxShotSeconds: cfg.MaxShotSeconds,
		},
	}
	flag.StringVar(&opts.Rack, "rack", game.RackDiamond, "rack to break: diamond or triangle")
	flag.Uint64Var(&opts.Seed, "seed", cfg.RackSeed, "rack jitter seed, 0 for a tight rack")
	flag.Float64Var(&opts.Angle, "angle", 0, "aim angle in radians")
	flag.Float64Var(&opts.Power, "power", 30, "cue power")
	flag.Parse()

	log := logging.New(cfg.LogLevel, cfg.IsDevelopment())
	if err := run(opts, os.Stdout, log); err != nil {
		log.Fatal().Err(err).Msg("simulation failed")
	}
}

// peer is one side of the loopback; outbox holds frames not yet delivered.
type peer struct {
	c       *controller.Container
	outbox  *queue.Queue[[]byte]
	journal [][]byte
}

func newPeer(balls []game.Ball, settings controller.Settings, log zerolog.Logger) *peer {
	p := &peer{
		c:      controller.NewContainer(game.NewTable(balls), settings, log),
		outbox: queue.New[[]byte](),
	}
	p.c.Broadcast = func(data []byte) {
		p.outbox.Push(data)
		p.journal = append(p.journal, data)
	}
	return p
}

func (p *peer) deliverTo(other *peer) error {
	for _, data := range p.outbox.Drain() {
		e, err := events.FromSerialised(data)
		if err != nil {
			return err
		}
		other.c.EventQueue.Push(e)
	}
	return nil
}

func (p *peer) busy() bool {
	return controller.ShotInProgress(p.c.Controller()) || !p.c.EventQueue.Empty() ||
		!p.c.InputQueue.Empty() || !p.outbox.Empty()
}

func run(opts options, w io.Writer, log zerolog.Logger) error {
	balls, err := game.NewRack(opts.Rack, opts.Seed)
	if err != nil {
		return err
	}

	a := newPeer(balls, opts.Settings, log.With().Str("peer", "a").Logger())
	b := newPeer(balls, opts.Settings, log.With().Str("peer", "b").Logger())

	step := a.c.Settings().Step

	// inputs reaching Init are dropped, so the break is queued once A holds the table
	a.c.EventQueue.Push(events.BeginEvent{})
	if err := a.c.Tick(step); err != nil {
		return fmt.Errorf("peer a: %w", err)
	}
	a.c.InputQueue.Push(controller.Input{Key: "Enter"})
	a.c.InputQueue.Push(aimInputs(opts.Angle, opts.Power)...)
	a.c.InputQueue.Push(controller.Input{Key: "SpaceUp"})

	ticks := 0
	for ; ticks < maxTicks; ticks++ {
		if err := a.c.Tick(step); err != nil {
			return fmt.Errorf("peer a: %w", err)
		}
		if err := b.c.Tick(step); err != nil {
			return fmt.Errorf("peer b: %w", err)
		}
		if err := a.deliverTo(b); err != nil {
			return err
		}
		if err := b.deliverTo(a); err != nil {
			return err
		}
		if a.c.Table.ShotID > 0 && !a.busy() && !b.busy() {
			break
		}
	}
	if ticks == maxTicks {
		return errors.New("shot did not settle")
	}

	spectator := controller.NewContainer(game.NewTable(balls), opts.Settings, zerolog.Nop())
	if err := controller.Replay(spectator, a.journal); err != nil {
		return err
	}

	outcome := a.c.Table.Outcome
	r := report{
		Rack:          opts.Rack,
		Seed:          opts.Seed,
		Shots:         a.c.Table.ShotID,
		Ticks:         ticks,
		Shooter:       a.c.Controller().Kind().String(),
		Opponent:      b.c.Controller().Kind().String(),
		Potted:        game.PottedIDs(outcome),
		Fouls:         []string{},
		FirstContact:  game.NoTarget,
		PeersAgree:    reflect.DeepEqual(a.c.Table.Snapshot().Balls, b.c.Table.Snapshot().Balls),
		ReplayAgrees:  reflect.DeepEqual(a.c.Table.Snapshot().Balls, spectator.Table.Snapshot().Balls),
		JournalFrames: len(a.journal),
		Table:         a.c.Table.Snapshot(),
		Outcome:       outcome,
	}
	for _, f := range game.OfType(outcome, game.OutcomeFoul) {
		r.Fouls = append(r.Fouls, f.Reason)
	}
	if first, ok := game.FirstCollision(outcome, game.CueBallID); ok {
		r.FirstContact = first.TargetID
		if first.TargetID == game.CueBallID {
			r.FirstContact = first.BallID
		}
	}

	log.Info().
		Str("shooter", r.Shooter).
		Str("opponent", r.Opponent).
		Ints("potted", r.Potted).
		Strs("fouls", r.Fouls).
		Bool("peers_agree", r.PeersAgree).
		Msg("break settled")

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// aimInputs turns an angle and power into the key holds that produce them.
func aimInputs(angle, power float64) []controller.Input {
	var in []controller.Input
	if angle > 0 {
		in = append(in, controller.Input{Key: "ArrowLeft", Dt: angle / controller.AimRate})
	} else if angle < 0 {
		in = append(in, controller.Input{Key: "ArrowRight", Dt: -angle / controller.AimRate})
	}
	if power > 0 {
		in = append(in, controller.Input{Key: "ArrowUp", Dt: power / controller.PowerRate})
	}
	return in
}
