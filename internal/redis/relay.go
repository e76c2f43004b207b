package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

const channelPrefix = "session:"

// Envelope carries one relayed frame between server instances
type Envelope struct {
	Origin    string `msgpack:"origin"`
	SessionID string `msgpack:"session_id"`
	Seat      int    `msgpack:"seat"`
	Frame     []byte `msgpack:"frame"`
}

func Channel(sessionID string) string {
	return channelPrefix + sessionID
}

// SessionFromChannel returns the session id of a relay channel name
func SessionFromChannel(channel string) (string, bool) {
	id, ok := strings.CutPrefix(channel, channelPrefix)
	return id, ok && id != ""
}

func EncodeEnvelope(env Envelope) ([]byte, error) {
	data, err := msgpack.Marshal(&env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return data, nil
}

func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

// Relay fans frames out to every server instance over pub/sub
type Relay struct {
	rdb *redis.Client
	log zerolog.Logger
}

func NewRelay(rdb *redis.Client, log zerolog.Logger) *Relay {
	return &Relay{rdb: rdb, log: log.With().Str("component", "relay").Logger()}
}

func (r *Relay) Publish(ctx context.Context, env Envelope) error {
	data, err := EncodeEnvelope(env)
	if err != nil {
		return err
	}
	if err := r.rdb.Publish(ctx, Channel(env.SessionID), data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", env.SessionID, err)
	}
	return nil
}

// Subscribe delivers every envelope published on any session channel until ctx
// is done. Undecodable messages are logged and skipped.
func (r *Relay) Subscribe(ctx context.Context, deliver func(Envelope)) {
	pubsub := r.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	r.log.Info().Msg("subscribed to session channels")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			env, err := DecodeEnvelope([]byte(msg.Payload))
			if err != nil {
				r.log.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping relay message")
				continue
			}
			if id, ok := SessionFromChannel(msg.Channel); ok && env.SessionID == "" {
				env.SessionID = id
			}
			deliver(env)
		}
	}
}
