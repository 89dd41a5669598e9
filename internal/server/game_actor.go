package server

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"catan-server/internal/boardgame/engine"
	"catan-server/internal/boardgame/match"
)

// subscriberBufferSize bounds each subscriber's pending-event queue.
// A slow client drops its oldest buffered delta rather than blocking
// the actor loop; the gateway notices the drop and re-sends a full
// snapshot on its next read.
const subscriberBufferSize = 64

// commandQueueSize bounds how many in-flight commands an actor will
// hold before refusing new submissions with ErrBusy.
const commandQueueSize = 32

// tradeExpiryTick is how often the actor checks the active trade
// proposal, if any, against its 60-second window. A trade is also
// checked inline by AcceptTrade, but this is what clears a
// stale proposal nobody responds to.
const tradeExpiryTick = 5 * time.Second

// ErrBusy is returned by Submit when a game's command queue is full.
var ErrBusy = fmt.Errorf("BUSY: game is processing a backlog of commands")

// submission is one enqueued command plus the channel its result is
// delivered back on.
type submission struct {
	playerID string
	cmd      match.Command
	reply    chan submissionResult
}

type submissionResult struct {
	events []engine.Event
	err    error
}

// subscriber is one connected client's event stream. dropped is set
// once a delta had to be discarded for this subscriber; NeedsResync
// reports and clears it, and the gateway then sends a fresh snapshot.
type subscriber struct {
	ch      chan engine.Event
	mu      sync.Mutex
	dropped bool
}

// GameActor owns exactly one game's state and the single goroutine
// that mutates it. All state transitions happen on that goroutine,
// so GameState is only ever touched by one thread at a time even
// though many client goroutines call Submit concurrently.
type GameActor struct {
	id   string
	code string
	rng  engine.RNG

	cmdCh chan submission
	done  chan struct{}

	stateMu sync.RWMutex
	state   engine.GameState

	subsMu sync.Mutex
	subs   map[string]*subscriber // playerId -> subscriber
}

// NewGameActor seeds a fresh GameState from the given seed
// (SessionManager.StartGame passes a cryptographically random one, so
// games aren't predictable from wall-clock time) and starts the
// actor's processing loop. The caller is responsible for
// stopping it via Stop once the game is no longer needed.
func NewGameActor(id, code string, players []engine.NewPlayerInput, seed int64) *GameActor {
	rng := rand.New(rand.NewSource(seed))
	a := &GameActor{
		id:    id,
		code:  code,
		rng:   rng,
		cmdCh: make(chan submission, commandQueueSize),
		done:  make(chan struct{}),
		state: engine.NewGame(id, code, players, rng),
		subs:  make(map[string]*subscriber),
	}
	go a.run()
	return a
}

// Submit enqueues a command for serialized processing and blocks for
// its result. If the queue is already full it returns ErrBusy
// immediately without touching state.
func (a *GameActor) Submit(playerID string, cmd match.Command) ([]engine.Event, error) {
	reply := make(chan submissionResult, 1)
	select {
	case a.cmdCh <- submission{playerID: playerID, cmd: cmd, reply: reply}:
	default:
		return nil, ErrBusy
	}

	select {
	case res := <-reply:
		return res.events, res.err
	case <-a.done:
		return nil, fmt.Errorf("InternalError: game actor has stopped")
	}
}

// Snapshot returns a consistent copy of the current state.
func (a *GameActor) Snapshot() engine.GameState {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.state.Clone()
}

// Subscribe registers playerID for this actor's event stream,
// returning the channel the gateway should forward to that player's
// socket. A reconnecting player calling Subscribe again replaces
// their previous channel.
func (a *GameActor) Subscribe(playerID string) <-chan engine.Event {
	a.subsMu.Lock()
	defer a.subsMu.Unlock()
	sub := &subscriber{ch: make(chan engine.Event, subscriberBufferSize)}
	a.subs[playerID] = sub
	return sub.ch
}

// Unsubscribe drops playerID's event stream, e.g. on disconnect.
func (a *GameActor) Unsubscribe(playerID string) {
	a.subsMu.Lock()
	defer a.subsMu.Unlock()
	if sub, ok := a.subs[playerID]; ok {
		close(sub.ch)
		delete(a.subs, playerID)
	}
}

// NeedsResync reports and clears whether playerID's stream dropped an
// event since they last resynced. The gateway calls this right before
// deciding whether to send a full snapshot.
func (a *GameActor) NeedsResync(playerID string) bool {
	a.subsMu.Lock()
	sub, ok := a.subs[playerID]
	a.subsMu.Unlock()
	if !ok {
		return false
	}
	sub.mu.Lock()
	defer sub.mu.Unlock()
	needed := sub.dropped
	sub.dropped = false
	return needed
}

// Stop halts the actor's processing loop. Queued submissions that
// never got a chance to run receive an InternalError.
func (a *GameActor) Stop() {
	close(a.done)
}

// run is the actor's single-consumer command loop: every command is
// applied to the current state strictly in arrival order, and the
// resulting events are fanned out to every subscriber before the next
// command is accepted.
func (a *GameActor) run() {
	ticker := time.NewTicker(tradeExpiryTick)
	defer ticker.Stop()

	for {
		select {
		case sub := <-a.cmdCh:
			a.stateMu.Lock()
			next, events, err := match.Dispatch(a.state, match.Command{
				Type:           sub.cmd.Type,
				PlayerID:       sub.playerID,
				VertexID:       sub.cmd.VertexID,
				EdgeID:         sub.cmd.EdgeID,
				HexID:          sub.cmd.HexID,
				VictimID:       sub.cmd.VictimID,
				TargetPlayerID: sub.cmd.TargetPlayerID,
				TradeID:        sub.cmd.TradeID,
				Discard:        sub.cmd.Discard,
				Give:           sub.cmd.Give,
				Want:           sub.cmd.Want,
				FirstResource:  sub.cmd.FirstResource,
				SecondResource: sub.cmd.SecondResource,
				Resource:       sub.cmd.Resource,
				Now:            time.Now(),
			}, a.rng)
			if err == nil {
				a.state = next
			}
			a.stateMu.Unlock()

			sub.reply <- submissionResult{events: events, err: err}
			if err == nil && len(events) > 0 {
				a.broadcast(events)
			}

		case <-ticker.C:
			a.stateMu.Lock()
			next, events, err := engine.ExpireTrade(a.state, time.Now())
			if err == nil {
				a.state = next
			}
			a.stateMu.Unlock()
			if err == nil && len(events) > 0 {
				a.broadcast(events)
			}

		case <-a.done:
			return
		}
	}
}

// broadcast fans events out to every subscriber's bounded buffer,
// dropping the oldest queued event (and flagging the subscriber for
// a resync) rather than blocking the actor on a slow client.
func (a *GameActor) broadcast(events []engine.Event) {
	a.subsMu.Lock()
	subs := make([]*subscriber, 0, len(a.subs))
	for _, sub := range a.subs {
		subs = append(subs, sub)
	}
	a.subsMu.Unlock()

	for _, sub := range subs {
		for _, ev := range events {
			select {
			case sub.ch <- ev:
			default:
				select {
				case <-sub.ch:
				default:
				}
				select {
				case sub.ch <- ev:
				default:
				}
				sub.mu.Lock()
				sub.dropped = true
				sub.mu.Unlock()
				log.Printf("game %s: dropped event for a slow subscriber, flagged for resync", a.code)
			}
		}
	}
}
