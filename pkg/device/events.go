package device

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/atvremote/mrp/pkg/codec"
	"github.com/atvremote/mrp/pkg/transport"
)

// Device's nowPlaying, supportedCommands, and playbackQueue fields are
// subscriber tables keyed by a handle rather
// than a fixed callback slot, so any number of listeners can come and go
// independently.

type nowPlayingSubscriber func(*codec.NowPlayingInfo)
type supportedCommandsSubscriber func([]codec.SupportedCommand)
type playbackQueueSubscriber func([]byte)

type subscriberTable[F any] struct {
	mu   sync.Mutex
	next int
	subs map[int]F
}

func newSubscriberTable[F any]() *subscriberTable[F] {
	return &subscriberTable[F]{subs: make(map[int]F)}
}

func (t *subscriberTable[F]) add(fn F) func() {
	t.mu.Lock()
	id := t.next
	t.next++
	t.subs[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

func (t *subscriberTable[F]) snapshot() []F {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]F, 0, len(t.subs))
	for _, fn := range t.subs {
		out = append(out, fn)
	}
	return out
}

func (t *subscriberTable[F]) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// SubscribeNowPlaying registers fn to be called with every decoded
// now-playing snapshot, including the null snapshot signaled by an inbound
// SetStateMessage carrying no payload at all. The returned func
// unsubscribes and, once no nowPlaying or supportedCommands subscriber
// remains, stops the polling timer.
func (d *Device) SubscribeNowPlaying(fn func(*codec.NowPlayingInfo)) func() {
	remove := d.nowPlaying.add(fn)
	d.addPollSubscriber()
	return d.onceFunc(func() {
		remove()
		d.removePollSubscriber()
	})
}

// SubscribeSupportedCommands registers fn to be called with every decoded
// supported-command list. See SubscribeNowPlaying for the polling-timer
// interaction.
func (d *Device) SubscribeSupportedCommands(fn func([]codec.SupportedCommand)) func() {
	remove := d.supportedCommands.add(fn)
	d.addPollSubscriber()
	return d.onceFunc(func() {
		remove()
		d.removePollSubscriber()
	})
}

// SubscribePlaybackQueue registers fn to be called with every decoded
// playback-queue payload. Playback-queue subscriptions do not drive the
// polling timer: they only ever fire in response to a poll already running
// for nowPlaying/supportedCommands.
func (d *Device) SubscribePlaybackQueue(fn func([]byte)) func() {
	return d.playbackQueue.add(fn)
}

// onceFunc wraps fn so repeated calls (e.g. an unsubscribe func called
// twice) only take effect once.
func (d *Device) onceFunc(fn func()) func() {
	var once sync.Once
	return func() { once.Do(fn) }
}

func (d *Device) addPollSubscriber() {
	d.pollMu.Lock()
	defer d.pollMu.Unlock()
	d.pollRefCount++
	if d.pollRefCount == 1 {
		d.startPolling()
	}
}

func (d *Device) removePollSubscriber() {
	d.pollMu.Lock()
	defer d.pollMu.Unlock()
	if d.pollRefCount == 0 {
		return
	}
	d.pollRefCount--
	if d.pollRefCount == 0 {
		d.stopPolling()
	}
}

// startPolling arms the now-playing poll ticker. Caller must hold pollMu.
func (d *Device) startPolling() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	d.pollCancel = cancel
	d.pollDone = done
	go d.pollLoop(ctx, done)
}

// stopPolling disarms the now-playing poll ticker. Caller must hold pollMu.
func (d *Device) stopPolling() {
	if d.pollCancel == nil {
		return
	}
	d.pollCancel()
	<-d.pollDone
	d.pollCancel = nil
	d.pollDone = nil
}

func (d *Device) pollLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			env := &codec.Envelope{
				Type: codec.MessageTypePlaybackQueueRequest,
				Payload: codec.EncodePlaybackQueueRequestMessage(&codec.PlaybackQueueRequestMessage{
					Location:      0,
					Length:        100,
					ArtworkWidth:  -1,
					ArtworkHeight: 368,
					RequestID:     uuid.New().String(),
				}),
			}
			if _, err := d.tr.Send(context.Background(), env, false, 0); err != nil {
				if errors.Is(err, transport.ErrClosed) {
					return
				}
				if d.opts.OnError != nil {
					d.opts.OnError(err)
				}
			}
		}
	}
}

func (d *Device) handleSetState(env *codec.Envelope) {
	msg, err := codec.DecodeSetStateMessage(env.Payload)
	if err != nil {
		if d.opts.OnError != nil {
			d.opts.OnError(err)
		}
		return
	}

	switch {
	case msg.HasNowPlaying:
		for _, fn := range d.nowPlaying.snapshot() {
			fn(msg.NowPlaying)
		}
	case len(msg.SupportedCommands) > 0:
		for _, fn := range d.supportedCommands.snapshot() {
			fn(msg.SupportedCommands)
		}
	case msg.PlaybackQueue != nil:
		for _, fn := range d.playbackQueue.snapshot() {
			fn(msg.PlaybackQueue)
		}
	default:
		for _, fn := range d.nowPlaying.snapshot() {
			fn(nil)
		}
	}
}
