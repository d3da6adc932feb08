// Package device is the MRP client façade: connection lifecycle, pairing
// and verify orchestration, key-command encoding, and now-playing event
// fan-out, all built on top of pkg/transport.
package device

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pion/logging"

	"github.com/atvremote/mrp/pkg/codec"
	"github.com/atvremote/mrp/pkg/credentials"
	"github.com/atvremote/mrp/pkg/pairing"
	"github.com/atvremote/mrp/pkg/transport"
	"github.com/atvremote/mrp/pkg/verify"
)

// defaultPollInterval is the now-playing poll cadence while at least one
// nowPlaying or supportedCommands subscriber is registered.
const defaultPollInterval = 5 * time.Second

// Options configures a Device at Open.
type Options struct {
	// OnError receives transport and decode errors.
	OnError func(err error)
	// OnDebug receives low-priority diagnostic strings.
	OnDebug func(msg string)
	// OnClose is invoked by Close once the transport is torn down. A
	// connection closed by the device does not invoke it.
	OnClose func(err error)
	// OnMessage receives every decoded inbound envelope whose type this
	// façade doesn't already interpret (CryptoPairingMessage and
	// SetStateMessage are consumed internally).
	OnMessage func(env *codec.Envelope)
	// OnPairState, if set, observes the pair-setup state machine. Only
	// relevant when Open is called without existing Credentials.
	OnPairState func(pairing.State)
	// OnVerifyState, if set, observes the pair-verify state machine.
	OnVerifyState func(verify.State)
	// PollInterval overrides defaultPollInterval.
	PollInterval time.Duration
	// LoggerFactory is forwarded to the underlying Transport.
	LoggerFactory logging.LoggerFactory
}

// Device is the open connection to one paired (or pairing) Apple TV.
type Device struct {
	tr    *transport.Transport
	creds credentials.Credentials
	opts  Options

	pollInterval   time.Duration
	pairingInbound chan *codec.Envelope

	nowPlaying        *subscriberTable[nowPlayingSubscriber]
	supportedCommands *subscriberTable[supportedCommandsSubscriber]
	playbackQueue     *subscriberTable[playbackQueueSubscriber]

	pollMu       sync.Mutex
	pollRefCount int
	pollCancel   context.CancelFunc
	pollDone     chan struct{}

	waitMu  sync.Mutex
	waiters map[codec.MessageType][]*waitEntry
}

// waitEntry is one registered WaitForMessage call: a single-slot channel
// delivered to at most once, by type, independent of identifier
// correlation.
type waitEntry struct {
	ch chan *codec.Envelope
}

// NeedsPairing reports whether creds is insufficient to skip straight to
// pair-verify, so a caller can decide whether to prompt for a PIN before
// calling Open at all.
func NeedsPairing(creds *credentials.Credentials) bool {
	return creds == nil
}

// Open connects to addr, runs the introduction exchange, runs the
// pair-setup flow first when creds is nil, then the pair-verify flow, and
// finally announces the connected state and the update streams this client
// wants pushed. It returns the Device and the Credentials now in effect:
// unchanged from creds when they were supplied, or the freshly minted value
// pairing produced.
func Open(ctx context.Context, addr string, creds *credentials.Credentials, getPIN pairing.PINProvider, opts Options) (*Device, credentials.Credentials, error) {
	d := newDevice(opts)

	tr, err := transport.Connect(ctx, addr, transport.Options{
		OnMessage:     d.dispatch,
		OnError:       opts.OnError,
		OnDebug:       opts.OnDebug,
		LoggerFactory: opts.LoggerFactory,
	})
	if err != nil {
		return nil, credentials.Credentials{}, err
	}
	d.tr = tr

	return d.run(ctx, creds, getPIN)
}

// newDevice builds a Device around opts, without a Transport attached yet.
func newDevice(opts Options) *Device {
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	return &Device{
		opts:              opts,
		pollInterval:      pollInterval,
		pairingInbound:    make(chan *codec.Envelope, 16),
		nowPlaying:        newSubscriberTable[nowPlayingSubscriber](),
		supportedCommands: newSubscriberTable[supportedCommandsSubscriber](),
		playbackQueue:     newSubscriberTable[playbackQueueSubscriber](),
		waiters:           make(map[codec.MessageType][]*waitEntry),
	}
}

// run drives the introduction, pair-setup (when creds is nil), pair-verify,
// and announcement sequence over
// d.tr, which the caller must have already set. Split out of Open so tests
// can attach a Transport wrapping a net.Pipe instead of a dialed socket.
func (d *Device) run(ctx context.Context, creds *credentials.Credentials, getPIN pairing.PINProvider) (*Device, credentials.Credentials, error) {
	tr := d.tr
	opts := d.opts

	introID := uuid.New().String()
	if creds != nil {
		introID = creds.PairingID
	}
	introEnv := &codec.Envelope{
		Type:    codec.MessageTypeDeviceInfo,
		Payload: codec.EncodeDeviceInfoMessage(introductionMessage(introID)),
	}
	if _, err := tr.Send(ctx, introEnv, false, 0); err != nil {
		tr.Close()
		return nil, credentials.Credentials{}, err
	}

	finalCreds := credentials.Credentials{}
	if creds != nil {
		finalCreds = *creds
	} else {
		p := pairing.New(tr, d.pairingInbound, getPIN)
		if opts.OnPairState != nil {
			p.OnStateChanged(opts.OnPairState)
		}
		newCreds, err := p.Pair(ctx)
		if err != nil {
			tr.Close()
			return nil, credentials.Credentials{}, err
		}
		finalCreds = newCreds
	}

	v := verify.New(tr, d.pairingInbound, finalCreds)
	if opts.OnVerifyState != nil {
		v.OnStateChanged(opts.OnVerifyState)
	}
	if err := v.Verify(ctx); err != nil {
		tr.Close()
		return nil, credentials.Credentials{}, err
	}
	d.creds = finalCreds

	if _, err := tr.Send(ctx, &codec.Envelope{
		Type:    codec.MessageTypeSetConnectionState,
		Payload: codec.EncodeSetConnectionStateMessage(&codec.SetConnectionStateMessage{State: codec.ConnectionStateConnected}),
	}, false, 0); err != nil {
		tr.Close()
		return nil, credentials.Credentials{}, err
	}

	if _, err := tr.Send(ctx, &codec.Envelope{
		Type: codec.MessageTypeClientUpdatesConfig,
		Payload: codec.EncodeClientUpdatesConfigMessage(&codec.ClientUpdatesConfigMessage{
			NowPlayingUpdates: true,
			ArtworkUpdates:    true,
			KeyboardUpdates:   true,
			VolumeUpdates:     true,
		}),
	}, false, 0); err != nil {
		tr.Close()
		return nil, credentials.Credentials{}, err
	}

	return d, finalCreds, nil
}

// introductionMessage builds the bit-exact DeviceInfoMessage the device
// expects from a client, richer capability-flag set included (see
// DeviceInfoMessage's doc comment in pkg/codec).
func introductionMessage(uniqueIdentifier string) *codec.DeviceInfoMessage {
	return &codec.DeviceInfoMessage{
		UniqueIdentifier:       uniqueIdentifier,
		Name:                   "MRP Client",
		LocalizedModelName:     "iPhone",
		SystemBuildVersion:     "22G91",
		ApplicationBundleID:    "com.atvremote.mrp",
		ProtocolVersion:        1,
		LastSupportedMsgType:   uint32(codec.MessageTypeSendHIDEvent),
		SupportsSystemPairing:  true,
		SupportsSharedQueue:    true,
		SupportsACL:            true,
		SupportsExtendedMotion: true,
		SharedQueueVersion:     1,
	}
}

// Credentials returns the Credentials currently in effect.
func (d *Device) Credentials() credentials.Credentials {
	return d.creds
}

// Close tears down the transport and stops the polling timer, if running.
func (d *Device) Close() error {
	d.pollMu.Lock()
	d.stopPolling()
	d.pollMu.Unlock()

	err := d.tr.Close()
	if d.opts.OnClose != nil {
		d.opts.OnClose(d.tr.Err())
	}
	return err
}

// SendKey presses and releases key: two HID frames, down then up, with a
// one-second delay between them for keys whose mapping calls for a hold.
func (d *Device) SendKey(ctx context.Context, key Key) error {
	if d.tr == nil {
		return ErrNotOpen
	}
	usage, ok := keyUsages[key]
	if !ok {
		return ErrUnknownKey
	}

	if err := d.sendHIDEvent(ctx, usage.page, usage.id, true); err != nil {
		return err
	}
	if usage.holds {
		time.Sleep(time.Second)
	}
	return d.sendHIDEvent(ctx, usage.page, usage.id, false)
}

// SendVolumeCommand presses and releases the volume-up or volume-down key,
// a thin wrapper over SendKey for the common case of adjusting volume.
func (d *Device) SendVolumeCommand(ctx context.Context, up bool) error {
	if up {
		return d.SendKey(ctx, KeyVolumeUp)
	}
	return d.SendKey(ctx, KeyVolumeDown)
}

func (d *Device) sendHIDEvent(ctx context.Context, page, id uint16, down bool) error {
	env := &codec.Envelope{
		Type: codec.MessageTypeSendHIDEvent,
		Payload: codec.EncodeSendHIDEventMessage(&codec.SendHIDEventMessage{
			HIDEventData: encodeHIDEvent(page, id, down),
		}),
	}
	_, err := d.tr.Send(ctx, env, false, 0)
	return err
}

// WaitForMessage blocks until the next inbound envelope of msgType arrives,
// independent of Send's identifier correlation, or until ctx is done. A
// waiter that times out has no further effect: it is removed from the
// table immediately, so a message that happens to arrive afterward is not
// delivered to it and goes to dispatch's normal handling instead.
func (d *Device) WaitForMessage(ctx context.Context, msgType codec.MessageType) (*codec.Envelope, error) {
	entry := &waitEntry{ch: make(chan *codec.Envelope, 1)}

	d.waitMu.Lock()
	d.waiters[msgType] = append(d.waiters[msgType], entry)
	d.waitMu.Unlock()

	select {
	case env := <-entry.ch:
		return env, nil
	case <-ctx.Done():
		d.removeWaiter(msgType, entry)
		return nil, ctx.Err()
	}
}

func (d *Device) removeWaiter(msgType codec.MessageType, entry *waitEntry) {
	d.waitMu.Lock()
	defer d.waitMu.Unlock()
	entries := d.waiters[msgType]
	for i, e := range entries {
		if e == entry {
			d.waiters[msgType] = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

// deliverWaiters hands env to the oldest still-registered WaitForMessage
// call for its type, if any, FIFO across concurrent waiters of the same type.
func (d *Device) deliverWaiters(env *codec.Envelope) {
	d.waitMu.Lock()
	entries := d.waiters[env.Type]
	if len(entries) == 0 {
		d.waitMu.Unlock()
		return
	}
	entry := entries[0]
	d.waiters[env.Type] = entries[1:]
	d.waitMu.Unlock()
	entry.ch <- env
}

// dispatch routes every decoded inbound envelope: first to any WaitForMessage
// call registered for its type, then CryptoPairingMessage to whichever of
// Pairer/Verifier is currently waiting on it, SetStateMessage to the
// now-playing/supportedCommands/playbackQueue subscriber tables, and
// everything else to Options.OnMessage.
func (d *Device) dispatch(env *codec.Envelope) {
	d.deliverWaiters(env)

	switch env.Type {
	case codec.MessageTypeCryptoPairing:
		select {
		case d.pairingInbound <- env:
		default:
			if d.opts.OnDebug != nil {
				d.opts.OnDebug("dropped CryptoPairingMessage: inbound buffer full")
			}
		}
	case codec.MessageTypeSetState:
		d.handleSetState(env)
	default:
		if d.opts.OnMessage != nil {
			d.opts.OnMessage(env)
		}
	}
}
