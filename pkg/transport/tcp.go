// Package transport owns the single persistent TCP connection to a device:
// frame read/write, the plaintext/encrypted mode switch, and request/
// response correlation against an otherwise unsolicited inbound stream.
//
// One goroutine (reactor) owns the pending-callback table, and every
// mutation of that table happens only on its goroutine. The session keys
// are installed through an atomic pointer and guard their own nonce
// counters with a mutex, since the read loop decrypts outside the reactor.
// Callers reach the reactor through channels rather than locks, the same shape
// go-ethereum's rpc.Client uses for its own read/dispatch pair.
package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pion/logging"

	"github.com/atvremote/mrp/pkg/codec"
)

// DefaultTimeout is the deadline applied to a waited Send when the caller's
// context carries no deadline of its own.
const DefaultTimeout = 5 * time.Second

// Options configures a Transport at construction.
type Options struct {
	// OnMessage is invoked for every decoded inbound envelope, matched or not.
	OnMessage MessageHandler
	// OnError is invoked when a frame fails to decrypt or decode, or the
	// connection fails.
	OnError ErrorHandler
	// OnDebug receives low-priority diagnostic strings.
	OnDebug DebugHandler
	// LoggerFactory builds a logger for the transport; nil disables logging.
	LoggerFactory logging.LoggerFactory
	// DefaultTimeout overrides DefaultTimeout for waited sends that don't
	// supply a context deadline.
	DefaultTimeout time.Duration
}

// Transport owns one TCP connection to a device, its inbound frame buffer,
// its pending-callback table, and (after verification) its SessionKeys.
type Transport struct {
	conn net.Conn
	log  logging.LeveledLogger

	onMessage MessageHandler
	onError   ErrorHandler
	onDebug   DebugHandler

	keys atomic.Pointer[SessionKeys]

	pending  map[string]*pendingCall
	sendCh   chan *sendOp
	cancelCh chan string
	readCh   chan readEvent
	closeCh  chan struct{}
	doneCh   chan struct{}

	closeOnce sync.Once
	closeErr  error

	defaultTimeout time.Duration
	wg             sync.WaitGroup
}

type sendOp struct {
	env             *codec.Envelope
	waitForResponse bool
	timeout         time.Duration
	ack             chan sendAck
}

type sendAck struct {
	resp chan *codec.Envelope
	err  error
}

type readEvent struct {
	env   *codec.Envelope
	err   error
	fatal bool
}

// Connect dials addr ("host:port") and starts the transport's reactor.
func Connect(ctx context.Context, addr string, opts Options) (*Transport, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return newTransport(conn, opts), nil
}

// NewWithConn wraps an already-established connection, bypassing dialing.
// Used by tests with net.Pipe and by callers holding a pre-dialed socket.
func NewWithConn(conn net.Conn, opts Options) *Transport {
	return newTransport(conn, opts)
}

func newTransport(conn net.Conn, opts Options) *Transport {
	timeout := opts.DefaultTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var log logging.LeveledLogger
	if opts.LoggerFactory != nil {
		log = opts.LoggerFactory.NewLogger("transport")
	}

	t := &Transport{
		conn:           conn,
		log:            log,
		onMessage:      opts.OnMessage,
		onError:        opts.OnError,
		onDebug:        opts.OnDebug,
		pending:        make(map[string]*pendingCall),
		sendCh:         make(chan *sendOp),
		cancelCh:       make(chan string),
		readCh:         make(chan readEvent),
		closeCh:        make(chan struct{}),
		doneCh:         make(chan struct{}),
		defaultTimeout: timeout,
	}

	t.wg.Add(2)
	go t.readLoop()
	go t.reactor()

	return t
}

// SetSessionKeys installs the per-direction keys Verifier derived, switching
// the transport into encrypted mode for every subsequent frame in both
// directions. Safe to call concurrently with Send/read dispatch.
func (t *Transport) SetSessionKeys(sk *SessionKeys) {
	t.keys.Store(sk)
}

// Send serializes env via the codec, encrypts it if SessionKeys are
// installed, varint-frames the result, and writes it. If waitForResponse, a fresh UUID
// identifier is stamped onto env and the call blocks for a matching reply
// (by ctx deadline, or DefaultTimeout/Options.DefaultTimeout otherwise).
func (t *Transport) Send(ctx context.Context, env *codec.Envelope, waitForResponse bool, priority int32) (*codec.Envelope, error) {
	select {
	case <-t.doneCh:
		return nil, ErrClosed
	default:
	}

	env.Priority = priority

	timeout := t.defaultTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d > 0 {
			timeout = d
		}
	}

	ack := make(chan sendAck, 1)
	op := &sendOp{env: env, waitForResponse: waitForResponse, timeout: timeout, ack: ack}

	select {
	case t.sendCh <- op:
	case <-t.doneCh:
		return nil, ErrClosed
	}

	var a sendAck
	select {
	case a = <-ack:
	case <-t.doneCh:
		return nil, ErrClosed
	}
	if a.err != nil {
		return nil, a.err
	}
	if !waitForResponse {
		return nil, nil
	}

	select {
	case resp, ok := <-a.resp:
		if !ok {
			return nil, ErrClosed
		}
		return resp, nil
	case <-time.After(timeout):
		t.sendCancel(env.Identifier)
		return nil, ErrTimeout
	case <-ctx.Done():
		t.sendCancel(env.Identifier)
		return nil, ctx.Err()
	case <-t.doneCh:
		return nil, ErrClosed
	}
}

func (t *Transport) sendCancel(identifier string) {
	select {
	case t.cancelCh <- identifier:
	case <-t.doneCh:
	}
}

// Close stops the reactor and read loop, closes the socket, and rejects
// every pending call with ErrClosed.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		close(t.closeCh)
	})
	<-t.doneCh
	t.wg.Wait()
	return nil
}

// Err returns the error that caused the transport to close, if any. Only
// meaningful after Close or a fatal connection error.
func (t *Transport) Err() error {
	<-t.doneCh
	return t.closeErr
}

func (t *Transport) triggerClose(err error) {
	t.closeOnce.Do(func() {
		t.closeErr = err
		close(t.closeCh)
	})
}

// reactor is the only goroutine that ever touches the pending-callback
// table, so it needs no lock.
func (t *Transport) reactor() {
	defer t.wg.Done()
	defer close(t.doneCh)
	defer t.conn.Close()

	for {
		select {
		case <-t.closeCh:
			t.rejectAll()
			return

		case ev := <-t.readCh:
			t.handleRead(ev)

		case op := <-t.sendCh:
			t.handleSend(op)

		case id := <-t.cancelCh:
			t.cancel(id)
		}
	}
}

func (t *Transport) handleRead(ev readEvent) {
	if ev.fatal {
		if t.onError != nil {
			t.onError(ev.err)
		}
		t.triggerClose(ev.err)
		return
	}
	if ev.err != nil {
		if t.onError != nil {
			t.onError(ev.err)
		}
		if t.onDebug != nil {
			t.onDebug("dropped malformed frame: " + ev.err.Error())
		}
		return
	}

	if t.onDebug != nil {
		t.onDebug(fmt.Sprintf("recv type=%d identifier=%q", ev.env.Type, ev.env.Identifier))
	}

	// A matched pending callback fires before the general message event,
	// per the correlation-then-broadcast ordering inbound replies follow.
	t.resolve(ev.env)
	if t.onMessage != nil {
		t.onMessage(ev.env)
	}
}

func (t *Transport) handleSend(op *sendOp) {
	identifier := op.env.Identifier
	if op.waitForResponse {
		identifier = uuid.New().String()
		op.env.Identifier = identifier
	}

	payload := codec.EncodeEnvelope(op.env)
	if sk := t.keys.Load(); sk != nil {
		ciphertext, err := sk.Encrypt(payload)
		if err != nil {
			op.ack <- sendAck{err: err}
			return
		}
		payload = ciphertext
	}

	if _, err := t.conn.Write(codec.EncodeFrame(payload)); err != nil {
		op.ack <- sendAck{err: err}
		t.triggerClose(err)
		return
	}

	if t.onDebug != nil {
		t.onDebug(fmt.Sprintf("sent type=%d identifier=%q", op.env.Type, identifier))
	}

	if !op.waitForResponse {
		op.ack <- sendAck{}
		return
	}

	call, err := t.register(identifier, op.timeout)
	if err != nil {
		op.ack <- sendAck{err: err}
		return
	}
	op.ack <- sendAck{resp: call.resp}
}

// readLoop is the transport's only reader of the socket; it hands decoded
// envelopes (or read/decrypt/decode errors) to the reactor over readCh.
func (t *Transport) readLoop() {
	defer t.wg.Done()

	for {
		frame, err := codec.ReadFrame(t.conn)
		if err != nil {
			t.emitRead(readEvent{err: err, fatal: true})
			return
		}

		plaintext := frame
		if sk := t.keys.Load(); sk != nil {
			plaintext, err = sk.Decrypt(frame)
			if err != nil {
				// A MAC failure is fatal to the session: the AEAD stream
				// state cannot recover mid-sequence.
				t.emitRead(readEvent{err: err, fatal: true})
				return
			}
		}

		env, err := codec.DecodeEnvelope(plaintext)
		if err != nil {
			if !t.emitRead(readEvent{err: err}) {
				return
			}
			continue
		}

		if !t.emitRead(readEvent{env: env}) {
			return
		}
	}
}

func (t *Transport) emitRead(ev readEvent) bool {
	select {
	case t.readCh <- ev:
		return true
	case <-t.closeCh:
		return false
	}
}
