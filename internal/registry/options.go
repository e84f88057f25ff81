package registry

import (
	"log/slog"

	"github.com/roach88/nftreg/internal/ir"
)

// Observer receives committed events in commit order, after the
// committing operation has released the registry lock.
//
// Notify may read the registry and may run registry operations; events
// those operations commit are delivered after the current one. When another
// goroutine is already dispatching, an operation can return before its
// events have been delivered.
type Observer interface {
	Notify(ev ir.Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ev ir.Event)

// Notify calls f.
func (f ObserverFunc) Notify(ev ir.Event) {
	f(ev)
}

// Recorder observes operation outcomes. Implemented by metrics.Collector.
//
// outcome is "ok", a Code, or "error" for infrastructure failures.
type Recorder interface {
	ObserveOperation(op, outcome string)
	SetSupply(total uint64)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, string) {}
func (nopRecorder) SetSupply(uint64)                {}

// OutcomeOK is the outcome reported for a committed operation.
const OutcomeOK = "ok"

func outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if code := CodeOf(err); code != "" {
		return string(code)
	}
	return "error"
}

type options struct {
	logger    *slog.Logger
	receivers ReceiverResolver
	observers []Observer
	recorder  Recorder
	txIDs     TxIDGenerator
	baseURI   string
}

// Option configures a Registry.
type Option func(*options)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithReceivers sets how safe transfers find a recipient's Receiver.
// Without it every identity is a plain recipient.
func WithReceivers(rr ReceiverResolver) Option {
	return func(o *options) {
		o.receivers = rr
	}
}

// WithObserver adds an observer. Observers are called in registration order.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observers = append(o.observers, obs)
	}
}

// WithRecorder sets the operation recorder.
func WithRecorder(rec Recorder) Option {
	return func(o *options) {
		o.recorder = rec
	}
}

// WithTxIDGenerator sets the transaction ID generator.
// Default: UUIDv7Generator.
func WithTxIDGenerator(g TxIDGenerator) Option {
	return func(o *options) {
		o.txIDs = g
	}
}

// WithBaseURI sets the initial metadata base for New and Deploy.
// Open ignores it: the stored base wins.
func WithBaseURI(uri string) Option {
	return func(o *options) {
		o.baseURI = uri
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:   slog.Default(),
		recorder: nopRecorder{},
		txIDs:    UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
