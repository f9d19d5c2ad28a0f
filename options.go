package refbase

import (
	"errors"
	"time"

	"github.com/joeycumines/logiface"
)

// trackerOptions holds configuration options for Tracker creation.
type trackerOptions struct {
	logger *logiface.Logger[logiface.Event]
	rates  map[time.Duration]int
	name   string
	stacks bool
}

// TrackerOption configures a Tracker instance.
type TrackerOption interface {
	applyTracker(*trackerOptions) error
}

// trackerOptionImpl implements TrackerOption.
type trackerOptionImpl struct {
	applyTrackerFunc func(*trackerOptions) error
}

func (x *trackerOptionImpl) applyTracker(opts *trackerOptions) error {
	return x.applyTrackerFunc(opts)
}

// WithLogger configures the logger, which may be nil (the default), which
// disables logging, though references are still tracked.
//
// Reference events are logged at trace level, lifecycle transitions at debug
// level, and contract violations at error level.
func WithLogger(logger *logiface.Logger[logiface.Event]) TrackerOption {
	return &trackerOptionImpl{func(opts *trackerOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithStacks enables capturing the stack trace of each acquired reference,
// which is expensive, but useful for finding leaks.
func WithStacks(enabled bool) TrackerOption {
	return &trackerOptionImpl{func(opts *trackerOptions) error {
		opts.stacks = enabled
		return nil
	}}
}

// WithWarnRates configures the rate limits applied to logging of contract
// violations, per payload type, see github.com/joeycumines/go-catrate for
// the semantics. A nil map disables rate limiting. Defaults to 4 per second,
// and 40 per minute.
func WithWarnRates(rates map[time.Duration]int) TrackerOption {
	return &trackerOptionImpl{func(opts *trackerOptions) error {
		if rates != nil && len(rates) == 0 {
			return errors.New(`refbase: empty warn rates`)
		}
		opts.rates = rates
		return nil
	}}
}

// WithName adds a tracker field to every log event.
func WithName(name string) TrackerOption {
	return &trackerOptionImpl{func(opts *trackerOptions) error {
		opts.name = name
		return nil
	}}
}

// resolveTrackerOptions applies TrackerOption instances to trackerOptions.
func resolveTrackerOptions(opts []TrackerOption) (*trackerOptions, error) {
	cfg := &trackerOptions{
		rates: map[time.Duration]int{
			time.Second: 4,
			time.Minute: 40,
		},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyTracker(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
