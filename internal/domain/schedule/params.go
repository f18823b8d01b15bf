package schedule

import (
	"errors"
	"fmt"
)

// ErrInvalidParams is returned when scheduling parameters are inconsistent.
var ErrInvalidParams = errors.New("invalid scheduling parameters")

// Params defines all configurable parameters for the scheduler
type Params struct {
	// HistorySize is how many previously shown card ids are kept out of the
	// candidate set, in addition to the card shown last.
	HistorySize int

	// A missed card is moved between MinRequeueOffset and MaxRequeueOffset
	// positions ahead of where it was, inclusive.
	MinRequeueOffset int
	MaxRequeueOffset int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	HistorySize      int
	MinRequeueOffset int
	MaxRequeueOffset int
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		HistorySize:      10,
		MinRequeueOffset: 3,
		MaxRequeueOffset: 8,
	}
}

// NewParams creates a new Params instance with custom configuration.
// Zero fields keep their defaults.
func NewParams(config ParamsConfig) (*Params, error) {
	params := NewDefaultParams()

	if config.HistorySize > 0 {
		params.HistorySize = config.HistorySize
	}
	if config.MinRequeueOffset > 0 {
		params.MinRequeueOffset = config.MinRequeueOffset
	}
	if config.MaxRequeueOffset > 0 {
		params.MaxRequeueOffset = config.MaxRequeueOffset
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}
	return params, nil
}

// Validate checks that the offsets form a non-empty positive range.
func (p *Params) Validate() error {
	if p.HistorySize < 0 {
		return fmt.Errorf("%w: history size %d", ErrInvalidParams, p.HistorySize)
	}
	if p.MinRequeueOffset < 1 {
		return fmt.Errorf("%w: min requeue offset %d", ErrInvalidParams, p.MinRequeueOffset)
	}
	if p.MaxRequeueOffset < p.MinRequeueOffset {
		return fmt.Errorf("%w: max requeue offset %d below min %d",
			ErrInvalidParams, p.MaxRequeueOffset, p.MinRequeueOffset)
	}
	return nil
}
