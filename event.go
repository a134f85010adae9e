package glora

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
)

// Trigger asks the receive loop to check for a packet.
type Trigger struct {
	At time.Time
}

// EventSource produces reception triggers until ctx is done, then closes
// the channel.
type EventSource interface {
	Triggers(ctx context.Context) (<-chan Trigger, error)
}

// PollSource triggers on a fixed interval. Ticks that arrive while a
// trigger is still pending are coalesced.
type PollSource struct {
	Interval time.Duration
}

func (s *PollSource) Triggers(ctx context.Context) (<-chan Trigger, error) {
	if s.Interval <= 0 {
		return nil, fmt.Errorf("%w: poll interval %v", ErrInvalidConfig, s.Interval)
	}

	ch := make(chan Trigger, 1)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				select {
				case ch <- Trigger{At: t}:
				default:
				}
			}
		}
	}()
	return ch, nil
}

const (
	defaultEdgeBuffer  = 4
	defaultEdgeTimeout = 100 * time.Millisecond
)

// EdgeSource triggers once per rising edge of the radio's DIO0 line. Edges
// are handed to the consumer through a bounded channel; the waiting
// goroutine never touches the bus.
type EdgeSource struct {
	Pin gpio.PinIn
	// Buffer bounds the pending triggers. Edges beyond it are dropped, the
	// RxDone flag they announce stays set for the next trigger.
	Buffer int
	// Timeout bounds each WaitForEdge so cancellation is noticed.
	Timeout time.Duration
}

func (s *EdgeSource) Triggers(ctx context.Context) (<-chan Trigger, error) {
	if s.Pin == nil {
		return nil, ErrNoInterrupt
	}
	if err := s.Pin.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		return nil, err
	}

	size := s.Buffer
	if size <= 0 {
		size = defaultEdgeBuffer
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultEdgeTimeout
	}

	ch := make(chan Trigger, size)
	// An edge that fired before the pin was armed would otherwise be missed.
	if s.Pin.Read() == gpio.High {
		ch <- Trigger{At: time.Now()}
	}

	go func() {
		defer close(ch)
		defer func() {
			if err := s.Pin.In(gpio.PullDown, gpio.NoEdge); err != nil {
				glog.Warningf("edge: disarm %s: %v", s.Pin, err)
			}
		}()
		for ctx.Err() == nil {
			if !s.Pin.WaitForEdge(timeout) {
				continue
			}
			select {
			case ch <- Trigger{At: time.Now()}:
			case <-ctx.Done():
				return
			default:
				glog.Warningf("edge: %s trigger queue full, edge dropped", s.Pin)
			}
		}
	}()
	return ch, nil
}
