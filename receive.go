package glora

import (
	"context"
	"time"

	"github.com/golang/glog"
)

// Receive collects one packet if the radio has flagged RxDone. It returns
// nil with a nil error when no packet is waiting.
//
// The flag is acknowledged once, after the payload and link metrics have
// been read, so a packet arriving mid-read is not lost and a finished one
// is not delivered twice. A transport fault aborts without acknowledging.
func (l *Lora) Receive() (*Packet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	irq, err := l.bus.ReadRegister(RegIrqFlags)
	if err != nil {
		return nil, err
	}
	if irq&IrqRxDoneMask == 0 {
		return nil, nil
	}
	ack := IrqRxDoneMask | irq&IrqPayloadCrcErrorMask

	n, err := l.bus.ReadRegister(RegRxNbBytes)
	if err != nil {
		return nil, err
	}
	if bound := l.opts.MaxPayloadLength; bound > 0 && int(n) > bound {
		if err := l.bus.WriteRegister(RegIrqFlags, ack); err != nil {
			return nil, err
		}
		return nil, &LengthError{Length: int(n), Max: bound}
	}

	// The FIFO pointer auto-increments and is left wherever the last access
	// stopped. Packets are read from the receive base address, not from
	// RegFifoRxCurrentAddr.
	if err := l.bus.WriteRegister(RegFifoAddrPtr, rxBaseAddr); err != nil {
		return nil, err
	}
	payload := make([]byte, n)
	for i := range payload {
		if payload[i], err = l.bus.ReadRegister(RegFifo); err != nil {
			return nil, err
		}
	}

	link, err := l.linkQuality()
	if err != nil {
		return nil, err
	}

	if err := l.bus.WriteRegister(RegIrqFlags, ack); err != nil {
		return nil, err
	}

	return &Packet{
		payload:  payload,
		link:     link,
		crcError: irq&IrqPayloadCrcErrorMask != 0,
		received: time.Now(),
	}, nil
}

// ClearIrqFlags acknowledges every pending IRQ flag and returns the flags
// that were set.
func (l *Lora) ClearIrqFlags() (byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	irq, err := l.bus.ReadRegister(RegIrqFlags)
	if err != nil {
		return 0, err
	}
	return irq, l.bus.WriteRegister(RegIrqFlags, irq)
}

func (l *Lora) linkQuality() (LinkQuality, error) {
	rssi, err := l.bus.ReadRegister(RegPktRssiValue)
	if err != nil {
		return LinkQuality{}, err
	}
	snr, err := l.bus.ReadRegister(RegPktSnrValue)
	if err != nil {
		return LinkQuality{}, err
	}
	return LinkQuality{
		RSSI: DecodeRSSI(rssi, l.frequency),
		SNR:  DecodeSNR(snr),
	}, nil
}

// EventSource returns the trigger source selected by the options.
func (l *Lora) EventSource() (EventSource, error) {
	if l.opts.Trigger == TriggerEdge {
		if l.pins.Interrupt == nil {
			return nil, ErrNoInterrupt
		}
		return &EdgeSource{Pin: l.pins.Interrupt}, nil
	}
	return &PollSource{Interval: l.opts.PollInterval}, nil
}

// ReceiveContinue acknowledges stale IRQ flags, puts the radio in
// ReceiveContinuous and runs Receive once per trigger from src, sending
// packets to out. Length faults are logged and skipped; a transport fault
// ends the loop and is returned. On cancellation the radio is returned to
// Standby and nil is returned.
func (l *Lora) ReceiveContinue(ctx context.Context, src EventSource, out chan<- *Packet) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	triggers, err := src.Triggers(ctx)
	if err != nil {
		return err
	}

	if stale, err := l.ClearIrqFlags(); err != nil {
		return err
	} else if stale&IrqRxDoneMask != 0 {
		glog.Warningf("lora: discarded packet pending before receive started")
	}
	if err := l.StartReceiving(); err != nil {
		return err
	}
	defer func() {
		if err := l.Standby(); err != nil {
			glog.Warningf("lora: standby on exit: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-triggers:
			if !ok {
				return nil
			}
		}

		pkt, err := l.Receive()
		switch {
		case IsTransportFault(err):
			glog.Errorf("lora: receive: %v", err)
			return err
		case err != nil:
			glog.Warningf("lora: dropped packet: %v", err)
			continue
		case pkt == nil:
			continue
		}
		if pkt.CRCError() {
			glog.Warningf("lora: payload crc error, %d bytes", pkt.Len())
		}

		select {
		case out <- pkt:
		case <-ctx.Done():
			return nil
		}
	}
}
