package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/physic"

	glora "github.com/NV4RE/glora-rx"
)

func main() {
	opts := glora.DefaultOptions()

	var (
		freqHz  = flag.Uint64("freq", 434000000, "carrier frequency in Hz")
		bwHz    = flag.Uint64("bw", 125000, "signal bandwidth in Hz")
		cr      = flag.Uint("cr", 5, "coding rate denominator, 5..8 for 4/5..4/8")
		sf      = flag.Uint("sf", 7, "spreading factor, 7..12")
		lna     = flag.Bool("lna-boost", false, "enable LNA boost")
		sync    = flag.Uint("sync", 0x12, "LoRa sync word")
		poll    = flag.Duration("poll", 0, "poll interval; zero uses the interrupt line")
		bounded = flag.Bool("reject-255", false, "reject packets reporting 255 bytes")
		dump    = flag.Bool("dump", false, "print registers after configuration")
		clock   = flag.Uint64("spi-clock", 500000, "SPI clock in Hz")
	)
	flag.StringVar(&opts.SPIDevice, "spi", "", "SPI port name, empty for the first one")
	flag.StringVar(&opts.ChipSelect, "cs", "", "GPIO driven as chip-select, empty for the SPI port's own")
	flag.StringVar(&opts.Reset, "reset", opts.Reset, "reset GPIO, empty to reset through RegOpMode")
	flag.StringVar(&opts.Interrupt, "dio0", opts.Interrupt, "DIO0 interrupt GPIO")
	flag.BoolVar(&opts.CRC, "crc", opts.CRC, "enable payload CRC check")
	flag.Parse()
	defer glog.Flush()

	opts.SPIClock = physic.Frequency(*clock) * physic.Hertz
	if *poll > 0 {
		opts.Trigger = glora.TriggerPoll
		opts.PollInterval = *poll
	}
	if *bounded {
		opts.MaxPayloadLength = glora.DefensiveMaxPayloadLength
	}

	if err := run(opts, *freqHz, *bwHz, *cr, *sf, *lna, *sync, *dump); err != nil {
		glog.Errorf("%v", err)
		glog.Flush()
		os.Exit(1)
	}
}

func run(opts glora.Options, freqHz, bwHz uint64, cr, sf uint, lna bool, sync uint, dump bool) error {
	if cr < 5 || cr > 8 {
		return fmt.Errorf("coding rate 4/%d out of range 4/5..4/8", cr)
	}
	if sf < uint(glora.MinSpreadingFactor) || sf > uint(glora.MaxSpreadingFactor) {
		return fmt.Errorf("spreading factor %d out of range %d..%d", sf, glora.MinSpreadingFactor, glora.MaxSpreadingFactor)
	}
	if sync > 0xff {
		return fmt.Errorf("sync word %#x is wider than a byte", sync)
	}
	bw, err := glora.BandwidthFor(physic.Frequency(bwHz) * physic.Hertz)
	if err != nil {
		return err
	}

	l, err := glora.Open(opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Close(); err != nil {
			glog.Warningf("close: %v", err)
		}
	}()

	if err := l.Reset(); err != nil {
		return err
	}
	if err := l.CheckVersion(); err != nil {
		return err
	}
	freq := physic.Frequency(freqHz) * physic.Hertz
	if err := l.Configure(freq, bw, glora.CodingRate(cr-4), glora.SpreadingFactor(sf)); err != nil {
		return err
	}
	if err := l.SetLnaBoost(lna); err != nil {
		return err
	}
	if err := l.SetSyncWord(byte(sync)); err != nil {
		return err
	}
	if dump {
		regs, err := l.DumpRegisters()
		if err != nil {
			return err
		}
		for _, r := range regs {
			fmt.Println(r)
		}
	}

	src, err := l.EventSource()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pkts := make(chan *glora.Packet, 4)
	errCh := make(chan error, 1)
	go func() {
		errCh <- l.ReceiveContinue(ctx, src, pkts)
		close(pkts)
	}()

	fmt.Println("Waiting for incoming messages...")
	for pkt := range pkts {
		text, ok := pkt.Text()
		if ok {
			fmt.Printf("%s received: %s\n", pkt.ReceivedAt().Format(time.RFC3339), text)
		} else {
			fmt.Printf("%s received (hex): %s\n", pkt.ReceivedAt().Format(time.RFC3339), text)
		}
		fmt.Printf("  length=%d %v crc-error=%t\n", pkt.Len(), pkt.Link(), pkt.CRCError())
	}
	return <-errCh
}
