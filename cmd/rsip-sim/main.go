package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/jacobsa/go-serial/serial"
	"go.uber.org/zap"

	"git.sr.ht/~whereswaldon/rsip-scope/backend"
	"git.sr.ht/~whereswaldon/rsip-scope/hwmon"
	"git.sr.ht/~whereswaldon/rsip-scope/rsip"
	"git.sr.ht/~whereswaldon/rsip-scope/sensors"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `%[1]s: emit simulated reactor telemetry as RSIP messages
Usage:

 %[1]s > capture.rsip

OR

 %[1]s | rsip-scope -capture -

OR

 %[1]s -port /dev/ttyUSB1

`, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	dur := flag.Duration("sample-interval", 100*time.Millisecond, "Interval between reading new samples from sensors")
	outputName := flag.String("output", "-", "Output file for RSIP messages")
	port := flag.String("port", "", "Serial port to write RSIP messages to instead of -output")
	baud := flag.Uint("baud", 9600, "Serial port baud rate")
	hostTemp := flag.Bool("host-temp", false, "Report the host's hwmon temperatures as additional temperature series")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Seed for simulated sensor noise")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn or error")
	flag.Parse()

	logger, err := backend.NewLogger(*logLevel, "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed building logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	start := time.Now()
	channels := sensors.Reactor(start, nil, *seed)
	if *hostTemp {
		found, err := hwmon.FindTemperatureSensors(hwmon.Root)
		if err != nil {
			logger.Warn("failed loading hwmon sensors", zap.Error(err))
		}
		channels = append(channels, hostChannels(channels, found)...)
	}

	output, err := openOutput(*outputName, *port, *baud)
	if err != nil {
		logger.Fatal("failed opening output", zap.Error(err))
	}
	for _, c := range channels {
		logger.Info("simulating sensor",
			zap.String("name", c.Sensor.Name()),
			zap.Stringer("unit", c.Sensor.Unit()),
			zap.Uint8("dataset", c.DatasetID),
			zap.Int16("series", c.SeriesID))
	}

	sampleRate := *dur
	ticker := time.NewTicker(sampleRate)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer ticker.Stop()
	var buf []byte
	for {
		select {
		case <-sigChan:
			// We've gotten an interrupt; shut down.
			if err := output.Close(); err != nil {
				logger.Warn("failed closing output", zap.Error(err))
			}
			return
		case now := <-ticker.C:
			buf, err = appendSamples(buf[:0], channels, now.Sub(start))
			if err != nil {
				logger.Fatal("failed sampling sensors", zap.Error(err))
			}
			if _, err := output.Write(buf); err != nil {
				if errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
					logger.Info("output closed")
					return
				}
				logger.Fatal("failed writing messages", zap.Error(err))
			}
		}
	}
}

func openOutput(name, port string, baud uint) (io.WriteCloser, error) {
	if port != "" {
		return serial.Open(serial.OpenOptions{
			PortName:        port,
			BaudRate:        baud,
			DataBits:        8,
			StopBits:        1,
			MinimumReadSize: 1,
		})
	}
	if name == "-" {
		return os.Stdout, nil
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("failed opening output file %q: %w", name, err)
	}
	return f, nil
}

// hostChannels reports host sensors as further temperature series, numbered
// after the highest series id already in use.
func hostChannels(existing []sensors.Channel, host []sensors.Sensor) []sensors.Channel {
	var next int16
	for _, c := range existing {
		if c.DatasetID == 0 && c.SeriesID >= next {
			next = c.SeriesID + 1
		}
	}
	out := make([]sensors.Channel, 0, len(host))
	for _, s := range host {
		out = append(out, sensors.Channel{DatasetID: 0, SeriesID: next, Sensor: s})
		next++
	}
	return out
}

// appendSamples reads every channel once and appends one message per
// dataset, in order of each dataset's first channel.
func appendSamples(dst []byte, channels []sensors.Channel, elapsed time.Duration) ([]byte, error) {
	var order []uint8
	frames := map[uint8][]rsip.Frame{}
	for _, c := range channels {
		v, err := c.Sensor.Read()
		if err != nil {
			return dst, fmt.Errorf("failed reading %s: %w", c.Sensor.Name(), err)
		}
		if _, ok := frames[c.DatasetID]; !ok {
			order = append(order, c.DatasetID)
		}
		frames[c.DatasetID] = append(frames[c.DatasetID], rsip.Frame{
			SeriesID:  c.SeriesID,
			ElapsedMS: int32(elapsed.Milliseconds()),
			Value:     float32(v),
		})
	}
	for _, id := range order {
		var err error
		dst, err = rsip.AppendMessage(dst, id, frames[id])
		if err != nil {
			return dst, fmt.Errorf("failed encoding dataset %d: %w", id, err)
		}
	}
	return dst, nil
}
