package sensor

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

// Source produces sensor samples.
type Source interface {
	Read(ctx context.Context) (Sample, error)
	Close() error
}

// request asks the board for one reading.
var request = []byte("{\"get\":\"sensors\"}\n")

// reply is the board's newline-terminated JSON answer.
type reply struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	CO2         *float64 `json:"co2"`
	TVOC        *float64 `json:"tvoc"`
}

// SerialSource polls a sensor board over a serial line. Each Read writes a
// request and waits for one JSON line.
type SerialSource struct {
	conn   io.ReadWriteCloser
	reader *bufio.Reader
	mu     sync.Mutex
	now    func() time.Time
}

// OpenSerial opens the board at the given baud rate, 8N1.
func OpenSerial(portPath string, baud int) (*SerialSource, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portPath, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portPath, err)
	}
	if err := port.SetReadTimeout(2 * time.Second); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}

	log.Info().Str("port", portPath).Int("baud", baud).Msg("Sensor port opened")

	return NewSerialSource(port), nil
}

// NewSerialSource wraps an already open connection.
func NewSerialSource(conn io.ReadWriteCloser) *SerialSource {
	return &SerialSource{
		conn:   conn,
		reader: bufio.NewReader(conn),
		now:    time.Now,
	}
}

// Read requests and parses one sample.
func (s *SerialSource) Read(ctx context.Context) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.conn.Write(request); err != nil {
		return Sample{}, fmt.Errorf("write request: %w", err)
	}
	line, err := s.reader.ReadBytes('\n')
	if err != nil {
		return Sample{}, fmt.Errorf("read reply: %w", err)
	}

	var r reply
	if err := json.Unmarshal(line, &r); err != nil {
		return Sample{}, fmt.Errorf("%w: %v", ErrInvalidSample, err)
	}
	if r.Temperature == nil || r.Humidity == nil || r.CO2 == nil {
		return Sample{}, fmt.Errorf("%w: incomplete reply %q", ErrInvalidSample, line)
	}

	sample := Sample{
		Temperature: *r.Temperature,
		Humidity:    *r.Humidity,
		CO2:         *r.CO2,
		TVOC:        -1,
		TakenAt:     s.now(),
	}
	if r.TVOC != nil {
		sample.TVOC = *r.TVOC
	}
	return sample, nil
}

// Close closes the serial port.
func (s *SerialSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// NullSource is used when no sensor board is attached.
type NullSource struct{}

func (NullSource) Read(ctx context.Context) (Sample, error) {
	return Sample{}, ErrNoSensor
}

func (NullSource) Close() error { return nil }
