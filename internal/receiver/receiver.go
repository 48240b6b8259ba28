package receiver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/med-dispenser/internal/packet"
	"github.com/tamzrod/med-dispenser/internal/schedule"
)

// Configurer installs a decoded schedule.
type Configurer interface {
	Configure(s schedule.Schedule, now schedule.TimeOfDay) error
}

// Clock supplies the time used to re-arm after a schedule change.
type Clock interface {
	Now() schedule.TimeOfDay
}

type Config struct {
	Listen      string
	RecvTimeout time.Duration // read deadline; a timeout only loops
}

// Stats counts datagrams since start.
type Stats struct {
	Accepted uint32
	Rejected uint32
}

// Receiver reads schedule datagrams from a UDP socket. Decoding happens
// before the engine is touched, so a bad packet never holds its lock.
type Receiver struct {
	cfg   Config
	conn  net.PacketConn
	codec *packet.Codec
	dst   Configurer
	clock Clock

	accepted atomic.Uint32
	rejected atomic.Uint32
}

// Listen binds the UDP socket.
func Listen(cfg Config, codec *packet.Codec, dst Configurer, clock Clock) (*Receiver, error) {
	if codec == nil || dst == nil || clock == nil {
		return nil, errors.New("receiver: codec, configurer and clock required")
	}
	if cfg.RecvTimeout <= 0 {
		return nil, errors.New("receiver: recv timeout must be > 0")
	}

	conn, err := net.ListenPacket("udp", cfg.Listen)
	if err != nil {
		return nil, fmt.Errorf("receiver: listen %s: %w", cfg.Listen, err)
	}

	return &Receiver{
		cfg:   cfg,
		conn:  conn,
		codec: codec,
		dst:   dst,
		clock: clock,
	}, nil
}

// Addr is the bound local address.
func (r *Receiver) Addr() net.Addr {
	return r.conn.LocalAddr()
}

// Run reads datagrams until ctx is done, then closes the socket.
func (r *Receiver) Run(ctx context.Context) {
	defer r.conn.Close()

	log.WithField("addr", r.Addr()).Info("Listening on port")

	// one byte of slack so oversized datagrams are detectable
	buf := make([]byte, packet.MaxPacket+1)

	for {
		if ctx.Err() != nil {
			return
		}

		if err := r.conn.SetReadDeadline(time.Now().Add(r.cfg.RecvTimeout)); err != nil {
			log.WithError(err).Warn("receiver: set deadline")
		}

		n, peer, err := r.conn.ReadFrom(buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			log.WithError(err).Warn("receiver: read failed")
			continue
		}

		_ = r.Handle(buf[:n], peer)
	}
}

// Handle decodes one datagram and installs it. Errors are logged and
// counted; the previous schedule stays live on any failure.
func (r *Receiver) Handle(data []byte, peer net.Addr) error {
	entry := log.WithFields(log.Fields{"bytes": len(data), "peer": addrString(peer)})

	if len(data) > packet.MaxPacket {
		r.rejected.Add(1)
		entry.Warn("schedule packet rejected: oversized datagram")
		return fmt.Errorf("%w: datagram exceeds %d bytes", schedule.ErrInvalidPacket, packet.MaxPacket)
	}

	s, err := r.codec.Decode(data)
	if err != nil {
		r.rejected.Add(1)
		entry.WithError(err).Warn("schedule packet rejected")
		return err
	}

	if err := r.dst.Configure(s, r.clock.Now()); err != nil {
		r.rejected.Add(1)
		entry.WithError(err).Warn("schedule not applied")
		return err
	}

	r.accepted.Add(1)
	entry.WithField("events", len(s)).Info("schedule received")
	return nil
}

// Stats returns the datagram counters.
func (r *Receiver) Stats() Stats {
	return Stats{
		Accepted: r.accepted.Load(),
		Rejected: r.rejected.Load(),
	}
}

func addrString(a net.Addr) string {
	if a == nil {
		return "local"
	}
	return a.String()
}
