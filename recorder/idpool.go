package recorder

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"sync"
	"time"
)

// idPool keeps a buffer of random hex IDs of one width, topped up by a
// background goroutine so starting a span around a Redis command does not
// wait on crypto/rand. next never blocks: with an empty buffer the ID is
// generated inline.
type idPool struct {
	ids   chan string
	done  chan struct{}
	now   func() time.Time
	stop  sync.Once
	width int
}

func newIDPool(width, size int, now func() time.Time) *idPool {
	p := &idPool{
		ids:   make(chan string, size),
		done:  make(chan struct{}),
		now:   now,
		width: width,
	}
	go p.fill()
	return p
}

func (p *idPool) next() string {
	select {
	case id := <-p.ids:
		return id
	default:
		return p.generate()
	}
}

func (p *idPool) generate() string {
	buf := make([]byte, p.width)
	if _, err := rand.Read(buf); err != nil {
		binary.BigEndian.PutUint64(buf[p.width-8:], uint64(p.now().UnixNano()))
	}
	return hex.EncodeToString(buf)
}

func (p *idPool) fill() {
	for {
		id := p.generate()
		select {
		case p.ids <- id:
		case <-p.done:
			return
		}
	}
}

// close stops the fill goroutine. IDs already buffered are still handed out.
func (p *idPool) close() {
	p.stop.Do(func() { close(p.done) })
}
