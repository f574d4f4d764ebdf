package sim

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/EinEisbxr/badapple-matrix/internal/hal"
	"github.com/EinEisbxr/badapple-matrix/internal/matrix"
)

// Panel is a virtual 8x8 matrix implementing hal.Port. It reconstructs the
// image the scan lights up by latching the column levels whenever a row
// line goes active (low), and streams completed images to WebSocket
// clients.
type Panel struct {
	mu     sync.Mutex
	pins   matrix.PinMap
	rowIdx map[hal.Pin]int
	levels map[hal.Pin]hal.Level

	img     [matrix.Rows]byte
	frameID uint64

	throttle time.Duration
	lastEmit time.Time
	clients  map[*websocket.Conn]bool

	start time.Time
	log   zerolog.Logger
}

func NewPanel(pins matrix.PinMap, log zerolog.Logger) *Panel {
	p := &Panel{
		pins:     pins,
		rowIdx:   map[hal.Pin]int{},
		levels:   map[hal.Pin]hal.Level{},
		throttle: 50 * time.Millisecond, // ~20 FPS to clients
		clients:  map[*websocket.Conn]bool{},
		start:    time.Now(),
		log:      log,
	}
	for i, pin := range pins.Rows {
		p.rowIdx[pin] = i
	}
	return p
}

func (p *Panel) ConfigureOutput(pin hal.Pin) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.levels[pin] = hal.Low
	return nil
}

func (p *Panel) Write(pin hal.Pin, l hal.Level) {
	p.mu.Lock()
	prev := p.levels[pin]
	p.levels[pin] = l

	row, isRow := p.rowIdx[pin]
	if !isRow || prev == l || l != hal.Low {
		p.mu.Unlock()
		return
	}

	// Row enable edge: latch the current column pattern into this row.
	var b byte
	for col := 0; col < matrix.Cols; col++ {
		b <<= 1
		if p.levels[p.pins.Cols[col]] == hal.High {
			b |= 1
		}
	}
	p.img[row] = b
	if row != matrix.Rows-1 {
		p.mu.Unlock()
		return
	}

	// Bottom row latched: the scan pass is complete.
	p.frameID++
	img := p.img
	id := p.frameID
	emit := time.Since(p.lastEmit) >= p.throttle && len(p.clients) > 0
	if emit {
		p.lastEmit = time.Now()
	}
	p.mu.Unlock()
	if emit {
		p.broadcast(img, id)
	}
}

func (p *Panel) Delay(d time.Duration) {
	time.Sleep(d)
}

// Snapshot returns the image latched by the most recent complete scan.
func (p *Panel) Snapshot() [matrix.Rows]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.img
}

// FrameID returns the number of complete scans observed.
func (p *Panel) FrameID() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frameID
}

type wireFrame struct {
	T       int64             `json:"t"`
	FrameID uint64            `json:"frame_id"`
	Rows    [matrix.Rows]byte `json:"rows"`
}

func (p *Panel) broadcast(img [matrix.Rows]byte, id uint64) {
	b, _ := json.Marshal(wireFrame{T: time.Now().UnixNano(), FrameID: id, Rows: img})
	p.mu.Lock()
	defer p.mu.Unlock()
	for c := range p.clients {
		_ = c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			p.log.Debug().Err(err).Msg("write frame")
		}
	}
}

// HandleFrames upgrades to WebSocket and streams latched frames until the
// client goes away.
func (p *Panel) HandleFrames(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	p.mu.Lock()
	p.clients[conn] = true
	p.mu.Unlock()

	go func() {
		defer func() {
			p.mu.Lock()
			delete(p.clients, conn)
			p.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (p *Panel) HandleHealth(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	resp := map[string]any{
		"frame_id": p.frameID,
		"uptime_s": time.Since(p.start).Seconds(),
		"rows":     matrix.Rows,
		"cols":     matrix.Cols,
		"clients":  len(p.clients),
	}
	p.mu.Unlock()
	_ = json.NewEncoder(w).Encode(resp)
}

var _ hal.Port = &Panel{}
