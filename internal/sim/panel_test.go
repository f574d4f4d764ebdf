package sim_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EinEisbxr/badapple-matrix/internal/matrix"
	"github.com/EinEisbxr/badapple-matrix/internal/sim"
)

func newPanelDriver(t *testing.T) (*sim.Panel, *matrix.Driver) {
	t.Helper()
	panel := sim.NewPanel(matrix.DefaultPins, zerolog.Nop())
	drv, err := matrix.New(panel, matrix.DefaultPins, matrix.WithDwell(time.Microsecond))
	require.NoError(t, err)
	return panel, drv
}

// Scanning a frame through the real driver must latch exactly that frame.
func TestPanelLatchesScannedFrame(t *testing.T) {
	panel, drv := newPanelDriver(t)

	f := matrix.Frame{0x81, 0x42, 0x24, 0x18, 0x18, 0x24, 0x42, 0x81}
	require.NoError(t, drv.Render(f))
	assert.Equal(t, [matrix.Rows]byte{0x81, 0x42, 0x24, 0x18, 0x18, 0x24, 0x42, 0x81}, panel.Snapshot())
	assert.Equal(t, uint64(1), panel.FrameID())

	// A second, different frame fully replaces the first.
	g := matrix.Frame{0xFF, 0, 0, 0, 0, 0, 0, 0xFF}
	require.NoError(t, drv.Render(g))
	assert.Equal(t, [matrix.Rows]byte{0xFF, 0, 0, 0, 0, 0, 0, 0xFF}, panel.Snapshot())
	assert.Equal(t, uint64(2), panel.FrameID())
}

func TestPanelHealth(t *testing.T) {
	panel, drv := newPanelDriver(t)
	require.NoError(t, drv.Render(make(matrix.Frame, matrix.FrameLen)))

	rec := httptest.NewRecorder()
	panel.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(1), resp["frame_id"])
	assert.Equal(t, float64(8), resp["rows"])
	assert.Equal(t, float64(8), resp["cols"])
}

func TestPanelStreamsFrames(t *testing.T) {
	panel, drv := newPanelDriver(t)

	srv := httptest.NewServer(http.HandlerFunc(panel.HandleFrames))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Let the server finish registering the client after the handshake.
	time.Sleep(50 * time.Millisecond)

	f := matrix.Frame{0xAA, 0x55, 0xAA, 0x55, 0xAA, 0x55, 0xAA, 0x55}
	require.NoError(t, drv.Render(f))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		FrameID uint64  `json:"frame_id"`
		Rows    [8]byte `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, uint64(1), msg.FrameID)
	assert.Equal(t, [8]byte{0xAA, 0x55, 0xAA, 0x55, 0xAA, 0x55, 0xAA, 0x55}, msg.Rows)
}
