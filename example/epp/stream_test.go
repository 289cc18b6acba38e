package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ViceAguilera/go-epptrack/compliance"
	"github.com/ViceAguilera/go-epptrack/postprocess"
)

func newTestStreamer() *Streamer {
	return &Streamer{
		hub:      NewHub(zap.NewNop()),
		logger:   zap.NewNop(),
		interval: 5 * time.Millisecond,
		// smallest JPEG marker pair, the handler does not decode frames
		jpeg: []byte{0xff, 0xd8, 0xff, 0xd9},
		seq:  1,
	}
}

func TestStreamEndsWhenServerContextDone(t *testing.T) {

	s := newTestStreamer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := s.newServer(ctx, ln.Addr().String())
	go srv.Serve(ln)

	resp, err := http.Get("http://" + ln.Addr().String() + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "multipart/x-mixed-replace; boundary=frame", resp.Header.Get("Content-Type"))

	cancel()

	// the viewer is still connected, Shutdown must not wait for it
	shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
	defer stop()

	assert.NoError(t, srv.Shutdown(shutdownCtx))
}

func TestPauseToggles(t *testing.T) {

	s := newTestStreamer()

	for _, want := range []bool{true, false} {
		rec := httptest.NewRecorder()
		s.Pause(rec, httptest.NewRequest(http.MethodPost, "/pause", nil))

		var body struct {
			Paused bool `json:"paused"`
		}

		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, want, body.Paused)
		assert.Equal(t, want, s.paused.Load())
	}
}

func TestNewFrameReport(t *testing.T) {

	pairs := postprocess.EquipmentPairs

	records := []compliance.PersonRecord{{
		TrackID: 3,
		Items: []compliance.CategoryStatus{
			{Pair: pairs[0], Status: compliance.Violation, Confidence: 0.85},
			{Pair: pairs[1]},
			{Pair: pairs[2], Status: compliance.Compliant, Confidence: 0.6},
		},
	}}

	rep := newFrameReport(7, false, records)

	assert.Equal(t, 7, rep.Frame)
	require.Len(t, rep.Persons, 1)

	p := rep.Persons[0]
	assert.Equal(t, 3, p.TrackID)
	assert.Equal(t, 1, p.Violations)
	require.Len(t, p.Items, 3)

	assert.Equal(t, itemReport{Category: "helmet", Status: "violation", Label: "no-helmet", Confidence: 0.85}, p.Items[0])
	assert.Equal(t, itemReport{Category: "goggles", Status: "unknown"}, p.Items[1])
	assert.Equal(t, "Persona 3:", rep.Lines[2])
}
