package stream

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Garsondee/Court-Sense/internal/game"
)

type wireMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) (*Runner, *Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	sim := game.NewSim(append([]game.SimOption{game.WithSeed(1)}, game.StandardScene()...)...)
	hub := NewHub(nil)
	r := NewRunner(sim, hub, 0, nil)
	srv := httptest.NewServer(NewRouter(r, hub))
	t.Cleanup(srv.Close)
	return r, hub, srv
}

func post(t *testing.T, url, body string) statusResponse {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st statusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	return st
}

func TestRouter_ResumeAndPause(t *testing.T) {
	r, _, srv := newTestServer(t)

	st := post(t, srv.URL+"/resume", "")
	assert.False(t, st.Paused)
	assert.Equal(t, r.Session(), st.Session)

	// Resume is idempotent over HTTP, unlike the toggle key.
	st = post(t, srv.URL+"/resume", "")
	assert.False(t, st.Paused)

	r.Step(30)
	st = post(t, srv.URL+"/pause", "")
	assert.True(t, st.Paused)
	assert.Equal(t, 30, st.Tick)

	st = post(t, srv.URL+"/pause", "")
	assert.True(t, st.Paused)
}

func TestRouter_Snapshot(t *testing.T) {
	_, _, srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/snapshot")
	require.NoError(t, err)
	defer resp.Body.Close()

	var snap game.SimSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Len(t, snap.Agents, 6)
	assert.Len(t, snap.Balls, 2)
	assert.True(t, snap.Paused)
	assert.Equal(t, game.TeamWhite, snap.Agents[0].Team)
}

func TestRouter_BallSpeed(t *testing.T) {
	r, _, srv := newTestServer(t)
	post(t, srv.URL+"/ball-speed", `{"preset":"slow"}`)
	for _, b := range r.Snapshot().Balls {
		assert.InDelta(t, 2.5, b.Target, 1e-9)
		assert.Equal(t, game.BallSlow, b.Preset)
	}

	post(t, srv.URL+"/ball-speed", `{"preset":"custom","speed":3.3}`)
	for _, b := range r.Snapshot().Balls {
		assert.InDelta(t, 3.3, b.Target, 1e-9)
		assert.Equal(t, game.BallCustom, b.Preset)
	}
	post(t, srv.URL+"/ball-speed", `{"speed":4}`)
	for _, b := range r.Snapshot().Balls {
		assert.InDelta(t, 4.0, b.Target, 1e-9)
	}

	for _, body := range []string{
		`{"preset":"warp"}`,
		`{"preset":"custom"}`,
		`{"preset":"slow","speed":3}`,
		`{"speed":-1}`,
		`{}`,
	} {
		resp, err := http.Post(srv.URL+"/ball-speed", "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestRouter_PassOptions(t *testing.T) {
	r, _, srv := newTestServer(t)
	post(t, srv.URL+"/pass-options", `{"prediction":true,"pass_pause":false}`)
	for _, b := range r.sim.Balls {
		p := b.Params()
		assert.True(t, p.EnablePrediction)
		assert.False(t, p.EnablePassPause)
		assert.True(t, p.PreciseLanding, "unset fields keep their value")
		assert.True(t, p.EnablePassCounter)
	}
	post(t, srv.URL+"/pass-options", `{"pass_counter":false,"precise_landing":false}`)
	p := r.sim.Ball(game.TeamBlack).Params()
	assert.False(t, p.EnablePassCounter)
	assert.False(t, p.PreciseLanding)
}

func TestRouter_ResumeStartsAnUnpausedCourt(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ap := game.DefaultAgentParams()
	ap.StartPaused = false
	opts := append([]game.SimOption{game.WithSeed(1), game.WithAgentParams(ap)}, game.StandardScene()...)
	hub := NewHub(nil)
	r := NewRunner(game.NewSim(opts...), hub, 0, nil)
	srv := httptest.NewServer(NewRouter(r, hub))
	defer srv.Close()

	st := post(t, srv.URL+"/resume", "")
	assert.False(t, st.Paused)
	for _, b := range r.Snapshot().Balls {
		assert.Equal(t, game.PassMoving.String(), b.State)
	}
}

func TestRunner_PublishTrimsTheLog(t *testing.T) {
	r, _, _ := newTestServer(t)
	r.Resume()
	for _i, _end := 0, 5; _i < _end; _i++ {
		r.Step(600)
		assert.Positive(t, r.sim.SimLog.Len(), "ten seconds of play should log events")
		r.Publish()
		assert.Zero(t, r.sim.SimLog.Len(), "published entries should be dropped")
	}
}

func TestWebSocket_ReceivesSnapshotsAndEvents(t *testing.T) {
	r, hub, srv := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg wireMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, TypeSnapshot, msg.Type)
	assert.Equal(t, 1, hub.Len())

	r.Resume()
	r.Step(10)
	r.Publish()

	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, TypeEvents, msg.Type)
	var events []Event
	require.NoError(t, json.Unmarshal(msg.Data, &events))
	var sawResume bool
	for _, e := range events {
		sawResume = sawResume || (e.Category == "control" && e.Key == "resume")
	}
	assert.True(t, sawResume, "expected the resume event, got %+v", events)

	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, TypeSnapshot, msg.Type)
	var snap game.SimSnapshot
	require.NoError(t, json.Unmarshal(msg.Data, &snap))
	assert.Equal(t, 10, snap.Tick)
	assert.False(t, snap.Paused)
}

func TestWebSocket_DisconnectUnregisters(t *testing.T) {
	_, hub, srv := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	var msg wireMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, 1, hub.Len())

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()
	assert.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	hub := NewHub(nil)
	hub.Broadcast(Message{Type: TypeSnapshot, Data: map[string]int{"tick": 1}})
	assert.Equal(t, 0, hub.Len())
}
