package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"icu-monitor/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const twoPatients = `[
 {"patient_id":"1","name":"John Doe","room":"101-A","vitals":{"HR":{"value":"130.0","status":"critical"}},
  "alarms":[{"patient_id":"1","vital":"HR","level":"CRITICAL","value":"130.0"},
            {"patient_id":"1","vital":"AI Risk Score","level":"CRITICAL","value":"82%"}],
  "ai_prediction":{"risk_score_percent":82.1,"is_at_risk":true}},
 {"patient_id":"2","name":"Jane Smith","room":"102-A","vitals":{},
  "alarms":[{"patient_id":"2","vital":"SpO₂","level":"CRITICAL","value":"88.0"}],
  "ai_prediction":null}
]`

func newTestFeed() *Feed {
	f := New(Options{Logger: zap.NewNop()})
	f.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return f
}

func TestApply_DerivesAlarms(t *testing.T) {
	f := newTestFeed()
	require.NoError(t, f.Apply([]byte(twoPatients)))

	assert.Len(t, f.Roster(), 2)
	alarms := f.Alarms()
	require.Len(t, alarms, 3)
	assert.Equal(t, "1-HR-1700000000000", alarms[0].ID)
	assert.Equal(t, "HR CRITICAL - Value: 130.0", alarms[0].Message)
	assert.Equal(t, "John Doe", alarms[0].PatientName)
	assert.Equal(t, "101-A", alarms[0].Room)
	assert.Equal(t, "2-SpO₂-1700000000000", alarms[2].ID)
}

func TestAcknowledge_RemovesExactlyOne(t *testing.T) {
	f := newTestFeed()
	require.NoError(t, f.Apply([]byte(twoPatients)))

	assert.True(t, f.Acknowledge("1-HR-1700000000000"))
	alarms := f.Alarms()
	require.Len(t, alarms, 2)
	for _, a := range alarms {
		assert.NotEqual(t, "1-HR-1700000000000", a.ID)
	}
	assert.False(t, f.Acknowledge("missing"))
	assert.Len(t, f.Alarms(), 2)
}

func TestApply_MalformedKeepsState(t *testing.T) {
	f := newTestFeed()
	require.NoError(t, f.Apply([]byte(twoPatients)))

	assert.Error(t, f.Apply([]byte(`{"not":"an array"`)))
	assert.Len(t, f.Roster(), 2)
	assert.Len(t, f.Alarms(), 3)
}

func TestApply_ReplacesWithShorterRoster(t *testing.T) {
	f := newTestFeed()
	require.NoError(t, f.Apply([]byte(twoPatients)))

	calls := 0
	f.OnUpdate(func() { calls++ })
	require.NoError(t, f.Apply([]byte(`[{"patient_id":"9","name":"Solo","room":"109-A","vitals":{},"alarms":[]}]`)))
	roster := f.Roster()
	require.Len(t, roster, 1)
	assert.Equal(t, "9", roster[0].PatientID)
	assert.Empty(t, f.Alarms())
	assert.Equal(t, 1, calls)
}

func TestFilterByRole(t *testing.T) {
	roster := []models.RosterPatient{{PatientID: "1"}, {PatientID: "2"}}
	role := func(s string) *string { return &s }

	tests := []struct {
		name string
		role *string
		want int
	}{
		{"admin", role("admin"), 2},
		{"doctor", role("doctor"), 2},
		{"nurse", role("nurse"), 2},
		{"unknown", role("janitor"), 0},
		{"empty", role(""), 0},
		{"no role", nil, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, FilterByRole(tt.role, roster), tt.want)
		})
	}
}

func TestFeed_RoleAppliedToRoster(t *testing.T) {
	f := newTestFeed()
	require.NoError(t, f.Apply([]byte(twoPatients)))
	require.Len(t, f.Alarms(), 3)

	unknown := "visitor"
	f.SetRole(&unknown)
	assert.Empty(t, f.Roster())
	assert.Empty(t, f.Alarms())

	nurse := "nurse"
	f.SetRole(&nurse)
	assert.Len(t, f.Roster(), 2)
	assert.Len(t, f.Alarms(), 3)
}

func TestApply_UnknownRoleGetsNoAlarms(t *testing.T) {
	f := newTestFeed()
	janitor := "janitor"
	f.SetRole(&janitor)

	require.NoError(t, f.Apply([]byte(twoPatients)))
	assert.Empty(t, f.Roster())
	assert.Empty(t, f.Alarms())
}

// rosterServer 连接后推送 frames，然后保持读取直到客户端断开
func rosterServer(t *testing.T, frames ...string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, fr := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(fr)); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestFeed_StartReceivesAndClose(t *testing.T) {
	srv := rosterServer(t, "garbage", twoPatients)
	defer srv.Close()

	f := New(Options{URL: wsURL(srv), Logger: zap.NewNop()})
	updated := make(chan struct{}, 1)
	f.OnUpdate(func() {
		select {
		case updated <- struct{}{}:
		default:
		}
	})
	require.NoError(t, f.Start(context.Background()))

	select {
	case <-updated:
	case <-time.After(2 * time.Second):
		t.Fatal("no roster received")
	}
	assert.True(t, f.Connected())
	assert.Len(t, f.Roster(), 2)

	require.NoError(t, f.Close())
	assert.False(t, f.Connected())
}

func TestFeed_StartFailsWithoutReconnect(t *testing.T) {
	f := New(Options{URL: "ws://127.0.0.1:1/ws", Logger: zap.NewNop()})
	assert.Error(t, f.Start(context.Background()))
	assert.False(t, f.Connected())
	assert.NoError(t, f.Close())
}

func TestFeed_ServerCloseWithoutReconnect(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte("[]"))
		_ = conn.Close()
	}))
	defer srv.Close()

	f := New(Options{URL: wsURL(srv), Logger: zap.NewNop()})
	require.NoError(t, f.Start(context.Background()))
	select {
	case <-f.done:
	case <-time.After(2 * time.Second):
		t.Fatal("read loop did not end")
	}
	assert.False(t, f.Connected())
	require.NoError(t, f.Close())
}

func TestFeed_ReconnectCloseStopsRetry(t *testing.T) {
	f := New(Options{URL: "ws://127.0.0.1:1/ws", Reconnect: true, Logger: zap.NewNop()})
	require.NoError(t, f.Start(context.Background()))
	assert.False(t, f.Connected())
	require.NoError(t, f.Close())
}
