package wcscreen

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gm-tui/app"
	"gm-tui/events"
	"gm-tui/styles"
	wc "gm-tui/walletconnect"
)

func testState() *app.SharedState {
	return &app.SharedState{
		Theme: styles.Dark(),
		Bus:   events.NewBus(8),
		Sup:   events.NewSupervisor(),
	}
}

func TestSettleFailedStopsSessionTasks(t *testing.T) {
	ss := testState()
	defer ss.Sup.Shutdown()
	w := New(ss)

	stopped := false
	w.status = wc.StatusSettleDone
	w.stopTasks = func() { stopped = true }

	w.Update(events.WcError{Err: errors.New("relay fetch: 500")}, ss)
	w.Update(events.WcStatusChanged{Status: wc.StatusSettleFailed}, ss)

	if w.status != wc.StatusSettleFailed {
		t.Fatalf("status = %v, want settle failed", w.status)
	}
	if !stopped {
		t.Fatal("session tasks kept running after the session died")
	}
	if w.stopTasks != nil {
		t.Error("stop func must be cleared once called")
	}
	if w.errText == "" {
		t.Error("relay error not surfaced to the user")
	}
}

func TestEnqueueReportsDroppedResponses(t *testing.T) {
	ss := testState()
	defer ss.Sup.Shutdown()
	w := New(ss)
	w.sendQueue = make(chan outbound, 1)

	ping := &wc.Message{Topic: "t", ID: 1, Method: wc.MethodSessionPing}
	resp, err := ping.CreateResponse(true)
	if err != nil {
		t.Fatal(err)
	}
	w.enqueue(resp, wc.TagSessionPingResponse)
	w.enqueue(resp, wc.TagSessionPingResponse)

	got := make(chan tea.Msg, 1)
	go func() { got <- ss.Bus.Wait()() }()
	select {
	case msg := <-got:
		if _, ok := msg.(events.WcError); !ok {
			t.Fatalf("bus message = %T, want WcError", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("dropped response was not reported")
	}
}
