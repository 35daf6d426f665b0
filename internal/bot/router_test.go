package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/auth"
	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/cache"
	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/catalog"
	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/notify"
	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/onboard"
)

type sentMessage struct {
	chatID int64
	msg    notify.Message
}

type editCall struct {
	chatID    int64
	messageID int
	text      string
	kb        notify.Keyboard
}

type answerCall struct {
	callbackID string
	text       string
	alert      bool
}

// fakeTransport records every outbound operation.
type fakeTransport struct {
	sent          []sentMessage
	edits         []editCall
	keyboardEdits []editCall
	answers       []answerCall
}

func (f *fakeTransport) Send(ctx context.Context, chatID int64, msg notify.Message) error {
	f.sent = append(f.sent, sentMessage{chatID: chatID, msg: msg})
	return nil
}

func (f *fakeTransport) Edit(ctx context.Context, chatID int64, messageID int, text string, kb notify.Keyboard) error {
	f.edits = append(f.edits, editCall{chatID: chatID, messageID: messageID, text: text, kb: kb})
	return nil
}

func (f *fakeTransport) EditKeyboard(ctx context.Context, chatID int64, messageID int, kb notify.Keyboard) error {
	f.keyboardEdits = append(f.keyboardEdits, editCall{chatID: chatID, messageID: messageID, kb: kb})
	return nil
}

func (f *fakeTransport) AnswerCallback(ctx context.Context, callbackID string, text string, alert bool) error {
	f.answers = append(f.answers, answerCall{callbackID: callbackID, text: text, alert: alert})
	return nil
}

func (f *fakeTransport) lastAnswer(t *testing.T) answerCall {
	t.Helper()
	require.NotEmpty(t, f.answers)
	return f.answers[len(f.answers)-1]
}

type stubAutoUpdate struct {
	armed bool
}

func (s *stubAutoUpdate) Armed() bool  { return s.armed }
func (s *stubAutoUpdate) Toggle() bool { s.armed = !s.armed; return s.armed }

// testHarness wires a router against httptest downstreams and a fake
// transport. Operator id 100 is privileged; 555 is not.
type testHarness struct {
	router    *Router
	transport *fakeTransport
	cache     *cache.BatchCache
	auto      *stubAutoUpdate

	registerCalls atomic.Int32
	publishCalls  atomic.Int32
}

const (
	operatorID = int64(100)
	visitorID  = int64(555)
	chatID     = int64(9000)
	messageID  = 77
)

var (
	operator = Identity{ID: operatorID, FirstName: "Op", Username: "op"}
	visitor  = Identity{ID: visitorID, FirstName: "Vis"}
)

func newHarness(t *testing.T, registerStatus, publishStatus int) *testHarness {
	t.Helper()

	h := &testHarness{
		transport: &fakeTransport{},
		cache:     cache.NewBatchCache(),
		auto:      &stubAutoUpdate{},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/goals":
			_, _ = io.WriteString(w, goalsFixtureJSON(25))
		case "/batches":
			_, _ = io.WriteString(w, firstBatchPageFixtureJSON())
		case "/update-batch":
			h.registerCalls.Add(1)
			w.WriteHeader(registerStatus)
		case "/add":
			h.publishCalls.Add(1)
			w.WriteHeader(publishStatus)
		case "/status":
			_, _ = io.WriteString(w, `{"batches":[{"batch_id":"B1"},{"batch_id":"B2"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	gateway := catalog.NewGateway(server.URL+"/goals", server.URL+"/batches", time.Second)
	pipeline := onboard.NewPipeline(server.URL+"/update-batch", server.URL+"/add", server.URL+"/status", time.Second, time.Millisecond)
	gate := auth.NewGate([]int64{operatorID})
	notifier := notify.NewBroadcaster(h.transport, gate.Operators())

	h.router = NewRouter(gateway, h.cache, gate, pipeline, h.auto, notifier, h.transport)
	return h
}

func goalsFixtureJSON(n int) string {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"uid":"G%d","name":"Goal %d"}`, i, i)
	}
	sb.WriteString("]")
	return sb.String()
}

func firstBatchPageFixtureJSON() string {
	return `{
  "results": [
    {
      "uid": "B1",
      "name": "Target 2027",
      "goal": {"uid": "G0", "name": "Goal 0"},
      "starts_at": "2027-01-05T09:00:00Z",
      "languages": [{"label": "Hindi"}],
      "permalink": "https://example.com/batch/b1",
      "cover_photo": "https://example.com/b1.jpg"
    },
    {
      "uid": "B2",
      "name": "Foundation",
      "goal": {"uid": "G0", "name": "Goal 0"},
      "starts_at": "2027-02-01T04:30:00Z",
      "languages": [{"label": "English"}],
      "permalink": "https://example.com/batch/b2"
    }
  ],
  "previous": null,
  "next": "https://upstream/api?offset=10"
}`
}

func TestStartMenuForVisitor(t *testing.T) {
	h := newHarness(t, http.StatusOK, http.StatusOK)

	h.router.HandleCommand(context.Background(), visitor, chatID, "start", "")

	require.Len(t, h.transport.sent, 1)
	kb := h.transport.sent[0].msg.Keyboard
	require.Len(t, kb, 1)
	assert.Equal(t, "show_goals_0", kb[0][0].Data)
}

func TestStartMenuForOperator(t *testing.T) {
	h := newHarness(t, http.StatusOK, http.StatusOK)

	h.router.HandleCommand(context.Background(), operator, chatID, "start", "")

	require.Len(t, h.transport.sent, 1)
	kb := h.transport.sent[0].msg.Keyboard
	require.Len(t, kb, 2)
	assert.Equal(t, "batches_update_menu", kb[1][0].Data)
}

func TestGoalsFirstPageOfTwentyFive(t *testing.T) {
	h := newHarness(t, http.StatusOK, http.StatusOK)

	h.router.HandleCallback(context.Background(), visitor, chatID, messageID, "cb1", "show_goals_0")

	require.Len(t, h.transport.keyboardEdits, 1)
	kb := h.transport.keyboardEdits[0].kb
	// Ten goal rows plus a navigation row with only Next.
	require.Len(t, kb, 11)
	require.Len(t, kb[10], 1)
	assert.Equal(t, "goals_1", kb[10][0].Data)
	assert.Equal(t, "goal_G0_0", kb[0][0].Data)
}

func TestGoalsLastPageHasOnlyPrevious(t *testing.T) {
	h := newHarness(t, http.StatusOK, http.StatusOK)

	h.router.HandleCallback(context.Background(), visitor, chatID, messageID, "cb1", "goals_2")

	require.Len(t, h.transport.keyboardEdits, 1)
	kb := h.transport.keyboardEdits[0].kb
	// 25 goals: page 2 holds five rows plus navigation.
	require.Len(t, kb, 6)
	require.Len(t, kb[5], 1)
	assert.Equal(t, "goals_1", kb[5][0].Data)
}

func TestBatchesPageCachesAndRendersNav(t *testing.T) {
	h := newHarness(t, http.StatusOK, http.StatusOK)

	h.router.HandleCallback(context.Background(), visitor, chatID, messageID, "cb1", "goal_G0_0")

	require.Len(t, h.transport.edits, 1)
	edit := h.transport.edits[0]
	// Two batch rows; previous=null so the nav row holds only Next.
	require.Len(t, edit.kb, 3)
	require.Len(t, edit.kb[2], 1)
	assert.Equal(t, "goal_G0_10", edit.kb[2][0].Data)

	// Both results were cached before rendering.
	_, ok := h.cache.Get("B1")
	assert.True(t, ok)
	_, ok = h.cache.Get("B2")
	assert.True(t, ok)
}

func TestBatchDetailFromCache(t *testing.T) {
	h := newHarness(t, http.StatusOK, http.StatusOK)

	h.router.HandleCallback(context.Background(), visitor, chatID, messageID, "cb1", "goal_G0_0")
	h.router.HandleCallback(context.Background(), visitor, chatID, messageID, "cb2", "batch_B1")

	require.Len(t, h.transport.sent, 1)
	sent := h.transport.sent[0]
	assert.Equal(t, "https://example.com/b1.jpg", sent.msg.PhotoURL)
	assert.Contains(t, sent.msg.Text, "Target 2027")
	assert.Contains(t, sent.msg.Text, "IST")
	// Visitors get the request control but no direct add.
	require.Len(t, sent.msg.Keyboard, 1)
	assert.Equal(t, "req_B1", sent.msg.Keyboard[0][0].Data)
}

func TestBatchDetailCacheMiss(t *testing.T) {
	h := newHarness(t, http.StatusOK, http.StatusOK)

	h.router.HandleCallback(context.Background(), visitor, chatID, messageID, "cb1", "batch_NOPE")

	assert.Empty(t, h.transport.sent)
	answer := h.transport.lastAnswer(t)
	assert.True(t, answer.alert)
	assert.Contains(t, answer.text, "select again")
}

func TestAddCommandPartialFailureNamesPublishStage(t *testing.T) {
	h := newHarness(t, http.StatusOK, http.StatusNotFound)

	h.router.HandleCommand(context.Background(), operator, chatID, "add", "BX")

	require.Len(t, h.transport.sent, 1)
	assert.Contains(t, h.transport.sent[0].msg.Text, "publish")
	assert.Equal(t, int32(1), h.registerCalls.Load())
	assert.Equal(t, int32(1), h.publishCalls.Load())
}

func TestAddCommandSuccessBroadcasts(t *testing.T) {
	h := newHarness(t, http.StatusOK, http.StatusOK)

	h.router.HandleCommand(context.Background(), operator, chatID, "add", "BX")

	// Reply to the operator chat plus the confirmation fan-out.
	require.Len(t, h.transport.sent, 2)
	assert.Equal(t, chatID, h.transport.sent[0].chatID)
	assert.Contains(t, h.transport.sent[0].msg.Text, "successfully added")
	assert.Equal(t, operatorID, h.transport.sent[1].chatID)
	assert.Contains(t, h.transport.sent[1].msg.Text, "BX")
}

func TestAddCommandUnauthorized(t *testing.T) {
	h := newHarness(t, http.StatusOK, http.StatusOK)

	h.router.HandleCommand(context.Background(), visitor, chatID, "add", "BX")

	require.Len(t, h.transport.sent, 1)
	assert.Contains(t, h.transport.sent[0].msg.Text, "not authorized")
	assert.Equal(t, int32(0), h.registerCalls.Load())
}

func TestAddCommandMissingArgument(t *testing.T) {
	h := newHarness(t, http.StatusOK, http.StatusOK)

	h.router.HandleCommand(context.Background(), operator, chatID, "add", "")

	require.Len(t, h.transport.sent, 1)
	assert.Contains(t, h.transport.sent[0].msg.Text, "Usage")
	assert.Equal(t, int32(0), h.registerCalls.Load())
}

func TestRequestFansOutWithoutOnboarding(t *testing.T) {
	h := newHarness(t, http.StatusOK, http.StatusOK)

	h.router.HandleCallback(context.Background(), visitor, chatID, messageID, "cb1", "goal_G0_0")
	h.router.HandleCallback(context.Background(), visitor, chatID, messageID, "cb2", "req_B1")

	require.Len(t, h.transport.sent, 1)
	fanout := h.transport.sent[0]
	assert.Equal(t, operatorID, fanout.chatID)
	require.Len(t, fanout.msg.Keyboard, 2)
	assert.Equal(t, "copy_B1", fanout.msg.Keyboard[0][0].Data)
	assert.Equal(t, "add_B1", fanout.msg.Keyboard[1][0].Data)

	// The request path must never touch the onboarding endpoints.
	assert.Equal(t, int32(0), h.registerCalls.Load())
	assert.Equal(t, int32(0), h.publishCalls.Load())

	answer := h.transport.lastAnswer(t)
	assert.True(t, answer.alert)
	assert.Contains(t, answer.text, "Request sent")
}

func TestRequestUnknownBatchFallsBackToUID(t *testing.T) {
	h := newHarness(t, http.StatusOK, http.StatusOK)

	h.router.HandleCallback(context.Background(), visitor, chatID, messageID, "cb1", "req_GHOST")

	require.Len(t, h.transport.sent, 1)
	assert.Contains(t, h.transport.sent[0].msg.Text, "GHOST")
	assert.Empty(t, h.transport.sent[0].msg.PhotoURL)
}

func TestAddCallbackUnauthorized(t *testing.T) {
	h := newHarness(t, http.StatusOK, http.StatusOK)

	h.router.HandleCallback(context.Background(), visitor, chatID, messageID, "cb1", "add_B1")

	answer := h.transport.lastAnswer(t)
	assert.True(t, answer.alert)
	assert.Contains(t, answer.text, "not authorized")
	assert.Equal(t, int32(0), h.registerCalls.Load())
}

func TestUpdateMenuGated(t *testing.T) {
	h := newHarness(t, http.StatusOK, http.StatusOK)

	h.router.HandleCallback(context.Background(), visitor, chatID, messageID, "cb1", "batches_update_menu")
	assert.Empty(t, h.transport.edits)

	h.router.HandleCallback(context.Background(), operator, chatID, messageID, "cb2", "batches_update_menu")
	require.Len(t, h.transport.edits, 1)
	assert.Contains(t, h.transport.edits[0].text, "Batches Update Menu")
}

func TestToggleAutoUpdateRoundTrip(t *testing.T) {
	h := newHarness(t, http.StatusOK, http.StatusOK)

	h.router.HandleCallback(context.Background(), operator, chatID, messageID, "cb1", "toggle_auto_update")
	assert.True(t, h.auto.armed)
	assert.Equal(t, "Auto update enabled", h.transport.lastAnswer(t).text)

	h.router.HandleCallback(context.Background(), operator, chatID, messageID, "cb2", "toggle_auto_update")
	assert.False(t, h.auto.armed)
	assert.Equal(t, "Auto update disabled", h.transport.lastAnswer(t).text)
}

func TestManualUpdateSweeps(t *testing.T) {
	h := newHarness(t, http.StatusOK, http.StatusOK)

	h.router.HandleCallback(context.Background(), operator, chatID, messageID, "cb1", "manual_update")

	require.Len(t, h.transport.edits, 2)
	assert.Contains(t, h.transport.edits[0].text, "Starting manual")
	assert.Contains(t, h.transport.edits[1].text, "updated 2 batches")
	assert.Equal(t, int32(2), h.registerCalls.Load())
}

func TestMalformedTokenAnswersRetry(t *testing.T) {
	h := newHarness(t, http.StatusOK, http.StatusOK)

	h.router.HandleCallback(context.Background(), visitor, chatID, messageID, "cb1", "goal_G0_nonsense")

	answer := h.transport.lastAnswer(t)
	assert.True(t, answer.alert)
	assert.Contains(t, answer.text, "try again")
	assert.Empty(t, h.transport.edits)
}
