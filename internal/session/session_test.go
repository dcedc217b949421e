package session

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/liveclass/internal/dependencies/mocks"
	"github.com/mcoot/liveclass/internal/model"
	"github.com/mcoot/liveclass/internal/testutil"
)

type SessionSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	session *Session
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.session = New(DefaultConfig(), s.clock, s.clock, testutil.NopLogger())
}

func (s *SessionSuite) connect(id string) *testutil.FakeConn {
	conn := testutil.NewFakeConn(id)
	s.session.Connect(conn)
	return conn
}

func (s *SessionSuite) send(conn *testutil.FakeConn, event model.EventType, data any) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		s.Require().NoError(err)
		raw = b
	}
	s.session.Handle(conn.ID(), event, raw)
}

func (s *SessionSuite) join(id, name, email string, role model.Role) *testutil.FakeConn {
	conn := s.connect(id)
	s.send(conn, model.EventJoin, map[string]string{"name": name, "email": email, "role": string(role)})
	return conn
}

func decodeLast[T any](s *SessionSuite, conn *testutil.FakeConn, event model.EventType) T {
	var out T
	raw, ok := conn.Last(event)
	s.Require().True(ok, "expected %s on %s", event, conn.ID())
	s.Require().NoError(json.Unmarshal(raw, &out))
	return out
}

// Connect tests

func (s *SessionSuite) TestConnectGreetsWithConnectionID() {
	conn := s.connect("c1")

	payload := decodeLast[model.ConnectedPayload](s, conn, model.EventConnected)
	s.Equal(model.ConnectionID("c1"), payload.ConnectionID)
}

// Join tests

func (s *SessionSuite) TestJoinSendsExistingUsersIncludingSelf() {
	s.join("c1", "Alice", "alice@example.com", model.RolePresenter)
	bob := s.join("c2", "Bob", "", model.RoleParticipant)

	existing := decodeLast[model.ExistingUsersPayload](s, bob, model.EventExistingUsers)
	s.Equal(2, existing.Total)
	s.Len(existing.Users, 2)
	s.Equal("Alice", existing.Users[0].Name)
	s.Equal("Bob", existing.Users[1].Name)
}

func (s *SessionSuite) TestJoinBroadcastsUserJoinedToEveryone() {
	alice := s.join("c1", "Alice", "", model.RolePresenter)
	lurker := s.connect("c9")
	s.join("c2", "Bob", "", model.RoleParticipant)

	joined := decodeLast[model.RosterChangedPayload](s, alice, model.EventUserJoined)
	s.Equal("Bob", joined.Participant.Name)
	s.Equal(2, joined.Total)
	s.Equal(1, lurker.Count(model.EventUserJoined))
}

func (s *SessionSuite) TestRosterSizeTracksLiveConnections() {
	observer := s.join("obs", "Observer", "", model.RoleParticipant)
	s.join("c1", "One", "", model.RoleParticipant)
	s.join("c2", "Two", "", model.RoleParticipant)
	s.session.Disconnect("c1")
	s.join("c3", "Three", "", model.RoleParticipant)

	joined := decodeLast[model.RosterChangedPayload](s, observer, model.EventUserJoined)
	s.Equal(3, joined.Total)
	s.Equal(s.session.registry.Len(), joined.Total)
	s.Len(joined.Participants, 3)
}

func (s *SessionSuite) TestJoinDefaultsMalformedFields() {
	conn := s.connect("c1")
	s.session.Handle(conn.ID(), model.EventJoin, json.RawMessage(`{"name": 42, "email": ["x"], "role": "admin"}`))

	p, ok := s.session.registry.Get("c1")
	s.Require().True(ok)
	s.Equal(model.DefaultDisplayName, p.Name)
	s.Equal(model.IdentityKey(""), p.Identity)
	s.Equal(model.RoleParticipant, p.Role)
	s.Equal(0, conn.Count(model.EventNotice))
}

func (s *SessionSuite) TestJoinWithNonObjectDataStillJoins() {
	conn := s.connect("c1")
	s.session.Handle(conn.ID(), model.EventJoin, json.RawMessage(`"garbage"`))

	s.Equal(1, s.session.registry.Len())
	s.Equal(1, conn.Count(model.EventExistingUsers))
}

func (s *SessionSuite) TestJoinTellsParticipantAboutLiveBroadcaster() {
	presenter := s.join("p1", "Dr Rivera", "", model.RolePresenter)
	s.send(presenter, model.EventBecomeBroadcaster, nil)

	viewer := s.join("v1", "Viewer", "", model.RoleParticipant)
	ready := decodeLast[model.BroadcasterReadyPayload](s, viewer, model.EventBroadcasterReady)
	s.Equal(model.ConnectionID("p1"), ready.BroadcasterID)

	coPresenter := s.join("p2", "Assistant", "", model.RolePresenter)
	s.Equal(0, coPresenter.Count(model.EventBroadcasterReady))
}

func (s *SessionSuite) TestRejoinReplacesRecord() {
	conn := s.join("c1", "Alice", "alice@example.com", model.RoleParticipant)
	s.send(conn, model.EventJoin, map[string]string{"name": "Alice B", "email": "ab@example.com"})

	s.Equal(1, s.session.registry.Len())
	p, _ := s.session.registry.Get("c1")
	s.Equal("Alice B", p.Name)
	_, stillBound := s.session.index.Resolve("alice@example.com")
	s.False(stillBound)
	bound, ok := s.session.index.Resolve("ab@example.com")
	s.True(ok)
	s.Equal(model.ConnectionID("c1"), bound)
}

// Broadcaster tests

func (s *SessionSuite) TestClaimIsLastWriterWins() {
	a := s.join("a", "A", "", model.RolePresenter)
	b := s.join("b", "B", "", model.RolePresenter)
	viewer := s.join("v", "V", "", model.RoleParticipant)

	s.send(a, model.EventBecomeBroadcaster, nil)
	s.send(b, model.EventBecomeBroadcaster, nil)

	current, ok := s.session.slot.Current()
	s.True(ok)
	s.Equal(model.ConnectionID("b"), current)

	ready := decodeLast[model.BroadcasterReadyPayload](s, viewer, model.EventBroadcasterReady)
	s.Equal(model.ConnectionID("b"), ready.BroadcasterID)
	s.Equal(1, b.Count(model.EventBroadcasterReady), "b only hears a's claim")
	s.Equal(1, a.Count(model.EventBroadcasterReady), "a only hears b's claim")
	s.False(a.Closed())
}

func (s *SessionSuite) TestClaimWithoutJoinIsRefused() {
	conn := s.connect("c1")
	s.send(conn, model.EventBecomeBroadcaster, nil)

	_, ok := s.session.slot.Current()
	s.False(ok)
	notice := decodeLast[model.NoticePayload](s, conn, model.EventNotice)
	s.Equal(model.NoticeNotJoined, notice.Code)
}

func (s *SessionSuite) TestBroadcasterDisconnectNotifiesEveryone() {
	presenter := s.join("p", "Dr Rivera", "", model.RolePresenter)
	s.send(presenter, model.EventBecomeBroadcaster, nil)
	v1 := s.join("v1", "V1", "", model.RoleParticipant)
	v2 := s.join("v2", "V2", "", model.RoleParticipant)

	s.session.Disconnect("p")

	s.Equal(1, v1.Count(model.EventBroadcasterDisconnected))
	s.Equal(1, v2.Count(model.EventBroadcasterDisconnected))
	s.Equal(0, v1.Count(model.EventDisconnectPeer))
	_, ok := s.session.slot.Current()
	s.False(ok)
}

func (s *SessionSuite) TestViewerDisconnectNotifiesBroadcasterOnly() {
	presenter := s.join("p", "Dr Rivera", "", model.RolePresenter)
	s.send(presenter, model.EventBecomeBroadcaster, nil)
	s.join("v1", "V1", "", model.RoleParticipant)
	v2 := s.join("v2", "V2", "", model.RoleParticipant)

	s.session.Disconnect("v1")

	peer := decodeLast[model.DisconnectPeerPayload](s, presenter, model.EventDisconnectPeer)
	s.Equal(model.ConnectionID("v1"), peer.PeerID)
	s.Equal(0, v2.Count(model.EventDisconnectPeer))
	s.Equal(0, presenter.Count(model.EventBroadcasterDisconnected))

	left := decodeLast[model.RosterChangedPayload](s, v2, model.EventUserLeft)
	s.Equal("V1", left.Participant.Name)
	s.Require().NotNil(left.Participant.LeftAt)
	s.Equal(2, left.Total)
}

func (s *SessionSuite) TestUnjoinedDisconnectStillNotifiesBroadcaster() {
	presenter := s.join("p", "Dr Rivera", "", model.RolePresenter)
	s.send(presenter, model.EventBecomeBroadcaster, nil)
	s.connect("lurker")

	s.session.Disconnect("lurker")

	s.Equal(1, presenter.Count(model.EventDisconnectPeer))
	s.Equal(0, presenter.Count(model.EventUserLeft))
}

func (s *SessionSuite) TestDisconnectIsIdempotent() {
	observer := s.join("obs", "Observer", "", model.RoleParticipant)
	s.join("c1", "One", "", model.RoleParticipant)

	s.session.Disconnect("c1")
	s.session.Disconnect("c1")

	s.Equal(1, observer.Count(model.EventUserLeft))
}

// Watch tests

func (s *SessionSuite) TestWantToWatchWithoutBroadcaster() {
	viewer := s.join("v", "V", "", model.RoleParticipant)
	s.send(viewer, model.EventWantToWatch, nil)

	s.Equal(1, viewer.Count(model.EventNoBroadcaster))
}

func (s *SessionSuite) TestWantToWatchNotifiesBroadcaster() {
	presenter := s.join("p", "Dr Rivera", "", model.RolePresenter)
	s.send(presenter, model.EventBecomeBroadcaster, nil)
	viewer := s.join("v", "V", "", model.RoleParticipant)

	s.send(viewer, model.EventWantToWatch, nil)

	watcher := decodeLast[model.WatcherPayload](s, presenter, model.EventWatcher)
	s.Equal(model.ConnectionID("v"), watcher.ViewerID)

	s.send(presenter, model.EventWantToWatch, nil)
	s.Equal(1, presenter.Count(model.EventNoBroadcaster))
}

// Signaling tests

func (s *SessionSuite) TestOfferForwardsToLiteralTarget() {
	presenter := s.join("p", "Dr Rivera", "", model.RolePresenter)
	viewer := s.join("v", "V", "", model.RoleParticipant)

	s.session.Handle(presenter.ID(), model.EventOffer, json.RawMessage(`{"target":"v","payload":{"type":"offer","sdp":"v=0"}}`))

	relay := decodeLast[model.RelayPayload](s, viewer, model.EventOffer)
	s.Equal(model.ConnectionID("p"), relay.From)
	s.JSONEq(`{"type":"offer","sdp":"v=0"}`, string(relay.Payload))
}

func (s *SessionSuite) TestOfferToUnknownTargetIsSilentlyDropped() {
	presenter := s.join("p", "Dr Rivera", "", model.RolePresenter)

	s.session.Handle(presenter.ID(), model.EventOffer, json.RawMessage(`{"target":"gone","payload":{}}`))

	s.Equal(0, presenter.Count(model.EventNotice))
}

func (s *SessionSuite) TestOfferWithoutTargetIsRejected() {
	presenter := s.join("p", "Dr Rivera", "", model.RolePresenter)

	s.session.Handle(presenter.ID(), model.EventOffer, json.RawMessage(`{"payload":{}}`))

	notice := decodeLast[model.NoticePayload](s, presenter, model.EventNotice)
	s.Equal(model.NoticeInvalidMessage, notice.Code)
}

func (s *SessionSuite) TestSymbolicTargetDroppedWhenIdle() {
	viewer := s.join("v", "V", "", model.RoleParticipant)
	other := s.join("o", "O", "", model.RoleParticipant)

	s.session.Handle(viewer.ID(), model.EventPOffer, json.RawMessage(`{"target":"broadcaster","payload":{"sdp":"x"}}`))

	s.Equal(0, other.Count(model.EventPOffer))
	s.Equal(0, viewer.Count(model.EventPOffer))
	s.Equal(0, viewer.Count(model.EventNotice))
}

func (s *SessionSuite) TestSymbolicTargetResolvedAtForwardTime() {
	first := s.join("p1", "First", "", model.RolePresenter)
	second := s.join("p2", "Second", "", model.RolePresenter)
	viewer := s.join("v", "V", "", model.RoleParticipant)
	s.send(first, model.EventBecomeBroadcaster, nil)
	s.send(second, model.EventBecomeBroadcaster, nil)

	s.session.Handle(viewer.ID(), model.EventPCandidate, json.RawMessage(`{"target":"broadcaster","payload":{"candidate":"c"}}`))

	s.Equal(0, first.Count(model.EventPCandidate))
	relay := decodeLast[model.RelayPayload](s, second, model.EventPCandidate)
	s.Equal(model.ConnectionID("v"), relay.From)
	s.JSONEq(`{"candidate":"c"}`, string(relay.Payload))
}

func (s *SessionSuite) TestPAnswerToUsesLiteralParticipant() {
	presenter := s.join("p", "Dr Rivera", "", model.RolePresenter)
	viewer := s.join("v", "V", "", model.RoleParticipant)

	s.session.Handle(presenter.ID(), model.EventPAnswerTo, json.RawMessage(`{"participant_id":"v","payload":{"sdp":"answer"}}`))

	relay := decodeLast[model.RelayPayload](s, viewer, model.EventPAnswer)
	s.Equal(model.ConnectionID("p"), relay.From)
}

// Camera side channel tests

func (s *SessionSuite) TestCamRequestWithoutBroadcaster() {
	viewer := s.join("v", "V", "", model.RoleParticipant)
	s.send(viewer, model.EventCamRequest, nil)

	s.Equal(1, viewer.Count(model.EventNoBroadcaster))
}

func (s *SessionSuite) TestCameraRoundTrip() {
	presenter := s.join("p", "Dr Rivera", "", model.RolePresenter)
	s.send(presenter, model.EventBecomeBroadcaster, nil)
	viewer := s.join("v", "Viewer", "", model.RoleParticipant)

	s.send(viewer, model.EventCamRequest, nil)
	request := decodeLast[model.CamRequestPayload](s, presenter, model.EventCamRequest)
	s.Equal(model.ConnectionID("v"), request.ParticipantID)
	s.Equal("Viewer", request.Name)

	s.send(presenter, model.EventCamApproved, map[string]string{"participant_id": "v"})
	approved := decodeLast[model.CamDecisionPayload](s, viewer, model.EventCamApproved)
	s.Equal(model.ConnectionID("p"), approved.BroadcasterID)

	s.send(presenter, model.EventCamRejected, map[string]string{"participant_id": "v"})
	s.Equal(1, viewer.Count(model.EventCamRejected))

	s.send(presenter, model.EventCamStop, map[string]string{"participant_id": "v"})
	stopped := decodeLast[model.CamStoppedPayload](s, viewer, model.EventCamStopped)
	s.Equal(model.ConnectionID("p"), stopped.From)
}

// Chat tests

func (s *SessionSuite) TestChatBroadcastsWithTimestamp() {
	cfg := DefaultConfig()
	cfg.Location = time.FixedZone("CET", 60*60)
	s.session = New(cfg, s.clock, s.clock, testutil.NopLogger())

	alice := s.join("a", "Alice", "", model.RolePresenter)
	bob := s.join("b", "Bob", "", model.RoleParticipant)

	s.send(alice, model.EventChat, map[string]string{"message": "  hello  "})

	msg := decodeLast[model.NewMessagePayload](s, bob, model.EventNewMessage)
	s.Equal("Alice", msg.Name)
	s.Equal(model.RolePresenter, msg.Role)
	s.Equal("hello", msg.Message)
	s.Equal("13:00:00", msg.Timestamp)
	s.Equal(1, alice.Count(model.EventNewMessage))
}

func (s *SessionSuite) TestChatWithin100msIsRateLimited() {
	alice := s.join("a", "Alice", "", model.RoleParticipant)
	bob := s.join("b", "Bob", "", model.RoleParticipant)

	s.send(alice, model.EventChat, map[string]string{"message": "one"})
	s.clock.Advance(100 * time.Millisecond)
	s.send(alice, model.EventChat, map[string]string{"message": "two"})

	s.Equal(1, bob.Count(model.EventNewMessage))
	s.Equal(0, bob.Count(model.EventRateLimited))
	limited := decodeLast[model.RateLimitedPayload](s, alice, model.EventRateLimited)
	s.Equal(int64(400), limited.RetryAfterMS)
}

func (s *SessionSuite) TestChatAfter600msIsAccepted() {
	alice := s.join("a", "Alice", "", model.RoleParticipant)
	bob := s.join("b", "Bob", "", model.RoleParticipant)

	s.send(alice, model.EventChat, map[string]string{"message": "one"})
	s.clock.Advance(600 * time.Millisecond)
	s.send(alice, model.EventChat, map[string]string{"message": "two"})

	s.Equal(2, bob.Count(model.EventNewMessage))
	s.Equal(0, alice.Count(model.EventRateLimited))
}

func (s *SessionSuite) TestChatTruncatesLongMessages() {
	alice := s.join("a", "Alice", "", model.RoleParticipant)

	s.send(alice, model.EventChat, map[string]string{"message": strings.Repeat("é", model.MaxChatMessageLength+50)})

	msg := decodeLast[model.NewMessagePayload](s, alice, model.EventNewMessage)
	s.Equal(model.MaxChatMessageLength, len([]rune(msg.Message)))
}

func (s *SessionSuite) TestChatRejectsMalformedMessage() {
	alice := s.join("a", "Alice", "", model.RoleParticipant)

	s.session.Handle(alice.ID(), model.EventChat, json.RawMessage(`{"message": 7}`))
	s.send(alice, model.EventChat, map[string]string{"message": "   "})

	s.Equal(0, alice.Count(model.EventNewMessage))
	s.Equal(2, alice.Count(model.EventNotice))
}

func (s *SessionSuite) TestChatBeforeJoinIsRefused() {
	conn := s.connect("c1")
	s.send(conn, model.EventChat, map[string]string{"message": "hi"})

	notice := decodeLast[model.NoticePayload](s, conn, model.EventNotice)
	s.Equal(model.NoticeNotJoined, notice.Code)
	s.Equal(0, conn.Count(model.EventNewMessage))
}

func (s *SessionSuite) TestRaiseHandBroadcasts() {
	alice := s.join("a", "Alice", "", model.RoleParticipant)
	bob := s.join("b", "Bob", "", model.RoleParticipant)

	s.send(alice, model.EventRaiseHand, nil)

	raised := decodeLast[model.HandRaisedPayload](s, bob, model.EventHandRaised)
	s.Equal("Alice", raised.Name)
	s.Equal("12:00:00", raised.Timestamp)
}

func (s *SessionSuite) TestDisconnectForgetsRateLimiterEntry() {
	alice := s.join("a", "Alice", "", model.RoleParticipant)
	s.send(alice, model.EventChat, map[string]string{"message": "hi"})
	s.Equal(1, s.session.limiter.Len())

	s.session.Disconnect("a")

	s.Equal(0, s.session.limiter.Len())
}

// Duplicate identity tests

func (s *SessionSuite) TestDuplicateIdentitySupersedesOldConnection() {
	old := s.join("old", "Alice", "alice@example.com", model.RoleParticipant)
	fresh := s.join("new", "Alice", "  Alice@Example.com ", model.RoleParticipant)

	kicked := decodeLast[model.ForceKickedPayload](s, old, model.EventForceKicked)
	s.Equal(model.KickReasonSuperseded, kicked.Reason)
	s.Equal(0, fresh.Count(model.EventForceKicked))

	s.clock.Advance(999 * time.Millisecond)
	s.False(old.Closed())

	s.clock.Advance(time.Millisecond)
	s.True(old.Closed())

	bound, ok := s.session.index.Resolve("alice@example.com")
	s.True(ok)
	s.Equal(model.ConnectionID("new"), bound)
	s.Equal(1, s.session.registry.Len())
	s.Equal(1, fresh.Count(model.EventUserLeft))
}

func (s *SessionSuite) TestSupersededConnectionLeavingEarlyKeepsNewBinding() {
	s.join("old", "Alice", "alice@example.com", model.RoleParticipant)
	s.join("new", "Alice", "alice@example.com", model.RoleParticipant)

	s.session.Disconnect("old")

	bound, ok := s.session.index.Resolve("alice@example.com")
	s.True(ok)
	s.Equal(model.ConnectionID("new"), bound)
	s.Equal(0, s.clock.PendingTimers())
}

func (s *SessionSuite) TestSupersededConnectionCannotRejoinDuringGrace() {
	old := s.join("old", "Alice", "alice@example.com", model.RoleParticipant)
	fresh := s.join("new", "Alice", "alice@example.com", model.RoleParticipant)

	s.send(old, model.EventJoin, map[string]string{"name": "Alice", "email": "alice@example.com"})

	notice := decodeLast[model.NoticePayload](s, old, model.EventNotice)
	s.Equal(model.NoticeInvalidMessage, notice.Code)
	s.Equal(0, fresh.Count(model.EventForceKicked))

	s.clock.Advance(2 * time.Second)

	s.True(old.Closed())
	s.False(fresh.Closed())
	bound, ok := s.session.index.Resolve("alice@example.com")
	s.True(ok)
	s.Equal(model.ConnectionID("new"), bound)
	s.Equal(1, s.session.registry.Len())
}

func (s *SessionSuite) TestEvictedConnectionCannotRejoinDuringGrace() {
	alice := s.join("a", "Alice", "alice@example.com", model.RoleParticipant)
	s.True(s.session.ForceEvict("alice@example.com").Evicted)

	s.send(alice, model.EventJoin, map[string]string{"name": "Alice", "email": "alice@example.com"})
	s.Equal(1, alice.Count(model.EventNotice))

	s.clock.Advance(2 * time.Second)
	s.True(alice.Closed())
	s.Equal(0, s.session.registry.Len())
	s.Equal(0, s.session.index.Len())
}

func (s *SessionSuite) TestJoinWithoutIdentityNeverSupersedes() {
	first := s.join("c1", "Anon", "", model.RoleParticipant)
	s.join("c2", "Anon", "", model.RoleParticipant)

	s.Equal(0, first.Count(model.EventForceKicked))
	s.Equal(0, s.session.index.Len())
}

// Eviction tests

func (s *SessionSuite) TestForceEvictUnknownIdentityIsNoop() {
	alice := s.join("a", "Alice", "alice@example.com", model.RoleParticipant)

	outcome := s.session.ForceEvict("nobody@example.com")

	s.False(outcome.Evicted)
	s.Equal(0, alice.Count(model.EventForceKicked))
	s.Equal(0, s.clock.PendingTimers())
}

func (s *SessionSuite) TestForceEvictKicksThenCloses() {
	alice := s.join("a", "Alice", "alice@example.com", model.RoleParticipant)
	bob := s.join("b", "Bob", "", model.RoleParticipant)

	outcome := s.session.ForceEvict("alice@example.com")

	s.True(outcome.Evicted)
	s.Equal(model.ConnectionID("a"), outcome.ConnectionID)
	s.Equal(1, alice.Count(model.EventForceKicked))
	kicked := decodeLast[model.ForceKickedPayload](s, alice, model.EventForceKicked)
	s.Equal(model.KickReasonEvicted, kicked.Reason)

	s.clock.Advance(1999 * time.Millisecond)
	s.False(alice.Closed())
	s.clock.Advance(time.Millisecond)
	s.True(alice.Closed())

	s.Equal(1, bob.Count(model.EventUserLeft))
	_, ok := s.session.index.Resolve("alice@example.com")
	s.False(ok)
}

func (s *SessionSuite) TestForceEvictAfterVoluntaryLeaveIsHarmless() {
	alice := s.join("a", "Alice", "alice@example.com", model.RoleParticipant)
	s.session.ForceEvict("alice@example.com")

	s.session.Disconnect("a")
	s.clock.Advance(5 * time.Second)

	s.False(alice.Closed())
	s.Equal(0, s.session.registry.Len())
}

// Error handling tests

func (s *SessionSuite) TestUnknownEventGetsNotice() {
	conn := s.connect("c1")
	s.session.HandleFrame(conn.ID(), []byte(`{"event":"dance","data":{}}`))

	notice := decodeLast[model.NoticePayload](s, conn, model.EventNotice)
	s.Equal(model.NoticeInvalidMessage, notice.Code)
}

func (s *SessionSuite) TestMalformedFrameGetsNotice() {
	conn := s.connect("c1")
	s.session.HandleFrame(conn.ID(), []byte(`not json`))
	s.session.HandleFrame(conn.ID(), []byte(`{"data":{}}`))

	s.Equal(2, conn.Count(model.EventNotice))
}

func (s *SessionSuite) TestFullBufferDropsWithoutAffectingOthers() {
	slow := s.join("slow", "Slow", "", model.RoleParticipant)
	fast := s.join("fast", "Fast", "", model.RoleParticipant)
	slow.SetFull(true)

	s.send(fast, model.EventRaiseHand, nil)

	s.Equal(1, fast.Count(model.EventHandRaised))
	s.Equal(0, slow.Count(model.EventHandRaised))
}

// Snapshot tests

func (s *SessionSuite) TestSnapshot() {
	presenter := s.join("p", "Dr Rivera", "t@example.com", model.RolePresenter)
	s.send(presenter, model.EventBecomeBroadcaster, nil)
	s.join("v", "Viewer", "", model.RoleParticipant)
	s.connect("lurker")

	snap := s.session.Snapshot()

	s.Equal(2, snap.Total)
	s.Equal(3, snap.Connections)
	s.Equal(1, snap.Identities)
	s.Equal(model.ConnectionID("p"), snap.BroadcasterID)
}

func (s *SessionSuite) TestCloseAllClosesEveryTransport() {
	a := s.join("a", "A", "a@example.com", model.RoleParticipant)
	b := s.connect("b")
	s.session.ForceEvict("a@example.com")

	s.Equal(2, s.session.CloseAll())

	s.True(a.Closed())
	s.True(b.Closed())
	s.Equal(0, s.clock.PendingTimers())
}
