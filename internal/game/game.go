// Package game implements the gameplay backend: authentication, rooms,
// chat, and vitals actions, wired to the dispatcher one handler per tag.
package game

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"voxeld/internal/core"
	"voxeld/internal/core/auth"
	"voxeld/internal/core/bytes"
	"voxeld/internal/dispatch"
	"voxeld/internal/packets"
	"voxeld/internal/room"
	"voxeld/internal/session"
	"voxeld/internal/vitals"
)

// Server is the gameplay backend. Clients authenticate against the accounts
// table, land in the lobby, and from there move between rooms and act on
// their vitals. All of its handlers run under the dispatcher's containment,
// so a returned error is logged and dropped rather than tearing down the
// connection.
type Server struct {
	Name   string
	Config *core.Config
	Logger *logrus.Logger

	DB       *gorm.DB
	Sessions *session.Registry
	Rooms    *room.Manager
	Vitals   *vitals.Engine
}

func (s *Server) Identifier() string {
	return s.Name
}

// Init creates the rooms declared in the config on top of the permanent
// lobby. A declared room that fails validation is a startup error, not a
// warning; a config typo should not silently vanish a room. Init may run
// once per frontend sharing this backend, so rooms that already exist are
// left alone.
func (s *Server) Init(_ context.Context) error {
	for _, rc := range s.Config.Rooms {
		if s.Rooms.GetRoom(rc.ID) != nil {
			continue
		}
		if !s.Rooms.CreateRoom(rc.ID, rc.World, rc.DisplayName, rc.Capacity, false) {
			return fmt.Errorf("error creating configured room %q", rc.ID)
		}
	}
	return nil
}

// Handshake sends the initial ping so the client knows the server is ready
// for its login.
func (s *Server) Handshake(c *session.Session) error {
	return c.Send(packets.PingType, &packets.Ping{})
}

func (s *Server) RegisterHandlers(d *dispatch.Dispatcher) {
	d.Register(packets.LoginType, s.handleLogin)
	d.Register(packets.DisconnectType, s.handleDisconnect)
	d.Register(packets.PingType, s.handlePing)

	d.Register(packets.ChatSendType, s.requireAuth(s.handleChatSend))
	d.Register(packets.RoomListRequestType, s.requireAuth(s.handleRoomListRequest))
	d.Register(packets.RoomJoinType, s.requireAuth(s.handleRoomJoin))
	d.Register(packets.RoomLeaveType, s.requireAuth(s.handleRoomLeave))

	d.Register(packets.VitalsRequestType, s.requireAuth(s.handleVitalsRequest))
	d.Register(packets.DamageRequestType, s.requireAuth(s.handleDamageRequest))
	d.Register(packets.HealRequestType, s.requireAuth(s.handleHealRequest))
	d.Register(packets.FeedRequestType, s.requireAuth(s.handleFeedRequest))
	d.Register(packets.RespawnRequestType, s.requireAuth(s.handleRespawnRequest))

	d.RegisterFallback(s.handleExtension)
}

// OnDisconnect releases the session's identity-keyed state. A session
// displaced by a newer login for the same identity is deliberately left
// alone: the registry refuses the stale removal and the room membership now
// belongs to the replacement.
func (s *Server) OnDisconnect(c *session.Session) {
	identity := c.Identity()
	if identity == "" {
		return
	}
	if !s.Sessions.Remove(c) {
		return
	}

	if roomID, ok := s.Rooms.GetPlayerRoomID(identity); ok {
		s.Rooms.RemovePlayer(identity)
		s.announceLeave(roomID, identity)
	}
	s.Logger.Infof("%s disconnected", identity)
}

// requireAuth wraps a handler with the pre-login gate. Messages sent before
// authentication are an error on the sender's part, not the server's.
func (s *Server) requireAuth(handler dispatch.Handler) dispatch.Handler {
	return func(ctx context.Context, c *session.Session, payload []byte) error {
		if !c.Authenticated() {
			return fmt.Errorf("%w: message before login from %s",
				session.ErrInvalidSessionState, c.IPAddr())
		}
		return handler(ctx, c, payload)
	}
}

func (s *Server) handleLogin(_ context.Context, c *session.Session, payload []byte) error {
	if c.Authenticated() {
		return s.sendLoginError(c, packets.LoginErrorUnknown, "already logged in")
	}

	var loginPkt packets.Login
	bytes.StructFromBytes(payload, &loginPkt)
	username := string(bytes.StripPadding(loginPkt.Username[:]))
	password := string(bytes.StripPadding(loginPkt.Password[:]))

	if s.Config.MaxConnections > 0 && s.Sessions.Len() >= s.Config.MaxConnections {
		return s.sendLoginError(c, packets.LoginErrorServerFull, "the server is full")
	}

	account, err := auth.VerifyAccount(s.DB, username, password)
	if err != nil {
		switch err {
		case auth.ErrInvalidCredentials:
			return s.sendLoginError(c, packets.LoginErrorCredentials, err.Error())
		case auth.ErrAccountBanned:
			return s.sendLoginError(c, packets.LoginErrorBanned, err.Error())
		default:
			message := cases.Title(language.English).String(err.Error())
			if sendErr := s.sendLoginError(c, packets.LoginErrorUnknown, message); sendErr != nil {
				return sendErr
			}
			return err
		}
	}

	c.Account = account
	c.BindIdentity(account.Username)

	displaced, err := s.Sessions.AddReplace(c)
	if err != nil {
		return err
	}
	if displaced != nil {
		// Newest login wins; closing the old connection lets its read loop
		// unwind through the usual teardown, which the registry ignores.
		s.Logger.Infof("%s logged in again, displacing session %s", account.Username, displaced.ID())
		_ = displaced.Close()
	}

	if err := c.Send(packets.LoginReplyType, &packets.LoginReply{ErrorCode: packets.LoginErrorNone}); err != nil {
		return err
	}

	if s.Rooms.AssignPlayerToRoom(account.Username, room.LobbyID) {
		s.announceJoin(room.LobbyID, account.Username)
	}

	if err := c.Send(packets.RoomListType, s.roomListPacket()); err != nil {
		return err
	}
	state := s.Vitals.Snapshot(account.Username)
	if err := c.Send(packets.VitalsUpdateType, vitals.VitalsUpdatePacket(state)); err != nil {
		return err
	}

	s.Logger.Infof("%s logged in from %s", account.Username, c.IPAddr())
	return nil
}

func (s *Server) handleDisconnect(_ context.Context, c *session.Session, _ []byte) error {
	// Closing here unwinds the read loop, which runs the teardown path.
	return c.Close()
}

func (s *Server) handlePing(_ context.Context, c *session.Session, _ []byte) error {
	return c.Send(packets.PingType, &packets.Ping{})
}

func (s *Server) handleChatSend(_ context.Context, c *session.Session, payload []byte) error {
	var chatPkt packets.ChatSend
	bytes.StructFromBytes(payload, &chatPkt)
	message := string(bytes.StripPadding(chatPkt.Message[:]))
	if message == "" {
		return nil
	}

	roomID, ok := s.Rooms.GetPlayerRoomID(c.Identity())
	if !ok {
		return s.actionReply(c, packets.ChatSendType, false, "you are not in a room")
	}

	notice := &packets.ChatNotice{}
	copy(notice.Sender[:], c.Identity())
	copy(notice.Message[:], bytes.PadString(message, len(notice.Message)))
	s.Rooms.BroadcastToRoom(roomID, packets.ChatNoticeType, notice)
	return nil
}

func (s *Server) handleRoomListRequest(_ context.Context, c *session.Session, _ []byte) error {
	return c.Send(packets.RoomListType, s.roomListPacket())
}

func (s *Server) handleRoomJoin(_ context.Context, c *session.Session, payload []byte) error {
	var joinPkt packets.RoomJoin
	bytes.StructFromBytes(payload, &joinPkt)
	roomID := string(bytes.StripPadding(joinPkt.RoomID[:]))

	identity := c.Identity()
	previous, _ := s.Rooms.GetPlayerRoomID(identity)

	if !s.Rooms.AssignPlayerToRoom(identity, roomID) {
		reason := "the room is full"
		if _, exists := s.Rooms.Summary(roomID); !exists {
			reason = "no such room"
		}
		return s.sendRoomJoinReply(c, roomID, false, reason)
	}

	if previous != roomID {
		if previous != "" {
			s.announceLeave(previous, identity)
		}
		s.announceJoin(roomID, identity)
	}
	return s.sendRoomJoinReply(c, roomID, true, "")
}

// handleRoomLeave returns the player to the lobby. Leaving the lobby itself
// is not a thing; the lobby is where room-less players live.
func (s *Server) handleRoomLeave(_ context.Context, c *session.Session, _ []byte) error {
	identity := c.Identity()

	current, ok := s.Rooms.GetPlayerRoomID(identity)
	if !ok || current == room.LobbyID {
		return s.actionReply(c, packets.RoomLeaveType, false, "you are not in a room")
	}

	if !s.Rooms.AssignPlayerToRoom(identity, room.LobbyID) {
		return s.actionReply(c, packets.RoomLeaveType, false, "the lobby is unavailable")
	}
	s.announceLeave(current, identity)
	s.announceJoin(room.LobbyID, identity)
	return s.actionReply(c, packets.RoomLeaveType, true, "")
}

func (s *Server) handleVitalsRequest(_ context.Context, c *session.Session, _ []byte) error {
	state := s.Vitals.Snapshot(c.Identity())
	return c.Send(packets.VitalsUpdateType, vitals.VitalsUpdatePacket(state))
}

func (s *Server) handleDamageRequest(_ context.Context, c *session.Session, payload []byte) error {
	var pkt packets.DamageRequest
	bytes.StructFromBytes(payload, &pkt)
	cause := string(bytes.StripPadding(pkt.Cause[:]))

	err := s.Vitals.Damage(c.Identity(), int(pkt.Amount), cause)
	return s.vitalsReply(c, packets.DamageRequestType, err)
}

func (s *Server) handleHealRequest(_ context.Context, c *session.Session, payload []byte) error {
	var pkt packets.HealRequest
	bytes.StructFromBytes(payload, &pkt)
	cause := string(bytes.StripPadding(pkt.Cause[:]))

	err := s.Vitals.Heal(c.Identity(), int(pkt.Amount), cause)
	return s.vitalsReply(c, packets.HealRequestType, err)
}

func (s *Server) handleFeedRequest(_ context.Context, c *session.Session, payload []byte) error {
	var pkt packets.FeedRequest
	bytes.StructFromBytes(payload, &pkt)

	err := s.Vitals.Feed(c.Identity(), int(pkt.FoodPoints), int(pkt.SaturationPoints))
	return s.vitalsReply(c, packets.FeedRequestType, err)
}

func (s *Server) handleRespawnRequest(_ context.Context, c *session.Session, _ []byte) error {
	return s.vitalsReply(c, packets.RespawnRequestType, s.Vitals.Respawn(c.Identity()))
}

// handleExtension absorbs messages in the reserved extension tag range (and
// anything else without a typed handler). They are logged and dropped until
// a handler ships for them.
func (s *Server) handleExtension(_ context.Context, c *session.Session, payload []byte) error {
	s.Logger.Debugf("dropping unhandled %d byte message from %s", len(payload), c.IPAddr())
	return nil
}

// vitalsReply reports a vitals action's outcome to the requesting session.
// The sentinel errors are user-facing outcomes, not handler failures.
func (s *Server) vitalsReply(c *session.Session, action int32, err error) error {
	switch err {
	case nil:
		return s.actionReply(c, action, true, "")
	case vitals.ErrDead:
		return s.actionReply(c, action, false, "you are dead")
	case vitals.ErrFullHealth:
		return s.actionReply(c, action, false, "your health is already full")
	case vitals.ErrNotDead:
		return s.actionReply(c, action, false, "you are not dead")
	default:
		if sendErr := s.actionReply(c, action, false, err.Error()); sendErr != nil {
			return sendErr
		}
		return err
	}
}

func (s *Server) actionReply(c *session.Session, action int32, success bool, reason string) error {
	reply := &packets.ActionReply{Action: action}
	if success {
		reply.Success = 1
	}
	copy(reply.Reason[:], bytes.PadString(reason, len(reply.Reason)))
	return c.Send(packets.ActionReplyType, reply)
}

func (s *Server) sendLoginError(c *session.Session, errorCode uint32, message string) error {
	reply := &packets.LoginReply{ErrorCode: errorCode}
	copy(reply.Message[:], bytes.PadString(message, len(reply.Message)))
	return c.Send(packets.LoginReplyType, reply)
}

func (s *Server) sendRoomJoinReply(c *session.Session, roomID string, success bool, reason string) error {
	reply := &packets.RoomJoinReply{}
	if success {
		reply.Success = 1
	}
	copy(reply.RoomID[:], roomID)
	copy(reply.Reason[:], bytes.PadString(reason, len(reply.Reason)))
	return c.Send(packets.RoomJoinReplyType, reply)
}

func (s *Server) roomListPacket() *packets.RoomList {
	summaries := s.Rooms.GetRooms()

	list := &packets.RoomList{Count: uint32(len(summaries))}
	for _, sum := range summaries {
		var entry packets.RoomSummary
		copy(entry.RoomID[:], sum.RoomID)
		copy(entry.DisplayName[:], sum.DisplayName)
		copy(entry.World[:], sum.WorldID)
		entry.PlayerCount = uint32(sum.PlayerCount)
		entry.Capacity = uint32(sum.Capacity)
		if sum.IsLobby {
			entry.IsLobby = 1
		}
		list.Rooms = append(list.Rooms, entry)
	}
	return list
}

func (s *Server) announceJoin(roomID, username string) {
	notice := &packets.MemberJoined{}
	copy(notice.RoomID[:], roomID)
	copy(notice.Username[:], username)
	s.Rooms.BroadcastToRoom(roomID, packets.MemberJoinedType, notice)
}

func (s *Server) announceLeave(roomID, username string) {
	notice := &packets.MemberLeft{}
	copy(notice.RoomID[:], roomID)
	copy(notice.Username[:], username)
	s.Rooms.BroadcastToRoom(roomID, packets.MemberLeftType, notice)
}
