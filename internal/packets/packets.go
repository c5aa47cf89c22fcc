// The wire message catalogue shared by the server and its clients.
//
// Type tags are small integers partitioned by numeric range and the ranges
// are append-only: a tag, once shipped, keeps its meaning forever. Fields
// within a message are additive-only; new optional fields are appended and
// old layouts are never reused. Strings ride in fixed-size zero-padded byte
// arrays (see core/bytes) so every client-originated message has a fixed
// layout.
package packets

// Connection lifecycle (0x01 - 0x0F).
const (
	LoginType      = 0x01
	LoginReplyType = 0x02
	DisconnectType = 0x05
	PingType       = 0x06
)

// Rooms and chat (0x10 - 0x1F).
const (
	ChatSendType        = 0x10
	ChatNoticeType      = 0x11
	RoomListRequestType = 0x12
	RoomListType        = 0x13
	RoomJoinType        = 0x14
	RoomJoinReplyType   = 0x15
	RoomLeaveType       = 0x16
	MemberJoinedType    = 0x17
	MemberLeftType      = 0x18
)

// Vitals and gameplay actions (0x20 - 0x2F).
const (
	VitalsRequestType  = 0x20
	VitalsUpdateType   = 0x21
	DamageRequestType  = 0x22
	HealRequestType    = 0x23
	FeedRequestType    = 0x24
	RespawnRequestType = 0x25
	DeathNoticeType    = 0x26
	ActionReplyType    = 0x2F
)

// Tags at or above ExtensionTypeBase are reserved for world/entity
// extensions and are routed to the dispatcher's fallback handler until a
// typed handler ships.
const ExtensionTypeBase = 0x40

// Error codes used by the LoginReply packet.
const (
	LoginErrorNone = iota
	LoginErrorUnknown
	LoginErrorCredentials
	LoginErrorBanned
	LoginErrorServerFull
)

type Login struct {
	Username [32]byte
	Password [64]byte
}

type LoginReply struct {
	ErrorCode uint32
	Message   [128]byte
}

type Disconnect struct{}

type Ping struct{}

type ChatSend struct {
	Message [256]byte
}

type ChatNotice struct {
	Sender  [32]byte
	Message [256]byte
}

type RoomListRequest struct{}

// RoomSummary is a read-only projection of a room used in listing replies.
type RoomSummary struct {
	RoomID      [32]byte
	DisplayName [32]byte
	World       [32]byte
	PlayerCount uint32
	Capacity    uint32
	IsLobby     uint32
}

// RoomList is only ever written by the server, so unlike the fixed-layout
// request messages it can carry a variable number of entries.
type RoomList struct {
	Count uint32
	Rooms []RoomSummary
}

type RoomJoin struct {
	RoomID [32]byte
}

type RoomJoinReply struct {
	Success uint32
	RoomID  [32]byte
	Reason  [128]byte
}

type RoomLeave struct{}

type MemberJoined struct {
	RoomID   [32]byte
	Username [32]byte
}

type MemberLeft struct {
	RoomID   [32]byte
	Username [32]byte
}

type VitalsRequest struct{}

type VitalsUpdate struct {
	Health     uint32
	MaxHealth  uint32
	Hunger     uint32
	MaxHunger  uint32
	Saturation uint32
	DeathCount uint32
}

type DamageRequest struct {
	Amount uint32
	Cause  [32]byte
}

type HealRequest struct {
	Amount uint32
	Cause  [32]byte
}

type FeedRequest struct {
	FoodPoints       uint32
	SaturationPoints uint32
}

type RespawnRequest struct{}

type DeathNotice struct {
	Username   [32]byte
	Cause      [32]byte
	DeathCount uint32
}

// ActionReply reports the outcome of a gameplay action back to the
// originating session, carrying a human-readable reason on failure.
type ActionReply struct {
	Action  int32
	Success uint32
	Reason  [128]byte
}
