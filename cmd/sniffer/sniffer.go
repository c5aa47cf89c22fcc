package main

import (
	"bufio"
	"encoding/binary"
	"fmt"

	"github.com/google/gopacket"

	"voxeld/internal/core/debug"
	"voxeld/internal/packets"
)

var tagNames = map[int32]string{
	packets.LoginType:           "Login",
	packets.LoginReplyType:      "LoginReply",
	packets.DisconnectType:      "Disconnect",
	packets.PingType:            "Ping",
	packets.ChatSendType:        "ChatSend",
	packets.ChatNoticeType:      "ChatNotice",
	packets.RoomListRequestType: "RoomListRequest",
	packets.RoomListType:        "RoomList",
	packets.RoomJoinType:        "RoomJoin",
	packets.RoomJoinReplyType:   "RoomJoinReply",
	packets.RoomLeaveType:       "RoomLeave",
	packets.MemberJoinedType:    "MemberJoined",
	packets.MemberLeftType:      "MemberLeft",
	packets.VitalsRequestType:   "VitalsRequest",
	packets.VitalsUpdateType:    "VitalsUpdate",
	packets.DamageRequestType:   "DamageRequest",
	packets.HealRequestType:     "HealRequest",
	packets.FeedRequestType:     "FeedRequest",
	packets.RespawnRequestType:  "RespawnRequest",
	packets.DeathNoticeType:     "DeathNotice",
	packets.ActionReplyType:     "ActionReply",
}

func tagName(tag int32) string {
	if name, ok := tagNames[tag]; ok {
		return name
	}
	if tag >= packets.ExtensionTypeBase {
		return "Extension"
	}
	return "Unknown"
}

// sniffer reassembles each TCP direction's byte stream and peels complete
// frames off of it. Captured segments can split or batch frames arbitrarily,
// so a buffer per flow carries partial frames between packets.
type sniffer struct {
	Writer     *bufio.Writer
	ServerPort uint16

	streams map[string][]byte
}

func (s *sniffer) startReading(packetChan chan gopacket.Packet) {
	s.streams = make(map[string][]byte)

	for packet := range packetChan {
		transport := packet.TransportLayer()
		applayer := packet.ApplicationLayer()
		if transport == nil || applayer == nil {
			continue
		}

		flow := transport.TransportFlow()
		dstPort := binary.BigEndian.Uint16(flow.Dst().Raw())
		fromClient := dstPort == s.ServerPort

		key := flow.String()
		s.streams[key] = append(s.streams[key], applayer.Payload()...)
		s.streams[key] = s.emitFrames(s.streams[key], fromClient)
	}
}

// emitFrames prints every complete frame at the front of the stream and
// returns the remaining partial bytes.
func (s *sniffer) emitFrames(stream []byte, fromClient bool) []byte {
	for {
		if len(stream) < 4 {
			return stream
		}

		length := binary.LittleEndian.Uint32(stream[:4])
		if length < 4 {
			// Not a frame boundary; this capture joined mid-stream. Drop the
			// buffered bytes rather than printing garbage forever.
			fmt.Fprintf(s.Writer, "desynced stream (declared length %d), discarding %d bytes\n",
				length, len(stream))
			_ = s.Writer.Flush()
			return nil
		}
		if uint32(len(stream)) < 4+length {
			return stream
		}

		tag := int32(binary.LittleEndian.Uint32(stream[4:8]))
		payload := stream[8 : 4+length]

		fmt.Fprintf(s.Writer, "%s ", tagName(tag))
		debug.PrintFrame(s.Writer, tag, payload, fromClient)
		_ = s.Writer.Flush()

		stream = stream[4+length:]
	}
}
