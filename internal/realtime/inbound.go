package realtime

import (
	"fmt"

	"github.com/ripple-app/backend/internal/logger"
	"go.uber.org/zap"
)

// RegisterDefaultHandlers wires the inbound socket protocol into the hub.
// These handlers never touch persisted state; REST-originated events reach
// the hub through the Notifier instead.
func RegisterDefaultHandlers(h *Hub) {
	h.RegisterHandler(EventAuthenticate, func(s *Session, ev *Event) error {
		var p AuthenticatePayload
		if err := ev.ParsePayload(&p); err != nil {
			return err
		}
		if p.UserID == "" {
			return fmt.Errorf("authenticate: missing userId")
		}
		h.Authenticate(s.ID, p.UserID)
		return nil
	})

	h.RegisterHandler(EventJoinRoom, func(s *Session, ev *Event) error {
		var p RoomPayload
		if err := ev.ParsePayload(&p); err != nil {
			return err
		}
		if p.RoomID == "" {
			return fmt.Errorf("join-room: missing roomId")
		}
		if h.JoinRoom(s.ID, p.RoomID) {
			// Existing members hear about the join; the joiner does not.
			h.EmitToRoomExcept(p.RoomID, EventUserJoinedRoom, RoomNoticePayload{
				RoomID: p.RoomID,
				UserID: s.UserID,
			}, s.ID)
		}
		return nil
	})

	h.RegisterHandler(EventLeaveRoom, func(s *Session, ev *Event) error {
		var p RoomPayload
		if err := ev.ParsePayload(&p); err != nil {
			return err
		}
		if p.RoomID == "" {
			return fmt.Errorf("leave-room: missing roomId")
		}
		h.LeaveRoom(s.ID, p.RoomID)
		h.EmitToRoomExcept(p.RoomID, EventUserLeftRoom, RoomNoticePayload{
			RoomID: p.RoomID,
			UserID: s.UserID,
		}, s.ID)
		return nil
	})

	h.RegisterHandler(EventJoinChatRoom, func(s *Session, ev *Event) error {
		var p ChatPayload
		if err := ev.ParsePayload(&p); err != nil {
			return err
		}
		if p.ChatID == "" {
			return fmt.Errorf("join-chat-room: missing chatId")
		}
		room := ChatRoom(p.ChatID)
		if h.JoinRoom(s.ID, room) {
			h.EmitToRoomExcept(room, EventUserJoinedRoom, RoomNoticePayload{
				RoomID: room,
				UserID: s.UserID,
			}, s.ID)
		}
		return nil
	})

	// Privilege checking for the admin room is the HTTP layer's concern;
	// this layer only manages membership.
	h.RegisterHandler(EventJoinAdminRoom, func(s *Session, ev *Event) error {
		h.JoinRoom(s.ID, RoomAdmin)
		return nil
	})

	h.RegisterHandler(EventTypingStart, func(s *Session, ev *Event) error {
		return relayTyping(h, s, ev, EventUserTyping)
	})

	h.RegisterHandler(EventTypingStop, func(s *Session, ev *Event) error {
		return relayTyping(h, s, ev, EventUserStopTyping)
	})

	h.RegisterHandler(EventMessageRead, func(s *Session, ev *Event) error {
		var p ReceiptPayload
		if err := ev.ParsePayload(&p); err != nil {
			return err
		}
		if p.ChatID == "" || p.MessageID == "" {
			return fmt.Errorf("message-read: missing chatId or messageId")
		}
		h.EmitToRoomExcept(ChatRoom(p.ChatID), EventMessageRead, p, s.ID)
		return nil
	})

	h.RegisterHandler(EventMessageReceived, func(s *Session, ev *Event) error {
		var p ReceiptPayload
		if err := ev.ParsePayload(&p); err != nil {
			return err
		}
		if p.ChatID == "" || p.MessageID == "" {
			return fmt.Errorf("message-received: missing chatId or messageId")
		}
		h.EmitToRoomExcept(ChatRoom(p.ChatID), EventMessageReceived, p, s.ID)
		return nil
	})

	// Client-side relay of a persisted message. The server broadcast on
	// persistence and a client echo can both arrive here; the dedup guard
	// keeps each session from relaying the same id twice.
	h.RegisterHandler(EventNewMessage, func(s *Session, ev *Event) error {
		var p ChatMessagePayload
		if err := ev.ParsePayload(&p); err != nil {
			return err
		}
		if p.ChatID == "" {
			return fmt.Errorf("new-message: missing chatId")
		}
		if !h.ShouldRelay(s.ID, p.MessageID()) {
			logger.Log.Debug("duplicate message relay suppressed",
				zap.String("session", s.ID),
				zap.String("message", p.MessageID()))
			return nil
		}
		h.EmitToRoomExcept(ChatRoom(p.ChatID), EventNewMessage, p, s.ID)
		h.EmitToRoom(RoomAdmin, EventNewMessage, p)
		return nil
	})

	h.RegisterHandler(EventStatusChange, func(s *Session, ev *Event) error {
		var p StatusChangePayload
		if err := ev.ParsePayload(&p); err != nil {
			return err
		}
		if p.UserID == "" {
			p.UserID = s.UserID
		}
		h.EmitGlobal(EventStatusChange, p)
		return nil
	})

	h.RegisterHandler(EventFollowUser, func(s *Session, ev *Event) error {
		var p FollowPayload
		if err := ev.ParsePayload(&p); err != nil {
			return err
		}
		if p.TargetUserID == "" {
			return fmt.Errorf("follow-user: missing targetUserId")
		}
		if p.FollowerID == "" {
			p.FollowerID = s.UserID
		}
		h.EmitToUser(p.TargetUserID, EventNewFollower, p)
		return nil
	})

	h.RegisterHandler(EventProfileView, func(s *Session, ev *Event) error {
		var p ProfileViewPayload
		if err := ev.ParsePayload(&p); err != nil {
			return err
		}
		if p.ProfileUserID == "" {
			return fmt.Errorf("user-profile-view: missing profileUserId")
		}
		if p.ViewerID == "" {
			p.ViewerID = s.UserID
		}
		h.EmitToUser(p.ProfileUserID, EventProfileViewed, p)
		return nil
	})

	h.RegisterHandler(EventPostInteraction, func(s *Session, ev *Event) error {
		if ev.Payload == nil {
			return fmt.Errorf("post-interaction: missing payload")
		}
		h.EmitGlobal(EventPostInteraction, ev.Payload)
		return nil
	})
}

func relayTyping(h *Hub, s *Session, ev *Event, outbound string) error {
	var p ChatPayload
	if err := ev.ParsePayload(&p); err != nil {
		return err
	}
	if p.ChatID == "" {
		return fmt.Errorf("%s: missing chatId", ev.Name)
	}
	h.EmitToRoomExcept(ChatRoom(p.ChatID), outbound, TypingPayload{
		ChatID: p.ChatID,
		UserID: s.UserID,
	}, s.ID)
	return nil
}
