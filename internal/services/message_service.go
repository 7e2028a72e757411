package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"Marketplace/internal/models"
)

type SendMessageInput struct {
	ReceiverID uint   `json:"receiver_id" validate:"required"`
	Message    string `json:"message" validate:"required,max=5000"`
	ListingID  *uint  `json:"listing_id"`
}

type Participant struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type MessageView struct {
	models.Message
	Sender Participant `json:"sender"`
}

// ConversationSummary is one dashboard row: the latest exchange with a counterpart.
type ConversationSummary struct {
	User            Participant `json:"user"`
	LastMessage     string      `json:"last_message"`
	LastMessageAt   time.Time   `json:"last_message_at"`
	LastMessageRead bool        `json:"last_message_read"`
	LastMessageMine bool        `json:"last_message_mine"`
	UnreadCount     int         `json:"unread_count"`
	ListingID       *uint       `json:"listing_id"`

	lastID uint
}

type Conversation struct {
	User       Participant   `json:"user"`
	Messages   []MessageView `json:"messages"`
	MarkedRead int64         `json:"marked_read"`
}

type MessageService struct {
	db *gorm.DB
}

func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db}
}

func participant(u models.User) Participant {
	return Participant{ID: u.ID, Name: u.Name, Email: u.Email}
}

func existsByID(db *gorm.DB, model any, id uint) (bool, error) {
	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Send stores an unread message from senderID.
func (s *MessageService) Send(ctx context.Context, senderID uint, in SendMessageInput) (MessageView, error) {
	in.Message = strings.TrimSpace(in.Message)
	verr, err := collect(Validate(in))
	if err != nil {
		return MessageView{}, err
	}

	db := s.db.WithContext(ctx)
	if in.ReceiverID != 0 {
		if in.ReceiverID == senderID {
			verr.Add("receiver_id", "You cannot send a message to yourself.")
		} else if ok, err := existsByID(db, &models.User{}, in.ReceiverID); err != nil {
			return MessageView{}, fmt.Errorf("check receiver: %w", err)
		} else if !ok {
			verr.Add("receiver_id", "The selected receiver id is invalid.")
		}
	}
	if in.ListingID != nil {
		if ok, err := existsByID(db, &models.Listing{}, *in.ListingID); err != nil {
			return MessageView{}, fmt.Errorf("check listing: %w", err)
		} else if !ok {
			verr.Add("listing_id", "The selected listing id is invalid.")
		}
	}
	if len(verr.Fields) > 0 {
		return MessageView{}, verr
	}

	msg := models.Message{
		SenderID:   senderID,
		ReceiverID: in.ReceiverID,
		Message:    in.Message,
		Read:       false,
		ListingID:  in.ListingID,
	}
	if err := db.Create(&msg).Error; err != nil {
		return MessageView{}, fmt.Errorf("failed to send message: %w", err)
	}

	var sender models.User
	if err := db.Select("id", "name", "email").First(&sender, senderID).Error; err != nil {
		return MessageView{}, fmt.Errorf("load sender: %w", err)
	}
	return MessageView{Message: msg, Sender: participant(sender)}, nil
}

// Dashboard groups every message the user sent or received by counterpart,
// most recent conversation first.
func (s *MessageService) Dashboard(ctx context.Context, userID uint) ([]ConversationSummary, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Preload("Sender", selectParticipant).
		Preload("Receiver", selectParticipant).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	groups := map[uint]*ConversationSummary{}
	order := make([]*ConversationSummary, 0)
	for _, m := range messages {
		other := m.Sender
		if m.SenderID == userID {
			other = m.Receiver
		}

		summary, seen := groups[other.ID]
		if !seen {
			// first row per counterpart is the latest one
			summary = &ConversationSummary{
				User:            participant(other),
				LastMessage:     m.Message,
				LastMessageAt:   m.CreatedAt,
				LastMessageRead: m.Read,
				LastMessageMine: m.SenderID == userID,
				ListingID:       m.ListingID,
				lastID:          m.ID,
			}
			groups[other.ID] = summary
			order = append(order, summary)
		}
		if m.ReceiverID == userID && m.SenderID != userID && !m.Read {
			summary.UnreadCount++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if !a.LastMessageAt.Equal(b.LastMessageAt) {
			return a.LastMessageAt.After(b.LastMessageAt)
		}
		return a.lastID > b.lastID
	})

	out := make([]ConversationSummary, 0, len(order))
	for _, summary := range order {
		out = append(out, *summary)
	}
	return out, nil
}

// Conversation returns the full history between callerID and otherID, oldest
// first, and marks otherID's unread messages to callerID as read.
func (s *MessageService) Conversation(ctx context.Context, callerID, otherID uint) (Conversation, error) {
	var conv Conversation

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var other models.User
		err := tx.Select("id", "name", "email").First(&other, otherID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %d: %w", otherID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("find user: %w", err)
		}
		conv.User = participant(other)

		var messages []models.Message
		err = tx.Preload("Sender", selectParticipant).
			Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
				callerID, otherID, otherID, callerID).
			Order("created_at ASC").
			Order("id ASC").
			Find(&messages).Error
		if err != nil {
			return fmt.Errorf("fetch conversation: %w", err)
		}

		res := tx.Model(&models.Message{}).
			Where("sender_id = ? AND receiver_id = ? AND read = ?", otherID, callerID, false).
			Update("read", true)
		if res.Error != nil {
			return fmt.Errorf("mark messages read: %w", res.Error)
		}
		conv.MarkedRead = res.RowsAffected

		conv.Messages = make([]MessageView, 0, len(messages))
		for _, m := range messages {
			if m.SenderID == otherID && m.ReceiverID == callerID {
				m.Read = true
			}
			conv.Messages = append(conv.Messages, MessageView{Message: m, Sender: participant(m.Sender)})
		}
		return nil
	})
	if err != nil {
		return Conversation{}, err
	}
	return conv, nil
}

func selectParticipant(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "email")
}
