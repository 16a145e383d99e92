package service

import (
	"context"
	"log/slog"
	"time"

	"supplyhub/apps/message/model"
	"supplyhub/pkg/apperr"
	"supplyhub/pkg/notify"
	"supplyhub/pkg/validate"
)

type MessageRepository interface {
	Create(ctx context.Context, m *model.Message) error
	Get(ctx context.Context, id uint) (*model.Message, error)
	Save(ctx context.Context, m *model.Message) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, f model.Filter) ([]model.Message, int64, error)
}

type CreateMessageInput struct {
	SenderName  string     `json:"senderName" validate:"required,max=120"`
	SenderEmail string     `json:"senderEmail" validate:"required,email,max=190"`
	SenderPhone string     `json:"senderPhone" validate:"max=40"`
	Company     string     `json:"company" validate:"max=160"`
	Subject     string     `json:"subject" validate:"required,max=200"`
	Body        string     `json:"body" validate:"required,max=10000"`
	Type        model.Type `json:"type" validate:"omitempty,oneof=contact support inquiry feedback"`
}

type UpdateMessageInput struct {
	Status    *model.Status `json:"status" validate:"omitempty,oneof=unread read archived spam"`
	IsStarred *bool         `json:"isStarred"`
}

type ReplyInput struct {
	Body string `json:"body" validate:"required,max=10000"`
}

// MessageService is the back-office inbox.
type MessageService struct {
	repo   MessageRepository
	events notify.Publisher
	log    *slog.Logger
	now    func() time.Time
}

func NewMessageService(repo MessageRepository, events notify.Publisher, log *slog.Logger) *MessageService {
	return &MessageService{repo: repo, events: events, log: log, now: time.Now}
}

func (s *MessageService) Create(ctx context.Context, in CreateMessageInput) (*model.Message, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	m := &model.Message{
		SenderName:  in.SenderName,
		SenderEmail: in.SenderEmail,
		SenderPhone: in.SenderPhone,
		Company:     in.Company,
		Subject:     in.Subject,
		Body:        in.Body,
		Type:        model.TypeContact,
		Status:      model.StatusUnread,
	}
	if in.Type != "" {
		m.Type = in.Type
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "message received", "message_id", m.ID, "type", m.Type)
	notify.Send(ctx, s.events, s.log, notify.Event{
		Type:     notify.MessageReceived,
		Entity:   "message",
		EntityID: m.ID,
		Data:     map[string]any{"subject": m.Subject, "type": string(m.Type)},
	})
	return m, nil
}

// Open returns the message, marking it read when it was unread.
func (s *MessageService) Open(ctx context.Context, id uint) (*model.Message, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status == model.StatusUnread {
		m.Status = model.StatusRead
		if err := s.repo.Save(ctx, m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Update changes status or the star flag. Replied is reached only by Reply.
func (s *MessageService) Update(ctx context.Context, id uint, in UpdateMessageInput) (*model.Message, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Status != nil {
		m.Status = *in.Status
	}
	if in.IsStarred != nil {
		m.IsStarred = *in.IsStarred
	}
	if err := s.repo.Save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Reply records the answer sent to the sender. Spam is never answered.
func (s *MessageService) Reply(ctx context.Context, id uint, in ReplyInput, repliedBy uint) (*model.Message, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status == model.StatusSpam {
		return nil, apperr.Conflict("cannot reply to a message marked as spam")
	}
	now := s.now().UTC()
	m.Status = model.StatusReplied
	m.ReplyBody = in.Body
	m.RepliedAt = &now
	m.RepliedBy = &repliedBy
	if err := s.repo.Save(ctx, m); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "message replied", "message_id", m.ID, "replied_by", repliedBy)
	notify.Send(ctx, s.events, s.log, notify.Event{
		Type:     notify.MessageReplied,
		Entity:   "message",
		EntityID: m.ID,
		Data:     map[string]any{"to": m.SenderEmail, "subject": "Re: " + m.Subject, "body": m.ReplyBody},
	})
	return m, nil
}

func (s *MessageService) Delete(ctx context.Context, id uint) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *MessageService) List(ctx context.Context, f model.Filter) ([]model.Message, int64, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, apperr.Validation("status", "unknown message status")
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, 0, apperr.Validation("type", "unknown message type")
	}
	f.Normalize()
	return s.repo.List(ctx, f)
}
