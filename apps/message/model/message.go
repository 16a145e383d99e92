package model

import "time"

type Type string

const (
	TypeContact  Type = "contact"
	TypeSupport  Type = "support"
	TypeInquiry  Type = "inquiry"
	TypeFeedback Type = "feedback"
)

func (t Type) Valid() bool {
	switch t {
	case TypeContact, TypeSupport, TypeInquiry, TypeFeedback:
		return true
	}
	return false
}

type Status string

const (
	StatusUnread   Status = "unread"
	StatusRead     Status = "read"
	StatusReplied  Status = "replied"
	StatusArchived Status = "archived"
	StatusSpam     Status = "spam"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUnread, StatusRead, StatusReplied, StatusArchived, StatusSpam:
		return true
	}
	return false
}

// Message is an inbound contact-form submission.
type Message struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	SenderName  string     `gorm:"type:varchar(120);not null" json:"senderName"`
	SenderEmail string     `gorm:"type:varchar(190);not null;index" json:"senderEmail"`
	SenderPhone string     `gorm:"type:varchar(40)" json:"senderPhone"`
	Company     string     `gorm:"type:varchar(160)" json:"company"`
	Subject     string     `gorm:"type:varchar(200);not null" json:"subject"`
	Body        string     `gorm:"type:text;not null" json:"body"`
	Type        Type       `gorm:"type:varchar(16);not null;index" json:"type"`
	Status      Status     `gorm:"type:varchar(16);not null;index" json:"status"`
	IsStarred   bool       `gorm:"not null" json:"isStarred"`
	ReplyBody   string     `gorm:"type:text" json:"replyBody,omitempty"`
	RepliedAt   *time.Time `json:"repliedAt,omitempty"`
	RepliedBy   *uint      `json:"repliedBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (Message) TableName() string {
	return "messages"
}

type Filter struct {
	Status    Status
	Type      Type
	IsStarred *bool
	Page      int
	PageSize  int
}

func (f *Filter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
}
