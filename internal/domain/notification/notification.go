package notification

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const MaxTitleLength = 200

var (
	ErrInvalidType  = errors.New("invalid notification type")
	ErrEmptyTitle   = errors.New("notification title cannot be empty")
	ErrTitleTooLong = errors.New("notification title too long")
	ErrMissingUser  = errors.New("notification recipient is required")
)

type Type string

const (
	TypeBooking Type = "booking"
	TypePayment Type = "payment"
)

func (t Type) IsValid() bool {
	return t == TypeBooking || t == TypePayment
}

func (t Type) String() string {
	return string(t)
}

type Notification struct {
	id              uuid.UUID
	userID          uuid.UUID
	kind            Type
	title           string
	message         string
	isRead          bool
	relatedObjectID string
	createdAt       time.Time
}

func NewNotification(userID uuid.UUID, kind Type, title, message, relatedObjectID string, now time.Time) (*Notification, error) {
	if userID == uuid.Nil {
		return nil, ErrMissingUser
	}
	if !kind.IsValid() {
		return nil, ErrInvalidType
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if len([]rune(title)) > MaxTitleLength {
		return nil, ErrTitleTooLong
	}

	return &Notification{
		id:              uuid.New(),
		userID:          userID,
		kind:            kind,
		title:           title,
		message:         message,
		relatedObjectID: relatedObjectID,
		createdAt:       now,
	}, nil
}

func (n *Notification) ID() uuid.UUID           { return n.id }
func (n *Notification) UserID() uuid.UUID       { return n.userID }
func (n *Notification) Type() Type              { return n.kind }
func (n *Notification) Title() string           { return n.title }
func (n *Notification) Message() string         { return n.message }
func (n *Notification) IsRead() bool            { return n.isRead }
func (n *Notification) RelatedObjectID() string { return n.relatedObjectID }
func (n *Notification) CreatedAt() time.Time    { return n.createdAt }
