package controller

import (
	"go.uber.org/zap"
)

type Kind int

const (
	KindSuccess Kind = iota
	KindError
)

func (k Kind) String() string {
	if k == KindError {
		return "error"
	}
	return "success"
}

// Notification is the single user-visible outcome of an intent.
type Notification struct {
	Kind    Kind
	Title   string
	Message string
}

// Notifier receives notifications. Implementations must not block for long;
// Notify is called from the goroutine that ran the intent.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// ChannelNotifier delivers notifications on a buffered channel. When the
// buffer is full the notification is dropped and logged.
type ChannelNotifier struct {
	C chan Notification
}

func NewChannelNotifier(buffer int) *ChannelNotifier {
	return &ChannelNotifier{C: make(chan Notification, buffer)}
}

func (n *ChannelNotifier) Notify(note Notification) {
	select {
	case n.C <- note:
	default:
		zap.L().Warn("Notification dropped, channel full",
			zap.String("title", note.Title),
			zap.String("kind", note.Kind.String()))
	}
}
