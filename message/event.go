package message

import "github.com/zostay/go-mailparse/message/header"

// Event is an item returned by Session.Next. It is one of *HeadersEvent,
// *AttachmentEvent, or *EndEvent.
type Event interface {
	isEvent()
}

// HeadersEvent carries the normalized header of the message. It is the first
// event of every session and is emitted exactly once.
type HeadersEvent struct {
	Header *header.Map
}

// AttachmentEvent hands an attachment to the consumer. The session will not
// move past it until Attachment.Release has been called.
type AttachmentEvent struct {
	Attachment *Attachment

	// Header is the header of the message, not the attachment. The header of
	// the attachment is Attachment.Header.
	Header *header.Map
}

// EndEvent is the last event of a session that finished without a fatal
// error. Next returns io.EOF after it.
type EndEvent struct {
	Message *Message
}

func (*HeadersEvent) isEvent()    {}
func (*AttachmentEvent) isEvent() {}
func (*EndEvent) isEvent()        {}
