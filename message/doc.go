// Package message is the heart of this library. It parses email messages as a
// stream, with bounded memory no matter how large the message is or how many
// attachments it carries, and survives input that is not strictly correct.
//
// A Parser holds the options. Each message is parsed by a Session, which is
// driven by calling Next:
//
//	s := message.New().NewSession(in)
//	for {
//	  ev, err := s.Next(ctx)
//	  if errors.Is(err, io.EOF) {
//	    break
//	  } else if err != nil {
//	    panic(err)
//	  }
//
//	  switch ev := ev.(type) {
//	  case *message.HeadersEvent:
//	    // the header of the message
//	  case *message.AttachmentEvent:
//	    _, _ = io.Copy(dst, ev.Attachment.Content)
//	    ev.Attachment.Release()
//	  case *message.EndEvent:
//	    // ev.Message holds the text, the HTML, and the header
//	  }
//	}
//
// Only one attachment is handed out at a time. The session does not read any
// further until the attachment has been released, so an attachment that is
// never released stalls the session.
//
// If holding the whole message in memory is fine, Parse does all of that in
// one call.
package message
