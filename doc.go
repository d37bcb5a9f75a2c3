// Package mailparse is a streaming parser for email messages. It reads a
// message once, from front to back, and turns it into its header, its plain
// text and HTML, and its attachments, without holding the whole message in
// memory.
//
// The parser itself is found in the message package. A message.Session hands
// out events as the message is read: a HeadersEvent with the normalized
// header of the message, an AttachmentEvent for each attachment, and an
// EndEvent with the assembled message.Message. The content of an attachment is
// streamed to the consumer, and the session waits for the consumer to release
// each attachment before it reads any further. For small messages,
// message.Parse does all of that and returns the result.
//
// The rest of the work is split up according to part of message:
//
//   - message/split breaks the raw message into headers and bodies of parts
//   - message/tree rebuilds the part tree from that flat stream
//   - message/header normalizes header fields into typed values
//   - message/header/param parses structured values like Content-type
//   - message/charset maps charset labels to decoders
//   - message/transfer removes the Content-transfer-encoding
//   - message/flowed rejoins format=flowed text
//   - message/walk visits the parts of the tree
//
// The mailparse command in cmd/mailparse prints the parsed form of messages as
// JSON or YAML and can save their attachments.
//
// Parsing is lenient. A message that is malformed in some way still yields a
// result. The problems found are listed in message.Message.Warnings. Only a
// failure to read the input or a header too large to hold ends a session with
// an error.
package mailparse
