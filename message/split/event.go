package split

import (
	"github.com/zostay/go-mailparse/message/header"
	"github.com/zostay/go-mailparse/message/header/param"
)

// Kind identifies the type of an Event.
type Kind int

// The kinds of events emitted by the Splitter.
const (
	KindNode Kind = iota + 1 // the header of a new part has been read
	KindData                 // bytes between parts, including boundary lines
	KindBody                 // bytes of the body of a leaf part
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindData:
		return "data"
	case KindBody:
		return "body"
	}
	return "unknown"
}

// Node describes one part of the message as seen by the splitter.
type Node struct {
	// ID identifies the node. The root is 1 and IDs increase in document
	// order.
	ID int

	// ParentID is the ID of the multipart node this node is a part of. It is
	// 0 for the root.
	ParentID int

	// Root is true for the node of the message itself.
	Root bool

	// Depth is the number of multipart nodes enclosing this one.
	Depth int

	// Header is the raw header block, including the blank line that ends it.
	Header []byte

	// Break is the line break of the blank line that ended the header. It is
	// header.None if the header ended without one.
	Break header.Break

	// Lines holds the unfolded fields of the header.
	Lines []header.Line

	// ContentType is the declared content type or nil if there is none.
	ContentType *param.Value

	// Multipart is true if this node is a multipart the splitter will look
	// for parts within. A multipart without a boundary or nested too deeply is
	// not.
	Multipart bool

	// Boundary is the boundary of a multipart node.
	Boundary string

	// Warnings lists the non-fatal problems found with the node.
	Warnings []error
}

// Event is a single item of the output of the Splitter.
type Event struct {
	Kind Kind

	// Node is the node the event belongs to. For KindData events this is the
	// multipart whose boundary or filler text is being emitted, or the node
	// whose part just ended.
	Node *Node

	// Data holds the bytes of KindData and KindBody events.
	Data []byte
}
