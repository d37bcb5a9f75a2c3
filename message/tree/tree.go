// Package tree rebuilds the tree of MIME parts from the flat stream of nodes
// produced by the splitter.
//
// Parts are kept in an arena. Parent and child links are indexes into the
// arena, so a Tree can be copied and walked without any concern for cycles.
package tree

import (
	"errors"
	"fmt"

	"github.com/zostay/go-mailparse/message/header"
	"github.com/zostay/go-mailparse/message/header/param"
)

// ErrStructuralAnomaly is returned by Place when the parent of a new node
// cannot be found. The node is placed anyway, so the error is not fatal.
var ErrStructuralAnomaly = errors.New("structural anomaly: parent part not found")

// NoIndex is the arena index used for links that point nowhere.
const NoIndex = -1

// Part is a single MIME part of the message.
type Part struct {
	// Index is the position of the part in the arena.
	Index int

	// ID and ParentID are the node identifiers assigned by the splitter.
	ID       int
	ParentID int

	// Root is true for the message itself.
	Root bool

	// Parent is the arena index of the parent part or NoIndex for the root.
	Parent int

	// Children are the arena indexes of the parts within this one, in
	// document order.
	Children []int

	// Header is the normalized header of the part.
	Header *header.Map

	// ContentType is the effective content type. It is nil for a nested part
	// that did not declare one.
	ContentType *param.Value

	// Disposition is "inline", "attachment", or empty.
	Disposition string

	// Charset is the declared charset, if any.
	Charset string

	// TransferEncoding is the normalized transfer encoding.
	TransferEncoding string

	// Multipart is true if this part contains other parts.
	Multipart bool

	// IsText is true for a text/plain or text/html leaf that contributes to
	// the text of the message.
	IsText bool

	// Text holds the decoded content of a text leaf, once fully read.
	Text string

	// AttachmentIndex is the position of the attachment made from this part
	// or NoIndex.
	AttachmentIndex int

	// final is set once the part can no longer change.
	final bool
}

// MediaType returns the media type of the part or an empty string if it has
// no content type.
func (p *Part) MediaType() string {
	if p.ContentType == nil {
		return ""
	}
	return p.ContentType.MediaType()
}

// Finalize marks the part as complete.
func (p *Part) Finalize() {
	p.final = true
}

// IsFinal returns true once Finalize has been called.
func (p *Part) IsFinal() bool {
	return p.final
}

// Tree is an arena of parts with a cursor pointing to the most recently
// placed part.
type Tree struct {
	parts  []*Part
	cursor int
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{cursor: NoIndex}
}

// Len returns the number of parts in the tree.
func (t *Tree) Len() int {
	return len(t.parts)
}

// Part returns the part at the given arena index.
func (t *Tree) Part(ix int) *Part {
	if ix < 0 || ix >= len(t.parts) {
		return nil
	}
	return t.parts[ix]
}

// Parts returns every part in the order they were placed, which is document
// order.
func (t *Tree) Parts() []*Part {
	return t.parts
}

// Root returns the root part or nil if the tree is empty.
func (t *Tree) Root() *Part {
	return t.Part(0)
}

// Cursor returns the most recently placed part or nil if the tree is empty.
func (t *Tree) Cursor() *Part {
	return t.Part(t.cursor)
}

// Parent returns the parent of the part or nil for the root.
func (t *Tree) Parent(p *Part) *Part {
	return t.Part(p.Parent)
}

// Children returns the parts within the given part in document order.
func (t *Tree) Children(p *Part) []*Part {
	cs := make([]*Part, len(p.Children))
	for i, ix := range p.Children {
		cs[i] = t.parts[ix]
	}
	return cs
}

// Ancestors returns the parents of the part, starting with the root and
// ending with its immediate parent.
func (t *Tree) Ancestors(p *Part) []*Part {
	var as []*Part
	for a := t.Parent(p); a != nil; a = t.Parent(a) {
		as = append(as, a)
	}

	for i, j := 0, len(as)-1; i < j; i, j = i+1, j-1 {
		as[i], as[j] = as[j], as[i]
	}
	return as
}

// attach adds a new part as the last child of parent, or as the root when
// parent is nil.
func (t *Tree) attach(parent *Part, id, parentID int, root bool) *Part {
	p := &Part{
		Index:           len(t.parts),
		ID:              id,
		ParentID:        parentID,
		Root:            root,
		Parent:          NoIndex,
		AttachmentIndex: NoIndex,
	}

	if parent != nil {
		p.Parent = parent.Index
		parent.Children = append(parent.Children, p.Index)
	}

	t.parts = append(t.parts, p)
	t.cursor = p.Index
	return p
}

// Place adds a new part for the node with the given ID, declared parent ID,
// and root flag. The position is found relative to the cursor: a sibling of
// the cursor, a child of the cursor, or a child of the nearest ancestor of the
// cursor whose ID matches parentID.
//
// If no such position exists, the part becomes a child of the cursor and an
// error wrapping ErrStructuralAnomaly is returned alongside the part. The part
// becomes the new cursor either way.
func (t *Tree) Place(id, parentID int, root bool) (*Part, error) {
	cur := t.Cursor()
	if cur == nil {
		return t.attach(nil, id, parentID, root), nil
	}

	parent := t.Parent(cur)
	if parent == nil {
		if parentID == cur.ParentID {
			return t.attach(cur, id, parentID, root), t.anomaly(id, parentID)
		}
		return t.attach(cur, id, parentID, root), nil
	}

	switch parentID {
	case parent.ID:
		return t.attach(parent, id, parentID, root), nil
	case cur.ID:
		return t.attach(cur, id, parentID, root), nil
	}

	for a := t.Parent(parent); a != nil; a = t.Parent(a) {
		if a.ID == parentID {
			return t.attach(a, id, parentID, root), nil
		}
	}

	return t.attach(cur, id, parentID, root), t.anomaly(id, parentID)
}

func (t *Tree) anomaly(id, parentID int) error {
	return fmt.Errorf("%w: node %d declares parent %d", ErrStructuralAnomaly, id, parentID)
}
