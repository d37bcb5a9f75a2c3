// Package walk visits the parts of a message tree in document order.
package walk

import (
	"errors"

	"github.com/zostay/go-mailparse/message/tree"
)

// ErrSkip may be returned by a Processor to signal that the parts within the
// current part should not be visited. Processing continues with the next
// sibling.
var ErrSkip = errors.New("skip part")

// Processor is a callback that can be passed to the AndProcess() function to
// do any kind of generic processing of a message and its sub-parts.
//
// The Processor is given a part to process and the ancestry of the part. If
// len(parents) is zero, then this is the top-level part (i.e., the top-level
// part that AndProcess() was called upon, which might not be the root message).
//
// The Processor may return an error to cause AndProcess() to terminate
// immediately and return that error. The exception is ErrSkip.
type Processor func(part *tree.Part, parents []*tree.Part) error

// AndProcess will walk the parts of the tree starting with the given part and
// call the given Processor function for each part found. It will terminate
// once all parts have been processed and return nil. If the Processor function
// returns an error, it will terminate early and return that error.
func AndProcess(
	processor Processor,
	t *tree.Tree,
	part *tree.Part,
) error {
	if part == nil {
		return nil
	}

	parents := make([]*tree.Part, 0, 10)
	return andProcess(processor, t, part, parents)
}

func andProcess(
	processor Processor,
	t *tree.Tree,
	part *tree.Part,
	parents []*tree.Part,
) error {
	err := processor(part, parents)
	if errors.Is(err, ErrSkip) {
		return nil
	} else if err != nil {
		return err
	}

	parents = append(parents, part)
	for _, subPart := range t.Children(part) {
		err := andProcess(processor, t, subPart, parents)
		if err != nil {
			return err
		}
	}

	return nil
}

// HasAncestor returns true if any of the parents has the given media type.
func HasAncestor(parents []*tree.Part, mediaType string) bool {
	for _, p := range parents {
		if p.MediaType() == mediaType {
			return true
		}
	}
	return false
}
