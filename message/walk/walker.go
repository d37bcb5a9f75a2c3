package walk

import (
	"github.com/zostay/go-mailparse/message/tree"
)

// PartWalker is a function that can be processed for each part of a message
// tree. The depth is 0 for the root and i is the position of the part among
// its siblings.
type PartWalker func(depth, i int, part *tree.Part) error

// Walk performs a depth first search for all the parts of the tree starting
// with the root. It calls the PartWalker for each part. If the PartWalker
// returns an error, then processing stops immediately and the error is
// returned.
func (w PartWalker) Walk(t *tree.Tree) error {
	type entry struct {
		depth int
		i     int
		part  *tree.Part
	}

	root := t.Root()
	if root == nil {
		return nil
	}

	openStack := make([]entry, 0, 10)

	pushStack := func(depth int, p *tree.Part) {
		children := t.Children(p)
		for i := len(children) - 1; i >= 0; i-- {
			openStack = append(openStack, entry{depth, i, children[i]})
		}
	}

	popStack := func() entry {
		end := len(openStack) - 1
		e := openStack[end]
		openStack = openStack[:end]
		return e
	}

	openStack = append(openStack, entry{0, 0, root})
	for len(openStack) > 0 {
		e := popStack()
		if err := w(e.depth, e.i, e.part); err != nil {
			return err
		}
		pushStack(e.depth+1, e.part)
	}

	return nil
}

// WalkLeaves will call the PartWalker function for each leaf part using a
// depth first traversal. It will terminate the walk immediately if the
// PartWalker returns an error and will return the error.
func (w PartWalker) WalkLeaves(t *tree.Tree) error {
	var lw PartWalker = func(depth, i int, part *tree.Part) error {
		if !part.Multipart {
			return w(depth, i, part)
		}
		return nil
	}
	return lw.Walk(t)
}

// WalkMultipart will call the PartWalker function for each multipart part
// using a depth first traversal. It will terminate the walk immediately if the
// PartWalker returns an error and will return that error.
func (w PartWalker) WalkMultipart(t *tree.Tree) error {
	var mw PartWalker = func(depth, i int, part *tree.Part) error {
		if part.Multipart {
			return w(depth, i, part)
		}
		return nil
	}
	return mw.Walk(t)
}
