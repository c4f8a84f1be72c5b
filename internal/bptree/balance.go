package bptree

import (
	"log/slog"

	"github.com/bptidx/bptreeidx/internal/pager"
)

// balance repairs the child of parent at idx that has fallen below
// minSize, preferring to borrow a single entry from a sibling that can
// spare one and falling back to a merge otherwise — the classic
// borrow-left/borrow-right/merge ladder, adapted so every routing entry
// touched is recomputed from Back() rather than carried as a separator.
func (t *Tree) balance(parentID uint32, parent *pager.Page, idx int) error {
	child, err := t.pager.ReadPage(parent.Children[idx])
	if err != nil {
		return err
	}
	minSize := t.minSize()

	if idx > 0 {
		left, err := t.pager.ReadPage(parent.Children[idx-1])
		if err != nil {
			return err
		}
		if len(left.Data) > minSize {
			return t.borrowLeft(parent, idx, left, child)
		}
	}
	if idx < len(parent.Children)-1 {
		right, err := t.pager.ReadPage(parent.Children[idx+1])
		if err != nil {
			return err
		}
		if len(right.Data) > minSize {
			return t.borrowRight(parent, idx, child, right)
		}
	}
	if idx > 0 {
		left, err := t.pager.ReadPage(parent.Children[idx-1])
		if err != nil {
			return err
		}
		return t.mergeInto(parent, idx-1, idx, left, child)
	}
	right, err := t.pager.ReadPage(parent.Children[idx+1])
	if err != nil {
		return err
	}
	return t.mergeInto(parent, idx, idx+1, child, right)
}

// borrowLeft moves left's maximum entry (and, for internal pages, its
// rightmost child) onto the front of child.
func (t *Tree) borrowLeft(parent *pager.Page, idx int, left, child *pager.Page) error {
	n := len(left.Data) - 1
	moved := left.Data[n]
	left.Data = left.Data[:n]
	child.Data = insertEntryAt(child.Data, 0, moved)

	if child.Type == pager.Internal {
		m := len(left.Children) - 1
		movedChild := left.Children[m]
		left.Children = left.Children[:m]
		child.Children = insertChildAt(child.Children, 0, movedChild)
		if err := t.reparent(movedChild, parent.Children[idx]); err != nil {
			return err
		}
	}

	parent.Data[idx-1] = left.Back()
	parent.Data[idx] = child.Back()
	if err := t.pager.UpdatePage(parent.Children[idx-1], left); err != nil {
		return err
	}
	if err := t.pager.UpdatePage(parent.Children[idx], child); err != nil {
		return err
	}
	slog.Debug("btree.borrowLeft", "idx", idx)
	return nil
}

// borrowRight moves right's minimum entry (and, for internal pages, its
// leftmost child) onto the back of child.
func (t *Tree) borrowRight(parent *pager.Page, idx int, child, right *pager.Page) error {
	moved := right.Data[0]
	right.Data = removeEntryAt(right.Data, 0)
	child.Data = append(child.Data, moved)

	if child.Type == pager.Internal {
		movedChild := right.Children[0]
		right.Children = removeChildAt(right.Children, 0)
		child.Children = append(child.Children, movedChild)
		if err := t.reparent(movedChild, parent.Children[idx]); err != nil {
			return err
		}
	}

	parent.Data[idx] = child.Back()
	parent.Data[idx+1] = right.Back()
	if err := t.pager.UpdatePage(parent.Children[idx], child); err != nil {
		return err
	}
	if err := t.pager.UpdatePage(parent.Children[idx+1], right); err != nil {
		return err
	}
	slog.Debug("btree.borrowRight", "idx", idx)
	return nil
}

// mergeInto absorbs the page at childIdx into the page at leftIdx (always
// leftIdx+1 == childIdx), removing childIdx's slot from parent entirely.
// leftIdx is where the surviving page lives, regardless of which of
// left/right was originally the underflowed child.
func (t *Tree) mergeInto(parent *pager.Page, leftIdx, childIdx int, left, right *pager.Page) error {
	left.Data = append(left.Data, right.Data...)
	if left.Type == pager.Internal {
		for _, c := range right.Children {
			if err := t.reparent(c, parent.Children[leftIdx]); err != nil {
				return err
			}
		}
		left.Children = append(left.Children, right.Children...)
	} else {
		left.Right = right.Right
		if right.Right != pager.NonePage {
			rightNeighbor, err := t.pager.ReadPage(right.Right)
			if err != nil {
				return err
			}
			rightNeighbor.Left = parent.Children[leftIdx]
			if err := t.pager.UpdatePage(right.Right, rightNeighbor); err != nil {
				return err
			}
		}
	}

	if err := t.pager.UpdatePage(parent.Children[leftIdx], left); err != nil {
		return err
	}

	parent.Data = removeEntryAt(parent.Data, childIdx)
	parent.Children = removeChildAt(parent.Children, childIdx)
	parent.Data[leftIdx] = left.Back()
	slog.Debug("btree.mergeInto", "leftIdx", leftIdx, "childIdx", childIdx, "size", len(left.Data))
	return nil
}

func (t *Tree) reparent(childID, newParent uint32) error {
	child, err := t.pager.ReadPage(childID)
	if err != nil {
		return err
	}
	child.Parent = newParent
	return t.pager.UpdatePage(childID, child)
}
