package bptree

import (
	"log/slog"

	"github.com/bptidx/bptreeidx/internal/pager"
)

// Erase removes the exact (key, payload) entry from the tree. It returns
// ErrNotFound if no entry matches both fields.
func (t *Tree) Erase(rawKey string, payload int32) error {
	if err := t.ensureOpen(); err != nil {
		return err
	}
	if err := validateKey(rawKey); err != nil {
		return err
	}
	key := pager.NewKey(rawKey)
	target := pager.Entry{Key: key, Payload: payload}
	slog.Debug("btree.Erase.start", "key", rawKey, "payload", payload)

	rootID := t.pager.Root()
	if rootID == pager.NonePage {
		return ErrNotFound
	}

	if _, _, err := t.eraseRec(rootID, target); err != nil {
		return err
	}

	root, err := t.pager.ReadPage(rootID)
	if err != nil {
		return err
	}
	if root.Type == pager.Internal && len(root.Children) == 1 {
		onlyChild := root.Children[0]
		child, err := t.pager.ReadPage(onlyChild)
		if err != nil {
			return err
		}
		child.Parent = pager.NonePage
		if err := t.pager.UpdatePage(onlyChild, child); err != nil {
			return err
		}
		t.pager.SetRoot(onlyChild)
		slog.Debug("btree.Erase.collapseRoot", "oldRoot", rootID, "newRoot", onlyChild)
	}

	slog.Debug("btree.Erase.done", "key", rawKey, "payload", payload)
	return t.pager.PutMeta()
}

// eraseRec removes target from the subtree rooted at pageID, repairs the
// rightmost-key routing entries on the way back up, and rebalances any
// child that underflowed below minSize. It returns this page's new
// maximum entry and whether this page itself is now underflowed (the
// parent frame, if any, is responsible for balancing it).
func (t *Tree) eraseRec(pageID uint32, target pager.Entry) (pager.Entry, bool, error) {
	page, err := t.pager.ReadPage(pageID)
	if err != nil {
		return pager.Entry{}, false, err
	}

	if page.Type == pager.Leaf {
		idx := page.LowerBound(target)
		if idx >= len(page.Data) || !page.Data[idx].Equal(target) {
			return pager.Entry{}, false, ErrNotFound
		}
		page.Data = removeEntryAt(page.Data, idx)
		if err := t.pager.UpdatePage(pageID, page); err != nil {
			return pager.Entry{}, false, err
		}
		underflow := pageID != t.pager.Root() && len(page.Data) < t.minSize()
		return page.Back(), underflow, nil
	}

	idx := page.LowerBound(target)
	childID := page.Children[idx]
	childMax, childUnderflow, err := t.eraseRec(childID, target)
	if err != nil {
		return pager.Entry{}, false, err
	}
	page.Data[idx] = childMax

	if childUnderflow {
		if err := t.balance(pageID, page, idx); err != nil {
			return pager.Entry{}, false, err
		}
	}

	if err := t.pager.UpdatePage(pageID, page); err != nil {
		return pager.Entry{}, false, err
	}
	underflow := pageID != t.pager.Root() && len(page.Data) < t.minSize()
	return page.Back(), underflow, nil
}
