// Package bptree implements a disk-backed B+ tree over fixed-width string
// keys with int32 payloads, routed by rightmost-key replication rather
// than classic separator keys: every internal routing entry equals the
// maximum entry of the subtree it points at, not a boundary value between
// subtrees.
package bptree

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/bptidx/bptreeidx/internal/pager"
)

// DefaultSlots is the page fanout this module ships with — large enough
// for realistic fanout, small enough that an ordinary test run exercises
// split/merge/borrow without a huge fixture.
const DefaultSlots = 40

// Tree is the single-writer, single-reader index over one backing file.
// It holds no page cache beyond whatever page value is live on the call
// stack of the operation in progress — pages are always reloaded from the
// pager rather than kept as tree-instance state.
type Tree struct {
	pager  *pager.Pager
	closed atomic.Bool
}

// Open opens path if it exists (trusting its header's slot count) or
// creates it fresh with slots, the way OpenTree/NewTree in the lineage
// this package is descended from restore-or-initialize in one call.
func Open(path string, slots int) (*Tree, error) {
	p, err := pager.OpenOrCreate(path, slots)
	if err != nil {
		return nil, err
	}
	t := &Tree{pager: p}
	slog.Debug("btree.Open", "path", path, "slots", p.Slots(), "root", p.Root())
	return t, nil
}

func (t *Tree) ensureOpen() error {
	if t.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Close persists header metadata and syncs the backing file.
func (t *Tree) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	slog.Debug("btree.Close")
	return t.pager.Close()
}

// Slots returns the page capacity this tree's backing file was created with.
func (t *Tree) Slots() int { return t.pager.Slots() }

func (t *Tree) minSize() int { return t.pager.Slots() / 2 }

// validateKey rejects a key whose content exceeds the fixed buffer, rather
// than silently truncating it the way pager.NewKey does for convenience
// callers. Insert, FindAll and Erase all return ErrKeyTooLong for such a
// key; the CLI harnesses pass keys through unchanged, so they get the same
// error.
func validateKey(raw string) error {
	if len(raw) > pager.KeyLen-1 {
		return fmt.Errorf("%w: %q is %d bytes", ErrKeyTooLong, raw, len(raw))
	}
	return nil
}

// Insert adds (key, payload) to the tree. Duplicate keys are permitted;
// entries with the same key are distinguished and ordered by payload.
// Inserting an exact (key, payload) pair that is already present is a no-op.
func (t *Tree) Insert(rawKey string, payload int32) error {
	if err := t.ensureOpen(); err != nil {
		return err
	}
	if err := validateKey(rawKey); err != nil {
		return err
	}
	key := pager.NewKey(rawKey)
	entry := pager.Entry{Key: key, Payload: payload}
	slog.Debug("btree.Insert.start", "key", rawKey, "payload", payload)

	rootID := t.pager.Root()
	if rootID == pager.NonePage {
		leaf := pager.NewPage(pager.Leaf, t.pager.Slots())
		leaf.Data = append(leaf.Data, entry)
		id, err := t.pager.AppendPage(leaf)
		if err != nil {
			return err
		}
		t.pager.SetRoot(id)
		slog.Debug("btree.Insert.newRoot", "root", id)
		return t.pager.PutMeta()
	}

	_, newSiblingID, err := t.insertRec(rootID, entry)
	if err != nil {
		return err
	}
	if newSiblingID != pager.NonePage {
		if err := t.growRoot(rootID, newSiblingID); err != nil {
			return err
		}
	}
	slog.Debug("btree.Insert.done", "key", rawKey, "payload", payload)
	return t.pager.PutMeta()
}

// growRoot wraps the old root and its new split sibling in a fresh
// internal root, the way the original pushes the tree's height up by one
// only when the top-level split actually occurs.
func (t *Tree) growRoot(oldRootID, newSiblingID uint32) error {
	oldRoot, err := t.pager.ReadPage(oldRootID)
	if err != nil {
		return err
	}
	newSibling, err := t.pager.ReadPage(newSiblingID)
	if err != nil {
		return err
	}

	newRoot := pager.NewPage(pager.Internal, t.pager.Slots())
	newRoot.Data = append(newRoot.Data, oldRoot.Back(), newSibling.Back())
	newRoot.Children = append(newRoot.Children, oldRootID, newSiblingID)
	newRootID, err := t.pager.AppendPage(newRoot)
	if err != nil {
		return err
	}

	oldRoot.Parent = newRootID
	if err := t.pager.UpdatePage(oldRootID, oldRoot); err != nil {
		return err
	}
	newSibling.Parent = newRootID
	if err := t.pager.UpdatePage(newSiblingID, newSibling); err != nil {
		return err
	}
	t.pager.SetRoot(newRootID)
	slog.Debug("btree.growRoot", "newRoot", newRootID, "left", oldRootID, "right", newSiblingID)
	return nil
}

// descendToLeaf walks from pageID down to the leaf whose range contains
// probe, using lower_bound at every internal level to pick the child.
func (t *Tree) descendToLeaf(pageID uint32, probe pager.Entry) (uint32, error) {
	page, err := t.pager.ReadPage(pageID)
	if err != nil {
		return 0, err
	}
	if page.Type == pager.Leaf {
		return pageID, nil
	}
	idx := page.LowerBound(probe)
	return t.descendToLeaf(page.Children[idx], probe)
}

// FindAll returns every payload stored under rawKey, in ascending payload
// order, or nil if the key is absent. Matching entries may span more than
// one leaf page across a split boundary, so the scan follows the
// leaf-chain Right pointer until it runs past the key.
func (t *Tree) FindAll(rawKey string) ([]int32, error) {
	if err := t.ensureOpen(); err != nil {
		return nil, err
	}
	if err := validateKey(rawKey); err != nil {
		return nil, err
	}
	key := pager.NewKey(rawKey)
	rootID := t.pager.Root()
	if rootID == pager.NonePage {
		return nil, nil
	}

	probe := pager.Probe(key)
	leafID, err := t.descendToLeaf(rootID, probe)
	if err != nil {
		return nil, err
	}

	var out []int32
	for leafID != pager.NonePage {
		leaf, err := t.pager.ReadPage(leafID)
		if err != nil {
			return nil, err
		}
		idx := leaf.LowerBound(probe)
		j := idx
		matched := false
		for j < len(leaf.Data) && leaf.Data[j].Key == key {
			out = append(out, leaf.Data[j].Payload)
			j++
			matched = true
		}
		if j < len(leaf.Data) || !matched {
			// Either the run ended mid-page, or lower_bound's size-1
			// fallback landed on an entry that isn't actually a match
			// (the probe exceeds everything on this page) — in both
			// cases the run of equal keys is complete.
			break
		}
		// The run ran to the end of this page; a split may have cut a
		// long duplicate-key run across the leaf-chain boundary.
		leafID = leaf.Right
	}
	slog.Debug("btree.FindAll", "key", rawKey, "count", len(out))
	return out, nil
}

// FindOne reports whether key exists at all and, if so, its smallest
// payload — a convenience for callers that only need existence, grounded
// in the same descent FindAll uses.
func (t *Tree) FindOne(rawKey string) (int32, bool, error) {
	payloads, err := t.FindAll(rawKey)
	if err != nil || len(payloads) == 0 {
		return 0, false, err
	}
	return payloads[0], true, nil
}
