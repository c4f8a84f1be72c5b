package bptree

import (
	"log/slog"

	"github.com/bptidx/bptreeidx/internal/pager"
)

// insertRec descends to the leaf owning entry, inserts it, and propagates
// the rightmost-key-replication repair upward: every ancestor routing
// entry for a touched child is overwritten with that child's current
// maximum, unconditionally, which is simpler and just as correct as only
// updating it when the max actually moved. It returns this page's new
// maximum entry and, if this page had to split to absorb the insert, the
// id of its new right sibling (pager.NonePage otherwise).
func (t *Tree) insertRec(pageID uint32, entry pager.Entry) (pager.Entry, uint32, error) {
	page, err := t.pager.ReadPage(pageID)
	if err != nil {
		return pager.Entry{}, pager.NonePage, err
	}

	if page.Type == pager.Leaf {
		idx := page.LowerBound(entry)
		if idx < len(page.Data) && page.Data[idx].Equal(entry) {
			return page.Back(), pager.NonePage, nil
		}
		if idx < len(page.Data) && page.Data[idx].Less(entry) {
			idx = len(page.Data)
		}
		page.Data = insertEntryAt(page.Data, idx, entry)

		var siblingID uint32 = pager.NonePage
		if len(page.Data) >= t.pager.Slots() {
			siblingID, err = t.splitLeaf(pageID, page)
			if err != nil {
				return pager.Entry{}, pager.NonePage, err
			}
		} else if err := t.pager.UpdatePage(pageID, page); err != nil {
			return pager.Entry{}, pager.NonePage, err
		}
		return page.Back(), siblingID, nil
	}

	idx := page.LowerBound(entry)
	childID := page.Children[idx]
	childMax, childSibling, err := t.insertRec(childID, entry)
	if err != nil {
		return pager.Entry{}, pager.NonePage, err
	}
	page.Data[idx] = childMax

	if childSibling != pager.NonePage {
		siblingPage, err := t.pager.ReadPage(childSibling)
		if err != nil {
			return pager.Entry{}, pager.NonePage, err
		}
		page.Data = insertEntryAt(page.Data, idx+1, siblingPage.Back())
		page.Children = insertChildAt(page.Children, idx+1, childSibling)
		siblingPage.Parent = pageID
		if err := t.pager.UpdatePage(childSibling, siblingPage); err != nil {
			return pager.Entry{}, pager.NonePage, err
		}
	}

	var siblingID uint32 = pager.NonePage
	if len(page.Data) >= t.pager.Slots() {
		siblingID, err = t.splitInternal(pageID, page)
		if err != nil {
			return pager.Entry{}, pager.NonePage, err
		}
	} else if err := t.pager.UpdatePage(pageID, page); err != nil {
		return pager.Entry{}, pager.NonePage, err
	}
	return page.Back(), siblingID, nil
}

// splitLeaf moves the upper half of page's entries into a new leaf,
// splices it into the leaf chain, and writes both pages. page is mutated
// in place to hold only the lower half, matching the contract that
// callers read page.Back() afterward for the truncated page's new max.
func (t *Tree) splitLeaf(pageID uint32, page *pager.Page) (uint32, error) {
	mid := len(page.Data) / 2
	sibling := pager.NewPage(pager.Leaf, t.pager.Slots())
	sibling.Data = append(sibling.Data, page.Data[mid:]...)
	sibling.Parent = page.Parent
	sibling.Left = pageID
	sibling.Right = page.Right

	siblingID, err := t.pager.AppendPage(sibling)
	if err != nil {
		return 0, err
	}

	if page.Right != pager.NonePage {
		rightNeighbor, err := t.pager.ReadPage(page.Right)
		if err != nil {
			return 0, err
		}
		rightNeighbor.Left = siblingID
		if err := t.pager.UpdatePage(page.Right, rightNeighbor); err != nil {
			return 0, err
		}
	}

	page.Data = page.Data[:mid]
	page.Right = siblingID
	if err := t.pager.UpdatePage(pageID, page); err != nil {
		return 0, err
	}
	slog.Debug("btree.splitLeaf", "page", pageID, "sibling", siblingID, "leftSize", len(page.Data), "rightSize", len(sibling.Data))
	return siblingID, nil
}

// splitInternal is splitLeaf's counterpart for routing pages: it also
// divides the children array in lockstep with the entries, and reparents
// every child that moved to the new sibling.
func (t *Tree) splitInternal(pageID uint32, page *pager.Page) (uint32, error) {
	mid := len(page.Data) / 2
	sibling := pager.NewPage(pager.Internal, t.pager.Slots())
	sibling.Data = append(sibling.Data, page.Data[mid:]...)
	sibling.Children = append(sibling.Children, page.Children[mid:]...)
	sibling.Parent = page.Parent

	siblingID, err := t.pager.AppendPage(sibling)
	if err != nil {
		return 0, err
	}

	for _, childID := range sibling.Children {
		child, err := t.pager.ReadPage(childID)
		if err != nil {
			return 0, err
		}
		child.Parent = siblingID
		if err := t.pager.UpdatePage(childID, child); err != nil {
			return 0, err
		}
	}

	page.Data = page.Data[:mid]
	page.Children = page.Children[:mid]
	if err := t.pager.UpdatePage(pageID, page); err != nil {
		return 0, err
	}
	slog.Debug("btree.splitInternal", "page", pageID, "sibling", siblingID, "leftSize", len(page.Data), "rightSize", len(sibling.Data))
	return siblingID, nil
}
