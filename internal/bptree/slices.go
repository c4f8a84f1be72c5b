package bptree

import "github.com/bptidx/bptreeidx/internal/pager"

func insertEntryAt(data []pager.Entry, idx int, e pager.Entry) []pager.Entry {
	data = append(data, pager.Entry{})
	copy(data[idx+1:], data[idx:len(data)-1])
	data[idx] = e
	return data
}

func insertChildAt(children []uint32, idx int, id uint32) []uint32 {
	children = append(children, 0)
	copy(children[idx+1:], children[idx:len(children)-1])
	children[idx] = id
	return children
}

func removeEntryAt(data []pager.Entry, idx int) []pager.Entry {
	return append(data[:idx], data[idx+1:]...)
}

func removeChildAt(children []uint32, idx int) []uint32 {
	return append(children[:idx], children[idx+1:]...)
}
