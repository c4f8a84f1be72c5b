package pager

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
)

// headerSlots mirrors the original's info_len-reserved-ints-at-file-start
// idiom: four int32 metadata slots even though only three are assigned
// today, leaving one reserved the way MemoryRiver<T, info_len> always
// reserved more header ints than any one caller used.
const headerSlots = 4
const headerSize = headerSlots * 4

const (
	slotNextID = 0
	slotRoot   = 1
	slotSlots  = 2
	// slot 3 reserved.
)

// Pager maps logical page ids to fixed-offset records in a single backing
// file, the way MemoryRiver mapped a T id to a byte offset in the original.
// Page id 0 is never allocated — it is the sentinel "no page" value shared
// with internal/bptree's routing structures.
type Pager struct {
	file       *os.File
	path       string
	slots      int
	recordSize int
	nextID     uint32
	root       uint32

	pagesWritten uint64
	bytesWritten uint64

	closed bool
}

// Create initializes a brand-new backing file with the given slot
// capacity, writing an empty header. It fails if the file already exists.
func Create(path string, slots int) (*Pager, error) {
	if slots < 4 || slots%2 != 0 {
		return nil, ErrInvalidSlots
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("pager: create %s: %w", path, err)
	}
	p := &Pager{
		file:       f,
		path:       path,
		slots:      slots,
		recordSize: RecordSize(slots),
		nextID:     1,
		root:       NonePage,
	}
	if err := p.writeHeader(); err != nil {
		f.Close()
		return nil, err
	}
	slog.Debug("pager.Create", "path", path, "slots", slots, "recordSize", p.recordSize)
	return p, nil
}

// Open reopens an existing backing file, trusting the slot capacity
// recorded in its header over whatever the caller passed at creation time
// — the header is the source of truth for the record layout across a
// restart, per SPEC_FULL.md §3.
func Open(path string) (*Pager, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("pager: open %s: %w", path, err)
	}
	hdr := make([]byte, headerSize)
	if _, err := f.ReadAt(hdr, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrCorruptHeader, err)
	}
	slots := int(binary.LittleEndian.Uint32(hdr[slotSlots*4 : slotSlots*4+4]))
	if slots < 4 || slots%2 != 0 {
		f.Close()
		return nil, ErrCorruptHeader
	}
	p := &Pager{
		file:       f,
		path:       path,
		slots:      slots,
		recordSize: RecordSize(slots),
		nextID:     binary.LittleEndian.Uint32(hdr[slotNextID*4 : slotNextID*4+4]),
		root:       binary.LittleEndian.Uint32(hdr[slotRoot*4 : slotRoot*4+4]),
	}
	if p.nextID == 0 {
		p.nextID = 1
	}
	slog.Debug("pager.Open", "path", path, "slots", slots, "nextID", p.nextID, "root", p.root)
	return p, nil
}

// OpenOrCreate opens path if it exists, otherwise creates it with slots.
func OpenOrCreate(path string, slots int) (*Pager, error) {
	if _, err := os.Stat(path); err == nil {
		return Open(path)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("pager: stat %s: %w", path, err)
	}
	return Create(path, slots)
}

func (p *Pager) Slots() int { return p.slots }

// Root returns the persisted root page id (NonePage for an empty tree).
func (p *Pager) Root() uint32 { return p.root }

// SetRoot updates the in-memory root id; it is flushed to the header on
// the next writeHeader (PutMeta or Close).
func (p *Pager) SetRoot(id uint32) { p.root = id }

func (p *Pager) offsetOf(id uint32) int64 {
	return int64(headerSize) + int64(id)*int64(p.recordSize)
}

// AppendPage allocates the next sequential page id, writes page at that
// offset, and returns the assigned id. This is the sequential-counter
// scheme spec.md §4.1 offers as an alternative to file-offset-as-id.
func (p *Pager) AppendPage(page *Page) (uint32, error) {
	if p.closed {
		return 0, ErrClosed
	}
	id := p.nextID
	if err := p.writePage(id, page); err != nil {
		return 0, err
	}
	p.nextID++
	p.pagesWritten++
	return id, nil
}

// ReadPage loads the page record for id.
func (p *Pager) ReadPage(id uint32) (*Page, error) {
	if p.closed {
		return nil, ErrClosed
	}
	if id == NonePage || id >= p.nextID {
		return nil, ErrNoSuchPage
	}
	buf := make([]byte, p.recordSize)
	if _, err := p.file.ReadAt(buf, p.offsetOf(id)); err != nil {
		return nil, fmt.Errorf("pager: read page %d: %w", id, err)
	}
	pg, err := Decode(buf, p.slots)
	if err != nil {
		return nil, fmt.Errorf("pager: decode page %d: %w", id, err)
	}
	return pg, nil
}

// UpdatePage overwrites an existing page record in place.
func (p *Pager) UpdatePage(id uint32, page *Page) error {
	if p.closed {
		return ErrClosed
	}
	if id == NonePage || id >= p.nextID {
		return ErrNoSuchPage
	}
	return p.writePage(id, page)
}

func (p *Pager) writePage(id uint32, page *Page) error {
	buf := page.Encode(p.slots)
	n, err := p.file.WriteAt(buf, p.offsetOf(id))
	if err != nil {
		return fmt.Errorf("pager: write page %d: %w", id, err)
	}
	p.bytesWritten += uint64(n)
	return nil
}

func (p *Pager) writeHeader() error {
	hdr := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(hdr[slotNextID*4:], p.nextID)
	binary.LittleEndian.PutUint32(hdr[slotRoot*4:], p.root)
	binary.LittleEndian.PutUint32(hdr[slotSlots*4:], uint32(p.slots))
	if _, err := p.file.WriteAt(hdr, 0); err != nil {
		return fmt.Errorf("pager: write header: %w", err)
	}
	return nil
}

// PutMeta persists the current nextID/root header slots without closing
// the file — used after a batch of mutations so a killed process loses at
// most the in-flight operation, not the whole session.
func (p *Pager) PutMeta() error {
	if p.closed {
		return ErrClosed
	}
	return p.writeHeader()
}

// GetMeta returns the (nextID, root) pair currently tracked in memory.
func (p *Pager) GetMeta() (nextID, root uint32) {
	return p.nextID, p.root
}

// Stats reports pages allocated so far and bytes written this session.
type Stats struct {
	PagesAllocated uint32
	PagesWritten   uint64
	BytesWritten   uint64
}

func (p *Pager) Stats() Stats {
	return Stats{
		PagesAllocated: p.nextID - 1,
		PagesWritten:   p.pagesWritten,
		BytesWritten:   p.bytesWritten,
	}
}

// Close flushes the header and syncs the file to durable storage. Calling
// Close more than once is a no-op.
func (p *Pager) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	if err := p.writeHeader(); err != nil {
		p.file.Close()
		return err
	}
	if err := p.file.Sync(); err != nil {
		p.file.Close()
		return fmt.Errorf("pager: sync: %w", err)
	}
	slog.Debug("pager.Close", "path", p.path, "stats", p.Stats())
	return p.file.Close()
}
