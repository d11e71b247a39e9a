package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/blake2b"

	"github.com/tombolalabs/tombola/internal/drawtime"
	"github.com/tombolalabs/tombola/pkg/db"
	"github.com/tombolalabs/tombola/pkg/db/pebble"
)

var (
	ErrAwardNotFound = errors.New("award record not found")
	ErrArchiveClosed = errors.New("draw archive is closed")
	ErrCorruptRecord = errors.New("award record failed checksum")
	ErrDrawZero      = errors.New("award record has no draw id")
	ErrInvalidRange  = errors.New("range start after end")
)

const (
	prefixAward byte = iota + 1
)

const (
	// payloadSize is the fixed encoding of an award record: draw id,
	// tier count, liquidity, reserve, awarded-at nanoseconds.
	payloadSize = 4 + 1 + 32 + 32 + 8

	// encodedSize appends a blake2b checksum over the payload.
	encodedSize = payloadSize + blake2b.Size256
)

// AwardRecord is the durable summary of one closed draw. The archive keeps
// these beyond the accumulator's in-memory window for audits.
type AwardRecord struct {
	Draw          drawtime.DrawID
	NumberOfTiers uint8
	Liquidity     uint256.Int
	Reserve       uint256.Int
	AwardedAt     time.Time
}

func (r AwardRecord) encode() []byte {
	buf := make([]byte, encodedSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(r.Draw))
	buf[4] = r.NumberOfTiers
	liquidity := r.Liquidity.Bytes32()
	copy(buf[5:37], liquidity[:])
	reserve := r.Reserve.Bytes32()
	copy(buf[37:69], reserve[:])
	binary.LittleEndian.PutUint64(buf[69:payloadSize], uint64(r.AwardedAt.UnixNano()))

	sum := blake2b.Sum256(buf[:payloadSize])
	copy(buf[payloadSize:], sum[:])
	return buf
}

func decodeRecord(data []byte) (AwardRecord, error) {
	if len(data) != encodedSize {
		return AwardRecord{}, fmt.Errorf("%w: %d bytes", ErrCorruptRecord, len(data))
	}
	sum := blake2b.Sum256(data[:payloadSize])
	if !bytes.Equal(sum[:], data[payloadSize:]) {
		return AwardRecord{}, ErrCorruptRecord
	}

	rec := AwardRecord{
		Draw:          drawtime.DrawID(binary.LittleEndian.Uint32(data[0:4])),
		NumberOfTiers: data[4],
		AwardedAt:     time.Unix(0, int64(binary.LittleEndian.Uint64(data[69:payloadSize]))).UTC(),
	}
	rec.Liquidity.SetBytes(data[5:37])
	rec.Reserve.SetBytes(data[37:69])
	return rec, nil
}

// Archive stores awarded-draw records in a key-value store, keyed by draw
// id so range scans come back in draw order. It owns the store it wraps.
type Archive struct {
	db     db.KVStore
	closed atomic.Bool
}

// NewArchive creates a draw archive over the given store.
func NewArchive(db db.KVStore) *Archive {
	return &Archive{db: db}
}

// Put stores an award record atomically, replacing any record the draw
// already has.
func (a *Archive) Put(rec AwardRecord) error {
	if a.closed.Load() {
		return ErrArchiveClosed
	}
	if rec.Draw == drawtime.NoDraw {
		return ErrDrawZero
	}

	batch := a.db.NewBatch()
	defer batch.Close()

	if err := batch.Put(awardKey(rec.Draw), rec.encode()); err != nil {
		return fmt.Errorf("store award record %d: %w", rec.Draw, err)
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Get retrieves the award record for a draw.
func (a *Archive) Get(draw drawtime.DrawID) (AwardRecord, error) {
	if a.closed.Load() {
		return AwardRecord{}, ErrArchiveClosed
	}

	data, err := a.db.Get(awardKey(draw))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return AwardRecord{}, ErrAwardNotFound
		}
		return AwardRecord{}, fmt.Errorf("get award record %d: %w", draw, err)
	}

	rec, err := decodeRecord(data)
	if err != nil {
		return AwardRecord{}, fmt.Errorf("award record %d: %w", draw, err)
	}
	return rec, nil
}

// Range returns the award records for draws in [start, end], ascending.
func (a *Archive) Range(start, end drawtime.DrawID) ([]AwardRecord, error) {
	if a.closed.Load() {
		return nil, ErrArchiveClosed
	}
	if start > end {
		return nil, fmt.Errorf("%w: start %d after end %d", ErrInvalidRange, start, end)
	}

	upper := []byte{prefixAward + 1}
	if end < drawtime.MaxDraw {
		upper = awardKey(end + 1)
	}
	iter, err := a.db.NewIterator(awardKey(start), upper)
	if err != nil {
		return nil, fmt.Errorf("create iterator: %w", err)
	}
	defer iter.Close()

	var records []AwardRecord
	for iter.Next() {
		data, err := iter.Value()
		if err != nil {
			return nil, fmt.Errorf("read award record: %w", err)
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, fmt.Errorf("award record at key %x: %w", iter.Key(), err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Newest returns the record of the highest archived draw, or
// ErrAwardNotFound on an empty archive. The daemon resumes from it after a
// restart.
func (a *Archive) Newest() (AwardRecord, error) {
	if a.closed.Load() {
		return AwardRecord{}, ErrArchiveClosed
	}

	iter, err := a.db.NewIterator([]byte{prefixAward}, []byte{prefixAward + 1})
	if err != nil {
		return AwardRecord{}, fmt.Errorf("create iterator: %w", err)
	}
	defer iter.Close()

	var last []byte
	for iter.Next() {
		data, err := iter.Value()
		if err != nil {
			return AwardRecord{}, fmt.Errorf("read award record: %w", err)
		}
		last = data
	}
	if last == nil {
		return AwardRecord{}, ErrAwardNotFound
	}
	return decodeRecord(last)
}

// Prune deletes every record for draws below the given one, returning how
// many were removed.
func (a *Archive) Prune(before drawtime.DrawID) (int, error) {
	if a.closed.Load() {
		return 0, ErrArchiveClosed
	}
	if before == drawtime.NoDraw {
		return 0, nil
	}

	iter, err := a.db.NewIterator(awardKey(drawtime.MinDraw), awardKey(before))
	if err != nil {
		return 0, fmt.Errorf("create iterator: %w", err)
	}
	defer iter.Close()

	batch := a.db.NewBatch()
	defer batch.Close()

	for iter.Next() {
		if err := batch.Delete(iter.Key()); err != nil {
			return 0, fmt.Errorf("delete award record: %w", err)
		}
	}
	pruned := batch.Count()
	if pruned == 0 {
		return 0, nil
	}
	if err := batch.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	return pruned, nil
}

// Close closes the archive and its underlying store.
func (a *Archive) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}
	return a.db.Close()
}

// awardKey builds the key for a draw's award record: a type prefix plus
// the big-endian id, so lexicographic key order is draw order.
func awardKey(draw drawtime.DrawID) []byte {
	key := make([]byte, 5)
	key[0] = prefixAward
	binary.BigEndian.PutUint32(key[1:], uint32(draw))
	return key
}
