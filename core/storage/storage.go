package storage

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"ccsledger/core/ledger"
)

// Key layout inside LevelDB:
//
//	state:<id>                       current value of the ledger key
//	histseq:<id>                     next history sequence number for the key
//	hist:<id>|<seq, 10 digits>       one committed version {txId, timestamp, value}
//	idx:created:<createdAt>|<id>     createdAt-ordered index over records
//	idx:project:<proj>|<createdAt>|<id>  per-project, createdAt-ordered index
//
// Index entries are written only for values that carry a createdAt, so
// finalized aggregates never feed back into window scans.
const (
	statePrefix   = "state:"
	histSeqPrefix = "histseq:"
	histPrefix    = "hist:"
	createdIndex  = "idx:created:"
	projectIndex  = "idx:project:"
)

// StateBackend abstracts the persistent key-value store for ledger state.
type StateBackend interface {
	Get(key string) ([]byte, error)
	Has(key string) (bool, error)
	Commit(ws *WriteSet) error
}

// Store is the LevelDB-backed world state. It also implements the repo's
// query gateway: history replay, createdAt range scans, and per-project scans
// with bookmark pagination.
type Store struct {
	db *leveldb.DB
}

func NewStore(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get retrieves the current value at a ledger key. A missing key maps onto
// the NotFound error kind.
func (s *Store) Get(key string) ([]byte, error) {
	val, err := s.db.Get([]byte(statePrefix+key), nil)
	if err == leveldb.ErrNotFound {
		return nil, ledger.NotFoundf("key %s", key)
	}
	if err != nil {
		return nil, err
	}
	return openValue(val)
}

// Has reports whether a ledger key holds a value. No side effects.
func (s *Store) Has(key string) (bool, error) {
	return s.db.Has([]byte(statePrefix+key), nil)
}

// Write is one staged putState inside a transaction. CreatedAt and ProjectID
// drive index maintenance and are empty for non-record values.
type Write struct {
	Key       string
	Value     []byte
	CreatedAt string
	ProjectID string
}

// WriteSet is the buffered output of a single transaction. Commit applies it
// as one LevelDB batch: either every write (state, history, indexes) lands or
// none do.
type WriteSet struct {
	TxID      string
	Timestamp string
	Writes    []Write
}

func (ws *WriteSet) Put(key string, value []byte) {
	ws.Writes = append(ws.Writes, Write{Key: key, Value: value})
}

func (ws *WriteSet) PutRecord(key string, value []byte, createdAt, projectID string) {
	ws.Writes = append(ws.Writes, Write{Key: key, Value: value, CreatedAt: createdAt, ProjectID: projectID})
}

// HistoryEntry is one committed version of a ledger key, in commit order.
type HistoryEntry struct {
	TxID      string          `json:"txId"`
	Timestamp string          `json:"timestamp"`
	IsDelete  bool            `json:"isDelete"`
	Value     json.RawMessage `json:"value"`
}

// Commit applies a write set atomically and appends a history entry per write.
func (s *Store) Commit(ws *WriteSet) error {
	batch := new(leveldb.Batch)
	for _, w := range ws.Writes {
		sealed, err := sealValue(w.Value)
		if err != nil {
			return err
		}
		batch.Put([]byte(statePrefix+w.Key), sealed)

		seq, err := s.nextHistSeq(w.Key)
		if err != nil {
			return err
		}
		entry := HistoryEntry{TxID: ws.TxID, Timestamp: ws.Timestamp, Value: w.Value}
		entryBytes, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		sealedEntry, err := sealValue(entryBytes)
		if err != nil {
			return err
		}
		batch.Put([]byte(fmt.Sprintf("%s%s|%010d", histPrefix, w.Key, seq)), sealedEntry)
		batch.Put([]byte(histSeqPrefix+w.Key), []byte(strconv.FormatUint(seq+1, 10)))

		if w.CreatedAt != "" {
			batch.Put([]byte(createdIndex+w.CreatedAt+"|"+w.Key), []byte(w.Key))
			if w.ProjectID != "" {
				batch.Put([]byte(projectIndex+w.ProjectID+"|"+w.CreatedAt+"|"+w.Key), []byte(w.Key))
			}
		}
	}
	return s.db.Write(batch, nil)
}

func (s *Store) nextHistSeq(key string) (uint64, error) {
	data, err := s.db.Get([]byte(histSeqPrefix+key), nil)
	if err == leveldb.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(string(data), 10, 64)
}

// History returns every committed version of a ledger key in commit order.
func (s *Store) History(key string) ([]HistoryEntry, error) {
	prefix := []byte(histPrefix + key + "|")
	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()

	var entries []HistoryEntry
	for iter.Next() {
		val, err := openValue(iter.Value())
		if err != nil {
			return nil, err
		}
		var entry HistoryEntry
		if err := json.Unmarshal(val, &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ledger.NotFoundf("key %s", key)
	}
	return entries, nil
}

// KeyedValue pairs a ledger key with its current raw value.
type KeyedValue struct {
	Key   string          `json:"Key"`
	Value json.RawMessage `json:"Record"`
}

// AllState scans the full world state in key order.
func (s *Store) AllState() ([]KeyedValue, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(statePrefix)), nil)
	defer iter.Release()

	var out []KeyedValue
	for iter.Next() {
		val, err := openValue(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, KeyedValue{
			Key:   string(bytes.TrimPrefix(iter.Key(), []byte(statePrefix))),
			Value: append(json.RawMessage{}, val...),
		})
	}
	return out, iter.Error()
}

// Page is one page of a range scan. Bookmark is opaque; an empty bookmark on
// return means the scan is exhausted.
type Page struct {
	Values       []KeyedValue
	FetchedCount int
	Bookmark     string
}

// RangeByCreated scans records whose createdAt falls inside [start, end]
// (both inclusive, wire-format timestamps), in createdAt-ascending order.
// projectID narrows the scan when non-empty. pageSize must be positive;
// bookmark resumes a prior scan.
func (s *Store) RangeByCreated(start, end, projectID string, pageSize int, bookmark string) (*Page, error) {
	var lo, hi []byte
	if projectID != "" {
		lo = []byte(projectIndex + projectID + "|" + start)
		hi = []byte(projectIndex + projectID + "|" + end + "\xff")
	} else {
		lo = []byte(createdIndex + start)
		hi = []byte(createdIndex + end + "\xff")
	}
	return s.scanIndex(lo, hi, pageSize, bookmark)
}

// ByProject scans every record for a project in createdAt-ascending order.
func (s *Store) ByProject(projectID string, pageSize int, bookmark string) (*Page, error) {
	lo := []byte(projectIndex + projectID + "|")
	hi := []byte(projectIndex + projectID + "|\xff")
	return s.scanIndex(lo, hi, pageSize, bookmark)
}

func (s *Store) scanIndex(lo, hi []byte, pageSize int, bookmark string) (*Page, error) {
	if bookmark != "" {
		after, err := base64.StdEncoding.DecodeString(bookmark)
		if err != nil {
			return nil, ledger.Validationf("malformed bookmark")
		}
		// Resume strictly after the last key of the previous page.
		if bytes.Compare(after, lo) >= 0 {
			lo = append(after, 0x00)
		}
	}

	iter := s.db.NewIterator(&util.Range{Start: lo, Limit: hi}, nil)
	defer iter.Release()

	page := &Page{}
	var lastIndexKey []byte
	for iter.Next() {
		if page.FetchedCount >= pageSize {
			// More rows remain; hand back a resumable bookmark.
			page.Bookmark = base64.StdEncoding.EncodeToString(lastIndexKey)
			return page, nil
		}
		id := string(iter.Value())
		val, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		page.Values = append(page.Values, KeyedValue{Key: id, Value: val})
		page.FetchedCount++
		lastIndexKey = append(lastIndexKey[:0], iter.Key()...)
	}
	return page, iter.Error()
}

// RecordCount counts current world-state entries, for node metrics.
func (s *Store) RecordCount() (int, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(statePrefix)), nil)
	defer iter.Release()
	count := 0
	for iter.Next() {
		count++
	}
	return count, iter.Error()
}
