// Package catalog is the shared catalog store of announced files: insert,
// delete-one, delete-all-for-peer, list distinct files, list peers for a
// file. Interior-synchronized; callers need not hold any lock of their own.
package catalog

import (
	"sort"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	liberr "github.com/sabouaram/p2ptracker/errors"
)

// DefaultDSN opens a private, process-local SQLite database that lives only
// in memory, matching invariant I3 (the catalog is never persisted across
// restarts). cache=shared lets the single *gorm.DB connection pool reopen
// the same in-memory database rather than each connection seeing an empty
// one.
const DefaultDSN = "file::memory:?cache=shared"

// Store is the catalog: a single GORM/SQLite handle guarded by a mutex. The
// mutex exists even though SQLite serializes at the driver level, so that
// the read-then-write sequence inside Insert observes a consistent snapshot
// (see the Open Question on schema ownership in the design notes: this
// package owns its schema and creates it with AutoMigrate).
type Store struct {
	mu sync.Mutex
	db *gorm.DB
}

// Open creates (or reopens) the catalog database at dsn and ensures its
// schema exists. An empty dsn uses DefaultDSN.
func Open(dsn string) (*Store, liberr.Error) {
	if dsn == "" {
		dsn = DefaultDSN
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, ErrorOpen.Error(err)
	}

	if err = db.AutoMigrate(&announcementRow{}); err != nil {
		return nil, ErrorMigrate.Error(err)
	}

	// SQLite has no real concurrent-writer story; a single pooled connection
	// plus the Store mutex above keeps every access serialized through one
	// handle, matching the "store owns the single connection" allowance.
	if sqlDB, errDB := db.DB(); errDB == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	return &Store{db: db}, nil
}

// Truncate removes every announcement. Called once at startup (invariant
// I3) and available to operators for a hard reset.
func (s *Store) Truncate() liberr.Error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Exec("DELETE FROM " + announcementRow{}.TableName()).Error; err != nil {
		return ErrorDelete.Error(err)
	}

	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.db.DB()
	if err != nil {
		return err
	}

	return d.Close()
}

// Insert enforces I1: it fails with a liberr.Error carrying ErrorDuplicateKey
// if (file, hash, peer) already exists, otherwise inserts the row.
func (s *Store) Insert(file, hash string, size int64, peer string) liberr.Error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	if err := s.db.Model(&announcementRow{}).
		Where("file_name = ? AND file_hash = ? AND peer_addr = ?", file, hash, peer).
		Count(&n).Error; err != nil {
		return ErrorInsert.Error(err)
	}

	if n > 0 {
		return ErrorDuplicateKey.Error(nil)
	}

	row := announcementRow{File: file, Hash: hash, Size: size, Peer: peer}
	if err := s.db.Create(&row).Error; err != nil {
		return ErrorInsert.Error(err)
	}

	return nil
}

// DeleteOne removes the at-most-one row matching (file, hash, peer). Zero
// matching rows is not an error; the current behavior is preserved as-is.
func (s *Store) DeleteOne(file, hash, peer string) liberr.Error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Where("file_name = ? AND file_hash = ? AND peer_addr = ?", file, hash, peer).
		Delete(&announcementRow{}).Error; err != nil {
		return ErrorDelete.Error(err)
	}

	return nil
}

// DeleteForPeer removes every row owned by peer (invariant I2), atomically
// with respect to concurrent readers of this store.
func (s *Store) DeleteForPeer(peer string) liberr.Error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Where("peer_addr = ?", peer).Delete(&announcementRow{}).Error; err != nil {
		return ErrorDelete.Error(err)
	}

	return nil
}

// ListFiles returns each distinct file once, sorted ascending by file. The
// representative size for a file with multiple differing-size rows is
// whichever matching row GORM returns first; stable within this call, not
// specified across calls.
func (s *Store) ListFiles() ([]FileEntry, liberr.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []announcementRow
	if err := s.db.Order("file_name asc").Find(&rows).Error; err != nil {
		return nil, ErrorList.Error(err)
	}

	seen := make(map[string]bool, len(rows))
	out := make([]FileEntry, 0, len(rows))

	for _, r := range rows {
		if seen[r.File] {
			continue
		}
		seen[r.File] = true
		out = append(out, FileEntry{File: r.File, Size: r.Size})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })

	return out, nil
}

// ListPeersFor returns every row whose file equals the argument, sorted
// ascending by peer. Duplicates across peers are expected; within one peer,
// I1 already forbids duplicate hashes for the same (file, peer).
func (s *Store) ListPeersFor(file string) ([]PeerEntry, liberr.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []announcementRow
	if err := s.db.Where("file_name = ?", file).Order("peer_addr asc").Find(&rows).Error; err != nil {
		return nil, ErrorList.Error(err)
	}

	out := make([]PeerEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, PeerEntry{Peer: r.Peer, Size: r.Size})
	}

	return out, nil
}

// Count returns the number of announcement rows currently held. Not part of
// the wire protocol; exposed only for the stats/console surface.
func (s *Store) Count() (int64, liberr.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	if err := s.db.Model(&announcementRow{}).Count(&n).Error; err != nil {
		return 0, ErrorList.Error(err)
	}

	return n, nil
}
