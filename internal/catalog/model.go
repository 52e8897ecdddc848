package catalog

// Announcement is a single (file, hash, size, peer) row of the catalog, as
// named in the data model: the triple (file, hash, peer) is unique (I1), and
// every row is owned by exactly one peer for the lifetime of its session (I2).
type Announcement struct {
	File string
	Hash string
	Size int64
	Peer string
}

// FileEntry is one row of a LIST response: a distinct file name and a
// representative size (the source row that supplied it is unspecified but
// stable within a single call).
type FileEntry struct {
	File string
	Size int64
}

// PeerEntry is one row of a REQUEST response: a peer currently holding the
// requested file, and the size it announced.
type PeerEntry struct {
	Peer string
	Size int64
}

// announcementRow is the GORM-mapped table backing Announcement. The unique
// index mirrors invariant I1 at the schema level, as defense-in-depth next
// to the application-level duplicate check in Store.Insert.
type announcementRow struct {
	ID   uint   `gorm:"primarykey"`
	File string `gorm:"column:file_name;size:512;not null;uniqueIndex:idx_announcement_triple"`
	Hash string `gorm:"column:file_hash;size:512;not null;uniqueIndex:idx_announcement_triple"`
	Size int64  `gorm:"column:file_size;not null"`
	Peer string `gorm:"column:peer_addr;size:128;not null;uniqueIndex:idx_announcement_triple;index:idx_announcement_peer"`
}

func (announcementRow) TableName() string {
	return "announcements"
}
