// Package database provides the local archive of the Readwise library.
//
// The archive mirrors books and highlights by their Readwise ids, so
// repeated backups update rows in place instead of duplicating them. Each
// backup pass is recorded as a BackupRun.
//
//	db, err := database.NewDatabase("./readwise-archive.db", log)
//	books, err := db.GetBooksWithHighlights()
package database
