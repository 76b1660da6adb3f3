package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"photocat/internal/catalog"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements catalog.Database using SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

var _ catalog.Database = (*SQLiteDatabase)(nil)

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{
		db:   db,
		path: path,
	}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: db}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// path can be a file path or ":memory:" for in-memory database.
//
// The pool is limited to one connection: the catalog has a single writer,
// and every connection to ":memory:" would otherwise be a different database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// DB returns the underlying connection.
func (s *SQLiteDatabase) DB() *sql.DB { return s.db }

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// FsFile operations

func (s *SQLiteDatabase) AddFsFile(ctx context.Context, path string) (catalog.ID, error) {
	return addFsFile(ctx, s.db, path)
}

func addFsFile(ctx context.Context, q querier, path string) (catalog.ID, error) {
	res, err := q.ExecContext(ctx, "INSERT INTO fsfiles (path) VALUES (?)", path)
	if err != nil {
		return catalog.InvalidID, fmt.Errorf("inserting fsfile: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return catalog.InvalidID, fmt.Errorf("getting fsfile id: %w", err)
	}
	return catalog.ID(id), nil
}

func (s *SQLiteDatabase) GetFsFile(ctx context.Context, id catalog.ID) (string, error) {
	var path string
	err := s.db.QueryRowContext(ctx, "SELECT path FROM fsfiles WHERE id = ?", id).Scan(&path)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("getting fsfile: %w", err)
	}
	return path, nil
}

// File operations

const fileColumns = `files.id, files.main_file, COALESCE(fsfiles.path, ''), COALESCE(files.name, ''),
	COALESCE(files.parent_id, 0), COALESCE(files.orientation, 0), COALESCE(files.file_type, 0),
	COALESCE(files.file_date, 0), COALESCE(files.rating, 0), COALESCE(files.label, 0),
	COALESCE(files.flag, 0), COALESCE(files.import_date, 0), COALESCE(files.mod_date, 0),
	COALESCE(files.xmp_date, 0), COALESCE(files.xmp_file, 0), COALESCE(files.jpeg_file, 0)
	FROM files LEFT JOIN fsfiles ON fsfiles.id = files.main_file`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*catalog.File, error) {
	var f catalog.File
	var fileDate, importDate, modDate, xmpDate int64
	err := row.Scan(&f.ID, &f.MainFile, &f.Path, &f.Name, &f.FolderID, &f.Orientation, &f.Type,
		&fileDate, &f.Rating, &f.LabelID, &f.Flag, &importDate, &modDate, &xmpDate, &f.XmpFile, &f.JpegFile)
	if err != nil {
		return nil, err
	}
	f.FileDate = fromUnix(fileDate)
	f.ImportDate = fromUnix(importDate)
	f.ModDate = fromUnix(modDate)
	f.XmpDate = fromUnix(xmpDate)
	return &f, nil
}

func (s *SQLiteDatabase) queryFiles(ctx context.Context, where string, args ...any) ([]*catalog.File, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+fileColumns+" "+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*catalog.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (s *SQLiteDatabase) AddFile(ctx context.Context, nf *catalog.NewFile) (*catalog.AddFileResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	mainID, err := addFsFile(ctx, tx, nf.Path)
	if err != nil {
		return nil, err
	}
	var xmpID, jpegID catalog.ID
	if nf.XmpPath != "" {
		if xmpID, err = addFsFile(ctx, tx, nf.XmpPath); err != nil {
			return nil, err
		}
	}
	if nf.JpegPath != "" {
		if jpegID, err = addFsFile(ctx, tx, nf.JpegPath); err != nil {
			return nil, err
		}
	}

	importDate := toUnix(nf.ImportDate)
	res, err := tx.ExecContext(ctx, `INSERT INTO files
		(main_file, name, parent_id, orientation, file_type, file_date, rating, label, flag,
		 import_date, mod_date, xmp, xmp_date, xmp_file, jpeg_file)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		mainID, nf.Name, nf.FolderID, nf.Orientation, nf.Type, toUnix(nf.FileDate), nf.Rating,
		nf.LabelID, nf.Flag, importDate, importDate, nf.Xmp, xmpID, jpegID)
	if err != nil {
		return nil, fmt.Errorf("inserting file: %w", err)
	}
	rawID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting file id: %w", err)
	}
	fileID := catalog.ID(rawID)

	if xmpID.Valid() {
		if err := addSidecarRow(ctx, tx, fileID, xmpID, catalog.SidecarXmp, nf.XmpPath); err != nil {
			return nil, err
		}
	}
	if jpegID.Valid() {
		if err := addSidecarRow(ctx, tx, fileID, jpegID, catalog.SidecarJpeg, nf.JpegPath); err != nil {
			return nil, err
		}
	}
	for _, sc := range nf.Sidecars {
		fsID, err := addFsFile(ctx, tx, sc.Path)
		if err != nil {
			return nil, err
		}
		if err := addSidecarRow(ctx, tx, fileID, fsID, sc.Type, sc.Path); err != nil {
			return nil, err
		}
	}

	result := &catalog.AddFileResult{FileID: fileID}
	for _, kw := range catalog.NormalizeKeywords(nf.Keywords) {
		kid, created, err := makeKeyword(ctx, tx, kw)
		if err != nil {
			return nil, err
		}
		if created {
			result.CreatedKeywords = append(result.CreatedKeywords, catalog.Keyword{ID: kid, Keyword: kw})
		}
		added, err := assignKeyword(ctx, tx, kid, fileID)
		if err != nil {
			return nil, err
		}
		if added {
			result.AssignedKeywords = append(result.AssignedKeywords, kid)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return result, nil
}

func addSidecarRow(ctx context.Context, q querier, fileID, fsID catalog.ID, t catalog.SidecarType, path string) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	_, err := q.ExecContext(ctx,
		"INSERT OR IGNORE INTO sidecars (file_id, fsfile_id, type, ext) VALUES (?, ?, ?, ?)",
		fileID, fsID, t, ext)
	if err != nil {
		return fmt.Errorf("inserting sidecar: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) GetFile(ctx context.Context, id catalog.ID) (*catalog.File, error) {
	f, err := scanFile(s.db.QueryRowContext(ctx, "SELECT "+fileColumns+" WHERE files.id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting file: %w", err)
	}
	return f, nil
}

func (s *SQLiteDatabase) MoveFileToFolder(ctx context.Context, fileID, folderID catalog.ID) (catalog.ID, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return catalog.InvalidID, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM folders WHERE id = ?", folderID).Scan(&exists)
	if err != nil {
		return catalog.InvalidID, fmt.Errorf("checking folder: %w", err)
	}
	if exists == 0 {
		return catalog.InvalidID, fmt.Errorf("folder %d: %w", folderID, catalog.ErrFolderNotFound)
	}

	var from catalog.ID
	err = tx.QueryRowContext(ctx, "SELECT COALESCE(parent_id, 0) FROM files WHERE id = ?", fileID).Scan(&from)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.InvalidID, fmt.Errorf("file %d: %w", fileID, catalog.ErrFileNotFound)
		}
		return catalog.InvalidID, fmt.Errorf("getting file folder: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "UPDATE files SET parent_id = ? WHERE id = ?", folderID, fileID); err != nil {
		return catalog.InvalidID, fmt.Errorf("moving file: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return catalog.InvalidID, fmt.Errorf("committing transaction: %w", err)
	}
	return from, nil
}

// Folder operations

const folderColumns = `id, COALESCE(path, ''), COALESCE(name, ''), COALESCE(vault_id, 0),
	COALESCE(locked, 0), COALESCE(virtual, 0), COALESCE(expanded, 0), COALESCE(parent_id, 0) FROM folders`

func scanFolder(row rowScanner) (*catalog.Folder, error) {
	var f catalog.Folder
	err := row.Scan(&f.ID, &f.Path, &f.Name, &f.VaultID, &f.Locked, &f.VirtualType, &f.Expanded, &f.ParentID)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *SQLiteDatabase) AddFolder(ctx context.Context, name, path string, parentID catalog.ID) (*catalog.Folder, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO folders (path, name, vault_id, locked, virtual, expanded, parent_id)
		 VALUES (?, ?, 0, 0, 0, 0, ?)`, path, name, parentID)
	if err != nil {
		return nil, fmt.Errorf("inserting folder: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting folder id: %w", err)
	}
	return &catalog.Folder{
		ID:          catalog.ID(id),
		Path:        path,
		Name:        name,
		VirtualType: catalog.FolderVirtualNone,
		ParentID:    parentID,
	}, nil
}

func (s *SQLiteDatabase) GetFolder(ctx context.Context, id catalog.ID) (*catalog.Folder, error) {
	f, err := scanFolder(s.db.QueryRowContext(ctx, "SELECT "+folderColumns+" WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting folder: %w", err)
	}
	return f, nil
}

func (s *SQLiteDatabase) GetFolderByPath(ctx context.Context, path string) (*catalog.Folder, error) {
	f, err := scanFolder(s.db.QueryRowContext(ctx, "SELECT "+folderColumns+" WHERE path = ? ORDER BY id LIMIT 1", path))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting folder by path: %w", err)
	}
	return f, nil
}

func (s *SQLiteDatabase) GetAllFolders(ctx context.Context) ([]*catalog.Folder, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+folderColumns+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	defer rows.Close()

	var folders []*catalog.Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning folder: %w", err)
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	return folders, nil
}

func (s *SQLiteDatabase) GetFolderContent(ctx context.Context, folderID catalog.ID) ([]*catalog.File, error) {
	files, err := s.queryFiles(ctx, "WHERE files.parent_id = ? ORDER BY files.id", folderID)
	if err != nil {
		return nil, fmt.Errorf("getting folder content: %w", err)
	}
	return files, nil
}

func (s *SQLiteDatabase) CountFolder(ctx context.Context, folderID catalog.ID) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files WHERE parent_id = ?", folderID).Scan(&n); err != nil {
		return -1, fmt.Errorf("counting folder: %w", err)
	}
	return n, nil
}

// DeleteFolder removes the folder row; the delete triggers remove its files.
func (s *SQLiteDatabase) DeleteFolder(ctx context.Context, id catalog.ID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM folders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting folder: %w", err)
	}
	return requireRow(res, fmt.Errorf("folder %d: %w", id, catalog.ErrFolderNotFound))
}

func (s *SQLiteDatabase) SetFolderExpanded(ctx context.Context, id catalog.ID, expanded bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE folders SET expanded = ? WHERE id = ?", expanded, id)
	if err != nil {
		return fmt.Errorf("updating folder: %w", err)
	}
	return requireRow(res, fmt.Errorf("folder %d: %w", id, catalog.ErrFolderNotFound))
}

// Keyword operations

func (s *SQLiteDatabase) MakeKeyword(ctx context.Context, text string) (catalog.ID, bool, error) {
	return makeKeyword(ctx, s.db, text)
}

func makeKeyword(ctx context.Context, q querier, text string) (catalog.ID, bool, error) {
	res, err := q.ExecContext(ctx, "INSERT OR IGNORE INTO keywords (keyword, parent_id) VALUES (?, 0)", text)
	if err != nil {
		return catalog.InvalidID, false, fmt.Errorf("inserting keyword: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return catalog.InvalidID, false, fmt.Errorf("inserting keyword: %w", err)
	}

	var id catalog.ID
	if err := q.QueryRowContext(ctx, "SELECT id FROM keywords WHERE keyword = ?", text).Scan(&id); err != nil {
		return catalog.InvalidID, false, fmt.Errorf("getting keyword id: %w", err)
	}
	return id, n == 1, nil
}

func (s *SQLiteDatabase) AssignKeyword(ctx context.Context, keywordID, fileID catalog.ID) (bool, error) {
	return assignKeyword(ctx, s.db, keywordID, fileID)
}

func assignKeyword(ctx context.Context, q querier, keywordID, fileID catalog.ID) (bool, error) {
	res, err := q.ExecContext(ctx,
		"INSERT OR IGNORE INTO keywording (file_id, keyword_id) VALUES (?, ?)", fileID, keywordID)
	if err != nil {
		return false, fmt.Errorf("assigning keyword: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("assigning keyword: %w", err)
	}
	return n == 1, nil
}

func (s *SQLiteDatabase) UnassignAllKeywordsForFile(ctx context.Context, fileID catalog.ID) ([]catalog.ID, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	ids, err := unassignAll(ctx, tx, fileID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return ids, nil
}

func unassignAll(ctx context.Context, q querier, fileID catalog.ID) ([]catalog.ID, error) {
	ids, err := queryIDs(ctx, q, "SELECT keyword_id FROM keywording WHERE file_id = ? ORDER BY keyword_id", fileID)
	if err != nil {
		return nil, fmt.Errorf("listing file keywords: %w", err)
	}
	if _, err := q.ExecContext(ctx, "DELETE FROM keywording WHERE file_id = ?", fileID); err != nil {
		return nil, fmt.Errorf("unassigning keywords: %w", err)
	}
	return ids, nil
}

func (s *SQLiteDatabase) GetAllKeywords(ctx context.Context) ([]*catalog.Keyword, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, keyword, COALESCE(parent_id, 0) FROM keywords ORDER BY keyword")
	if err != nil {
		return nil, fmt.Errorf("listing keywords: %w", err)
	}
	defer rows.Close()

	var keywords []*catalog.Keyword
	for rows.Next() {
		var k catalog.Keyword
		if err := rows.Scan(&k.ID, &k.Keyword, &k.ParentID); err != nil {
			return nil, fmt.Errorf("scanning keyword: %w", err)
		}
		keywords = append(keywords, &k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing keywords: %w", err)
	}
	return keywords, nil
}

func (s *SQLiteDatabase) GetKeywordContent(ctx context.Context, keywordID catalog.ID) ([]*catalog.File, error) {
	files, err := s.queryFiles(ctx,
		"WHERE files.id IN (SELECT file_id FROM keywording WHERE keyword_id = ?) ORDER BY files.id", keywordID)
	if err != nil {
		return nil, fmt.Errorf("getting keyword content: %w", err)
	}
	return files, nil
}

func (s *SQLiteDatabase) CountKeyword(ctx context.Context, keywordID catalog.ID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(file_id) FROM keywording WHERE keyword_id = ?", keywordID).Scan(&n)
	if err != nil {
		return -1, fmt.Errorf("counting keyword: %w", err)
	}
	return n, nil
}

// Metadata operations

func (s *SQLiteDatabase) GetMetadataRecord(ctx context.Context, fileID catalog.ID) (*catalog.MetadataRecord, error) {
	rec := catalog.MetadataRecord{FileID: fileID}
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(files.xmp, ''), COALESCE(files.name, ''),
		COALESCE(folders.path, ''), COALESCE(files.file_type, 0)
		FROM files LEFT JOIN folders ON folders.id = files.parent_id WHERE files.id = ?`, fileID).
		Scan(&rec.Xmp, &rec.Name, &rec.Folder, &rec.FileType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting metadata: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT fsfiles.path FROM sidecars
		JOIN fsfiles ON fsfiles.id = sidecars.fsfile_id
		WHERE sidecars.file_id = ? ORDER BY sidecars.type, fsfiles.path`, fileID)
	if err != nil {
		return nil, fmt.Errorf("listing sidecars: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning sidecar: %w", err)
		}
		rec.Sidecars = append(rec.Sidecars, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing sidecars: %w", err)
	}
	return &rec, nil
}

// mirroredColumns are the files columns UpdateMetadata may write.
var mirroredColumns = map[string]bool{
	"rating":      true,
	"label":       true,
	"orientation": true,
	"flag":        true,
}

func (s *SQLiteDatabase) UpdateMetadata(ctx context.Context, u *catalog.MetadataUpdate) (*catalog.MetadataUpdateResult, error) {
	if u.Column != "" && !mirroredColumns[u.Column] {
		return nil, fmt.Errorf("column %q is not a metadata column", u.Column)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "UPDATE files SET xmp = ? WHERE id = ?", u.Xmp, u.FileID)
	if err != nil {
		return nil, fmt.Errorf("updating xmp: %w", err)
	}
	if err := requireRow(res, fmt.Errorf("file %d: %w", u.FileID, catalog.ErrFileNotFound)); err != nil {
		return nil, err
	}

	if u.Column != "" {
		// The column name comes from mirroredColumns, never from input.
		q := fmt.Sprintf("UPDATE files SET %s = ? WHERE id = ?", u.Column)
		if _, err := tx.ExecContext(ctx, q, u.ColumnValue, u.FileID); err != nil {
			return nil, fmt.Errorf("updating %s: %w", u.Column, err)
		}
	}

	result := &catalog.MetadataUpdateResult{}
	if u.ReplaceKeywords {
		if result.Unassigned, err = unassignAll(ctx, tx, u.FileID); err != nil {
			return nil, err
		}
		for _, kw := range catalog.NormalizeKeywords(u.Keywords) {
			kid, created, err := makeKeyword(ctx, tx, kw)
			if err != nil {
				return nil, err
			}
			if created {
				result.CreatedKeywords = append(result.CreatedKeywords, catalog.Keyword{ID: kid, Keyword: kw})
			}
			added, err := assignKeyword(ctx, tx, kid, u.FileID)
			if err != nil {
				return nil, err
			}
			if added {
				result.Assigned = append(result.Assigned, kid)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return result, nil
}

// Label operations

func (s *SQLiteDatabase) GetAllLabels(ctx context.Context) ([]*catalog.Label, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, COALESCE(color, '') FROM labels ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing labels: %w", err)
	}
	defer rows.Close()

	var labels []*catalog.Label
	for rows.Next() {
		var l catalog.Label
		if err := rows.Scan(&l.ID, &l.Name, &l.Color); err != nil {
			return nil, fmt.Errorf("scanning label: %w", err)
		}
		labels = append(labels, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing labels: %w", err)
	}
	return labels, nil
}

func (s *SQLiteDatabase) GetLabel(ctx context.Context, id catalog.ID) (*catalog.Label, error) {
	var l catalog.Label
	err := s.db.QueryRowContext(ctx, "SELECT id, name, COALESCE(color, '') FROM labels WHERE id = ?", id).
		Scan(&l.ID, &l.Name, &l.Color)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting label: %w", err)
	}
	return &l, nil
}

func (s *SQLiteDatabase) AddLabel(ctx context.Context, name, color string) (catalog.ID, error) {
	res, err := s.db.ExecContext(ctx, "INSERT INTO labels (name, color) VALUES (?, ?)", name, color)
	if err != nil {
		return catalog.InvalidID, fmt.Errorf("inserting label: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return catalog.InvalidID, fmt.Errorf("getting label id: %w", err)
	}
	return catalog.ID(id), nil
}

func (s *SQLiteDatabase) UpdateLabel(ctx context.Context, id catalog.ID, name, color string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE labels SET name = ?, color = ? WHERE id = ?", name, color, id)
	if err != nil {
		return fmt.Errorf("updating label: %w", err)
	}
	return requireRow(res, fmt.Errorf("label %d: %w", id, catalog.ErrLabelNotFound))
}

func (s *SQLiteDatabase) DeleteLabel(ctx context.Context, id catalog.ID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM labels WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting label: %w", err)
	}
	return requireRow(res, fmt.Errorf("label %d: %w", id, catalog.ErrLabelNotFound))
}

func (s *SQLiteDatabase) RestoreLabel(ctx context.Context, l catalog.Label) error {
	_, err := s.db.ExecContext(ctx, "INSERT INTO labels (id, name, color) VALUES (?, ?, ?)", l.ID, l.Name, l.Color)
	if err != nil {
		return fmt.Errorf("restoring label: %w", err)
	}
	return nil
}

// XMP queue operations

func (s *SQLiteDatabase) QueuedXmpIDs(ctx context.Context) ([]catalog.ID, error) {
	ids, err := queryIDs(ctx, s.db, "SELECT id FROM xmp_update_queue ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("reading xmp queue: %w", err)
	}
	return ids, nil
}

func (s *SQLiteDatabase) DequeueXmp(ctx context.Context, fileID catalog.ID) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM xmp_update_queue WHERE id = ?", fileID); err != nil {
		return fmt.Errorf("dequeuing xmp: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) EnqueueXmp(ctx context.Context, fileID catalog.ID) error {
	if _, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO xmp_update_queue (id) VALUES (?)", fileID); err != nil {
		return fmt.Errorf("enqueuing xmp: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) GetXmpRecord(ctx context.Context, fileID catalog.ID) (*catalog.XmpRecord, error) {
	rec := catalog.XmpRecord{FileID: fileID}
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(files.xmp, ''), COALESCE(m.path, ''),
		COALESCE(files.xmp_file, 0), COALESCE(x.path, '')
		FROM files
		LEFT JOIN fsfiles m ON m.id = files.main_file
		LEFT JOIN fsfiles x ON x.id = files.xmp_file
		WHERE files.id = ?`, fileID).Scan(&rec.Xmp, &rec.MainPath, &rec.XmpFile, &rec.XmpPath)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting xmp record: %w", err)
	}
	return &rec, nil
}

// LinkXmpSidecar records path as the file's sidecar and runs write inside
// the same transaction. A file that already has a sidecar keeps it.
func (s *SQLiteDatabase) LinkXmpSidecar(ctx context.Context, fileID catalog.ID, path string, write func() error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var current catalog.ID
	err = tx.QueryRowContext(ctx, "SELECT COALESCE(xmp_file, 0) FROM files WHERE id = ?", fileID).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("file %d: %w", fileID, catalog.ErrFileNotFound)
		}
		return fmt.Errorf("getting xmp file: %w", err)
	}

	if !current.Valid() {
		fsID, err := addFsFile(ctx, tx, path)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE files SET xmp_file = ? WHERE id = ?", fsID, fileID); err != nil {
			return fmt.Errorf("linking xmp file: %w", err)
		}
		if err := addSidecarRow(ctx, tx, fileID, fsID, catalog.SidecarXmp, path); err != nil {
			return err
		}
	}

	if err := write(); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Maintenance

func (s *SQLiteDatabase) Path() string { return s.path }

// BackupTo writes a consistent copy of the database to destPath, which
// must not exist.
func (s *SQLiteDatabase) BackupTo(ctx context.Context, destPath string) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) Close() error {
	return s.db.Close()
}

// helpers

func queryIDs(ctx context.Context, q querier, query string, args ...any) ([]catalog.ID, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []catalog.ID
	for rows.Next() {
		var id catalog.ID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// requireRow returns notFound when res changed no row.
func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(v, 0).UTC()
}
