package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"photocat/internal/catalog"
)

// Album operations

func (s *SQLiteDatabase) AddAlbum(ctx context.Context, name string, parentID catalog.ID) (*catalog.Album, error) {
	res, err := s.db.ExecContext(ctx, "INSERT INTO albums (name, parent_id) VALUES (?, ?)", name, parentID)
	if err != nil {
		return nil, fmt.Errorf("inserting album: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting album id: %w", err)
	}
	return &catalog.Album{ID: catalog.ID(id), Name: name, ParentID: parentID}, nil
}

func (s *SQLiteDatabase) GetAlbum(ctx context.Context, id catalog.ID) (*catalog.Album, error) {
	var a catalog.Album
	err := s.db.QueryRowContext(ctx, "SELECT id, name, COALESCE(parent_id, 0) FROM albums WHERE id = ?", id).
		Scan(&a.ID, &a.Name, &a.ParentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting album: %w", err)
	}
	return &a, nil
}

func (s *SQLiteDatabase) GetAllAlbums(ctx context.Context) ([]*catalog.Album, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, COALESCE(parent_id, 0) FROM albums ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing albums: %w", err)
	}
	defer rows.Close()

	var albums []*catalog.Album
	for rows.Next() {
		var a catalog.Album
		if err := rows.Scan(&a.ID, &a.Name, &a.ParentID); err != nil {
			return nil, fmt.Errorf("scanning album: %w", err)
		}
		albums = append(albums, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing albums: %w", err)
	}
	return albums, nil
}

func (s *SQLiteDatabase) RenameAlbum(ctx context.Context, id catalog.ID, name string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE albums SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return fmt.Errorf("renaming album: %w", err)
	}
	return requireRow(res, fmt.Errorf("album %d: %w", id, catalog.ErrAlbumNotFound))
}

// DeleteAlbum removes the album row; album_delete_trigger drops its links.
func (s *SQLiteDatabase) DeleteAlbum(ctx context.Context, id catalog.ID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM albums WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting album: %w", err)
	}
	return requireRow(res, fmt.Errorf("album %d: %w", id, catalog.ErrAlbumNotFound))
}

func (s *SQLiteDatabase) AddToAlbum(ctx context.Context, albumID catalog.ID, fileIDs []catalog.ID) ([]catalog.ID, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := requireExists(ctx, tx, "albums", albumID, fmt.Errorf("album %d: %w", albumID, catalog.ErrAlbumNotFound)); err != nil {
		return nil, err
	}

	var added []catalog.ID
	for _, fid := range fileIDs {
		if err := requireExists(ctx, tx, "files", fid, fmt.Errorf("file %d: %w", fid, catalog.ErrFileNotFound)); err != nil {
			return nil, err
		}
		res, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO albuming (file_id, album_id) VALUES (?, ?)", fid, albumID)
		if err != nil {
			return nil, fmt.Errorf("adding file %d to album: %w", fid, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return nil, fmt.Errorf("adding file %d to album: %w", fid, err)
		} else if n == 1 {
			added = append(added, fid)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return added, nil
}

func (s *SQLiteDatabase) RemoveFromAlbum(ctx context.Context, albumID catalog.ID, fileIDs []catalog.ID) ([]catalog.ID, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var removed []catalog.ID
	for _, fid := range fileIDs {
		res, err := tx.ExecContext(ctx, "DELETE FROM albuming WHERE file_id = ? AND album_id = ?", fid, albumID)
		if err != nil {
			return nil, fmt.Errorf("removing file %d from album: %w", fid, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return nil, fmt.Errorf("removing file %d from album: %w", fid, err)
		} else if n == 1 {
			removed = append(removed, fid)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return removed, nil
}

func (s *SQLiteDatabase) GetAlbumContent(ctx context.Context, albumID catalog.ID) ([]*catalog.File, error) {
	files, err := s.queryFiles(ctx,
		"WHERE files.id IN (SELECT file_id FROM albuming WHERE album_id = ?) ORDER BY files.id", albumID)
	if err != nil {
		return nil, fmt.Errorf("getting album content: %w", err)
	}
	return files, nil
}

func (s *SQLiteDatabase) CountAlbum(ctx context.Context, albumID catalog.ID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(file_id) FROM albuming WHERE album_id = ?", albumID).Scan(&n)
	if err != nil {
		return -1, fmt.Errorf("counting album: %w", err)
	}
	return n, nil
}

// requireExists returns notFound when table has no row with id. table is
// always a constant.
func requireExists(ctx context.Context, q querier, table string, id catalog.ID, notFound error) error {
	var n int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+" WHERE id = ?", id).Scan(&n); err != nil {
		return fmt.Errorf("checking %s row %d: %w", table, id, err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
