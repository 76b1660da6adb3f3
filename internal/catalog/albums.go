package catalog

import (
	"context"
	"fmt"
)

// AddAlbum creates an album under parentID (0 for a root album).
func (s *Service) AddAlbum(ctx context.Context, name string, parentID ID) (*Album, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "album name must not be empty"}
	}
	if parentID != 0 {
		parent, err := s.db.GetAlbum(ctx, parentID)
		if err != nil {
			return nil, s.failed("getting parent album", err, "id", parentID)
		}
		if parent == nil {
			return nil, fmt.Errorf("parent %d: %w", parentID, ErrAlbumNotFound)
		}
	}
	a, err := s.db.AddAlbum(ctx, name, parentID)
	if err != nil {
		return nil, s.failed("adding album", err, "name", name)
	}
	s.logger.Debug("album added", "id", a.ID, "name", name)
	s.notifier.Post(AddedAlbum{Album: *a})
	return a, nil
}

// GetAllAlbums returns every album and announces each one.
func (s *Service) GetAllAlbums(ctx context.Context) ([]*Album, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	albums, err := s.db.GetAllAlbums(ctx)
	if err != nil {
		return nil, s.failed("listing albums", err)
	}
	for _, a := range albums {
		s.notifier.Post(AddedAlbum{Album: *a})
	}
	return albums, nil
}

// RenameAlbum changes the name of an album.
func (s *Service) RenameAlbum(ctx context.Context, id ID, name string) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	if name == "" {
		return &ValidationError{Field: "name", Message: "album name must not be empty"}
	}
	a, err := s.db.GetAlbum(ctx, id)
	if err != nil {
		return s.failed("getting album", err, "id", id)
	}
	if a == nil {
		return fmt.Errorf("album %d: %w", id, ErrAlbumNotFound)
	}
	if err := s.db.RenameAlbum(ctx, id, name); err != nil {
		return s.failed("renaming album", err, "id", id)
	}
	a.Name = name
	s.notifier.Post(AlbumRenamed{Album: *a})
	return nil
}

// DeleteAlbum removes an album. Its files stay in the catalog.
func (s *Service) DeleteAlbum(ctx context.Context, id ID) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	if err := s.db.DeleteAlbum(ctx, id); err != nil {
		return s.failed("deleting album", err, "id", id)
	}
	s.logger.Info("album deleted", "id", id)
	s.notifier.Post(AlbumDeleted{ID: id})
	return nil
}

// AddToAlbum links files to an album. Files already in the album are
// skipped; the returned ids are the ones newly linked.
func (s *Service) AddToAlbum(ctx context.Context, albumID ID, fileIDs []ID) ([]ID, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	if !albumID.Valid() {
		return nil, fmt.Errorf("adding to album %d: %w", albumID, ErrInvalidID)
	}
	added, err := s.db.AddToAlbum(ctx, albumID, fileIDs)
	if err != nil {
		return nil, s.failed("adding to album", err, "album", albumID, "files", fileIDs)
	}
	if len(added) > 0 {
		s.notifier.Post(AddedToAlbum{AlbumID: albumID, FileIDs: added})
		s.notifier.Post(AlbumCountChanged{Count: Count{ID: albumID, Count: len(added)}})
	}
	return added, nil
}

// RemoveFromAlbum unlinks files from an album and returns the ids that
// were in it.
func (s *Service) RemoveFromAlbum(ctx context.Context, albumID ID, fileIDs []ID) ([]ID, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	removed, err := s.db.RemoveFromAlbum(ctx, albumID, fileIDs)
	if err != nil {
		return nil, s.failed("removing from album", err, "album", albumID, "files", fileIDs)
	}
	if len(removed) > 0 {
		s.notifier.Post(RemovedFromAlbum{AlbumID: albumID, FileIDs: removed})
		s.notifier.Post(AlbumCountChanged{Count: Count{ID: albumID, Count: -len(removed)}})
	}
	return removed, nil
}

// GetAlbumContent returns the files of an album.
func (s *Service) GetAlbumContent(ctx context.Context, albumID ID) ([]*File, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	files, err := s.db.GetAlbumContent(ctx, albumID)
	if err != nil {
		return nil, s.failed("getting album content", err, "album", albumID)
	}
	s.notifier.Post(AlbumContentQueried{AlbumID: albumID, Files: files})
	return files, nil
}

// CountAlbum returns the number of files in an album, or -1 on error.
func (s *Service) CountAlbum(ctx context.Context, albumID ID) (int, error) {
	if err := s.checkReady(); err != nil {
		return -1, err
	}
	n, err := s.db.CountAlbum(ctx, albumID)
	if err != nil {
		return -1, s.failed("counting album", err, "album", albumID)
	}
	s.notifier.Post(AlbumCounted{Count: Count{ID: albumID, Count: n}})
	return n, nil
}
