package catalog

import (
	"context"
	"fmt"

	"photocat/internal/undo"
)

// Actions are the user-level catalog operations that can be undone. Each
// runs as a transaction recorded in the history.
type Actions struct {
	svc     *Service
	history *undo.History
}

// NewActions creates Actions recording into history.
func NewActions(svc *Service, history *undo.History) *Actions {
	return &Actions{svc: svc, history: history}
}

// History returns the undo history.
func (a *Actions) History() *undo.History { return a.history }

// AddLabel creates a label. Redo after undo restores the same id.
func (a *Actions) AddLabel(ctx context.Context, name, color string) (ID, error) {
	id := InvalidID
	tx := undo.NewTransaction("Add label")
	tx.Add(undo.NewCommand(
		func(ctx context.Context) (ID, error) {
			if !id.Valid() {
				newID, err := a.svc.AddLabel(ctx, name, color)
				if err != nil {
					return InvalidID, err
				}
				id = newID
				return id, nil
			}
			return id, a.svc.RestoreLabel(ctx, Label{ID: id, Name: name, Color: color})
		},
		func(ctx context.Context, id ID) error {
			return a.svc.DeleteLabel(ctx, id)
		},
	))
	if err := a.run(ctx, tx); err != nil {
		return InvalidID, err
	}
	return id, nil
}

// DeleteLabel removes a label; undo puts it back.
func (a *Actions) DeleteLabel(ctx context.Context, id ID) error {
	old, err := a.svc.GetLabel(ctx, id)
	if err != nil {
		return err
	}
	if old == nil {
		return fmt.Errorf("label %d: %w", id, ErrLabelNotFound)
	}
	l := *old
	tx := undo.NewTransaction("Delete label")
	tx.Add(undo.Func(
		func(ctx context.Context) error { return a.svc.DeleteLabel(ctx, l.ID) },
		func(ctx context.Context) error { return a.svc.RestoreLabel(ctx, l) },
	))
	return a.run(ctx, tx)
}

// UpdateLabel changes a label; undo restores its previous name and colour.
func (a *Actions) UpdateLabel(ctx context.Context, id ID, name, color string) error {
	old, err := a.svc.GetLabel(ctx, id)
	if err != nil {
		return err
	}
	if old == nil {
		return fmt.Errorf("label %d: %w", id, ErrLabelNotFound)
	}
	prev := *old
	tx := undo.NewTransaction("Change label")
	tx.Add(undo.Func(
		func(ctx context.Context) error { return a.svc.UpdateLabel(ctx, id, name, color) },
		func(ctx context.Context) error { return a.svc.UpdateLabel(ctx, id, prev.Name, prev.Color) },
	))
	return a.run(ctx, tx)
}

// SetMetadata changes one property; undo restores the previous value.
func (a *Actions) SetMetadata(ctx context.Context, fileID ID, idx PropertyIndex, v PropertyValue) error {
	if err := a.svc.checkReady(); err != nil {
		return err
	}
	meta, err := a.svc.loadMetadata(ctx, fileID)
	if err != nil {
		return err
	}
	if meta == nil {
		return fmt.Errorf("file %d: %w", fileID, ErrFileNotFound)
	}
	prev, ok := meta.Get(idx)
	if !ok {
		prev = EmptyValue()
	}

	tx := undo.NewTransaction("Set " + idx.String())
	tx.Add(undo.Func(
		func(ctx context.Context) error { return a.svc.SetMetadata(ctx, fileID, idx, v) },
		func(ctx context.Context) error { return a.svc.SetMetadata(ctx, fileID, idx, prev) },
	))
	return a.run(ctx, tx)
}

// MoveFile moves a file to another folder; undo moves it back.
func (a *Actions) MoveFile(ctx context.Context, fileID, folderID ID) error {
	f, err := a.svc.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("file %d: %w", fileID, ErrFileNotFound)
	}
	from := f.FolderID
	tx := undo.NewTransaction("Move file")
	tx.Add(undo.Func(
		func(ctx context.Context) error { return a.svc.MoveFileToFolder(ctx, fileID, folderID) },
		func(ctx context.Context) error { return a.svc.MoveFileToFolder(ctx, fileID, from) },
	))
	return a.run(ctx, tx)
}

// AddToAlbum links files to an album; undo unlinks only the files this
// action added.
func (a *Actions) AddToAlbum(ctx context.Context, albumID ID, fileIDs []ID) error {
	var added []ID
	tx := undo.NewTransaction("Add to album")
	tx.Add(undo.Func(
		func(ctx context.Context) error {
			ids, err := a.svc.AddToAlbum(ctx, albumID, fileIDs)
			added = ids
			return err
		},
		func(ctx context.Context) error {
			_, err := a.svc.RemoveFromAlbum(ctx, albumID, added)
			return err
		},
	))
	return a.run(ctx, tx)
}

// run executes tx and records it unless nothing was applied.
func (a *Actions) run(ctx context.Context, tx *undo.Transaction) error {
	err := tx.Execute(ctx)
	if tx.Applied() > 0 {
		a.history.Add(tx)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", tx.Name(), err)
	}
	return nil
}
