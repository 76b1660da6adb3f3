package testutil

import (
	"sync"

	"photocat/internal/catalog"
)

// RecordingNotifier stores every posted notification in order.
type RecordingNotifier struct {
	mu    sync.Mutex
	posts []catalog.Notification
}

var _ catalog.Notifier = (*RecordingNotifier)(nil)

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

func (r *RecordingNotifier) Post(n catalog.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = append(r.posts, n)
}

// All returns a copy of the recorded notifications.
func (r *RecordingNotifier) All() []catalog.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]catalog.Notification(nil), r.posts...)
}

// Kinds returns the kinds of the recorded notifications in order.
func (r *RecordingNotifier) Kinds() []catalog.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]catalog.NotificationKind, len(r.posts))
	for i, n := range r.posts {
		kinds[i] = n.Kind()
	}
	return kinds
}

// Reset discards the recorded notifications.
func (r *RecordingNotifier) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = nil
}
