package kitchen

import (
	"sync"
	"time"

	"golang.org/x/exp/slices"
)

// NotificationQueue holds transient unrecognized-order/user alerts.
// at most one entry per subject key: a new arrival for a known subject
// replaces the entry in place instead of appending, so repeated alerts for
// the same employee collapse rather than pile up.
//
// entries have no expiry. The operator must consciously dismiss each one.
type NotificationQueue struct {
	stateLock sync.Mutex

	entries []Notification

	update *Monitor
}

func NewNotificationQueue() *NotificationQueue {
	return &NotificationQueue{
		entries: []Notification{},
		update:  NewMonitor(),
	}
}

// Push adds or replaces the alert for the subject and returns the entry.
// the synthetic id and timestamp are regenerated on replace.
func (self *NotificationQueue) Push(kind NotificationKind, subjectKey string, payload NotificationPayload) Notification {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	notification := Notification{
		Id:         NewId(),
		Kind:       kind,
		SubjectKey: subjectKey,
		Payload:    payload,
		CreatedAt:  time.Now().UTC(),
	}

	i := slices.IndexFunc(self.entries, func(entry Notification) bool {
		return entry.SubjectKey == subjectKey
	})
	if 0 <= i {
		self.entries[i] = notification
	} else {
		self.entries = append(self.entries, notification)
	}
	self.update.NotifyAll()
	return notification
}

// Dismiss removes exactly that entry. Dismissing an unknown id is a no-op.
func (self *NotificationQueue) Dismiss(notificationId Id) bool {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	i := slices.IndexFunc(self.entries, func(entry Notification) bool {
		return entry.Id == notificationId
	})
	if i < 0 {
		return false
	}
	self.entries = slices.Delete(self.entries, i, i+1)
	self.update.NotifyAll()
	return true
}

func (self *NotificationQueue) Notifications() []Notification {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return slices.Clone(self.entries)
}

func (self *NotificationQueue) Len() int {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return len(self.entries)
}

func (self *NotificationQueue) UpdateMonitor() *Monitor {
	return self.update
}
