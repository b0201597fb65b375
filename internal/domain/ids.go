package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NewID returns an opaque unique identifier.
func NewID() string {
	return uuid.NewString()
}

// legacyDocumentID is the id of the i-th catalog document rebuilt for a
// snapshot stored without a document list.
func legacyDocumentID(inventoryID string, i int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(inventoryID+"/document/"+strconv.Itoa(i))).String()
}

// Now returns the current time in the form snapshots store: UTC, millisecond
// precision and without a monotonic reading, so values survive a JSON round
// trip unchanged.
func Now() time.Time {
	return Normalize(time.Now())
}

// Normalize converts t to the stored timestamp form.
func Normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// FormatDate renders a timestamp as "16 Oct 2026".
func FormatDate(t time.Time) string {
	return t.Format("02 Jan 2006")
}

// FormatDateTime renders a timestamp as "16 Oct 2026, 14:05".
func FormatDateTime(t time.Time) string {
	return t.Format("02 Jan 2006, 15:04")
}
