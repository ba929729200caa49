package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/pagekeep/diary/internal/core/domain"
	"github.com/pagekeep/diary/internal/core/ports"
)

func TestBuildUpdate_SetsOnlyPresentFields(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	title := "renamed"
	status := domain.StatusOngoing

	update := buildUpdate(ports.EntryPatch{Title: &title, Status: &status}, now)

	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, bson.M{"updated_at": now, "title": "renamed", "status": domain.StatusOngoing}, set)
	assert.NotContains(t, update, "$unset")
}

func TestBuildUpdate_ClearEndWinsOverEnd(t *testing.T) {
	now := time.Now().UTC()
	end := now.Add(time.Hour)
	allDay := true

	update := buildUpdate(ports.EntryPatch{EndDateTime: &end, ClearEnd: true, IsAllDay: &allDay}, now)

	set := update["$set"].(bson.M)
	assert.NotContains(t, set, "end_date_time")
	assert.Equal(t, true, set["is_all_day"])
	assert.Equal(t, bson.M{"end_date_time": ""}, update["$unset"])
}

func TestBuildUpdate_EmptyStatusIsUnset(t *testing.T) {
	var empty domain.EntryStatus

	update := buildUpdate(ports.EntryPatch{Status: &empty}, time.Now())

	assert.NotContains(t, update["$set"].(bson.M), "status")
	assert.Equal(t, bson.M{"status": ""}, update["$unset"])
}

// matches evaluates an equality filter against a stored document the way the
// server does: scalars compare equal, arrays match when they hold the value.
func matches(t *testing.T, doc any, filter bson.M) bool {
	t.Helper()
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var stored bson.M
	require.NoError(t, bson.Unmarshal(raw, &stored))

	for key, want := range filter {
		got, ok := stored[key]
		if !ok {
			return false
		}
		if arr, isArr := got.(bson.A); isArr {
			found := false
			for _, v := range arr {
				if v == want {
					found = true
				}
			}
			if !found {
				return false
			}
			continue
		}
		if got != want {
			return false
		}
	}
	return true
}

func ownedEntry(id, owner string) *domain.Entry {
	return &domain.Entry{
		ID:            id,
		UserID:        owner,
		Title:         id,
		StartDateTime: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
		Permissions:   domain.OwnerPermissions(owner),
	}
}

func TestOwnerFilter_OnlyMatchesOwnEntries(t *testing.T) {
	a := ownedEntry("a1", "acct-a")
	b := ownedEntry("b1", "acct-b")

	assert.True(t, matches(t, a, ownerFilter("acct-a")))
	assert.False(t, matches(t, b, ownerFilter("acct-a")))
	assert.True(t, matches(t, b, ownerFilter("acct-b")))
}

func TestOwnerFilter_RequiresReadGrant(t *testing.T) {
	e := ownedEntry("a1", "acct-a")
	e.Permissions = []string{domain.UpdatePermission("acct-a")}

	assert.False(t, matches(t, e, ownerFilter("acct-a")))
}

func TestGrantedFilter_PerOperation(t *testing.T) {
	a := ownedEntry("a1", "acct-a")

	for _, perm := range []func(string) string{domain.ReadPermission, domain.UpdatePermission, domain.DeletePermission} {
		assert.True(t, matches(t, a, grantedFilter("a1", perm("acct-a"))))
		assert.False(t, matches(t, a, grantedFilter("a1", perm("acct-b"))), "foreign caller must not match")
		assert.False(t, matches(t, a, grantedFilter("other", perm("acct-a"))))
	}
}

func TestNewestFirst_SortsOnStoredStartField(t *testing.T) {
	raw, err := bson.Marshal(ownedEntry("a1", "acct-a"))
	require.NoError(t, err)
	var stored bson.M
	require.NoError(t, bson.Unmarshal(raw, &stored))

	require.Len(t, newestFirst, 1)
	assert.Contains(t, stored, newestFirst[0].Key)
	assert.Equal(t, -1, newestFirst[0].Value)
}

func TestAbsentOrDenied(t *testing.T) {
	assert.ErrorIs(t, absentOrDenied(0), domain.ErrNotFound)
	assert.ErrorIs(t, absentOrDenied(1), domain.ErrForbidden)
}
