package review

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"bookshelf/internal/book"
	"bookshelf/internal/user"
)

var (
	now   = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	actor = user.User{ID: 7, FirstName: "Ada", LastName: "Lovelace"}
)

func TestReconcile_AppendsFirstReview(t *testing.T) {
	got := Reconcile(Input{Actor: actor, Rating: 4, Text: "Great read", Now: now})

	want := []book.Review{{ID: 1, UserID: 7, User: "Ada", Comment: "Great read", Date: "2025-03-14"}}
	if diff := cmp.Diff(want, got.Reviews); diff != "" {
		t.Errorf("reviews mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int{4}, got.Ratings)
}

func TestReconcile_EmptyTextRemovesOwnReview(t *testing.T) {
	current := []book.Review{
		{ID: 1, UserID: 3, User: "Bob", Comment: "meh", Date: "2024-01-01"},
		{ID: 2, UserID: 7, User: "Ada", Comment: "ok", Date: "2024-02-02"},
		{ID: 3, UserID: 9, User: "Cy", Comment: "loved it", Date: "2024-03-03"},
	}

	got := Reconcile(Input{Reviews: current, Actor: actor, Rating: 5, Text: "", Now: now})

	want := []book.Review{current[0], current[2]}
	if diff := cmp.Diff(want, got.Reviews); diff != "" {
		t.Errorf("reviews mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int{5}, got.Ratings)
	assert.Len(t, current, 3, "input must not be modified")
	assert.Equal(t, "ok", current[1].Comment)
}

func TestReconcile_UnchangedTextKeepsList(t *testing.T) {
	current := []book.Review{{ID: 2, UserID: 7, User: "Ada", Comment: "ok", Date: "2024-02-02"}}

	got := Reconcile(Input{Reviews: current, Actor: actor, Rating: 3, Text: "  ok ", Now: now})

	if diff := cmp.Diff(current, got.Reviews); diff != "" {
		t.Errorf("reviews mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcile_ChangedTextReplacesInPlace(t *testing.T) {
	current := []book.Review{
		{ID: 1, UserID: 3, User: "Bob", Comment: "meh", Date: "2024-01-01"},
		{ID: 2, UserID: 7, User: "Ada", Comment: "ok", Date: "2024-02-02"},
	}

	got := Reconcile(Input{Reviews: current, Actor: actor, Rating: 2, Text: "changed my mind", Now: now})

	want := []book.Review{
		current[0],
		{ID: 2, UserID: 7, User: "Ada", Comment: "changed my mind", Date: "2025-03-14"},
	}
	if diff := cmp.Diff(want, got.Reviews); diff != "" {
		t.Errorf("reviews mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcile_AbsentAndEmptyIsNoop(t *testing.T) {
	current := []book.Review{{ID: 1, UserID: 3, User: "Bob", Comment: "meh", Date: "2024-01-01"}}

	got := Reconcile(Input{Reviews: current, Actor: actor, Rating: 1, Text: "   ", Now: now})

	if diff := cmp.Diff(current, got.Reviews); diff != "" {
		t.Errorf("reviews mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcile_NeverReturnsNilReviews(t *testing.T) {
	got := Reconcile(Input{Actor: actor, Rating: 1, Now: now})
	assert.NotNil(t, got.Reviews)
	assert.Empty(t, got.Reviews)
}

func TestReconcile_Idempotent(t *testing.T) {
	current := []book.Review{{ID: 1, UserID: 3, User: "Bob", Comment: "meh", Date: "2024-01-01"}}
	in := Input{Reviews: current, Actor: actor, Rating: 4, Text: "Great read", Now: now}

	first := Reconcile(in)
	second := Reconcile(in)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second call differs (-first +second):\n%s", diff)
	}
	assert.Len(t, second.Reviews, 2)

	// Feeding the result back in must not insert a duplicate either.
	in.Reviews = first.Reviews
	third := Reconcile(in)
	assert.Len(t, third.Reviews, 2)
}

func TestReconcile_RoundTripRemovesOnlyOwnReview(t *testing.T) {
	others := []book.Review{
		{ID: 1, UserID: 3, User: "Bob", Comment: "meh", Date: "2024-01-01"},
		{ID: 4, UserID: 9, User: "Cy", Comment: "loved it", Date: "2024-03-03"},
	}

	added := Reconcile(Input{Reviews: others, Actor: actor, Rating: 4, Text: "mine", Now: now})
	assert.Len(t, added.Reviews, 3)

	removed := Reconcile(Input{Reviews: added.Reviews, Actor: actor, Rating: 4, Text: "", Now: now})
	if diff := cmp.Diff(others, removed.Reviews); diff != "" {
		t.Errorf("reviews mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcile_EditReviewID(t *testing.T) {
	current := []book.Review{
		{ID: 5, UserID: 7, User: "Ada", Comment: "first", Date: "2024-01-01"},
		{ID: 6, UserID: 3, User: "Bob", Comment: "not yours", Date: "2024-01-02"},
	}

	t.Run("owned id is edited", func(t *testing.T) {
		got := Reconcile(Input{Reviews: current, Actor: actor, Rating: 4, Text: "edited", EditReviewID: 5, Now: now})
		assert.Equal(t, "edited", got.Reviews[0].Comment)
		assert.Equal(t, "not yours", got.Reviews[1].Comment)
	})

	t.Run("foreign id falls back to own review", func(t *testing.T) {
		got := Reconcile(Input{Reviews: current, Actor: actor, Rating: 4, Text: "edited", EditReviewID: 6, Now: now})
		assert.Equal(t, 5, got.Reviews[0].ID)
		assert.Equal(t, "edited", got.Reviews[0].Comment)
		assert.Equal(t, "not yours", got.Reviews[1].Comment)
	})
}

func TestNextID(t *testing.T) {
	assert.Equal(t, 1, NextID(nil))
	// Gaps from earlier removals must not cause a collision.
	assert.Equal(t, 6, NextID([]book.Review{{ID: 5}, {ID: 2}}))
}

func TestRemove(t *testing.T) {
	current := []book.Review{{ID: 1, UserID: 7}, {ID: 2, UserID: 3}}
	got := Remove(current, 7)
	assert.Equal(t, []book.Review{{ID: 2, UserID: 3}}, got)
	assert.Len(t, current, 2)
}
