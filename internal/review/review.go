// Package review merges a user's rating and review submission into the
// review list of a book.
package review

import (
	"strings"
	"time"

	"bookshelf/internal/book"
	"bookshelf/internal/user"
)

// Input is one submission of the rating/review part of the book form.
type Input struct {
	Reviews []book.Review
	Actor   user.User
	Rating  int
	Text    string
	// EditReviewID selects the review being edited. Zero, or an id not
	// owned by Actor, falls back to looking the review up by Actor.ID.
	EditReviewID int
	Now          time.Time
}

// Result is what gets sent to the backend.
type Result struct {
	Reviews []book.Review
	// Ratings always holds the single submitted value. The backend replaces
	// the whole list, so ratings from other users are dropped as well.
	Ratings []int
}

// Reconcile computes the next review list and rating list.
//
//	existing | empty text | same text | new text
//	present  | remove     | unchanged | replace in place, new date
//	absent   | no-op      |     -     | append with a fresh id
//
// The input slice is never modified.
func Reconcile(in Input) Result {
	next := make([]book.Review, 0, len(in.Reviews)+1)
	next = append(next, in.Reviews...)
	text := strings.TrimSpace(in.Text)
	idx := find(next, in.Actor.ID, in.EditReviewID)

	switch {
	case idx >= 0 && text == "":
		next = append(next[:idx], next[idx+1:]...)
	case idx >= 0 && text == next[idx].Comment:
		// unchanged
	case idx >= 0:
		next[idx] = book.Review{
			ID:      next[idx].ID,
			UserID:  in.Actor.ID,
			User:    in.Actor.FirstName,
			Comment: text,
			Date:    in.Now.Format(book.DateLayout),
		}
	case text != "":
		next = append(next, book.Review{
			ID:      NextID(next),
			UserID:  in.Actor.ID,
			User:    in.Actor.FirstName,
			Comment: text,
			Date:    in.Now.Format(book.DateLayout),
		})
	}

	return Result{Reviews: next, Ratings: []int{in.Rating}}
}

// Remove returns reviews without the one written by userID.
func Remove(reviews []book.Review, userID int) []book.Review {
	out := make([]book.Review, 0, len(reviews))
	for _, r := range reviews {
		if r.UserID != userID {
			out = append(out, r)
		}
	}
	return out
}

// NextID returns one past the highest id in reviews, so it never collides
// with an id already in the list. It is only unique within this list.
func NextID(reviews []book.Review) int {
	highest := 0
	for _, r := range reviews {
		if r.ID > highest {
			highest = r.ID
		}
	}
	return highest + 1
}

func find(reviews []book.Review, userID, reviewID int) int {
	if reviewID != 0 {
		for i, r := range reviews {
			if r.ID == reviewID && r.UserID == userID {
				return i
			}
		}
	}
	for i, r := range reviews {
		if r.UserID == userID {
			return i
		}
	}
	return -1
}
