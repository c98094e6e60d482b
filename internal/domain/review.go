package domain

import (
	"time"
)

// Review length limits.
const (
	MaxReviewTextLength  = 1000
	MaxCommentTextLength = 500
)

// Review is a tester's rating of a product. At most one review exists per
// (product, tester) pair.
type Review struct {
	ID        string    `json:"_id"`
	Rating    int       `json:"rating"`
	Text      string    `json:"text"`
	Image     string    `json:"image,omitempty"`
	Tester    string    `json:"tester"`
	Product   string    `json:"product"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Comment is a reply attached to a review. Comments are kept newest first.
type Comment struct {
	ID        string    `json:"_id"`
	Text      string    `json:"text"`
	User      string    `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

// FindComment returns the index of the comment with the given id, or -1.
func (r *Review) FindComment(id string) int {
	for i, c := range r.Comments {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// ReviewView is a review with its references resolved. Unresolvable
// references render as a summary carrying only the id.
type ReviewView struct {
	Review
	Tester   *UserSummary    `json:"tester"`
	Product  *ProductSummary `json:"product"`
	Comments []CommentView   `json:"comments"`
}

// CommentView is a comment with its author resolved.
type CommentView struct {
	Comment
	User *UserSummary `json:"user"`
}

// RatingStats is the count and sum of ratings for one product.
type RatingStats struct {
	Count int64
	Sum   int64
}

// Average returns the mean rating rounded half-up to one decimal place, or 0
// when there are no ratings.
func (s RatingStats) Average() float64 {
	return RoundRating(s.Sum, s.Count)
}

// RoundRating computes round(sum/count, 1) with half-up rounding using
// integer arithmetic, so 3.25 becomes 3.3 and 4.05 becomes 4.1 exactly.
func RoundRating(sum, count int64) float64 {
	if count <= 0 {
		return 0
	}
	tenths := (20*sum + count) / (2 * count)
	return float64(tenths) / 10
}
