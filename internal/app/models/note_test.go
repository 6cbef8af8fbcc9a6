package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyRatingRunningAverage(t *testing.T) {
	n := &Note{}

	n.ApplyRating(1, 5)
	n.ApplyRating(2, 3)
	n.ApplyRating(3, 4)

	assert.Equal(t, 3, n.RatingCount)
	assert.InDelta(t, 4.0, n.Rating, 1e-9)
}

func TestApplyRatingResubmitReplacesValue(t *testing.T) {
	n := &Note{}

	n.ApplyRating(1, 5)
	n.ApplyRating(2, 3)
	n.ApplyRating(3, 4)

	// User 1 changes their mind; the count must not grow
	n.ApplyRating(1, 1)

	assert.Equal(t, 3, n.RatingCount)
	assert.InDelta(t, (1.0+3.0+4.0)/3.0, n.Rating, 1e-9)
	assert.InDelta(t, 2.7, n.DisplayRating(), 1e-9)
}

func TestApplyRatingSameValueIsStable(t *testing.T) {
	n := &Note{}

	n.ApplyRating(1, 4)
	n.ApplyRating(1, 4)
	n.ApplyRating(1, 4)

	assert.Equal(t, 1, n.RatingCount)
	assert.InDelta(t, 4.0, n.Rating, 1e-9)
}

func TestApplyRatingSingleRater(t *testing.T) {
	n := &Note{}
	n.ApplyRating(7, 2)

	assert.Equal(t, 1, n.RatingCount)
	assert.InDelta(t, 2.0, n.Rating, 1e-9)
	assert.Equal(t, 2, n.UserRatings[7])
}

func TestDisplayRatingRoundsToOneDecimal(t *testing.T) {
	n := &Note{}
	n.ApplyRating(1, 4)
	n.ApplyRating(2, 4)
	n.ApplyRating(3, 5)

	// Stored value keeps full precision
	assert.InDelta(t, 13.0/3.0, n.Rating, 1e-9)
	assert.InDelta(t, 4.3, n.DisplayRating(), 1e-9)
}

func TestValidRating(t *testing.T) {
	assert.False(t, ValidRating(0))
	assert.True(t, ValidRating(1))
	assert.True(t, ValidRating(5))
	assert.False(t, ValidRating(6))
	assert.False(t, ValidRating(-3))
}

func TestGrantDownloaderIdempotent(t *testing.T) {
	n := &Note{IsPaid: true}

	n.GrantDownloader("buyer@example.com")
	n.GrantDownloader("buyer@example.com")

	require.Len(t, n.DownloaderEmails, 1)
	assert.Equal(t, 1, n.DownloadCount)
	assert.True(t, n.HasDownloader("buyer@example.com"))
	assert.False(t, n.HasDownloader("other@example.com"))

	n.GrantDownloader("other@example.com")
	assert.Equal(t, 2, n.DownloadCount)
}

func TestCanView(t *testing.T) {
	buyer := &Actor{ID: 1, Email: "buyer@example.com"}
	stranger := &Actor{ID: 2, Email: "stranger@example.com"}

	free := &Note{IsPaid: false}
	assert.True(t, free.CanView(nil))
	assert.True(t, free.CanView(stranger))

	paid := &Note{IsPaid: true}
	paid.GrantDownloader(buyer.Email)

	assert.False(t, paid.CanView(nil))
	assert.False(t, paid.CanView(stranger))
	assert.True(t, paid.CanView(buyer))
}

func TestAccessStateFor(t *testing.T) {
	buyer := &Actor{ID: 1, Email: "buyer@example.com"}

	paid := &Note{IsPaid: true}
	assert.Equal(t, AccessLocked, paid.AccessStateFor(nil))
	assert.Equal(t, AccessLocked, paid.AccessStateFor(buyer))

	paid.GrantDownloader(buyer.Email)
	assert.Equal(t, AccessUnlocked, paid.AccessStateFor(buyer))

	free := &Note{IsPaid: false}
	assert.Equal(t, AccessUnlocked, free.AccessStateFor(nil))
}

func TestAppendCommentPreservesOrder(t *testing.T) {
	n := &Note{}
	n.AppendComment(&Comment{Body: "first"})
	n.AppendComment(&Comment{Body: "second"})

	require.Len(t, n.Comments, 2)
	assert.Equal(t, "first", n.Comments[0].Body)
	assert.Equal(t, "second", n.Comments[1].Body)
}
