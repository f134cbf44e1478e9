package review

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/booking-core/internal/pkg/apperror"
)

func strPtr(s string) *string { return &s }

func TestService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	tests := []struct {
		name   string
		req    CreateRequest
		fields []string
	}{
		{"rating too low", CreateRequest{ResourceID: openRoom, Rating: 0}, []string{"rating"}},
		{"rating too high", CreateRequest{ResourceID: openRoom, Rating: 6}, []string{"rating"}},
		{"short comment", CreateRequest{ResourceID: openRoom, Rating: 3, Comment: strPtr("meh")}, []string{"comment"}},
		{"long comment", CreateRequest{ResourceID: openRoom, Rating: 3, Comment: strPtr(strings.Repeat("a", MaxCommentLength+1))}, []string{"comment"}},
		{"both", CreateRequest{ResourceID: openRoom, Rating: 9, Comment: strPtr("bad")}, []string{"comment", "rating"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, author, tt.req)
			var verr *apperror.ValidationError
			require.ErrorAs(t, err, &verr)
			for _, field := range tt.fields {
				assert.Contains(t, verr.FieldErrors, field)
			}
			assert.Len(t, verr.FieldErrors, len(tt.fields))
		})
	}
}

func TestService_CreateRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	r, err := f.svc.Create(ctx, author, CreateRequest{ResourceID: openRoom, Rating: 5, Comment: strPtr("   ")})
	require.NoError(t, err)
	assert.Nil(t, r.Comment, "blank comment is dropped")

	_, err = f.svc.Create(ctx, author, CreateRequest{ResourceID: openRoom, Rating: 2})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	_, err = f.svc.Create(ctx, author, CreateRequest{ResourceID: draftRoom, Rating: 2})
	assert.ErrorIs(t, err, ErrResourceClosed)

	_, err = f.svc.Create(ctx, author, CreateRequest{ResourceID: "nope", Rating: 2})
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestService_HiddenReviewsVisibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	hidden := f.review(t, author, openRoom)
	visible := f.review(t, reader, openRoom)
	require.NoError(t, f.gate.Resolve(ctx, staffer, hidden.ID))

	_, err := f.svc.GetByID(ctx, reader, hidden.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.GetByID(ctx, author, hidden.ID)
	assert.NoError(t, err)
	_, err = f.svc.GetByID(ctx, staffer, hidden.ID)
	assert.NoError(t, err)

	list, total, err := f.svc.List(ctx, reader, Filter{ResourceID: openRoom, IncludeHidden: true})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, visible.ID, list[0].ID)

	_, total, err = f.svc.List(ctx, staffer, Filter{ResourceID: openRoom, IncludeHidden: true})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	summary, err := f.svc.Summary(ctx, openRoom)
	require.NoError(t, err)
	assert.Equal(t, Summary{ResourceID: openRoom, AverageRating: 4, Count: 1}, summary)
}
