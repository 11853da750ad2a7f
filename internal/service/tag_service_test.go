package service

import (
	"context"
	"testing"

	"github.com/haierkeys/note-keeper-service/internal/dto"
	"github.com/haierkeys/note-keeper-service/pkg/code"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagService(t *testing.T) {
	ctx := context.Background()
	svc := NewTagService(newMockTagRepo(), nil, nil)

	work, err := svc.Create(ctx, 1, &dto.TagCreateRequest{Name: "  Work "})
	require.NoError(t, err)
	assert.Equal(t, "work", work.Name)
	assert.Positive(t, work.ID)

	_, err = svc.Create(ctx, 1, &dto.TagCreateRequest{Name: "WORK"})
	assert.ErrorIs(t, err, code.ErrorTagExist)

	_, err = svc.Create(ctx, 2, &dto.TagCreateRequest{Name: "work"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, 1, &dto.TagCreateRequest{Name: "alpha"})
	require.NoError(t, err)

	list, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "work", list[1].Name)

	assert.ErrorIs(t, svc.Delete(ctx, 2, work.ID), code.ErrorTagNotFound)
	require.NoError(t, svc.Delete(ctx, 1, work.ID))
	assert.ErrorIs(t, svc.Delete(ctx, 1, work.ID), code.ErrorTagNotFound)
}
