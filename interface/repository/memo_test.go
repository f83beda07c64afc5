package repository

import (
	"context"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplypool/domain"
)

func TestMemoRepositoryUpsert(t *testing.T) {
	handler := &recordingHandler{}
	repo := NewMemoRepository(handler)

	memo := &domain.HarvestMemo{LastCollected: sdkmath.NewUint(5), Harvests: 2}
	require.NoError(t, repo.Upsert(context.Background(), "harvest", memo))

	command := handler.batches[0][0]
	assert.Same(t, &BatchOptionNormal, handler.opts[0])
	assert.Equal(t, sqlMemoUpsert, command.Query)
	assert.Equal(t, "harvest", command.Args[0])
	assert.JSONEq(t, `{"last_harvest_time":null,"last_collected":"5","harvests":2}`, command.Args[1].(string))
}

func TestMemoRepositoryFind(t *testing.T) {
	handler := &recordingHandler{results: []interface{}{[]domain.Memo{{Key: "harvest", Memo: `{"harvests":1}`}}}}
	repo := NewMemoRepository(handler)

	memo, err := repo.Find(context.Background(), "harvest")
	require.NoError(t, err)
	require.NotNil(t, memo)
	assert.Equal(t, `{"harvests":1}`, memo.Memo)
	assert.Equal(t, sqlMemoFind, handler.batches[0][0].Query)
	assert.Same(t, &BatchOptionNormalReadOnly, handler.opts[0])
}

func TestMemoRepositoryFindMissing(t *testing.T) {
	handler := &recordingHandler{results: []interface{}{[]domain.Memo{}}}
	repo := NewMemoRepository(handler)

	memo, err := repo.Find(context.Background(), "harvest")
	require.NoError(t, err)
	assert.Nil(t, memo)
}

func TestReadAllMemos(t *testing.T) {
	list, err := readAllMemos(make([]domain.Memo, 0), scanner("harvest", []byte(`{"harvests":3}`)))
	require.NoError(t, err)
	assert.Equal(t, []domain.Memo{{Key: "harvest", Memo: `{"harvests":3}`}}, list)
}
