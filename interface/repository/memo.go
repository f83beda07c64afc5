package repository

import (
	"context"

	"github.com/behrang/sqlbatch"

	"supplypool/domain"
)

const (
	sqlMemoUpsert = `
	insert into memos as c (
			key, memo
		)
		values (
			$1, $2::jsonb
		)
	on conflict (key) do
		update set
			memo = $2::jsonb
`

	sqlMemoFind = `
	select
		key, memo
	from memos
	where key = $1
`
)

type MemoRepository struct {
	batchHandler BatchHandler
}

func NewMemoRepository(db BatchHandler) *MemoRepository {
	return &MemoRepository{batchHandler: db}
}

func readAllMemos(all interface{}, scan func(...interface{}) error) (interface{}, error) {
	r := domain.Memo{}
	var jstr []byte
	err := scan(
		&r.Key, &jstr,
	)
	if err == nil {
		r.Memo = string(jstr)
	}

	list := all.([]domain.Memo)
	list = append(list, r)
	return list, err
}

func (repo *MemoRepository) Upsert(ctx context.Context, key string, memo domain.Memorable) error {
	_, err := repo.batchHandler.Batch(ctx, &BatchOptionNormal, []sqlbatch.Command{
		{
			Query: sqlMemoUpsert,
			Args: []interface{}{
				key, memo.ToJson(),
			},
			Affect: 1,
		},
	})
	return err
}

// Find returns nil without error when the key has no memo.
func (repo *MemoRepository) Find(ctx context.Context, key string) (*domain.Memo, error) {
	results, err := repo.batchHandler.Batch(ctx, &BatchOptionNormalReadOnly, []sqlbatch.Command{
		{
			Query:   sqlMemoFind,
			Args:    []interface{}{key},
			Init:    make([]domain.Memo, 0),
			ReadAll: readAllMemos,
		},
	})
	if err != nil {
		return nil, err
	}
	memos, _ := results[0].([]domain.Memo)
	if len(memos) == 0 {
		return nil, nil
	}
	return &memos[0], nil
}
