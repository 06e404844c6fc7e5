package materials

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drydock-works/drydock/internal/masterdata/shared"
	"github.com/drydock-works/drydock/internal/platform/httpx"
)

type fakeRepo struct {
	items  map[int64]Material
	refs   map[int64]int
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: map[int64]Material{}, refs: map[int64]int{}, nextID: 1}
}

func (f *fakeRepo) List(_ context.Context, _ shared.ListFilters) ([]Material, int, error) {
	out := make([]Material, 0, len(f.items))
	for _, m := range f.items {
		out = append(out, m)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (Material, error) {
	m, ok := f.items[id]
	if !ok {
		return Material{}, httpx.ErrNotFound
	}
	return m, nil
}

func (f *fakeRepo) Create(_ context.Context, m Material) (Material, error) {
	m.ID = f.nextID
	f.nextID++
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	f.items[m.ID] = m
	return m, nil
}

func (f *fakeRepo) Update(_ context.Context, id int64, m Material) error {
	if _, ok := f.items[id]; !ok {
		return httpx.ErrNotFound
	}
	m.ID = id
	f.items[id] = m
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeRepo) CountLineReferences(_ context.Context, id int64) (int, error) {
	return f.refs[id], nil
}

func TestCreateValidatesInput(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Create(context.Background(), MaterialInput{Name: "", Unit: "kg", UnitPrice: 100})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	_, err = svc.Create(context.Background(), MaterialInput{Name: "Marine paint", Unit: "liter", UnitPrice: -5})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestCreateAndGet(t *testing.T) {
	svc := NewService(newFakeRepo())

	created, err := svc.Create(context.Background(), MaterialInput{Name: "Steel plate", Unit: "kg", UnitPrice: 25000})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Steel plate", got.Name)
	assert.Equal(t, 25000.0, got.UnitPrice)
}

func TestDeleteRejectedWhileReferenced(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), MaterialInput{Name: "Welding rod", Unit: "box", UnitPrice: 120000})
	require.NoError(t, err)

	repo.refs[created.ID] = 3
	err = svc.Delete(context.Background(), created.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrConflict))

	repo.refs[created.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), created.ID))

	_, err = svc.Get(context.Background(), created.ID)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}
