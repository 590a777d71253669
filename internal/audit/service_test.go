package audit

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	rows []Row
	last WindowParams
}

func (s *stubRepo) Window(_ context.Context, arg WindowParams) ([]Row, error) {
	s.last = arg
	return s.rows, nil
}

func row(at, actor, action, entity, id, meta string) Row {
	ts, _ := time.Parse(time.RFC3339, at)
	return Row{At: pgtype.Timestamptz{Time: ts, Valid: true}, Actor: actor, Action: action, Entity: entity, EntityID: id, Meta: []byte(meta)}
}

func TestTimelinePaging(t *testing.T) {
	repo := &stubRepo{rows: []Row{
		row("2024-03-10T10:00:00Z", "ops@example.com", "user.status", "user", "u1", `{"status":"banned"}`),
		row("2024-03-09T09:00:00Z", "ops@example.com", "deal.delete", "deal", "d1", `{}`),
		row("2024-03-08T08:00:00Z", "ops@example.com", "gig.moderate", "gig", "g1", ``),
	}}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.True(t, result.Paging.HasNext)
	assert.Equal(t, 2, result.Paging.NextPage)
	assert.Equal(t, int32(3), repo.last.LimitRows)
	assert.Equal(t, int32(0), repo.last.OffsetRows)
	assert.Equal(t, "banned", result.Rows[0].Meta["status"])
}

func TestTimelineFiltersAndClamp(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	result, err := svc.Timeline(context.Background(), TimelineFilters{From: from, Actor: "  ops ", Entity: "", Page: 3, PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 50, result.Paging.PageSize)
	assert.Equal(t, 2, result.Paging.PrevPage)
	assert.False(t, result.Paging.HasNext)
	assert.Equal(t, int32(100), repo.last.OffsetRows)
	assert.True(t, repo.last.FromAt.Valid)
	assert.False(t, repo.last.ToAt.Valid)
	assert.Equal(t, pgtype.Text{String: "ops", Valid: true}, repo.last.Actor)
	assert.False(t, repo.last.Entity.Valid)
}

func TestTimelineWithoutRepository(t *testing.T) {
	_, err := NewService(nil).Timeline(context.Background(), TimelineFilters{})
	assert.Error(t, err)
}

func TestDecodeMetaToleratesGarbage(t *testing.T) {
	assert.Nil(t, decodeMeta([]byte("not json")))
	assert.Nil(t, decodeMeta(nil))
}
