package pagination_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellora/sellora-backend/pkg/pagination"
)

func TestNormalizeLimit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, pagination.DefaultLimit, pagination.NormalizeLimit(0))
	assert.Equal(t, pagination.DefaultLimit, pagination.NormalizeLimit(-5))
	assert.Equal(t, 10, pagination.NormalizeLimit(10))
	assert.Equal(t, pagination.MaxLimit, pagination.NormalizeLimit(5000))
}

func TestCursorRoundTrip(t *testing.T) {
	t.Parallel()

	in := pagination.Cursor{
		CreatedAt: time.Date(2025, 8, 10, 12, 30, 0, 123456789, time.UTC),
		ID:        uuid.New(),
	}

	out, err := pagination.ParseCursor(pagination.EncodeCursor(in))
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, in.ID, out.ID)
}

func TestParseCursorEmpty(t *testing.T) {
	t.Parallel()

	out, err := pagination.ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestParseCursorInvalid(t *testing.T) {
	t.Parallel()

	_, err := pagination.ParseCursor("not-base64!!")
	assert.Error(t, err)
}

func TestNewPageTrimsBufferedRow(t *testing.T) {
	t.Parallel()

	type row struct {
		id uuid.UUID
		at time.Time
	}

	rows := make([]row, 4)
	for i := range rows {
		rows[i] = row{id: uuid.New(), at: time.Now().Add(-time.Duration(i) * time.Minute)}
	}

	page := pagination.NewPage(rows, 3, func(r row) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.at, ID: r.id}
	})

	require.Len(t, page.Items, 3)
	require.NotEmpty(t, page.NextCursor)

	cur, err := pagination.ParseCursor(page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, rows[2].id, cur.ID)
}

func TestNewPageLastPageHasNoCursor(t *testing.T) {
	t.Parallel()

	rows := []int{1, 2}
	page := pagination.NewPage(rows, 3, func(int) pagination.Cursor { return pagination.Cursor{} })

	assert.Len(t, page.Items, 2)
	assert.Empty(t, page.NextCursor)
}
