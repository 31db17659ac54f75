package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lms_backend/internals/features/finance/counters/model"
	"lms_backend/internals/helpers/testdb"
)

func TestAssignNext_CreatesThenIncrements(t *testing.T) {
	db := testdb.Open(t, &model.CounterModel{})
	ctx := context.Background()

	v1, err := AssignNext(ctx, db, "student_roll_no")
	require.NoError(t, err)
	v2, err := AssignNext(ctx, db, "student_roll_no")
	require.NoError(t, err)
	other, err := AssignNext(ctx, db, "other")
	require.NoError(t, err)

	assert.Equal(t, int64(1), v1)
	assert.Equal(t, int64(2), v2)
	assert.Equal(t, int64(1), other)
}

func TestAssignNext_ConcurrentCallersGetDistinctValues(t *testing.T) {
	db := testdb.Open(t, &model.CounterModel{})
	ctx := context.Background()

	const n = 20
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[int64]bool{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := AssignNext(ctx, db, "student_roll_no")
			assert.NoError(t, err)
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
	for i := int64(1); i <= n; i++ {
		assert.True(t, seen[i], "missing %d", i)
	}
}

func TestFormatRollNo(t *testing.T) {
	assert.Equal(t, "0001", FormatRollNo(1))
	assert.Equal(t, "0420", FormatRollNo(420))
	assert.Equal(t, "12345", FormatRollNo(12345))
}

func TestAssignNext_RejectsEmptyName(t *testing.T) {
	db := testdb.Open(t, &model.CounterModel{})
	_, err := AssignNext(context.Background(), db, "  ")
	assert.Error(t, err)
}
