package operation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestJournal(t *testing.T) {
	ctx := context.Background()

	t.Run("rollback_runs_newest_first", func(t *testing.T) {
		var order []string
		j := &Journal{}
		for _, name := range []string{"a", "b", "c"} {
			j.OnRollback(name, func(context.Context) error {
				order = append(order, name)
				return nil
			})
		}
		j.OnCommit("never", func(context.Context) error {
			order = append(order, "commit")
			return nil
		})

		require.Equal(t, 3, j.Pending())
		require.NoError(t, j.Rollback(ctx))
		assert.Equal(t, []string{"c", "b", "a"}, order)
		assert.Zero(t, j.Pending())
	})

	t.Run("rollback_continues_after_failure", func(t *testing.T) {
		var ran []string
		j := &Journal{}
		j.OnRollback("first", func(context.Context) error {
			ran = append(ran, "first")
			return nil
		})
		j.OnRollback("broken", func(context.Context) error {
			return errors.New("boom")
		})

		err := j.Rollback(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken")
		assert.Equal(t, []string{"first"}, ran)
	})

	t.Run("commit_runs_in_order", func(t *testing.T) {
		var order []string
		j := &Journal{}
		j.OnRollback("undo", func(context.Context) error {
			order = append(order, "undo")
			return nil
		})
		for _, name := range []string{"a", "b"} {
			j.OnCommit(name, func(context.Context) error {
				order = append(order, name)
				return nil
			})
		}

		require.NoError(t, j.Commit(ctx))
		assert.Equal(t, []string{"a", "b"}, order)
	})
}
