package types

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateErrorMatchesRemoteUpdateFailed(t *testing.T) {
	cause := context.DeadlineExceeded
	err := error(&UpdateError{ID: "1", Err: cause})

	assert.ErrorIs(t, err, ErrRemoteUpdateFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUpdateErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *UpdateError
		want string
	}{
		{
			name: "status and reason",
			err:  &UpdateError{ID: "1", Status: 500, Reason: "database unavailable"},
			want: "update of record 1 failed: status 500: database unavailable",
		},
		{
			name: "cause only",
			err:  &UpdateError{ID: "2", Err: errors.New("connection refused")},
			want: "update of record 2 failed: connection refused",
		},
		{
			name: "bare",
			err:  &UpdateError{ID: "3"},
			want: "update of record 3 failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAsUpdateError(t *testing.T) {
	t.Run("wraps plain errors", func(t *testing.T) {
		ue := AsUpdateError("1", errors.New("boom"))
		require.NotNil(t, ue)
		assert.Equal(t, "1", ue.ID)
		assert.ErrorIs(t, ue, ErrRemoteUpdateFailed)
	})

	t.Run("keeps existing update errors", func(t *testing.T) {
		orig := &UpdateError{ID: "1", Status: 404}
		wrapped := errors.Join(errors.New("context"), orig)
		assert.Same(t, orig, AsUpdateError("1", wrapped))
	})
}

func TestUpdaterFunc(t *testing.T) {
	var u Updater = UpdaterFunc(func(ctx context.Context, id string, fields map[string]string) (Record, error) {
		return Record{ID: id, Fields: fields}, nil
	})

	got, err := u.Update(context.Background(), "1", map[string]string{"name": "Alpha"})
	require.NoError(t, err)
	assert.Equal(t, "Alpha", got.Get("name"))
}

func TestEditStateCloneIsIndependent(t *testing.T) {
	s := EditState{Open: true, TargetID: "1", Staged: map[string]string{"name": "Alpha"}}
	cp := s.Clone()
	cp.Staged["name"] = "Changed"

	assert.Equal(t, "Alpha", s.Staged["name"])
	assert.True(t, s.IsEditing("1"))
	assert.False(t, s.IsEditing("2"))
	assert.False(t, Closed().IsEditing(""))
}
