package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/media-service/internal/types"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&types.MediaNotFoundError{ID: "m"}, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", &types.DocumentNotFoundError{Kind: "study", ID: "d"}), http.StatusNotFound},
		{&types.MediaInUseError{ID: "m", References: 2}, http.StatusConflict},
		{types.ErrMediaDeleted, http.StatusConflict},
		{&types.NotOwnerError{DocumentID: "d", ActorID: "u"}, http.StatusForbidden},
		{types.ErrTooLarge, http.StatusRequestEntityTooLarge},
		{types.ErrUnsupportedMedia, http.StatusUnsupportedMediaType},
		{&types.InvalidTransitionError{From: "draft", To: "draft"}, http.StatusBadRequest},
		{types.ErrEmptyUpload, http.StatusBadRequest},
		{types.ErrInvalidBulkAction, http.StatusBadRequest},
		{&types.StorageWriteError{Op: "write", Err: syscall.ENOSPC}, http.StatusInsufficientStorage},
		{&types.StorageWriteError{Op: "write", Err: errors.New("io")}, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusFor(tc.err), tc.err.Error())
	}
}

func TestFromErrorWritesEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, FromError(rec, &types.MediaInUseError{ID: "m", References: 3}))

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, StatusError, body.Status)
	assert.Contains(t, body.Error, "referenced by 3")
}
