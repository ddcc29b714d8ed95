package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/swiftride/users-backend/pkg/errors"
)

func TestWriteSuccessEmitsBareBody(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"status": "ok"})

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestWriteErrorMapsTaxonomy(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{
			name:       "validation",
			err:        pkgerrors.New(pkgerrors.CodeValidation, "email is required"),
			wantStatus: 400,
			wantDetail: "email is required",
		},
		{
			name:       "unauthorized",
			err:        pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password"),
			wantStatus: 401,
			wantDetail: "invalid email or password",
		},
		{
			name:       "not found",
			err:        pkgerrors.New(pkgerrors.CodeNotFound, "user not found"),
			wantStatus: 404,
			wantDetail: "user not found",
		},
		{
			name:       "conflict",
			err:        pkgerrors.New(pkgerrors.CodeConflict, "email is already registered"),
			wantStatus: 409,
			wantDetail: "email is already registered",
		},
		{
			name:       "upstream hides internals",
			err:        pkgerrors.New(pkgerrors.CodeUpstream, "firestore exploded"),
			wantStatus: 500,
			wantDetail: "upstream dependency failed",
		},
		{
			name:       "untyped wraps to internal",
			err:        errors.New("boom"),
			wantStatus: 500,
			wantDetail: "internal server error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(context.Background(), nil, rec, tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)
			var body ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.wantDetail, body.Detail)
		})
	}
}
