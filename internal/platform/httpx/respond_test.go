package httpx

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProblemUsesProblemJSONMediaType(t *testing.T) {
	rec := httptest.NewRecorder()
	Problem(rec, 422, "Invalid posting", "entry is unbalanced")

	require.Equal(t, 422, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var pd ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pd))
	require.Equal(t, "about:blank", pd.Type)
	require.Equal(t, "Invalid posting", pd.Title)
	require.Equal(t, 422, pd.Status)
	require.Equal(t, "entry is unbalanced", pd.Detail)
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var target struct {
		Amount string `json:"amount"`
	}
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"ammount":"100"}`))
	require.Error(t, DecodeJSON(req, &target))

	req = httptest.NewRequest("POST", "/", strings.NewReader(`{"amount":"100"}`))
	require.NoError(t, DecodeJSON(req, &target))
	require.Equal(t, "100", target.Amount)
}
