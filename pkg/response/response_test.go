package response_test

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/medstore/pkg/response"
)

func TestCreatedWritesEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	response.Created(rec, map[string]string{"name": "Aspirin"}, "Medicine added")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, http.StatusCreated, env.Status)
	assert.Equal(t, "Medicine added", env.Message)
}

func TestValidationErrorCarriesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	response.ValidationError(rec, map[string]string{"row 2.price": "must be a non-negative number"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t,
		`{"status":422,"message":"Validation failed","errors":{"row 2.price":"must be a non-negative number"}}`,
		rec.Body.String())
}

func TestUnencodableDataIsServerError(t *testing.T) {
	rec := httptest.NewRecorder()
	response.Success(rec, []float64{1.5, math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"status":500,"message":"Internal Server Error"}`, rec.Body.String())
}
