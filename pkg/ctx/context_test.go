package ctx_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/medstore/pkg/auth"
	appctx "github.com/shashiranjanraj/medstore/pkg/ctx"
	"github.com/shashiranjanraj/medstore/pkg/middleware"
	"github.com/shashiranjanraj/medstore/pkg/response"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	appctx.Wrap(func(c *appctx.Context) {
		c.Message("saved", map[string]any{"count": 2})
		assert.Equal(t, http.StatusOK, c.WrittenStatus())
	})(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	env := decode(t, rec)
	assert.Equal(t, 200, env.Status)
	assert.Equal(t, "saved", env.Message)
	assert.Equal(t, map[string]any{"count": float64(2)}, env.Data)
}

func TestBindJSON(t *testing.T) {
	type input struct {
		Name string `json:"name" validate:"required"`
	}

	cases := []struct {
		body string
		code int
	}{
		{`{"name":"Jane"}`, http.StatusOK},
		{`{"name":""}`, http.StatusUnprocessableEntity},
		{`{"name":`, http.StatusBadRequest},
		{``, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
		appctx.Wrap(func(c *appctx.Context) {
			var in input
			if !c.BindJSON(&in) {
				return
			}
			c.Success(in.Name)
		})(rec, req)
		assert.Equal(t, tc.code, rec.Code, "body %q", tc.body)
	}
}

func TestServerErrorHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	appctx.Wrap(func(c *appctx.Context) {
		c.ServerError(errors.New("mongo: connection refused"), "Error creating checkup")
	})(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Error creating checkup", decode(t, rec).Message)
	assert.NotContains(t, rec.Body.String(), "mongo")
}

func TestClaimsAccessors(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(middleware.WithClaims(req.Context(), &auth.Claims{UserID: "u-9", Role: "admin"}))

	appctx.Wrap(func(c *appctx.Context) {
		assert.Equal(t, "u-9", c.UserID())
		assert.Equal(t, "admin", c.Role())
	})(httptest.NewRecorder(), req)
}

func TestQueryBool(t *testing.T) {
	appctx.Wrap(func(c *appctx.Context) {
		assert.True(t, c.QueryBool("lowStock"))
		assert.False(t, c.QueryBool("missing"))
		assert.Equal(t, "para", c.Query("q"))
	})(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/?lowStock=1&q=+para+", nil))
}

func TestFormFile(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "stock.csv")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("name,price\nParacetamol,2.5\n"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	appctx.Wrap(func(c *appctx.Context) {
		f, hdr, err := c.FormFile("file", 1<<20)
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "stock.csv", hdr.Filename)
		data, _ := io.ReadAll(f)
		assert.Contains(t, string(data), "Paracetamol")
	})(httptest.NewRecorder(), req)
}

func TestAttachment(t *testing.T) {
	rec := httptest.NewRecorder()
	appctx.Wrap(func(c *appctx.Context) {
		err := c.Attachment("inventory.xlsx", "application/octet-stream", func(w io.Writer) error {
			_, err := w.Write([]byte("PK"))
			return err
		})
		assert.NoError(t, err)
	})(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, `attachment; filename="inventory.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "PK", rec.Body.String())
}
