package reports

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/medstore/app/repositories/memstore"
	"github.com/shashiranjanraj/medstore/app/services"
	gql "github.com/shashiranjanraj/medstore/pkg/graphql"
)

func TestSchemaAnswersDashboardQuery(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	meds := services.NewMedicineService(store, nil, nil, 10)
	_, err := meds.Create(ctx, services.MedicineInput{Name: "Paracetamol", Quantity: 4, Price: 2})
	require.NoError(t, err)
	_, err = meds.Create(ctx, services.MedicineInput{Name: "Ibuprofen", Quantity: 40, Price: 3})
	require.NoError(t, err)
	_, err = services.NewCheckupService(store).Create(ctx, services.CheckupInput{
		PatientName: "Jane", Contact: "555-1234", CheckupType: "CBC", TotalCost: 15,
	})
	require.NoError(t, err)

	schema, err := NewSchema(services.NewReportService(store, 10))
	require.NoError(t, err)

	body := `{"query":"{ medicines(lowStock: true) { name quantity } leads(status: \"Converted\") { name status } summary { medicineCount lowStockCount revenue leadsByStatus { status count } } }"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/graphql", strings.NewReader(body))
	gql.Handler(schema).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Data struct {
			Medicines []struct {
				Name     string `json:"name"`
				Quantity int    `json:"quantity"`
			} `json:"medicines"`
			Leads []struct {
				Name   string `json:"name"`
				Status string `json:"status"`
			} `json:"leads"`
			Summary struct {
				MedicineCount int     `json:"medicineCount"`
				LowStockCount int     `json:"lowStockCount"`
				Revenue       float64 `json:"revenue"`
				LeadsByStatus []struct {
					Status string `json:"status"`
					Count  int    `json:"count"`
				} `json:"leadsByStatus"`
			} `json:"summary"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Empty(t, out.Errors)

	require.Len(t, out.Data.Medicines, 1)
	assert.Equal(t, "Paracetamol", out.Data.Medicines[0].Name)
	require.Len(t, out.Data.Leads, 1)
	assert.Equal(t, "Jane", out.Data.Leads[0].Name)
	assert.Equal(t, 2, out.Data.Summary.MedicineCount)
	assert.Equal(t, 1, out.Data.Summary.LowStockCount)
	assert.Equal(t, 15.0, out.Data.Summary.Revenue)
	assert.Len(t, out.Data.Summary.LeadsByStatus, 4)
}

func TestHandlerRejectsMissingQuery(t *testing.T) {
	schema, err := NewSchema(services.NewReportService(memstore.New(), 10))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	gql.Handler(schema).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/graphql", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	gql.Handler(schema).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/graphql", strings.NewReader(`{"query":"{ nope }"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
