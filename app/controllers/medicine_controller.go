package controllers

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/shashiranjanraj/medstore/app/services"
	"github.com/shashiranjanraj/medstore/pkg/ctx"
)

type MedicineController struct {
	service   *services.MedicineService
	maxUpload int64
}

func NewMedicineController(service *services.MedicineService, maxUpload int64) *MedicineController {
	return &MedicineController{service: service, maxUpload: maxUpload}
}

var medicineMessages = Messages{
	NotFound:  "Medicine not found",
	Duplicate: "A medicine with this name already exists",
	Failure:   "Error managing medicines",
}

func (mc *MedicineController) Index(c *ctx.Context) {
	meds, err := mc.service.List(c.Context(), c.Query("q"), c.QueryBool("lowStock"))
	if err != nil {
		fail(c, err, medicineMessages)
		return
	}
	c.Success(meds)
}

func (mc *MedicineController) Store(c *ctx.Context) {
	var in services.MedicineInput
	if !c.BindJSON(&in) {
		return
	}

	m, err := mc.service.Create(c.Context(), in)
	if err != nil {
		fail(c, err, medicineMessages)
		return
	}
	c.Created(m)
}

func (mc *MedicineController) Update(c *ctx.Context) {
	var in services.MedicineUpdate
	if !c.BindJSON(&in) {
		return
	}

	m, err := mc.service.Update(c.Context(), c.Param("id"), in)
	if err != nil {
		fail(c, err, medicineMessages)
		return
	}
	c.Success(m)
}

// Upload imports the spreadsheet sent in the multipart field "file".
func (mc *MedicineController) Upload(c *ctx.Context) {
	file, header, err := c.FormFile("file", mc.maxUpload)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.Error(http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		c.Error(http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	n, err := mc.service.Import(c.Context(), header.Filename, file)
	if err != nil {
		fail(c, err, Messages{Failure: "Error processing file"})
		return
	}
	c.Success(map[string]interface{}{
		"message": "Medicines imported successfully",
		"count":   n,
	})
}

func (mc *MedicineController) Imports(c *ctx.Context) {
	files, err := mc.service.Imports(c.Context())
	if err != nil {
		fail(c, err, Messages{Failure: "Error listing imports"})
		return
	}
	c.Success(files)
}

// Export sends the inventory workbook. It is built in memory first so a
// store failure can still become a 500.
func (mc *MedicineController) Export(c *ctx.Context) {
	var buf bytes.Buffer
	if err := mc.service.Export(c.Context(), &buf); err != nil {
		fail(c, err, Messages{Failure: "Error exporting medicines"})
		return
	}

	const xlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	err := c.Attachment("inventory.xlsx", xlsx, func(w io.Writer) error {
		_, err := buf.WriteTo(w)
		return err
	})
	if err != nil {
		c.Log().Warn("medicines: export write failed", "error", err)
	}
}
