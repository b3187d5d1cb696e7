package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shashiranjanraj/medstore/app/models"
	"github.com/shashiranjanraj/medstore/app/repositories"
	"github.com/shashiranjanraj/medstore/pkg/cache"
	"github.com/shashiranjanraj/medstore/pkg/event"
	"github.com/shashiranjanraj/medstore/pkg/logger"
	"github.com/shashiranjanraj/medstore/pkg/spreadsheet"
	"github.com/shashiranjanraj/medstore/pkg/storage"
	"github.com/shashiranjanraj/medstore/pkg/validate"
)

// Cache keys owned by the medicine catalogue.
const (
	MedicineCachePrefix = "medicines:"
	medicineListKey     = MedicineCachePrefix + "list"
)

// ImportDir is the archive directory for uploaded sheets.
const ImportDir = "imports"

type MedicineService struct {
	store    repositories.Store
	cache    *cache.Cache
	disk     storage.Disk
	lowStock int
	now      func() time.Time
}

// NewMedicineService accepts a nil cache (no caching) and a nil disk (no
// import archive).
func NewMedicineService(store repositories.Store, c *cache.Cache, disk storage.Disk, lowStock int) *MedicineService {
	return &MedicineService{
		store:    store,
		cache:    c,
		disk:     disk,
		lowStock: lowStock,
		now:      time.Now,
	}
}

type MedicineInput struct {
	Name           string            `json:"name"           validate:"required,max=255"`
	BatchNo        string            `json:"batchNo"        validate:"max=100"`
	ExpiryDate     string            `json:"expiryDate"     validate:"nullable,date"`
	Manufacturer   string            `json:"manufacturer"   validate:"max=255"`
	Quantity       int               `json:"quantity"       validate:"gte=0"`
	Price          float64           `json:"price"          validate:"gte=0"`
	Description    string            `json:"description"`
	AdditionalInfo map[string]string `json:"additionalInfo"`
}

// MedicineUpdate merges only the fields present in the body. An empty
// expiryDate clears it.
type MedicineUpdate struct {
	Name           *string            `json:"name"           validate:"min=1,max=255"`
	BatchNo        *string            `json:"batchNo"        validate:"max=100"`
	ExpiryDate     *string            `json:"expiryDate"     validate:"nullable,date"`
	Manufacturer   *string            `json:"manufacturer"   validate:"max=255"`
	Quantity       *int               `json:"quantity"       validate:"gte=0"`
	Price          *float64           `json:"price"          validate:"gte=0"`
	Description    *string            `json:"description"`
	AdditionalInfo *map[string]string `json:"additionalInfo"`
}

// List returns the catalogue newest first. Only the unfiltered list is
// cached.
func (s *MedicineService) List(ctx context.Context, query string, lowStock bool) ([]models.Medicine, error) {
	f := models.MedicineFilter{Query: strings.TrimSpace(query), LowStock: lowStock, Below: s.lowStock}
	if f.IsZero() {
		return cache.Remember(ctx, s.cache, medicineListKey, func() ([]models.Medicine, error) {
			return s.store.Medicines().List(ctx, f)
		})
	}
	return s.store.Medicines().List(ctx, f)
}

func (s *MedicineService) Get(ctx context.Context, id string) (models.Medicine, error) {
	return s.store.Medicines().FindByID(ctx, id)
}

// Create returns repositories.ErrDuplicate when the name is taken.
func (s *MedicineService) Create(ctx context.Context, in MedicineInput) (models.Medicine, error) {
	m := models.Medicine{
		Name:           strings.TrimSpace(in.Name),
		BatchNo:        in.BatchNo,
		Manufacturer:   in.Manufacturer,
		Quantity:       in.Quantity,
		Price:          in.Price,
		Description:    in.Description,
		AdditionalInfo: in.AdditionalInfo,
	}
	if in.ExpiryDate != "" {
		d, err := validate.ParseDate(in.ExpiryDate)
		if err != nil {
			return models.Medicine{}, invalid("expiryDate", "The expiryDate is not a valid date.")
		}
		m.ExpiryDate = &d
	}
	if err := checkStock(m.Quantity, m.Price); err != nil {
		return models.Medicine{}, err
	}

	if err := s.store.Medicines().Create(ctx, &m); err != nil {
		return models.Medicine{}, err
	}
	event.Fire(ctx, EventMedicinesChanged, m.ID)
	return m, nil
}

func (s *MedicineService) Update(ctx context.Context, id string, in MedicineUpdate) (models.Medicine, error) {
	var out models.Medicine
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		m, err := tx.Medicines().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := mergeMedicine(&m, in); err != nil {
			return err
		}
		if err := checkStock(m.Quantity, m.Price); err != nil {
			return err
		}
		if err := tx.Medicines().Update(ctx, &m); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return models.Medicine{}, err
	}

	event.Fire(ctx, EventMedicinesChanged, out.ID)
	return out, nil
}

func mergeMedicine(m *models.Medicine, in MedicineUpdate) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return invalid("name", "The name field is required.")
		}
		m.Name = name
	}
	if in.BatchNo != nil {
		m.BatchNo = *in.BatchNo
	}
	if in.ExpiryDate != nil {
		if *in.ExpiryDate == "" {
			m.ExpiryDate = nil
		} else {
			d, err := validate.ParseDate(*in.ExpiryDate)
			if err != nil {
				return invalid("expiryDate", "The expiryDate is not a valid date.")
			}
			m.ExpiryDate = &d
		}
	}
	if in.Manufacturer != nil {
		m.Manufacturer = *in.Manufacturer
	}
	if in.Quantity != nil {
		m.Quantity = *in.Quantity
	}
	if in.Price != nil {
		m.Price = *in.Price
	}
	if in.Description != nil {
		m.Description = *in.Description
	}
	if in.AdditionalInfo != nil {
		m.AdditionalInfo = *in.AdditionalInfo
	}
	return nil
}

func checkStock(quantity int, price float64) error {
	errs := map[string]string{}
	if quantity < 0 {
		errs["quantity"] = "The quantity must be greater than or equal to 0."
	}
	if price < 0 {
		errs["price"] = "The price must be greater than or equal to 0."
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// ─── Import ───────────────────────────────────────────────────────────────────

// medicineColumns maps normalised header aliases to medicine fields.
var medicineColumns = map[string]string{}

func init() {
	aliases := map[string][]string{
		"name":         {"name", "medicine", "medicinename", "product", "productname", "item"},
		"price":        {"price", "mrp", "unitprice", "rate"},
		"quantity":     {"quantity", "qty", "stock", "units"},
		"batchNo":      {"batchno", "batch", "batchnumber", "lot"},
		"expiryDate":   {"expirydate", "expiry", "exp", "expdate"},
		"manufacturer": {"manufacturer", "mfr", "mfg", "company", "brand"},
		"description":  {"description", "desc", "details"},
	}
	for field, names := range aliases {
		for _, n := range names {
			medicineColumns[n] = field
		}
	}
}

// Import parses the whole sheet, then upserts every row by name in sheet
// order inside one transaction. Any bad row rejects the import before a
// write happens. It returns the number of rows applied.
func (s *MedicineService) Import(ctx context.Context, filename string, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read upload: %w", err)
	}

	sheet, err := spreadsheet.Read(bytes.NewReader(data), filename)
	if err != nil {
		return 0, invalid("file", err.Error())
	}
	rows, err := medicineRows(sheet)
	if err != nil {
		return 0, err
	}

	var n int
	err = s.store.WithTx(ctx, func(tx repositories.Store) error {
		var err error
		n, err = tx.Medicines().UpsertByName(ctx, rows)
		return err
	})
	if err != nil {
		return 0, err
	}

	archive := s.archive(ctx, filename, data)
	event.Fire(ctx, EventMedicinesChanged, "")
	event.FireAsync(ctx, EventMedicinesImported, MedicinesImported{Count: n, Archive: archive})
	return n, nil
}

func medicineRows(sheet *spreadsheet.Sheet) ([]models.Medicine, error) {
	// the first column mapping to a field wins; later aliases are kept as
	// additional info
	fields := make(map[string]string, len(sheet.Header))
	seen := map[string]bool{}
	for _, h := range sheet.Header {
		if f, ok := medicineColumns[spreadsheet.NormalizeHeader(h)]; ok && !seen[f] {
			fields[h] = f
			seen[f] = true
		}
	}
	if !seen["name"] {
		return nil, invalid("file", "no name column found in the header row")
	}

	errs := map[string]string{}
	rows := make([]models.Medicine, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		m, rowErrs := medicineFromRow(row, fields)
		for k, v := range rowErrs {
			errs[fmt.Sprintf("row %d.%s", row.Line, k)] = v
		}
		rows = append(rows, m)
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	return rows, nil
}

func medicineFromRow(row spreadsheet.Row, fields map[string]string) (models.Medicine, map[string]string) {
	var m models.Medicine
	errs := map[string]string{}

	for header, value := range row.Values {
		field, mapped := fields[header]
		if !mapped {
			if m.AdditionalInfo == nil {
				m.AdditionalInfo = map[string]string{}
			}
			m.AdditionalInfo[header] = value
			continue
		}

		switch field {
		case "name":
			m.Name = value
		case "batchNo":
			m.BatchNo = value
		case "manufacturer":
			m.Manufacturer = value
		case "description":
			m.Description = value
		case "price":
			p, err := parseAmount(value)
			if err != nil || p < 0 {
				errs["price"] = "must be a non-negative number"
			}
			m.Price = p
		case "quantity":
			q, err := parseAmount(value)
			if err != nil || q < 0 || q != float64(int(q)) {
				errs["quantity"] = "must be a non-negative whole number"
			}
			m.Quantity = int(q)
		case "expiryDate":
			d, err := spreadsheet.Date(value)
			if err != nil {
				errs["expiryDate"] = "is not a valid date"
				continue
			}
			m.ExpiryDate = &d
		}
	}

	if m.Name == "" {
		errs["name"] = "is required"
	}
	return m, errs
}

// parseAmount reads numbers typed with thousands separators or a currency
// sign, e.g. "1,200" or "₹ 45.50".
func parseAmount(s string) (float64, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ', '₹', '$', '€', '£':
			return -1
		}
		return r
	}, s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return f, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// archive stores the upload under imports/. Failures are logged and the
// import still succeeds.
func (s *MedicineService) archive(ctx context.Context, filename string, data []byte) string {
	if s.disk == nil {
		return ""
	}
	name := unsafeName.ReplaceAllString(filepath.Base(filename), "_")
	path := ImportDir + "/" + s.now().UTC().Format("20060102T150405Z") + "-" + name
	if err := s.disk.Put(ctx, path, data); err != nil {
		logger.WithCtx(ctx).Warn("medicines: archive upload failed", "path", path, "error", err)
		return ""
	}
	return path
}

// Imports lists archived uploads, newest first.
func (s *MedicineService) Imports(ctx context.Context) ([]storage.File, error) {
	if s.disk == nil {
		return []storage.File{}, nil
	}
	return s.disk.Files(ctx, ImportDir)
}

// ─── Export ───────────────────────────────────────────────────────────────────

var exportHeader = []string{"Name", "Batch No", "Expiry Date", "Manufacturer", "Quantity", "Price"}

// Export writes the inventory as an .xlsx workbook with one "Inventory"
// sheet.
func (s *MedicineService) Export(ctx context.Context, w io.Writer) error {
	meds, err := s.store.Medicines().List(ctx, models.MedicineFilter{})
	if err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(meds))
	for _, m := range meds {
		expiry := ""
		if m.ExpiryDate != nil {
			expiry = m.ExpiryDate.Format("2006-01-02")
		}
		rows = append(rows, []interface{}{m.Name, m.BatchNo, expiry, m.Manufacturer, m.Quantity, m.Price})
	}
	return spreadsheet.WriteXLSX(w, "Inventory", exportHeader, rows)
}
