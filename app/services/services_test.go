package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/medstore/app/models"
	"github.com/shashiranjanraj/medstore/app/repositories"
	"github.com/shashiranjanraj/medstore/app/repositories/memstore"
	"github.com/shashiranjanraj/medstore/pkg/auth"
	"github.com/shashiranjanraj/medstore/pkg/spreadsheet"
	"github.com/shashiranjanraj/medstore/pkg/storage"
)

func newSigner(t *testing.T) *auth.Signer {
	t.Helper()
	s, err := auth.NewSigner("test-secret", time.Hour)
	require.NoError(t, err)
	return s
}

func requireValidation(t *testing.T, err error, field string) {
	t.Helper()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, field)
}

// ─── auth ─────────────────────────────────────────────────────────────────────

func TestSeedThenLogin(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	signer := newSigner(t)
	svc := NewAuthService(store, signer, SeedPasswords{Admin: "admin123", Staff: "staff123"})

	created, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.Seed(ctx)
	require.NoError(t, err)
	assert.False(t, created, "second seed is a no-op")

	users, err := store.Users().List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = svc.Login(ctx, LoginInput{Username: "ghost", Password: "x"})
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	_, err = svc.Login(ctx, LoginInput{Username: "admin", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	res, err := svc.Login(ctx, LoginInput{Username: "staff", Password: "staff123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, res.User.Role)

	claims, err := signer.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, models.RoleEmployee, claims.Role)

	me, err := svc.Me(ctx, claims.UserID)
	require.NoError(t, err)
	assert.Equal(t, "staff", me.Username)
}

// ─── users ────────────────────────────────────────────────────────────────────

func TestUserLifecycle(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := NewUserService(store)

	admin, err := svc.Create(ctx, CreateUserInput{Username: "boss", Password: "secret1", Role: models.RoleAdmin})
	require.NoError(t, err)

	clerk, err := svc.Create(ctx, CreateUserInput{Username: "clerk", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, clerk.Role, "role defaults to employee")
	assert.NotEqual(t, "secret1", clerk.Password)

	_, err = svc.Create(ctx, CreateUserInput{Username: "clerk", Password: "secret1"})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	_, err = svc.Create(ctx, CreateUserInput{Username: "short", Password: "12345"})
	requireValidation(t, err, "password")

	_, err = svc.Create(ctx, CreateUserInput{Username: "two words", Password: "secret1"})
	requireValidation(t, err, "username")

	_, err = svc.Create(ctx, CreateUserInput{Username: "root", Password: "secret1", Role: "owner"})
	requireValidation(t, err, "role")

	assert.ErrorIs(t, svc.Delete(ctx, admin.ID), ErrLastAdmin)

	_, err = svc.Create(ctx, CreateUserInput{Username: "boss2", Password: "secret1", Role: models.RoleAdmin})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, admin.ID))
	assert.ErrorIs(t, svc.Delete(ctx, admin.ID), repositories.ErrNotFound)

	require.NoError(t, svc.UpdatePassword(ctx, clerk.ID, PasswordInput{Password: "changed!"}))
	u, err := store.Users().FindByID(ctx, clerk.ID)
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(u.Password, "changed!"))

	assert.ErrorIs(t, svc.UpdatePassword(ctx, repositories.NewID(), PasswordInput{Password: "changed!"}), repositories.ErrNotFound)
}

// ─── checkups ─────────────────────────────────────────────────────────────────

func TestCheckupConvertsLead(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	checkups := NewCheckupService(store)

	c, err := checkups.Create(ctx, CheckupInput{PatientName: "Jane Doe", Age: 30, Contact: "555-1234", CheckupType: "CBC", TotalCost: 15})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)

	lead, err := store.Leads().FindByContactKey(ctx, "5551234")
	require.NoError(t, err)
	assert.Equal(t, models.LeadConverted, lead.Status)
	assert.Equal(t, "Jane Doe", lead.Name)
	assert.Equal(t, "Auto-generated from Checkup: CBC", lead.Notes)

	_, err = checkups.Create(ctx, CheckupInput{PatientName: "Jane", Contact: "555 1234", CheckupType: "Lipid Profile", TotalCost: 25})
	require.NoError(t, err)

	leads, err := store.Leads().List(ctx, "")
	require.NoError(t, err)
	require.Len(t, leads, 1, "formatting differences map to the same lead")
	assert.Equal(t, "Auto-generated from Checkup: CBC | Checkup done: Lipid Profile", leads[0].Notes)
}

// racingStore runs WithTx inline and lets its lead repository lose the
// first Insert to a rival lead written just before it.
type racingStore struct {
	repositories.Store
	leads *racingLeads
}

func (s *racingStore) Leads() repositories.LeadRepository { return s.leads }

func (s *racingStore) WithTx(_ context.Context, fn func(tx repositories.Store) error) error {
	return fn(s)
}

type racingLeads struct {
	repositories.LeadRepository
	rival     models.Lead
	insertErr error
	inserts   int
}

func (r *racingLeads) Insert(ctx context.Context, l *models.Lead) error {
	r.inserts++
	if r.inserts > 1 {
		return r.LeadRepository.Insert(ctx, l)
	}
	if r.insertErr != nil {
		return r.insertErr
	}
	rival := r.rival
	if err := r.LeadRepository.Insert(ctx, &rival); err != nil {
		return err
	}
	return repositories.ErrDuplicate
}

func newRacingStore(rival models.Lead, insertErr error) (*racingStore, repositories.Store) {
	base := memstore.New()
	rival.ContactKey = models.ContactKey(rival.Contact)
	return &racingStore{Store: base, leads: &racingLeads{LeadRepository: base.Leads(), rival: rival, insertErr: insertErr}}, base
}

func TestCheckupLosingLeadInsertRaceUpdatesWinner(t *testing.T) {
	ctx := context.Background()
	store, base := newRacingStore(models.Lead{Name: "Walk-in", Contact: "555-1234", Status: models.LeadNew, Notes: "Asked about CBC"}, nil)

	_, err := NewCheckupService(store).Create(ctx, CheckupInput{PatientName: "Jane Doe", Contact: "555 1234", CheckupType: "CBC", TotalCost: 15})
	require.NoError(t, err)
	assert.Equal(t, 1, store.leads.inserts)

	leads, err := base.Leads().List(ctx, "")
	require.NoError(t, err)
	require.Len(t, leads, 1, "the rival lead is reused")
	assert.Equal(t, "Walk-in", leads[0].Name)
	assert.Equal(t, models.LeadConverted, leads[0].Status)
	assert.Equal(t, "Asked about CBC | Checkup done: CBC", leads[0].Notes)
}

func TestCheckupLeadInsertFailureIsReturned(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("write conflict")
	store, base := newRacingStore(models.Lead{}, boom)

	_, err := NewCheckupService(store).Create(ctx, CheckupInput{PatientName: "Jane Doe", Contact: "555 1234", CheckupType: "CBC"})
	assert.ErrorIs(t, err, boom)

	leads, err := base.Leads().List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestCheckupConvertsExistingLead(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	leads := NewLeadService(store)

	l, err := leads.Create(ctx, LeadInput{Name: "Bob", Contact: "bob@mail.com", Status: models.LeadContacted, Notes: "called twice"})
	require.NoError(t, err)

	_, err = NewCheckupService(store).Create(ctx, CheckupInput{PatientName: "Bob", Contact: " BOB@mail.com", CheckupType: "Widal", TotalCost: 12})
	require.NoError(t, err)

	got, err := leads.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadConverted, got.Status)
	assert.Equal(t, "called twice | Checkup done: Widal", got.Notes)
}

func TestConcurrentCheckupsCreateOneLead(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := NewCheckupService(store)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, CheckupInput{PatientName: "Jane", Contact: "555-1234", CheckupType: "CBC", TotalCost: 15})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	leads, err := store.Leads().List(ctx, "")
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, 9, strings.Count(leads[0].Notes, "Checkup done: CBC"))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 10)
}

func TestCheckupRejectsNegativeCost(t *testing.T) {
	_, err := NewCheckupService(memstore.New()).Create(context.Background(),
		CheckupInput{PatientName: "Jane", Contact: "555-1234", CheckupType: "CBC", TotalCost: -1})
	requireValidation(t, err, "totalCost")
}

func TestCheckupTypesIsACopy(t *testing.T) {
	svc := NewCheckupService(memstore.New())
	types := svc.Types()
	require.Len(t, types, 7)
	types[0].Price = 0
	assert.Equal(t, 15.0, svc.Types()[0].Price)
}

// ─── leads ────────────────────────────────────────────────────────────────────

func TestLeadRules(t *testing.T) {
	ctx := context.Background()
	svc := NewLeadService(memstore.New())

	jane, err := svc.Create(ctx, LeadInput{Name: "Jane", Contact: "555-1234"})
	require.NoError(t, err)
	assert.Equal(t, models.LeadNew, jane.Status)

	_, err = svc.Create(ctx, LeadInput{Name: "Jane again", Contact: "(555) 123 4"})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	_, err = svc.Create(ctx, LeadInput{Name: "X", Contact: "x@mail.com", Status: "Won"})
	requireValidation(t, err, "status")

	bob, err := svc.Create(ctx, LeadInput{Name: "Bob", Contact: "bob@mail.com"})
	require.NoError(t, err)

	lost := models.LeadLost
	updated, err := svc.Update(ctx, jane.ID, LeadUpdate{Status: &lost})
	require.NoError(t, err)
	assert.Equal(t, models.LeadLost, updated.Status)
	assert.Equal(t, "Jane", updated.Name, "absent fields are kept")

	taken := "555 1234"
	_, err = svc.Update(ctx, bob.ID, LeadUpdate{Contact: &taken})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	bad := "Won"
	_, err = svc.Update(ctx, bob.ID, LeadUpdate{Status: &bad})
	requireValidation(t, err, "status")

	blank := "   "
	_, err = svc.Update(ctx, bob.ID, LeadUpdate{Name: &blank, Contact: &blank})
	requireValidation(t, err, "name")
	requireValidation(t, err, "contact")

	kept, err := svc.Get(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bob", kept.Name)
	assert.Equal(t, "bob@mail.com", kept.ContactKey)

	_, err = svc.Update(ctx, repositories.NewID(), LeadUpdate{Status: &lost})
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	_, err = svc.List(ctx, "Won")
	requireValidation(t, err, "status")

	lostLeads, err := svc.List(ctx, models.LeadLost)
	require.NoError(t, err)
	require.Len(t, lostLeads, 1)

	require.NoError(t, svc.Delete(ctx, bob.ID))
	assert.ErrorIs(t, svc.Delete(ctx, bob.ID), repositories.ErrNotFound)
}

func TestBookAppointment(t *testing.T) {
	ctx := context.Background()
	svc := NewLeadService(memstore.New())

	lead, err := svc.BookAppointment(ctx, AppointmentInput{Name: "Ann", Contact: "9876543210", Reason: "Fever", Date: "2026-11-02"})
	require.NoError(t, err)
	assert.Equal(t, models.LeadNew, lead.Status)
	assert.Equal(t, "Online Appointment Request. Reason: Fever. Preferred Date: 2026-11-02", lead.Notes)

	contacted := models.LeadContacted
	_, err = svc.Update(ctx, lead.ID, LeadUpdate{Status: &contacted})
	require.NoError(t, err)

	again, err := svc.BookAppointment(ctx, AppointmentInput{Name: "Ann", Contact: "98765 43210", Reason: "Follow-up", Date: "2026-11-09"})
	require.NoError(t, err)
	assert.Equal(t, lead.ID, again.ID)
	assert.Equal(t, models.LeadContacted, again.Status, "status is left unchanged")
	assert.Equal(t,
		"Online Appointment Request. Reason: Fever. Preferred Date: 2026-11-02 | Online Appointment Request. Reason: Follow-up. Preferred Date: 2026-11-09",
		again.Notes)
}

// ─── medicines ────────────────────────────────────────────────────────────────

func newMedicineService(t *testing.T) (*MedicineService, repositories.Store, storage.Disk) {
	t.Helper()
	store := memstore.New()
	disk, err := storage.NewLocal(t.TempDir(), "http://localhost/storage")
	require.NoError(t, err)
	svc := NewMedicineService(store, nil, disk, 10)
	svc.now = func() time.Time { return time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC) }
	return svc, store, disk
}

func TestMedicineCreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newMedicineService(t)

	m, err := svc.Create(ctx, MedicineInput{Name: "Paracetamol", Quantity: 5, Price: 2.5, ExpiryDate: "2027-03-01"})
	require.NoError(t, err)
	require.NotNil(t, m.ExpiryDate)

	_, err = svc.Create(ctx, MedicineInput{Name: "Paracetamol"})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	_, err = svc.Create(ctx, MedicineInput{Name: "Broken", Quantity: -1})
	requireValidation(t, err, "quantity")

	qty := 50
	updated, err := svc.Update(ctx, m.ID, MedicineUpdate{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, 50, updated.Quantity)
	assert.Equal(t, 2.5, updated.Price, "absent fields are kept")

	neg := -3.0
	_, err = svc.Update(ctx, m.ID, MedicineUpdate{Price: &neg})
	requireValidation(t, err, "price")

	blank := "  "
	_, err = svc.Update(ctx, m.ID, MedicineUpdate{Name: &blank})
	requireValidation(t, err, "name")

	renamed := "  Paracetamol 500  "
	updated, err = svc.Update(ctx, m.ID, MedicineUpdate{Name: &renamed})
	require.NoError(t, err)
	assert.Equal(t, "Paracetamol 500", updated.Name)

	_, err = svc.Update(ctx, repositories.NewID(), MedicineUpdate{Quantity: &qty})
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	low, err := svc.List(ctx, "", true)
	require.NoError(t, err)
	assert.Empty(t, low)

	found, err := svc.List(ctx, "para", false)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

const stockCSV = `Medicine Name,Qty,MRP,Batch,Exp Date,Shelf
Amoxicillin,10,3,B1,2027-01-31,A1
Cetirizine,"1,200",1.5,B2,,A2

Amoxicillin,20,3.5,B3,31/12/2027,A3
`

func TestMedicineImport(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newMedicineService(t)

	n, err := svc.Import(ctx, "stock list.csv", strings.NewReader(stockCSV))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := svc.List(ctx, "", false)
	require.NoError(t, err)
	require.Len(t, all, 2)

	byName := map[string]models.Medicine{}
	for _, m := range all {
		byName[m.Name] = m
	}
	amox := byName["Amoxicillin"]
	assert.Equal(t, 20, amox.Quantity, "later row wins")
	assert.Equal(t, 3.5, amox.Price)
	assert.Equal(t, "B3", amox.BatchNo)
	require.NotNil(t, amox.ExpiryDate)
	assert.Equal(t, "2027-12-31", amox.ExpiryDate.Format("2006-01-02"))
	assert.Equal(t, "A3", amox.AdditionalInfo["Shelf"])
	assert.Equal(t, 1200, byName["Cetirizine"].Quantity)

	files, err := svc.Imports(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "imports/20261017T093000Z-stock_list.csv", files[0].Path)
}

func TestMedicineImportRejectsWholeSheet(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newMedicineService(t)

	bad := "name,quantity,price\nGood,1,1\n,2,2\nNegative,-4,1\nWords,many,1\nAspirin,5,NaN\nIbuprofen,Inf,+Inf\n"
	_, err := svc.Import(ctx, "bad.csv", strings.NewReader(bad))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "row 3.name")
	assert.Contains(t, ve.Fields, "row 4.quantity")
	assert.Contains(t, ve.Fields, "row 5.quantity")
	assert.Contains(t, ve.Fields, "row 6.price")
	assert.Contains(t, ve.Fields, "row 7.quantity")
	assert.Contains(t, ve.Fields, "row 7.price")

	all, err := store.Medicines().List(ctx, models.MedicineFilter{})
	require.NoError(t, err)
	assert.Empty(t, all, "nothing is written")

	_, err = svc.Import(ctx, "no-name.csv", strings.NewReader("qty,price\n1,2\n"))
	requireValidation(t, err, "file")

	_, err = svc.Import(ctx, "stock.pdf", strings.NewReader("%PDF"))
	requireValidation(t, err, "file")
}

func TestMedicineExport(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newMedicineService(t)

	_, err := svc.Create(ctx, MedicineInput{Name: "Paracetamol", BatchNo: "P1", Quantity: 5, Price: 2.5, ExpiryDate: "2027-03-01"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, &buf))

	sheet, err := spreadsheet.Read(bytes.NewReader(buf.Bytes()), "inventory.xlsx")
	require.NoError(t, err)
	assert.Equal(t, exportHeader, sheet.Header)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, "Paracetamol", sheet.Rows[0].Values["Name"])
	assert.Equal(t, "2027-03-01", sheet.Rows[0].Values["Expiry Date"])
	assert.Equal(t, "5", sheet.Rows[0].Values["Quantity"])
}

// ─── reports ──────────────────────────────────────────────────────────────────

func TestSummary(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	meds := NewMedicineService(store, nil, nil, 10)

	_, err := meds.Create(ctx, MedicineInput{Name: "A", Quantity: 3})
	require.NoError(t, err)
	_, err = meds.Create(ctx, MedicineInput{Name: "B", Quantity: 30})
	require.NoError(t, err)

	checkups := NewCheckupService(store)
	_, err = checkups.Create(ctx, CheckupInput{PatientName: "P", Contact: "5550001", CheckupType: "CBC", TotalCost: 15})
	require.NoError(t, err)
	_, err = checkups.Create(ctx, CheckupInput{PatientName: "Q", Contact: "5550002", CheckupType: "Lipid", TotalCost: 25})
	require.NoError(t, err)

	s, err := NewReportService(store, 10).Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, s.MedicineCount)
	assert.Equal(t, 1, s.LowStockCount)
	assert.Equal(t, 2, s.CheckupCount)
	assert.Equal(t, 40.0, s.Revenue)
	require.Len(t, s.LeadsByStatus, 4)
	assert.Equal(t, StatusCount{Status: models.LeadConverted, Count: 2}, s.LeadsByStatus[2])
}
