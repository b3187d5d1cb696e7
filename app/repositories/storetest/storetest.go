// Package storetest is the behaviour suite every repositories.Store driver
// must pass. Driver packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/medstore/app/models"
	"github.com/shashiranjanraj/medstore/app/repositories"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) repositories.Store

func Run(t *testing.T, newStore Factory) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("medicines", func(t *testing.T) { testMedicines(t, newStore(t)) })
	t.Run("medicine upsert", func(t *testing.T) { testUpsert(t, newStore(t)) })
	t.Run("checkups", func(t *testing.T) { testCheckups(t, newStore(t)) })
	t.Run("leads", func(t *testing.T) { testLeads(t, newStore(t)) })
	t.Run("lead insert race", func(t *testing.T) { testLeadInsertRace(t, newStore(t)) })
	t.Run("transaction rollback", func(t *testing.T) { testRollback(t, newStore(t)) })
}

func testUsers(t *testing.T, s repositories.Store) {
	ctx := context.Background()
	users := s.Users()

	admin := &models.User{Username: "admin", Password: "hash", Role: models.RoleAdmin}
	require.NoError(t, users.Create(ctx, admin))
	require.NotEmpty(t, admin.ID)

	err := users.Create(ctx, &models.User{Username: "admin", Password: "x", Role: models.RoleEmployee})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	staff := &models.User{Username: "staff", Password: "hash", Role: models.RoleEmployee}
	require.NoError(t, users.Create(ctx, staff))

	got, err := users.FindByUsername(ctx, "staff")
	require.NoError(t, err)
	assert.Equal(t, staff.ID, got.ID)
	assert.Equal(t, "hash", got.Password)

	_, err = users.FindByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	n, err := users.CountByRole(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, users.UpdatePassword(ctx, staff.ID, "new-hash"))
	got, err = users.FindByID(ctx, staff.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.Password)
	assert.ErrorIs(t, users.UpdatePassword(ctx, repositories.NewID(), "h"), repositories.ErrNotFound)

	list, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "staff", list[0].Username, "newest first")

	require.NoError(t, users.Delete(ctx, staff.ID))
	assert.ErrorIs(t, users.Delete(ctx, staff.ID), repositories.ErrNotFound)
}

func testMedicines(t *testing.T, s repositories.Store) {
	ctx := context.Background()
	meds := s.Medicines()

	para := &models.Medicine{Name: "Paracetamol", Quantity: 5, Price: 2.5, AdditionalInfo: map[string]string{"Shelf": "A1"}}
	require.NoError(t, meds.Create(ctx, para))
	time.Sleep(2 * time.Millisecond)
	ibu := &models.Medicine{Name: "Ibuprofen", Quantity: 40, Price: 4}
	require.NoError(t, meds.Create(ctx, ibu))

	assert.ErrorIs(t, meds.Create(ctx, &models.Medicine{Name: "Paracetamol"}), repositories.ErrDuplicate)

	all, err := meds.List(ctx, models.MedicineFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Ibuprofen", all[0].Name)

	low, err := meds.List(ctx, models.MedicineFilter{LowStock: true, Below: 10})
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Paracetamol", low[0].Name)
	assert.Equal(t, "A1", low[0].AdditionalInfo["Shelf"])

	found, err := meds.List(ctx, models.MedicineFilter{Query: "PROF"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, ibu.ID, found[0].ID)

	ibu.Quantity = 39
	require.NoError(t, meds.Update(ctx, ibu))
	got, err := meds.FindByID(ctx, ibu.ID)
	require.NoError(t, err)
	assert.Equal(t, 39, got.Quantity)

	ibu.Name = "Paracetamol"
	assert.ErrorIs(t, meds.Update(ctx, ibu), repositories.ErrDuplicate)

	_, err = meds.FindByID(ctx, repositories.NewID())
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.ErrorIs(t, meds.Update(ctx, &models.Medicine{ID: repositories.NewID(), Name: "Ghost"}), repositories.ErrNotFound)
}

func testUpsert(t *testing.T, s repositories.Store) {
	ctx := context.Background()
	meds := s.Medicines()

	existing := &models.Medicine{Name: "Cetirizine", Quantity: 1, Price: 1}
	require.NoError(t, meds.Create(ctx, existing))

	n, err := meds.UpsertByName(ctx, []models.Medicine{
		{Name: "Amoxicillin", Quantity: 10, Price: 3},
		{Name: "Cetirizine", Quantity: 50, Price: 1.5, BatchNo: "B7"},
		{Name: "Amoxicillin", Quantity: 20, Price: 3.5},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := meds.List(ctx, models.MedicineFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	byName := map[string]models.Medicine{}
	for _, m := range all {
		byName[m.Name] = m
	}
	assert.Equal(t, 20, byName["Amoxicillin"].Quantity, "later row wins")
	assert.Equal(t, 3.5, byName["Amoxicillin"].Price)
	assert.Equal(t, existing.ID, byName["Cetirizine"].ID, "upsert keeps the id")
	assert.Equal(t, 50, byName["Cetirizine"].Quantity)
	assert.Equal(t, "B7", byName["Cetirizine"].BatchNo)
}

func testCheckups(t *testing.T, s repositories.Store) {
	ctx := context.Background()
	c := &models.Checkup{
		PatientName:    "Jane Doe",
		Contact:        "555-1234",
		CheckupType:    "CBC",
		TotalCost:      15,
		CheckupDetails: map[string]any{"tests": []any{"cbc"}},
	}
	require.NoError(t, s.Checkups().Create(ctx, c))
	require.NotEmpty(t, c.ID)
	assert.False(t, c.CreatedAt.IsZero())

	list, err := s.Checkups().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Jane Doe", list[0].PatientName)
	assert.Equal(t, 15.0, list[0].TotalCost)
	assert.NotNil(t, list[0].CheckupDetails["tests"])
}

func testLeads(t *testing.T, s repositories.Store) {
	ctx := context.Background()
	leads := s.Leads()

	l := &models.Lead{Name: "Jane", Contact: "555-1234", ContactKey: "5551234", Status: models.LeadNew}
	require.NoError(t, leads.Insert(ctx, l))

	dup := &models.Lead{Name: "Jane D", Contact: "555 1234", ContactKey: "5551234", Status: models.LeadNew}
	assert.ErrorIs(t, leads.Insert(ctx, dup), repositories.ErrDuplicate)

	got, err := leads.FindByContactKey(ctx, "5551234")
	require.NoError(t, err)
	assert.Equal(t, l.ID, got.ID)

	_, err = leads.FindByContactKey(ctx, "000")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	other := &models.Lead{Name: "Bob", Contact: "bob@mail.com", ContactKey: "bob@mail.com", Status: models.LeadContacted}
	require.NoError(t, leads.Insert(ctx, other))

	got.Status = models.LeadConverted
	got.AppendNote("Checkup done: CBC")
	require.NoError(t, leads.Update(ctx, &got))

	converted, err := leads.List(ctx, models.LeadConverted)
	require.NoError(t, err)
	require.Len(t, converted, 1)
	assert.Equal(t, "Checkup done: CBC", converted[0].Notes)

	other.ContactKey = "5551234"
	assert.ErrorIs(t, leads.Update(ctx, other), repositories.ErrDuplicate)

	require.NoError(t, leads.Delete(ctx, l.ID))
	assert.ErrorIs(t, leads.Delete(ctx, l.ID), repositories.ErrNotFound)
	_, err = leads.FindByID(ctx, l.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func testLeadInsertRace(t *testing.T, s repositories.Store) {
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Leads().Insert(ctx, &models.Lead{Name: "Jane", Contact: "555-1234", ContactKey: "5551234", Status: models.LeadNew})
		}()
	}
	wg.Wait()
	close(errs)

	won := 0
	for err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.ErrorIs(t, err, repositories.ErrDuplicate)
	}
	assert.Equal(t, 1, won)

	all, err := s.Leads().List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

var errAbort = errors.New("abort")

func testRollback(t *testing.T, s repositories.Store) {
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx repositories.Store) error {
		if err := tx.Checkups().Create(ctx, &models.Checkup{PatientName: "Tmp", Contact: "1234567", CheckupType: "CBC"}); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	list, err := s.Checkups().List(ctx)
	require.NoError(t, err)
	if len(list) != 0 {
		t.Skip("driver runs without transactions")
	}

	require.NoError(t, s.WithTx(ctx, func(tx repositories.Store) error {
		return tx.Checkups().Create(ctx, &models.Checkup{PatientName: "Kept", Contact: "1234567", CheckupType: "CBC"})
	}))
	list, err = s.Checkups().List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
