// Package mongostore implements the repositories on MongoDB, the default
// driver.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/medstore/app/models"
	"github.com/shashiranjanraj/medstore/app/repositories"
	"github.com/shashiranjanraj/medstore/pkg/metrics"
)

const (
	colUsers     = "users"
	colMedicines = "medicines"
	colCheckups  = "patientcheckups"
	colLeads     = "leads"
)

type Store struct {
	client       *mongo.Client
	db           *mongo.Database
	transactions bool
	now          func() time.Time
}

var _ repositories.Store = (*Store)(nil)

// New wraps db. With transactions enabled WithTx runs inside a
// multi-document transaction, which needs a replica set.
func New(client *mongo.Client, db *mongo.Database, transactions bool) *Store {
	return &Store{
		client:       client,
		db:           db,
		transactions: transactions,
		now:          func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// EnsureIndexes creates the unique keys the repositories rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		colUsers: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colMedicines: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		colCheckups: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "contact", Value: 1}}},
		},
		colLeads: {
			{Keys: bson.D{{Key: "contactKey", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
	for col, idx := range specs {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("mongostore: indexes on %s: %w", col, err)
		}
	}
	return nil
}

func (s *Store) Users() repositories.UserRepository {
	return userRepo{s: s, col: s.db.Collection(colUsers)}
}

func (s *Store) Medicines() repositories.MedicineRepository {
	return medicineRepo{s: s, col: s.db.Collection(colMedicines)}
}

func (s *Store) Checkups() repositories.CheckupRepository {
	return checkupRepo{s: s, col: s.db.Collection(colCheckups)}
}

func (s *Store) Leads() repositories.LeadRepository {
	return leadRepo{s: s, col: s.db.Collection(colLeads)}
}

// WithTx passes a session context down through ctx, so every repository
// call fn makes with that ctx joins the transaction. fn must use the ctx it
// was called with.
func (s *Store) WithTx(ctx context.Context, fn func(tx repositories.Store) error) error {
	if !s.transactions {
		return fn(s)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongostore: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(&txStore{Store: s, sc: sc})
	})
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// txStore pins every repository call to the session context. Callers pass
// their own ctx, which is replaced so the operation joins the transaction.
type txStore struct {
	*Store
	sc mongo.SessionContext
}

func (t *txStore) Users() repositories.UserRepository {
	return userRepo{s: t.Store, col: t.db.Collection(colUsers), sc: t.sc}
}

func (t *txStore) Medicines() repositories.MedicineRepository {
	return medicineRepo{s: t.Store, col: t.db.Collection(colMedicines), sc: t.sc}
}

func (t *txStore) Checkups() repositories.CheckupRepository {
	return checkupRepo{s: t.Store, col: t.db.Collection(colCheckups), sc: t.sc}
}

func (t *txStore) Leads() repositories.LeadRepository {
	return leadRepo{s: t.Store, col: t.db.Collection(colLeads), sc: t.sc}
}

func (t *txStore) WithTx(_ context.Context, fn func(tx repositories.Store) error) error {
	return fn(t)
}

// bind returns the session context when the repository belongs to a
// transaction, otherwise ctx.
func bind(ctx context.Context, sc mongo.SessionContext) context.Context {
	if sc != nil {
		return sc
	}
	return ctx
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repositories.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repositories.ErrDuplicate
	}
	return err
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

func findAll[T any](ctx context.Context, col *mongo.Collection, filter interface{}) ([]T, error) {
	cur, err := col.Find(ctx, filter, newestFirst)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ─── users ────────────────────────────────────────────────────────────────────

type userRepo struct {
	s   *Store
	col *mongo.Collection
	sc  mongo.SessionContext
}

func (r userRepo) List(ctx context.Context) ([]models.User, error) {
	defer metrics.ObserveDBQuery("mongo.users.list", time.Now())
	out, err := findAll[models.User](bind(ctx, r.sc), r.col, bson.M{})
	return out, translate(err)
}

func (r userRepo) FindByID(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := r.col.FindOne(bind(ctx, r.sc), bson.M{"_id": id}).Decode(&u)
	return u, translate(err)
}

func (r userRepo) FindByUsername(ctx context.Context, username string) (models.User, error) {
	defer metrics.ObserveDBQuery("mongo.users.find", time.Now())
	var u models.User
	err := r.col.FindOne(bind(ctx, r.sc), bson.M{"username": username}).Decode(&u)
	return u, translate(err)
}

func (r userRepo) CountByRole(ctx context.Context, role string) (int64, error) {
	n, err := r.col.CountDocuments(bind(ctx, r.sc), bson.M{"role": role})
	return n, translate(err)
}

func (r userRepo) Create(ctx context.Context, u *models.User) error {
	defer metrics.ObserveDBQuery("mongo.users.create", time.Now())
	if u.ID == "" {
		u.ID = repositories.NewID()
	}
	now := r.s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := r.col.InsertOne(bind(ctx, r.sc), u)
	return translate(err)
}

func (r userRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := r.col.UpdateOne(bind(ctx, r.sc), bson.M{"_id": id},
		bson.M{"$set": bson.M{"password": hash, "updatedAt": r.s.now()}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r userRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(bind(ctx, r.sc), bson.M{"_id": id})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// ─── medicines ────────────────────────────────────────────────────────────────

type medicineRepo struct {
	s   *Store
	col *mongo.Collection
	sc  mongo.SessionContext
}

func (r medicineRepo) List(ctx context.Context, f models.MedicineFilter) ([]models.Medicine, error) {
	defer metrics.ObserveDBQuery("mongo.medicines.list", time.Now())
	filter := bson.M{}
	if f.Query != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(f.Query), "$options": "i"}
	}
	if f.LowStock {
		filter["quantity"] = bson.M{"$lt": f.Below}
	}
	out, err := findAll[models.Medicine](bind(ctx, r.sc), r.col, filter)
	return out, translate(err)
}

func (r medicineRepo) FindByID(ctx context.Context, id string) (models.Medicine, error) {
	var m models.Medicine
	err := r.col.FindOne(bind(ctx, r.sc), bson.M{"_id": id}).Decode(&m)
	return m, translate(err)
}

func (r medicineRepo) Create(ctx context.Context, m *models.Medicine) error {
	defer metrics.ObserveDBQuery("mongo.medicines.create", time.Now())
	if m.ID == "" {
		m.ID = repositories.NewID()
	}
	now := r.s.now()
	m.CreatedAt, m.UpdatedAt = now, now
	_, err := r.col.InsertOne(bind(ctx, r.sc), m)
	return translate(err)
}

func (r medicineRepo) Update(ctx context.Context, m *models.Medicine) error {
	defer metrics.ObserveDBQuery("mongo.medicines.update", time.Now())
	m.UpdatedAt = r.s.now()
	set := medicineFields(*m)
	set["updatedAt"] = m.UpdatedAt

	var before models.Medicine
	err := r.col.FindOneAndUpdate(bind(ctx, r.sc), bson.M{"_id": m.ID}, bson.M{"$set": set}).Decode(&before)
	if err != nil {
		return translate(err)
	}
	m.CreatedAt = before.CreatedAt
	return nil
}

// UpsertByName sends one ordered bulk write. Ordered execution applies the
// rows in sheet order, so the last row for a name wins.
func (r medicineRepo) UpsertByName(ctx context.Context, rows []models.Medicine) (int, error) {
	defer metrics.ObserveDBQuery("mongo.medicines.upsert", time.Now())
	if len(rows) == 0 {
		return 0, nil
	}

	now := r.s.now()
	writes := make([]mongo.WriteModel, 0, len(rows))
	for _, row := range rows {
		set := medicineFields(row)
		set["updatedAt"] = now
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"name": row.Name}).
			SetUpdate(bson.M{
				"$set":         set,
				"$setOnInsert": bson.M{"_id": repositories.NewID(), "createdAt": now},
			}).
			SetUpsert(true))
	}

	_, err := r.col.BulkWrite(bind(ctx, r.sc), writes, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return 0, translate(err)
	}
	return len(rows), nil
}

// medicineFields lists the mutable fields. Empty optional fields are unset
// in the document by writing their zero value.
func medicineFields(m models.Medicine) bson.M {
	return bson.M{
		"name":           m.Name,
		"batchNo":        m.BatchNo,
		"expiryDate":     m.ExpiryDate,
		"manufacturer":   m.Manufacturer,
		"quantity":       m.Quantity,
		"price":          m.Price,
		"description":    m.Description,
		"additionalInfo": m.AdditionalInfo,
	}
}

// ─── checkups ─────────────────────────────────────────────────────────────────

type checkupRepo struct {
	s   *Store
	col *mongo.Collection
	sc  mongo.SessionContext
}

func (r checkupRepo) List(ctx context.Context) ([]models.Checkup, error) {
	defer metrics.ObserveDBQuery("mongo.checkups.list", time.Now())
	out, err := findAll[models.Checkup](bind(ctx, r.sc), r.col, bson.M{})
	return out, translate(err)
}

func (r checkupRepo) Create(ctx context.Context, c *models.Checkup) error {
	defer metrics.ObserveDBQuery("mongo.checkups.create", time.Now())
	if c.ID == "" {
		c.ID = repositories.NewID()
	}
	c.CreatedAt = r.s.now()
	_, err := r.col.InsertOne(bind(ctx, r.sc), c)
	return translate(err)
}

// ─── leads ────────────────────────────────────────────────────────────────────

type leadRepo struct {
	s   *Store
	col *mongo.Collection
	sc  mongo.SessionContext
}

func (r leadRepo) List(ctx context.Context, status string) ([]models.Lead, error) {
	defer metrics.ObserveDBQuery("mongo.leads.list", time.Now())
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	out, err := findAll[models.Lead](bind(ctx, r.sc), r.col, filter)
	return out, translate(err)
}

func (r leadRepo) FindByID(ctx context.Context, id string) (models.Lead, error) {
	var l models.Lead
	err := r.col.FindOne(bind(ctx, r.sc), bson.M{"_id": id}).Decode(&l)
	return l, translate(err)
}

func (r leadRepo) FindByContactKey(ctx context.Context, key string) (models.Lead, error) {
	defer metrics.ObserveDBQuery("mongo.leads.find_contact", time.Now())
	var l models.Lead
	err := r.col.FindOne(bind(ctx, r.sc), bson.M{"contactKey": key}).Decode(&l)
	return l, translate(err)
}

// Insert upserts with $setOnInsert on the contact key, so an existing lead
// is left untouched and reported as ErrDuplicate. Two racing upserts can
// both miss the match; the unique index turns the loser into a duplicate
// key error.
func (r leadRepo) Insert(ctx context.Context, l *models.Lead) error {
	defer metrics.ObserveDBQuery("mongo.leads.insert", time.Now())
	id := l.ID
	if id == "" {
		id = repositories.NewID()
	}
	now := r.s.now()

	res, err := r.col.UpdateOne(bind(ctx, r.sc),
		bson.M{"contactKey": l.ContactKey},
		bson.M{"$setOnInsert": bson.M{
			"_id":       id,
			"name":      l.Name,
			"contact":   l.Contact,
			"status":    l.Status,
			"notes":     l.Notes,
			"createdAt": now,
			"updatedAt": now,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return translate(err)
	}
	if res.UpsertedCount == 0 {
		return repositories.ErrDuplicate
	}

	l.ID = id
	l.CreatedAt, l.UpdatedAt = now, now
	return nil
}

func (r leadRepo) Update(ctx context.Context, l *models.Lead) error {
	defer metrics.ObserveDBQuery("mongo.leads.update", time.Now())
	l.UpdatedAt = r.s.now()

	var before models.Lead
	err := r.col.FindOneAndUpdate(bind(ctx, r.sc), bson.M{"_id": l.ID}, bson.M{"$set": bson.M{
		"name":       l.Name,
		"contact":    l.Contact,
		"contactKey": l.ContactKey,
		"status":     l.Status,
		"notes":      l.Notes,
		"updatedAt":  l.UpdatedAt,
	}}).Decode(&before)
	if err != nil {
		return translate(err)
	}
	l.CreatedAt = before.CreatedAt
	return nil
}

func (r leadRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(bind(ctx, r.sc), bson.M{"_id": id})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
