package store

import (
	"errors"
	"fmt"
	"slices"

	"github.com/earnings-navigator/backend/internal/events"
	"github.com/earnings-navigator/backend/internal/models"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record is any persisted entity type
type Record interface {
	models.Company | models.EarningsCall | models.EarningsAnalysis | models.Query
	TableName() string
}

// ListOptions filters and orders List and Count results
type ListOptions struct {
	Where   map[string]interface{} // column -> value equality filters
	OrderBy string                 // column name, defaults to "id"
	Desc    bool
	Limit   int
	Offset  int
}

// UnitOfWork exposes one repository per entity, all bound to the same transaction
type UnitOfWork struct {
	tx      *gorm.DB
	store   *Store
	created []events.Event

	Companies *Repository[models.Company]
	Calls     *Repository[models.EarningsCall]
	Analyses  *Repository[models.EarningsAnalysis]
	Queries   *Repository[models.Query]
}

func newUnitOfWork(tx *gorm.DB, s *Store) *UnitOfWork {
	u := &UnitOfWork{tx: tx, store: s}
	u.Companies = &Repository[models.Company]{uow: u}
	u.Calls = &Repository[models.EarningsCall]{uow: u}
	u.Analyses = &Repository[models.EarningsAnalysis]{uow: u}
	u.Queries = &Repository[models.Query]{uow: u}
	return u
}

// Repository provides the generic CRUD primitives for one entity type
type Repository[T Record] struct {
	uow *UnitOfWork
}

func (r *Repository[T]) entity() string {
	var zero T
	return zero.TableName()
}

// Create validates and inserts rec, filling its id and created_at
func (r *Repository[T]) Create(rec *T) error {
	if err := r.check("create", rec); err != nil {
		return err
	}
	if err := r.uow.tx.Omit(clause.Associations).Create(rec).Error; err != nil {
		return wrap("create", r.entity(), err)
	}
	r.uow.track(rec)
	return nil
}

// Get reads the record with the given id
func (r *Repository[T]) Get(id uint) (T, error) {
	var out T
	if err := r.uow.tx.First(&out, id).Error; err != nil {
		return out, wrap("get", r.entity(), err)
	}
	return out, nil
}

// FindOne reads the first record whose column equals value, e.g. FindOne("ticker", "AAPL")
func (r *Repository[T]) FindOne(column string, value interface{}) (T, error) {
	var out T
	err := r.uow.tx.
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
		First(&out).Error
	if err != nil {
		return out, wrap("find", r.entity(), err)
	}
	return out, nil
}

// List returns the records matching opts
func (r *Repository[T]) List(opts ListOptions) ([]T, error) {
	q := r.uow.tx.Model(new(T))
	if len(opts.Where) > 0 {
		q = q.Where(eqs(opts.Where))
	}

	orderBy := opts.OrderBy
	if orderBy == "" {
		orderBy = "id"
	}
	q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: orderBy}, Desc: opts.Desc})
	if orderBy != "id" {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: opts.Desc})
	}

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	out := make([]T, 0)
	if err := q.Find(&out).Error; err != nil {
		return nil, wrap("list", r.entity(), err)
	}
	return out, nil
}

// Count returns the number of records matching opts.Where
func (r *Repository[T]) Count(opts ListOptions) (int64, error) {
	q := r.uow.tx.Model(new(T))
	if len(opts.Where) > 0 {
		q = q.Where(eqs(opts.Where))
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, wrap("count", r.entity(), err)
	}
	return n, nil
}

// Update writes every column of rec, which must carry the id of an existing row.
// created_at is never rewritten.
func (r *Repository[T]) Update(rec *T) error {
	if err := r.check("update", rec); err != nil {
		return err
	}
	res := r.uow.tx.Model(rec).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(rec)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrMissingWhereClause) {
			return &Error{Op: "update", Entity: r.entity(), Kind: ErrValidation, Err: fmt.Errorf("id is required")}
		}
		return wrap("update", r.entity(), res.Error)
	}
	if res.RowsAffected == 0 {
		return &Error{Op: "update", Entity: r.entity(), Kind: ErrNotFound}
	}
	return nil
}

// Delete removes the record with the given id. Rows that still have dependents are
// protected by ON DELETE RESTRICT and fail with ErrForeignKeyViolation.
func (r *Repository[T]) Delete(id uint) error {
	res := r.uow.tx.Delete(new(T), id)
	if res.Error != nil {
		return wrap("delete", r.entity(), res.Error)
	}
	if res.RowsAffected == 0 {
		return &Error{Op: "delete", Entity: r.entity(), Kind: ErrNotFound}
	}
	return nil
}

func (r *Repository[T]) check(op string, rec *T) error {
	if rec == nil {
		return &Error{Op: op, Entity: r.entity(), Kind: ErrValidation, Err: fmt.Errorf("record is nil")}
	}
	if err := r.uow.store.validate.Struct(rec); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return &Error{Op: op, Entity: r.entity(), Kind: ErrValidation, Err: describe(verrs)}
		}
		return &Error{Op: op, Entity: r.entity(), Kind: ErrValidation, Err: err}
	}
	return nil
}

// eqs turns a column map into quoted equality clauses in a stable order
func eqs(where map[string]interface{}) clause.Expression {
	cols := make([]string, 0, len(where))
	for col := range where {
		cols = append(cols, col)
	}
	slices.Sort(cols)

	exprs := make([]clause.Expression, 0, len(cols))
	for _, col := range cols {
		exprs = append(exprs, clause.Eq{Column: clause.Column{Name: col}, Value: where[col]})
	}
	return clause.And(exprs...)
}

// track records the event for a freshly inserted row
func (u *UnitOfWork) track(rec interface{}) {
	at := u.store.now().UTC()
	var e events.Event
	switch v := rec.(type) {
	case *models.Company:
		e = events.Event{Type: events.CompanyCreated, ID: v.ID}
	case *models.EarningsCall:
		e = events.Event{Type: events.EarningsCallCreated, ID: v.ID, ParentID: v.CompanyID}
	case *models.EarningsAnalysis:
		e = events.Event{Type: events.EarningsAnalysisCreated, ID: v.ID, ParentID: v.EarningsCallID}
	case *models.Query:
		e = events.Event{Type: events.QueryCreated, ID: v.ID, ParentID: v.EarningsCallID}
	default:
		return
	}
	if t, ok := rec.(interface{ TableName() string }); ok {
		e.Entity = t.TableName()
	}
	e.OccurredAt = at
	u.created = append(u.created, e)
}
