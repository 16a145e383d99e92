// Package gormstore implements the repositories on MySQL through gorm.
package gormstore

import (
	"errors"

	catalogmodel "supplyhub/apps/catalog/model"
	customermodel "supplyhub/apps/customer/model"
	messagemodel "supplyhub/apps/message/model"
	ordermodel "supplyhub/apps/order/model"
	quotemodel "supplyhub/apps/quote/model"
	usermodel "supplyhub/apps/user/model"
	"supplyhub/pkg/apperr"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	mysqlDuplicateEntry = 1062
	mysqlDeadlock       = 1213
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Categories() *CategoryRepo { return &CategoryRepo{s.db} }
func (s *Store) Brands() *BrandRepo { return &BrandRepo{s.db} }
func (s *Store) Products() *ProductRepo { return &ProductRepo{s.db} }
func (s *Store) Customers() *CustomerRepo { return &CustomerRepo{s.db} }
func (s *Store) Orders() *OrderRepo { return &OrderRepo{s.db} }
func (s *Store) Quotes() *QuoteRepo { return &QuoteRepo{s.db} }
func (s *Store) Messages() *MessageRepo { return &MessageRepo{s.db} }
func (s *Store) Users() *UserRepo { return &UserRepo{s.db} }
func (s *Store) Stats() *StatsRepo { return &StatsRepo{s.db} }

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&catalogmodel.Category{},
		&catalogmodel.Brand{},
		&catalogmodel.Product{},
		&catalogmodel.ProductImage{},
		&customermodel.Customer{},
		&ordermodel.Order{},
		&ordermodel.OrderItem{},
		&quotemodel.Quote{},
		&quotemodel.QuoteItem{},
		&messagemodel.Message{},
		&usermodel.User{},
	)
}

// translate maps driver and gorm errors onto the apperr taxonomy. Errors
// that are already classified pass through.
func translate(err error, entity string, id any) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(entity, id)
	}
	var me *mysql.MySQLError
	isMySQL := errors.As(err, &me)
	if (isMySQL && me.Number == mysqlDuplicateEntry) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return &apperr.Error{Kind: apperr.KindConflict, Message: entity + " already exists", Err: err}
	}
	// InnoDB picked this transaction as the deadlock victim, typically two
	// crossing category moves.
	if isMySQL && me.Number == mysqlDeadlock {
		return &apperr.Error{Kind: apperr.KindConflict, Message: entity + " was changed by another request, retry", Err: err}
	}
	return apperr.Internal(entity+" store", err)
}

func paginate(page, pageSize int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}

func forUpdate() clause.Expression {
	return clause.Locking{Strength: "UPDATE"}
}

// StatsRepo aggregates the dashboard counters with plain table queries.
type StatsRepo struct{ db *gorm.DB }
