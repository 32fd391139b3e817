// Package memberrepo is the row-store implementation of memberrepo.Repository:
// one table row per member, accessed through gorm. Every operation runs as its
// own auto-committed statement or transaction.
package memberrepo

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	postgres "github.com/zamalek-residents/member-registry/internal/adapters/postgres"
	"github.com/zamalek-residents/member-registry/internal/domain"
	"github.com/zamalek-residents/member-registry/internal/platform/database"
	"github.com/zamalek-residents/member-registry/internal/ports/out/memberrepo"
)

// Column names match the legacy schema so existing databases keep working.
const (
	colID               = "رقم_م"
	colName             = "اسم_العضو"
	colMembershipNumber = "عضوية"
	colUnitNumber       = "شقة"
	colBuildingNumber   = "عمارة"
	colDistrict         = "حي"
	colAmountPaid       = "المبلغ_المدفوع"
	colRegistrationDate = "تاريخ_التسجيل"
)

type memberRow struct {
	ID               int     `gorm:"column:رقم_م;primaryKey;autoIncrement:false"`
	Name             string  `gorm:"column:اسم_العضو;size:255;not null"`
	MembershipNumber int     `gorm:"column:عضوية;not null;uniqueIndex:members_membership_number_unique"`
	UnitNumber       int     `gorm:"column:شقة;not null"`
	BuildingNumber   int     `gorm:"column:عمارة;not null"`
	District         string  `gorm:"column:حي;size:255;not null"`
	AmountPaid       float64 `gorm:"column:المبلغ_المدفوع;not null"`
	RegistrationDate *string `gorm:"column:تاريخ_التسجيل;type:date"`
}

func (memberRow) TableName() string { return "members" }

func toRow(m domain.Member) memberRow {
	row := memberRow{
		ID:               int(m.ID),
		Name:             domain.NormalizeText(m.Name),
		MembershipNumber: m.MembershipNumber,
		UnitNumber:       m.UnitNumber,
		BuildingNumber:   m.BuildingNumber,
		District:         domain.NormalizeText(m.District),
		AmountPaid:       domain.CoerceAmount(m.AmountPaid),
	}
	if m.RegistrationDate != "" {
		d := m.RegistrationDate
		row.RegistrationDate = &d
	}
	return row
}

// toDomain goes through DecodeRow so database values get the same coercion as
// every other stored row (Postgres returns dates as timestamps, for instance).
func (r memberRow) toDomain() domain.Member {
	var date any
	if r.RegistrationDate != nil {
		date = *r.RegistrationDate
	}
	return domain.DecodeRow([]any{
		r.ID,
		r.Name,
		r.MembershipNumber,
		r.UnitNumber,
		r.BuildingNumber,
		r.District,
		r.AmountPaid,
		date,
	})
}

func col(name string) clause.Column { return clause.Column{Name: name} }

// Repo is a gorm implementation of memberrepo.Repository.
type Repo struct {
	db *gorm.DB
}

// Open creates the members table when missing and, when seed is set, inserts
// domain.SampleMembers into an empty table.
func Open(ctx context.Context, db *gorm.DB, seed bool) (*Repo, error) {
	if db == nil {
		return nil, errors.New("nil gorm handle")
	}
	if err := db.WithContext(ctx).AutoMigrate(&memberRow{}); err != nil {
		return nil, memberrepo.Storage("migrate", err)
	}
	r := &Repo{db: db}
	if seed {
		if _, err := r.SeedIfEmpty(ctx); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// SeedIfEmpty inserts the sample members when the table has no rows. It
// reports how many rows were inserted.
func (r *Repo) SeedIfEmpty(ctx context.Context) (int, error) {
	inserted := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&memberRow{}).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		samples := domain.SampleMembers()
		rows := make([]memberRow, 0, len(samples))
		for _, m := range samples {
			rows = append(rows, toRow(m))
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		inserted = len(rows)
		return nil
	})
	return inserted, memberrepo.Storage("seed", err)
}

func (r *Repo) List(ctx context.Context) ([]domain.Member, error) {
	var rows []memberRow
	err := r.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: col(colID)}).
		Find(&rows).Error
	if err != nil {
		return nil, memberrepo.Storage("list", err)
	}
	return toDomainSlice(rows), nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.MemberID) (domain.Member, error) {
	return r.getOne(ctx, "get", clause.Eq{Column: col(colID), Value: int(id)})
}

func (r *Repo) GetByMembershipNumber(ctx context.Context, number int) (domain.Member, error) {
	return r.getOne(ctx, "get by membership number", clause.Eq{Column: col(colMembershipNumber), Value: number})
}

func (r *Repo) getOne(ctx context.Context, op string, cond clause.Expression) (domain.Member, error) {
	var row memberRow
	err := r.db.WithContext(ctx).Where(cond).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Member{}, memberrepo.ErrNotFound
		}
		return domain.Member{}, memberrepo.Storage(op, err)
	}
	return row.toDomain(), nil
}

func (r *Repo) SearchByName(ctx context.Context, query string) ([]domain.Member, error) {
	q := domain.NormalizeText(query)
	if !sqlFoldable(q) {
		// SQLite's LOWER folds ASCII only.
		ms, err := r.List(ctx)
		if err != nil {
			return nil, memberrepo.Storage("search", err)
		}
		out := make([]domain.Member, 0)
		for _, m := range ms {
			if domain.MatchesName(m.Name, q) {
				out = append(out, m)
			}
		}
		return out, nil
	}

	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	var rows []memberRow
	err := r.db.WithContext(ctx).
		Where(clause.Expr{SQL: `LOWER(?) LIKE ? ESCAPE '\'`, Vars: []any{col(colName), pattern}}).
		Order(clause.OrderByColumn{Column: col(colID)}).
		Find(&rows).Error
	if err != nil {
		return nil, memberrepo.Storage("search", err)
	}
	return toDomainSlice(rows), nil
}

func (r *Repo) Create(ctx context.Context, m domain.Member) (domain.Member, error) {
	var created domain.Member
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := numberTaken(tx, m.MembershipNumber, 0)
		if err != nil {
			return err
		}
		if taken {
			return memberrepo.ErrMembershipNumberTaken
		}

		var maxID int64
		if err := tx.Model(&memberRow{}).
			Select("COALESCE(MAX(?), 0)", col(colID)).
			Scan(&maxID).Error; err != nil {
			return err
		}

		row := toRow(m)
		row.ID = int(maxID) + 1
		if err := tx.Create(&row).Error; err != nil {
			if isNumberConflict(err) {
				return memberrepo.ErrMembershipNumberTaken
			}
			return err
		}
		created = row.toDomain()
		return nil
	})
	if err != nil {
		return domain.Member{}, memberrepo.Storage("create", err)
	}
	return created, nil
}

func (r *Repo) Update(ctx context.Context, m domain.Member) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing memberRow
		if err := tx.Where(clause.Eq{Column: col(colID), Value: int(m.ID)}).Take(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return memberrepo.ErrNotFound
			}
			return err
		}
		taken, err := numberTaken(tx, m.MembershipNumber, m.ID)
		if err != nil {
			return err
		}
		if taken {
			return memberrepo.ErrMembershipNumberTaken
		}

		row := toRow(m)
		if err := tx.Save(&row).Error; err != nil {
			if isNumberConflict(err) {
				return memberrepo.ErrMembershipNumberTaken
			}
			return err
		}
		return nil
	})
	return memberrepo.Storage("update", err)
}

func (r *Repo) Delete(ctx context.Context, id domain.MemberID) error {
	res := r.db.WithContext(ctx).
		Where(clause.Eq{Column: col(colID), Value: int(id)}).
		Delete(&memberRow{})
	if res.Error != nil {
		return memberrepo.Storage("delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return memberrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) Stats(ctx context.Context) (domain.Stats, error) {
	var agg struct {
		Total     int64
		Amount    float64
		Districts int64
	}
	err := r.db.WithContext(ctx).Model(&memberRow{}).
		Select("COUNT(*) AS total, COALESCE(SUM(?), 0) AS amount, COUNT(DISTINCT ?) AS districts",
			col(colAmountPaid), col(colDistrict)).
		Scan(&agg).Error
	if err != nil {
		return domain.Stats{}, memberrepo.Storage("stats", err)
	}
	return domain.NewStats(int(agg.Total), agg.Amount, int(agg.Districts)), nil
}

func (r *Repo) Ping(ctx context.Context) error {
	return memberrepo.Storage("ping", database.Ping(ctx, r.db))
}

// numberTaken reports whether a member other than exclude holds number.
func numberTaken(tx *gorm.DB, number int, exclude domain.MemberID) (bool, error) {
	var n int64
	q := tx.Model(&memberRow{}).Where(clause.Eq{Column: col(colMembershipNumber), Value: number})
	if exclude != 0 {
		q = q.Where(clause.Neq{Column: col(colID), Value: int(exclude)})
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

const membershipNumberIndex = "members_membership_number_unique"

// isNumberConflict reports whether err is a violation of the membership
// number index. Other key collisions, such as two concurrent creates picking
// the same id, are not.
func isNumberConflict(err error) bool {
	if pe, ok := postgres.AsPgError(err); ok {
		return pe.Code == postgres.UniqueViolationCode && pe.ConstraintName == membershipNumberIndex
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique &&
			strings.Contains(se.Error(), "members."+colMembershipNumber)
	}
	return false
}

// sqlFoldable reports whether every cased letter in s is ASCII, so LOWER
// behaves the same on every dialect.
func sqlFoldable(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII && unicode.SimpleFold(r) != r {
			return false
		}
	}
	return true
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func toDomainSlice(rows []memberRow) []domain.Member {
	out := make([]domain.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}
