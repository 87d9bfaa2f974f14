// Package storage is the SQLite persistence backend. The schema mirrors the
// snapshot shape: base entries only, with series tails rebuilt in memory on
// load. Every save replaces the affected tables inside one transaction, so a
// reader never observes a half-written data set.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"

	"bigbudget/internal/core"
	"bigbudget/internal/payroll"
	"bigbudget/internal/snapshot"

	_ "modernc.org/sqlite"
)

const dateLayout = time.RFC3339

//go:embed migrations/*.sql
var migrationsFS embed.FS

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// migrateSchema brings the store's own connection up to the embedded schema
// version. The migrate instance is deliberately not closed: its Close would
// close the shared *sql.DB out from under the store.
func migrateSchema(db *sql.DB) error {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("wrap connection for migration: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("build migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveSnapshot replaces the entries, deposits and profile tables with the
// snapshot contents atomically.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap snapshot.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	for _, e := range snap.Expenses {
		var paidDate sql.NullString
		if e.PaidDate != nil {
			paidDate = sql.NullString{String: e.PaidDate.Format(dateLayout), Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO entries (id, date, title, amount, notes, recurring, kind, is_paid, paid_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID.String(), e.Date.Format(dateLayout), e.Title, e.Amount, e.Notes,
			string(e.Recurring), string(e.Kind), e.IsPaid, paidDate)
		if err != nil {
			return fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM deposits`); err != nil {
		return fmt.Errorf("clear deposits: %w", err)
	}
	for _, d := range snap.Deposits {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO deposits (id, name, amount, date) VALUES (?, ?, ?, ?)`,
			d.ID.String(), d.Name, d.Amount, d.Date.Format(dateLayout))
		if err != nil {
			return fmt.Errorf("insert deposit %s: %w", d.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_profile`); err != nil {
		return fmt.Errorf("clear profile: %w", err)
	}
	if p := snap.UserProfile; p != nil {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO user_profile (id, pay_schedule, hourly_rate, birthday) VALUES (1, ?, ?, ?)`,
			p.PaySchedule, p.HourlyRate, p.Birthday.Format(dateLayout))
		if err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot saved to SQLite",
		"expenses", len(snap.Expenses),
		"deposits", len(snap.Deposits))
	return nil
}

func (s *SQLiteStore) LoadSnapshot(ctx context.Context) (snapshot.Snapshot, error) {
	var snap snapshot.Snapshot

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, title, amount, notes, recurring, kind, is_paid, paid_date
		FROM entries ORDER BY date`)
	if err != nil {
		return snap, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, date, recurring, kind string
			paidDate                  sql.NullString
			e                         core.Entry
		)
		if err := rows.Scan(&id, &date, &e.Title, &e.Amount, &e.Notes, &recurring, &kind, &e.IsPaid, &paidDate); err != nil {
			return snap, fmt.Errorf("scan entry: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return snap, fmt.Errorf("parse entry id %q: %w", id, err)
		}
		if e.Date, err = time.Parse(dateLayout, date); err != nil {
			return snap, fmt.Errorf("parse entry date %q: %w", date, err)
		}
		e.Recurring = core.Recurrence(recurring)
		e.Kind = core.EntryKind(kind)
		if paidDate.Valid {
			t, err := time.Parse(dateLayout, paidDate.String)
			if err != nil {
				return snap, fmt.Errorf("parse paid date %q: %w", paidDate.String, err)
			}
			e.PaidDate = &t
		}
		snap.Expenses = append(snap.Expenses, e)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("iterate entries: %w", err)
	}

	depRows, err := s.db.QueryContext(ctx, `SELECT id, name, amount, date FROM deposits ORDER BY date`)
	if err != nil {
		return snap, fmt.Errorf("query deposits: %w", err)
	}
	defer depRows.Close()

	for depRows.Next() {
		var (
			id, date string
			d        core.Deposit
		)
		if err := depRows.Scan(&id, &d.Name, &d.Amount, &date); err != nil {
			return snap, fmt.Errorf("scan deposit: %w", err)
		}
		if d.ID, err = uuid.Parse(id); err != nil {
			return snap, fmt.Errorf("parse deposit id %q: %w", id, err)
		}
		if d.Date, err = time.Parse(dateLayout, date); err != nil {
			return snap, fmt.Errorf("parse deposit date %q: %w", date, err)
		}
		snap.Deposits = append(snap.Deposits, d)
	}
	if err := depRows.Err(); err != nil {
		return snap, fmt.Errorf("iterate deposits: %w", err)
	}

	var (
		profile  core.UserProfile
		birthday string
	)
	err = s.db.QueryRowContext(ctx, `
		SELECT pay_schedule, hourly_rate, birthday FROM user_profile WHERE id = 1`).
		Scan(&profile.PaySchedule, &profile.HourlyRate, &birthday)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return snap, fmt.Errorf("query profile: %w", err)
	default:
		if profile.Birthday, err = time.Parse(dateLayout, birthday); err != nil {
			return snap, fmt.Errorf("parse profile birthday %q: %w", birthday, err)
		}
		snap.UserProfile = &profile
	}

	return snap, nil
}

// SaveUsers replaces the paycheck user table with the given list atomically.
func (s *SQLiteStore) SaveUsers(ctx context.Context, users []payroll.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin users tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM paycheck_users`); err != nil {
		return fmt.Errorf("clear paycheck users: %w", err)
	}
	for _, u := range users {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO paycheck_users (
				id, name, birth_date, hourly_rate, lunch_duration, pay_schedule,
				federal_rate, social_security_rate, medicare_rate, state_rate,
				sample_gross, sample_net, sample_federal, sample_social_security,
				sample_medicare, sample_state)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			u.ID.String(), u.Name, u.BirthDate.Format(dateLayout),
			u.HourlyRate, u.LunchDurationSeconds, string(u.PaySchedule),
			u.TaxRates.FederalIncomeTax, u.TaxRates.SocialSecurity,
			u.TaxRates.Medicare, u.TaxRates.StateIncomeTax,
			u.Sample.GrossPay, u.Sample.NetPay, u.Sample.FederalTax,
			u.Sample.SocialSecurity, u.Sample.Medicare, u.Sample.StateTax)
		if err != nil {
			return fmt.Errorf("insert paycheck user %s: %w", u.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit users: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadUsers(ctx context.Context) ([]payroll.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, birth_date, hourly_rate, lunch_duration, pay_schedule,
			federal_rate, social_security_rate, medicare_rate, state_rate,
			sample_gross, sample_net, sample_federal, sample_social_security,
			sample_medicare, sample_state
		FROM paycheck_users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query paycheck users: %w", err)
	}
	defer rows.Close()

	var users []payroll.User
	for rows.Next() {
		var (
			id, birthDate, schedule string
			u                       payroll.User
		)
		err := rows.Scan(&id, &u.Name, &birthDate, &u.HourlyRate, &u.LunchDurationSeconds, &schedule,
			&u.TaxRates.FederalIncomeTax, &u.TaxRates.SocialSecurity,
			&u.TaxRates.Medicare, &u.TaxRates.StateIncomeTax,
			&u.Sample.GrossPay, &u.Sample.NetPay, &u.Sample.FederalTax,
			&u.Sample.SocialSecurity, &u.Sample.Medicare, &u.Sample.StateTax)
		if err != nil {
			return nil, fmt.Errorf("scan paycheck user: %w", err)
		}
		if u.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse user id %q: %w", id, err)
		}
		if u.BirthDate, err = time.Parse(dateLayout, birthDate); err != nil {
			return nil, fmt.Errorf("parse user birth date %q: %w", birthDate, err)
		}
		u.PaySchedule = payroll.PaySchedule(schedule)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paycheck users: %w", err)
	}
	return users, nil
}
