package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/avelune/homehub/internal/utils"
)

// Account mirrors the 'accounts' table. An account is the tenancy
// boundary: every other row in the schema is owned by exactly one
// account and queries are always scoped by AccountID.
//
// Fields:
//  ID               – primary key identifier.
//  FirstName        – given name shown on the dashboard greeting.
//  LastName         – family name.
//  Email            – unique email address, stored lowercased.
//  PasswordHash     – bcrypt hash of the password.
//  Birthdate        – YYYY-MM-DD string, optional.
//  RecoveryQuestion – free-text question used for password recovery.
//  RecoveryHash     – bcrypt hash of the normalized recovery answer.
//  Gender           – optional profile field.
//  HeightCm         – optional profile field (nil when unset).
//  WeightKg         – optional profile field (nil when unset).
//  PhotoPath        – relative path of the uploaded avatar (nil when unset).
//  CreatedAt        – timestamp of creation.
//  UpdatedAt        – timestamp of last update.
type Account struct {
	ID               uint64    // accounts.id
	FirstName        string    // accounts.first_name
	LastName         string    // accounts.last_name
	Email            string    // accounts.email
	PasswordHash     string    // accounts.password_hash
	Birthdate        string    // accounts.birthdate
	RecoveryQuestion string    // accounts.recovery_question
	RecoveryHash     string    // accounts.recovery_hash
	Gender           *string   // accounts.gender (nullable)
	HeightCm         *float64  // accounts.height_cm (nullable)
	WeightKg         *float64  // accounts.weight_kg (nullable)
	PhotoPath        *string   // accounts.photo_path (nullable)
	CreatedAt        time.Time // accounts.created_at
	UpdatedAt        time.Time // accounts.updated_at
}

// ProfileUpdate carries the editable profile fields. Nil pointers mean
// "leave the column unchanged".
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Gender    *string
	HeightCm  *float64
	WeightKg  *float64
}

type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

const accountCols = "id,first_name,last_name,email,password_hash,birthdate,recovery_question,recovery_hash,gender,height_cm,weight_kg,photo_path,created_at,updated_at"

// Create inserts an account and returns its ID. The password and the
// recovery answer are hashed here so callers never handle hashes.
func (r *AccountRepo) Create(ctx context.Context, a *Account, password, recoveryAnswer string, cost int) (uint64, error) {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	ansHash, err := utils.HashPassword(utils.NormalizeAnswer(recoveryAnswer), cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO accounts (first_name, last_name, email, password_hash, birthdate, recovery_question, recovery_hash)
		 VALUES (?,?,?,?,?,?,?)`,
		a.FirstName, a.LastName, a.Email, hash, a.Birthdate, a.RecoveryQuestion, ansHash)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	a.ID = uint64(id)
	return a.ID, nil
}

// GetByEmail fetches an account by normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.get(ctx, "SELECT "+accountCols+" FROM accounts WHERE email=? LIMIT 1", email)
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (Account, error) {
	return r.get(ctx, "SELECT "+accountCols+" FROM accounts WHERE id=? LIMIT 1", id)
}

func (r *AccountRepo) get(ctx context.Context, q string, arg any) (Account, error) {
	var a Account
	err := r.DB.QueryRowContext(ctx, q, arg).Scan(
		&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.PasswordHash, &a.Birthdate,
		&a.RecoveryQuestion, &a.RecoveryHash, &a.Gender, &a.HeightCm, &a.WeightKg,
		&a.PhotoPath, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNotFound
	}
	return a, err
}

// UpdatePassword replaces the password hash for the account with the
// given email. Used by the recovery flow after the answer is verified.
func (r *AccountRepo) UpdatePassword(ctx context.Context, email, password string, cost int) error {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET password_hash=?, updated_at=NOW() WHERE email=?", hash, email)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProfile applies the non-nil fields of upd to the account row.
// It returns ErrNotFound when the id does not exist.
func (r *AccountRepo) UpdateProfile(ctx context.Context, id uint64, upd ProfileUpdate) error {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	if upd.FirstName != nil {
		sets = append(sets, "first_name=?")
		args = append(args, *upd.FirstName)
	}
	if upd.LastName != nil {
		sets = append(sets, "last_name=?")
		args = append(args, *upd.LastName)
	}
	if upd.Gender != nil {
		sets = append(sets, "gender=?")
		args = append(args, *upd.Gender)
	}
	if upd.HeightCm != nil {
		sets = append(sets, "height_cm=?")
		args = append(args, *upd.HeightCm)
	}
	if upd.WeightKg != nil {
		sets = append(sets, "weight_kg=?")
		args = append(args, *upd.WeightKg)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET "+strings.Join(sets, ", ")+", updated_at=NOW() WHERE id=?", args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePhoto records the stored avatar path for the account.
func (r *AccountRepo) UpdatePhoto(ctx context.Context, id uint64, path string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET photo_path=?, updated_at=NOW() WHERE id=?", path, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// VerifyRecovery checks the recovery answer for the account with the
// given email. It returns ErrNotFound for unknown emails and false for
// a wrong answer.
func (r *AccountRepo) VerifyRecovery(ctx context.Context, email, answer string) (bool, error) {
	a, err := r.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return utils.VerifyPassword(a.RecoveryHash, utils.NormalizeAnswer(answer)), nil
}
