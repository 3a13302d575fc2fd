// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/accounts-api/internal/core"
	"github.com/carterperez-dev/templates/accounts-api/internal/resource"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByResetToken(
		ctx context.Context,
		tokenHash string,
		now time.Time,
	) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdateCredentials(ctx context.Context, user *User) error
	UpdatePasswordReset(ctx context.Context, user *User) error
	Deactivate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q resource.Query) ([]User, error)
	Stats(ctx context.Context) (*Stats, error)
}

type Stats struct {
	Total  int               `json:"total"`
	Active int               `json:"active"`
	ByRole map[core.Role]int `json:"by_role"`
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const userColumns = `id, name, email, photo, role, password_hash,
	password_changed_at, password_reset_token, password_reset_expires_at,
	active, created_at, updated_at`

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, name, email, photo, role, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING active, created_at, updated_at`

	row := struct {
		Active    bool      `db:"active"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}{}

	err := r.db.GetContext(ctx, &row, query,
		user.ID,
		user.Name,
		user.Email,
		user.Photo,
		string(user.Role),
		user.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	user.Active = row.Active
	user.CreatedAt = row.CreatedAt
	user.UpdatedAt = row.UpdatedAt

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + `
		FROM users
		WHERE id = $1 AND active = TRUE`

	return r.getOne(ctx, "get user", query, id)
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE email = $1 AND active = TRUE`

	return r.getOne(ctx, "get user by email", query, email)
}

func (r *repository) GetByResetToken(
	ctx context.Context,
	tokenHash string,
	now time.Time,
) (*User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE password_reset_token = $1
		  AND password_reset_expires_at > $2
		  AND active = TRUE`

	return r.getOne(ctx, "get user by reset token", query, tokenHash, now)
}

func (r *repository) getOne(
	ctx context.Context,
	op, query string,
	args ...any,
) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

func (r *repository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, photo = $4, role = $5, updated_at = NOW()
		WHERE id = $1 AND active = TRUE
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &user.UpdatedAt, query,
		user.ID,
		user.Name,
		user.Email,
		user.Photo,
		string(user.Role),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

// UpdateCredentials writes the password hash, its change time and the
// reset fields together.
func (r *repository) UpdateCredentials(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET password_hash = $2,
		    password_changed_at = $3,
		    password_reset_token = $4,
		    password_reset_expires_at = $5,
		    updated_at = NOW()
		WHERE id = $1 AND active = TRUE`

	return r.execOne(ctx, "update credentials", query,
		user.ID,
		user.PasswordHash,
		user.PasswordChangedAt,
		user.PasswordResetToken,
		user.PasswordResetExpiresAt,
	)
}

// UpdatePasswordReset touches only the reset fields.
func (r *repository) UpdatePasswordReset(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET password_reset_token = $2,
		    password_reset_expires_at = $3
		WHERE id = $1 AND active = TRUE`

	return r.execOne(ctx, "update password reset", query,
		user.ID,
		user.PasswordResetToken,
		user.PasswordResetExpiresAt,
	)
}

func (r *repository) Deactivate(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}

	query := `
		UPDATE users
		SET active = FALSE, updated_at = NOW()
		WHERE id = $1 AND active = TRUE`

	return r.execOne(ctx, "deactivate user", query, id)
}

func (r *repository) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}

	query := `DELETE FROM users WHERE id = $1 AND active = TRUE`

	return r.execOne(ctx, "delete user", query, id)
}

func (r *repository) execOne(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

// List applies the query's filters, sort and pagination. Inactive users are
// excluded unless the query filters on active itself.
func (r *repository) List(
	ctx context.Context,
	q resource.Query,
) ([]User, error) {
	var conditions []string
	var args []any

	if !q.HasFilter("active") {
		conditions = append(conditions, "active = TRUE")
	}

	for _, f := range q.Filters {
		col, ok := listColumns[f.Field]
		if !ok {
			return nil, core.BadRequestError(
				fmt.Sprintf("Invalid filter field: %s", f.Field),
			)
		}

		value, err := col.parse(f.Value)
		if err != nil {
			return nil, core.BadRequestError(
				fmt.Sprintf("Invalid value for %s: %s", f.Field, f.Value),
			)
		}

		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(
			"%s %s $%d", col.name, f.Op.SQL(), len(args)))
	}

	orderBy := "created_at DESC"
	if len(q.Sort) > 0 {
		parts := make([]string, 0, len(q.Sort))
		for _, s := range q.Sort {
			col, ok := listColumns[s.Field]
			if !ok {
				return nil, core.BadRequestError(
					fmt.Sprintf("Invalid sort field: %s", s.Field),
				)
			}
			dir := "ASC"
			if s.Desc {
				dir = "DESC"
			}
			parts = append(parts, col.name+" "+dir)
		}
		orderBy = strings.Join(parts, ", ")
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT %s
		FROM users
		%s
		ORDER BY %s, id
		LIMIT $%d OFFSET $%d`,
		userColumns, where, orderBy, len(args)+1, len(args)+2)

	args = append(args, q.Limit, q.Offset())

	users := []User{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

func (r *repository) Stats(ctx context.Context) (*Stats, error) {
	query := `
		SELECT role,
		       COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE active) AS active
		FROM users
		GROUP BY role`

	var rows []struct {
		Role   core.Role `db:"role"`
		Total  int       `db:"total"`
		Active int       `db:"active"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}

	stats := &Stats{ByRole: make(map[core.Role]int, len(rows))}
	for _, row := range rows {
		stats.Total += row.Total
		stats.Active += row.Active
		stats.ByRole[row.Role] = row.Active
	}

	return stats, nil
}

type listColumn struct {
	name  string
	parse func(string) (any, error)
}

func asText(s string) (any, error) { return s, nil }

func asBool(s string) (any, error) { return strconv.ParseBool(s) }

func asTime(s string) (any, error) {
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("invalid time %q", s)
}

func asRole(s string) (any, error) {
	role, ok := core.ParseRole(s)
	if !ok {
		return nil, fmt.Errorf("invalid role %q", s)
	}
	return string(role), nil
}

// listColumns maps the API's field names onto columns that may be filtered
// and sorted on.
var listColumns = map[string]listColumn{
	"id":        {name: "id", parse: asUUID},
	"name":      {name: "name", parse: asText},
	"email":     {name: "email", parse: asText},
	"photo":     {name: "photo", parse: asText},
	"role":      {name: "role", parse: asRole},
	"active":    {name: "active", parse: asBool},
	"createdAt": {name: "created_at", parse: asTime},
	"updatedAt": {name: "updated_at", parse: asTime},
}

func asUUID(s string) (any, error) {
	if err := uuid.Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

func checkID(id string) error {
	if err := uuid.Validate(id); err != nil {
		return core.InvalidIDError(id)
	}
	return nil
}
