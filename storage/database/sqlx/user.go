package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/chuo/core"
	"github.com/trezcool/chuo/core/user"
)

type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Username     null.String    `db:"username"`
	Email        null.String    `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

func (row userRow) toUser() user.User {
	usr := user.User{
		ID:           row.ID,
		Name:         row.Name,
		Username:     row.Username.String,
		Email:        row.Email.String,
		Roles:        row.Roles,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		LastLogin:    row.LastLogin.Time,
	}
	usr.SetActive(row.IsActive)
	return usr
}

func rowsToUsers(rows []userRow) []user.User {
	users := make([]user.User, len(rows))
	for i, row := range rows {
		users[i] = row.toUser()
	}
	return users
}

type UserRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*UserRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (repo *UserRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	exclIDs := make(pq.StringArray, len(excludedUsers))
	for i, usr := range excludedUsers {
		exclIDs[i] = usr.ID
	}

	const q = `SELECT username, email FROM "user"
		WHERE (username = NULLIF($1, '') OR email = NULLIF($2, '')) AND NOT (id = ANY($3))`
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, q, username, email, exclIDs); err != nil {
		return err
	}
	for _, row := range rows {
		if username != "" && row.Username.String == username {
			return user.ErrUsernameExists
		}
		if email != "" && row.Email.String == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *UserRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()

	const q = `INSERT INTO "user" (id, name, username, email, is_active, roles, password_hash, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8, $9)`
	_, err := repo.db.ExecContext(ctx, q,
		usr.ID, usr.Name, usr.Username, usr.Email, usr.Active(),
		pq.StringArray(usr.Roles), usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	)
	if err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *UserRepository) getUser(ctx context.Context, where string, args ...interface{}) (user.User, error) {
	var row userRow
	q := `SELECT * FROM "user" WHERE ` + where
	if err := repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return row.toUser(), nil
}

func (repo *UserRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getUser(ctx, "id = $1", id)
}

func (repo *UserRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, "username = $1", username)
}

func (repo *UserRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, "email = $1", email)
}

func (repo *UserRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, "username = $1 OR email = $1", username)
}

// orderable user columns; anything else is ignored
var userOrderFields = map[string]string{
	"name":       "name",
	"username":   "username",
	"email":      "email",
	"created_at": "created_at",
}

func (repo *UserRepository) FilterUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	if filter == nil {
		filter = &user.QueryFilter{}
	}

	where := []string{"TRUE"}
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		where = append(where, fmt.Sprintf("(name ILIKE %[1]s OR username ILIKE %[1]s OR email ILIKE %[1]s)", p))
	}
	if len(filter.Roles) > 0 {
		prefixes := make(pq.StringArray, len(filter.Roles))
		for i, r := range filter.Roles {
			prefixes[i] = r + "%"
		}
		where = append(where, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(roles) role WHERE role LIKE ANY(%s))", arg(prefixes)))
	}
	if filter.IsActive != nil {
		where = append(where, "is_active = "+arg(*filter.IsActive))
	}
	if !filter.CreatedFrom.IsZero() {
		where = append(where, "created_at >= "+arg(filter.CreatedFrom.UTC()))
	}
	if !filter.CreatedTo.IsZero() {
		where = append(where, "created_at <= "+arg(filter.CreatedTo.UTC()))
	}

	orderBy := "name ASC"
	if len(ordering) > 0 {
		var ords []string
		for _, ord := range ordering {
			if field, ok := userOrderFields[ord.Field]; ok {
				ords = append(ords, (core.DBOrdering{Field: field, Ascending: ord.Ascending}).String())
			}
		}
		if len(ords) > 0 {
			orderBy = strings.Join(ords, ", ")
		}
	}

	q := `SELECT * FROM "user" WHERE ` + strings.Join(where, " AND ") + " ORDER BY " + orderBy
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rowsToUsers(rows), nil
}

func (repo *UserRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	// only set fields overwrite; NULL args keep the stored value
	const q = `UPDATE "user" SET
			name          = COALESCE(NULLIF($2, ''), name),
			username      = COALESCE(NULLIF($3, ''), username),
			email         = COALESCE(NULLIF($4, ''), email),
			roles         = COALESCE($5, roles),
			password_hash = COALESCE($6, password_hash),
			is_active     = COALESCE($7, is_active),
			updated_at    = $8
		WHERE id = $1
		RETURNING *`
	var roles pq.StringArray
	if usr.Roles != nil {
		roles = pq.StringArray(usr.Roles)
	}

	var row userRow
	err := repo.db.GetContext(ctx, &row, q,
		usr.ID, usr.Name, usr.Username, usr.Email, roles, usr.PasswordHash, isActive, usr.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return row.toUser(), nil
}

func (repo *UserRepository) UpdateLastLogin(ctx context.Context, usr user.User) (user.User, error) {
	const q = `UPDATE "user" SET last_login = $2 WHERE id = $1 RETURNING *`
	var row userRow
	if err := repo.db.GetContext(ctx, &row, q, usr.ID, usr.LastLogin); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return row.toUser(), nil
}

func (repo *UserRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM "user" WHERE id = ANY($1)`, pq.StringArray(ids))
	return err
}
