package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var tableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// SQLite grava cada registro como JSON numa tabela (id, owner, date, payload).
type SQLite[T Record] struct {
	db    *sql.DB
	table string
}

// OpenSQLite usa a tabela table em db, criando-a se preciso.
func OpenSQLite[T Record](ctx context.Context, db *sql.DB, table string) (*SQLite[T], error) {
	if !tableNameRegex.MatchString(table) {
		return nil, fmt.Errorf("nome de tabela inválido: %q", table)
	}
	s := &SQLite[T]{db: db, table: table}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenDB abre a conexão SQLite. Com ":memory:" fica numa única conexão,
// senão cada conexão do pool teria seu próprio banco.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("falha ao abrir banco: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("falha ao conectar no banco: %w", err)
	}
	return db, nil
}

func (s *SQLite[T]) migrate(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			date TEXT NOT NULL,
			seq INTEGER NOT NULL,
			payload TEXT NOT NULL
		);`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_owner_date ON %s (owner, date);`, s.table, s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("falha ao criar tabela %s: %w", s.table, err)
		}
	}
	return nil
}

// For implements Backend.
func (s *SQLite[T]) For(owner string) Repository[T] {
	return &sqliteRepo[T]{s: s, owner: owner}
}

type sqliteRepo[T Record] struct {
	s     *SQLite[T]
	owner string
}

func (r *sqliteRepo[T]) Create(ctx context.Context, rec T) (string, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("serializar registro: %w", err)
	}
	id := uuid.NewString()
	query := fmt.Sprintf(`INSERT INTO %s (id, owner, date, seq, payload)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM %s), ?)`, r.s.table, r.s.table)
	if _, err := r.s.db.ExecContext(ctx, query, id, r.owner, dayKey(rec.RecordDate()), string(payload)); err != nil {
		return "", fmt.Errorf("falha ao inserir registro: %w", err)
	}
	return id, nil
}

func (r *sqliteRepo[T]) get(ctx context.Context, id string) (T, error) {
	var rec T
	var payload string
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE id = ? AND owner = ?`, r.s.table)
	err := r.s.db.QueryRowContext(ctx, query, id, r.owner).Scan(&payload)
	if err == sql.ErrNoRows {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("falha ao buscar registro: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return rec, fmt.Errorf("registro corrompido %s: %w", id, err)
	}
	return rec, nil
}

func (r *sqliteRepo[T]) Update(ctx context.Context, id string, patch map[string]any) error {
	rec, err := r.get(ctx, id)
	if err != nil {
		return err
	}
	updated, err := applyPatch(rec, patch)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("serializar registro: %w", err)
	}
	query := fmt.Sprintf(`UPDATE %s SET date = ?, payload = ? WHERE id = ? AND owner = ?`, r.s.table)
	if _, err := r.s.db.ExecContext(ctx, query, dayKey(updated.RecordDate()), string(payload), id, r.owner); err != nil {
		return fmt.Errorf("falha ao atualizar registro: %w", err)
	}
	return nil
}

func (r *sqliteRepo[T]) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ? AND owner = ?`, r.s.table)
	res, err := r.s.db.ExecContext(ctx, query, id, r.owner)
	if err != nil {
		return fmt.Errorf("falha ao apagar registro: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqliteRepo[T]) List(ctx context.Context, f Filter) (Page[T], error) {
	page := Page[T]{Items: []Stored[T]{}}

	where := "owner = ?"
	args := []any{r.owner}
	if !f.DateFrom.IsZero() {
		where += " AND date >= ?"
		args = append(args, dayKey(f.DateFrom))
	}
	if !f.DateTo.IsZero() {
		where += " AND date <= ?"
		args = append(args, dayKey(f.DateTo))
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, r.s.table, where)
	if err := r.s.db.QueryRowContext(ctx, countQuery, args...).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("falha ao contar registros: %w", err)
	}

	limit := -1
	if f.Limit > 0 {
		limit = f.Limit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT id, payload FROM %s WHERE %s ORDER BY date, seq LIMIT ? OFFSET ?`, r.s.table, where)
	rows, err := r.s.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return page, fmt.Errorf("falha ao listar registros: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return page, fmt.Errorf("falha ao ler registro: %w", err)
		}
		var rec T
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return page, fmt.Errorf("registro corrompido %s: %w", id, err)
		}
		page.Items = append(page.Items, Stored[T]{ID: id, Record: rec})
	}
	return page, rows.Err()
}
