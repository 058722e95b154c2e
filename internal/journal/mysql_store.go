package journal

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"AssetGrid-Chain/deploy/migrations"
	xerrors "AssetGrid-Chain/internal/errors"
)

// MySQLStore 使用 MySQL 保存动作记录。
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore 连接 MySQL 并执行内置的迁移脚本。
func NewMySQLStore(ctx context.Context, dsn string) (*MySQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "MySQL DSN 不能为空")
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeConfigFailure, err, "解析 MySQL DSN 失败")
	}
	cfg.MultiStatements = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "创建 MySQL 连接器失败")
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(10 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "无法连接到 MySQL")
	}

	store := newMySQLStore(db)
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func newMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (s *MySQLStore) migrate(ctx context.Context) error {
	names, err := fs.Glob(migrations.Files, "*.sql")
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "读取迁移脚本失败")
	}
	sort.Strings(names)
	for _, name := range names {
		script, err := migrations.Files.ReadFile(name)
		if err != nil {
			return xerrors.Wrap(xerrors.CodeStorageFailure, err, fmt.Sprintf("读取迁移脚本 %s 失败", name))
		}
		if _, err := s.db.ExecContext(ctx, string(script)); err != nil {
			return xerrors.Wrap(xerrors.CodeStorageFailure, err, fmt.Sprintf("执行迁移脚本 %s 失败", name))
		}
	}
	return nil
}

// Append 插入一条记录。
func (s *MySQLStore) Append(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return xerrors.New(xerrors.CodeInvalidArgument, "entry 不能为空")
	}
	if strings.TrimSpace(entry.ID) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "记录 ID 不能为空")
	}
	if entry.CreatedAt == 0 {
		entry.CreatedAt = time.Now().Unix()
	}

	const stmt = `INSERT INTO journal_entries (id, component, action, ref_id, payload, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, stmt,
		entry.ID,
		entry.Component,
		entry.Action,
		entry.RefID,
		nullPayload(entry.Payload),
		entry.CreatedAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if stdErrors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return ErrEntryConflict
		}
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "插入动作记录失败")
	}
	return nil
}

// Get 查询指定记录。
func (s *MySQLStore) Get(ctx context.Context, id string) (*Entry, error) {
	const stmt = `SELECT id, component, action, ref_id, payload, created_at FROM journal_entries WHERE id = ?`

	entry, err := scanEntry(s.db.QueryRowContext(ctx, stmt, id))
	if err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询动作记录失败")
	}
	return entry, nil
}

// List 返回符合过滤条件的记录。
func (s *MySQLStore) List(ctx context.Context, opts ListOptions) ([]*Entry, error) {
	opts.applyDefaults()

	query := `SELECT id, component, action, ref_id, payload, created_at FROM journal_entries`
	clause, args := buildFilterClause(opts)
	if clause != "" {
		query += " WHERE " + clause
	}
	if opts.Order == SortByCreatedAsc {
		query += " ORDER BY created_at ASC, seq ASC"
	} else {
		query += " ORDER BY created_at DESC, seq DESC"
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询动作记录列表失败")
	}
	defer rows.Close()

	entries := make([]*Entry, 0, opts.Limit)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "解析动作记录失败")
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "遍历动作记录失败")
	}
	return entries, nil
}

// Stats 返回符合过滤条件的聚合信息。
func (s *MySQLStore) Stats(ctx context.Context, opts ListOptions) (Stats, error) {
	opts.applyDefaults()

	clause, args := buildFilterClause(opts)
	where := ""
	if clause != "" {
		where = " WHERE " + clause
	}

	stats := newStats()
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(MIN(created_at), 0), COALESCE(MAX(created_at), 0) FROM journal_entries`+where,
		args...)
	if err := row.Scan(&stats.Total, &stats.OldestCreatedAt, &stats.NewestCreatedAt); err != nil {
		return Stats{}, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询动作记录统计失败")
	}

	if err := s.countBy(ctx, "component", where, args, stats.ByComponent); err != nil {
		return Stats{}, err
	}
	if err := s.countBy(ctx, "action", where, args, stats.ByAction); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (s *MySQLStore) countBy(ctx context.Context, column, where string, args []any, into map[string]int) error {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s, COUNT(*) FROM journal_entries%s GROUP BY %s", column, where, column),
		args...)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "按 "+column+" 统计失败")
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return xerrors.Wrap(xerrors.CodeStorageFailure, err, "解析统计结果失败")
		}
		into[key] = count
	}
	if err := rows.Err(); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "遍历统计结果失败")
	}
	return nil
}

// Close 关闭底层数据库连接。
func (s *MySQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var entry Entry
	var payload sql.NullString
	if err := row.Scan(
		&entry.ID,
		&entry.Component,
		&entry.Action,
		&entry.RefID,
		&payload,
		&entry.CreatedAt,
	); err != nil {
		return nil, err
	}
	if payload.Valid && payload.String != "" {
		entry.Payload = []byte(payload.String)
	}
	return &entry, nil
}

func nullPayload(payload []byte) sql.NullString {
	if len(payload) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(payload), Valid: true}
}

func buildFilterClause(opts ListOptions) (string, []any) {
	conditions := make([]string, 0, 4)
	args := make([]any, 0, len(opts.Components)+len(opts.Actions)+2)

	if len(opts.Components) > 0 {
		conditions = append(conditions, "component IN ("+placeholders(len(opts.Components))+")")
		for _, component := range opts.Components {
			args = append(args, component)
		}
	}
	if len(opts.Actions) > 0 {
		conditions = append(conditions, "action IN ("+placeholders(len(opts.Actions))+")")
		for _, action := range opts.Actions {
			args = append(args, action)
		}
	}
	if opts.CreatedGTE > 0 {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, opts.CreatedGTE)
	}
	if opts.CreatedLTE > 0 {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, opts.CreatedLTE)
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return strings.Join(conditions, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

var _ Store = (*MySQLStore)(nil)
