// Package postgres 提供基于 PostgreSQL 的存档存储
package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/gonewx/astrorun/pkg/storage"
)

// Store 将存档槽位保存在 run_saves 表中
type Store struct {
	db *sql.DB
}

// ConnString 根据环境变量拼接连接串
// 使用 PGHOST / PGPORT / PGUSER / PGDATABASE / PGPASSWORD，缺省为本地默认值
func ConnString() string {
	host := getEnv("PGHOST", "127.0.0.1")
	port := getEnv("PGPORT", "5432")
	user := getEnv("PGUSER", "astrorun")
	dbname := getEnv("PGDATABASE", "astrorun")
	password := os.Getenv("PGPASSWORD")

	if password != "" {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host, port, user, password, dbname)
	}
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable",
		host, port, user, dbname)
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// Open 连接数据库并确保表存在
//
// 参数：
//   - dsn: 连接串，为空时使用 ConnString()
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = ConnString()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create run_saves table: %w", err)
	}
	return s, nil
}

func (s *Store) createTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS run_saves (
			slot       TEXT PRIMARY KEY,
			data       BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
	`
	_, err := s.db.Exec(query)
	return err
}

// Read 读取槽位数据，不存在时返回 storage.ErrNotFound
func (s *Store) Read(slot string) ([]byte, error) {
	if err := storage.ValidateSlot(slot); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.QueryRow(`SELECT data FROM run_saves WHERE slot = $1`, slot).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query run save: %w", err)
	}
	return data, nil
}

// Write 写入（覆盖）槽位数据
func (s *Store) Write(slot string, data []byte) error {
	if err := storage.ValidateSlot(slot); err != nil {
		return err
	}

	query := `
		INSERT INTO run_saves (slot, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (slot) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.Exec(query, slot, data, time.Now()); err != nil {
		return fmt.Errorf("failed to write run save: %w", err)
	}
	return nil
}

// Delete 删除槽位
func (s *Store) Delete(slot string) error {
	if err := storage.ValidateSlot(slot); err != nil {
		return err
	}

	if _, err := s.db.Exec(`DELETE FROM run_saves WHERE slot = $1`, slot); err != nil {
		return fmt.Errorf("failed to delete run save: %w", err)
	}
	return nil
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	return s.db.Close()
}
