package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrKeyNotFound 键不存在
var ErrKeyNotFound = errors.New("key not found")

// GetJSON 读取键值并反序列化到 out
func (s *Store) GetJSON(key string, out interface{}) error {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}
		return err
	}
	return json.Unmarshal([]byte(value), out)
}

// SetJSON 序列化 v 并写入键值
func (s *Store) SetJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = CURRENT_TIMESTAMP
	`, key, string(data), string(data))
	return err
}

// DeleteKey 删除键；键不存在不报错
func (s *Store) DeleteKey(key string) error {
	_, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key)
	return err
}

// HasKey 判断键是否存在
func (s *Store) HasKey(key string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM kv WHERE key = ?", key).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
