package store

import (
	"errors"

	"accelodash/internal/model"
)

const keySettings = "settings"

// LoadSettings 读取上游凭据；未配置返回 nil
func (s *Store) LoadSettings() (*model.Settings, error) {
	settings := &model.Settings{}
	if err := s.GetJSON(keySettings, settings); err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return settings, nil
}

// SaveSettings 整体替换上游凭据
func (s *Store) SaveSettings(settings *model.Settings) error {
	return s.SetJSON(keySettings, settings)
}

// ClearSettings 清除上游凭据
func (s *Store) ClearSettings() error {
	return s.DeleteKey(keySettings)
}
