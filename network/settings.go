package network

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/automoto/voxelfront/shared/messages"
	"github.com/quasilyte/gdata"
)

const settingsKey = "settings"

// ItemStore persists opaque blobs by key. *gdata.Manager implements it.
type ItemStore interface {
	LoadItem(key string) ([]byte, error)
	SaveItem(key string, data []byte) error
}

// Settings are the client preferences kept between sessions.
type Settings struct {
	// ClientID is proposed to the server on connect so a returning player
	// keeps the same id in the scoreboard.
	ClientID         uint64              `json:"clientId"`
	LastServer       string              `json:"lastServer"`
	MouseSensitivity float64             `json:"mouseSensitivity"`
	Weapon           messages.WeaponType `json:"weapon"`
}

// OpenStore opens the per-user data directory for appName.
func OpenStore(appName string) (*gdata.Manager, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("open settings store: %w", err)
	}
	return m, nil
}

// LoadSettings returns the stored settings, or defaults when nothing has
// been saved yet.
func LoadSettings(store ItemStore, defaults Settings) (Settings, error) {
	data, err := store.LoadItem(settingsKey)
	if err != nil {
		return defaults, err
	}
	if len(data) == 0 {
		return defaults, nil
	}

	s := defaults
	if err := json.Unmarshal(data, &s); err != nil {
		return defaults, fmt.Errorf("parse settings: %w", err)
	}
	if s.MouseSensitivity <= 0 {
		s.MouseSensitivity = defaults.MouseSensitivity
	}
	if _, ok := s.Weapon.Stats(); !ok {
		s.Weapon = defaults.Weapon
	}
	return s, nil
}

func SaveSettings(store ItemStore, s Settings) error {
	if store == nil {
		return errors.New("no settings store")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return store.SaveItem(settingsKey, data)
}
