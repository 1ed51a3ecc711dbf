package credentials

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/zalando/go-keyring"
)

const (
	serviceName    = "hostbridge"
	keyAccessToken = "access_token"
	keyUserInfo    = "user_info"
	keyDeviceID    = "app:device_id"
)

var ErrNotFound = errors.New("credentials: not found")

// UserInfo is what the host reveals to the page about the signed-in user.
type UserInfo struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}

func StoreSession(info UserInfo, accessToken string) error {
	infoJSON, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal user info: %w", err)
	}

	if err := keyring.Set(serviceName, keyUserInfo, string(infoJSON)); err != nil {
		return fmt.Errorf("store user info: %w", err)
	}

	if err := keyring.Set(serviceName, keyAccessToken, accessToken); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}

	return nil
}

// ImportSession stores a session handed over by the embedding host as
// a JSON-encoded UserInfo and an access token. An empty userJSON keeps only
// the token.
func ImportSession(userJSON, token string) error {
	if token == "" {
		return errors.New("credentials: empty access token")
	}

	var info UserInfo
	if userJSON != "" {
		if err := json.Unmarshal([]byte(userJSON), &info); err != nil {
			return fmt.Errorf("decode user info: %w", err)
		}
	}
	return StoreSession(info, token)
}

func LoadToken() (string, error) {
	token, err := keyring.Get(serviceName, keyAccessToken)
	if err != nil {
		return "", ErrNotFound
	}
	return token, nil
}

func LoadUserInfo() (UserInfo, error) {
	raw, err := keyring.Get(serviceName, keyUserInfo)
	if err != nil {
		return UserInfo{}, ErrNotFound
	}

	var info UserInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return UserInfo{}, fmt.Errorf("unmarshal user info: %w", err)
	}
	return info, nil
}

func DeleteSession() {
	_ = keyring.Delete(serviceName, keyUserInfo)
	_ = keyring.Delete(serviceName, keyAccessToken)
}

// DeviceID returns the stable identifier of this installation, creating it
// on first use.
func DeviceID() (string, error) {
	if id, err := keyring.Get(serviceName, keyDeviceID); err == nil {
		return id, nil
	}

	id := uuid.NewString()
	if err := keyring.Set(serviceName, keyDeviceID, id); err != nil {
		return "", fmt.Errorf("store device id: %w", err)
	}
	return id, nil
}
