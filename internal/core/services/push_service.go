package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"emitrack/internal/config"
)

// PushService delivers data-only commands ("LOCK", "UNLOCK",
// "EMI_DUE") to the companion app on a handset, keyed by its FCM
// registration token. Disabled when no server key is configured.
type PushService struct {
	serverKey string
	endpoint  string
	client    *http.Client
	enabled   bool
}

// NewPushService creates a new push service
func NewPushService(cfg *config.Config) *PushService {
	return &PushService{
		serverKey: cfg.FCM.ServerKey,
		endpoint:  cfg.FCM.Endpoint,
		client:    &http.Client{Timeout: 10 * time.Second},
		enabled:   cfg.FCM.ServerKey != "",
	}
}

// IsEnabled checks if push delivery is enabled
func (s *PushService) IsEnabled() bool {
	return s.enabled
}

type pushMessage struct {
	To   string            `json:"to"`
	Data map[string]string `json:"data"`
}

// SendCommand sends a single command message to a device token
func (s *PushService) SendCommand(deviceToken, command string) error {
	if !s.enabled {
		return nil
	}

	body, err := json.Marshal(pushMessage{
		To:   deviceToken,
		Data: map[string]string{"command": command},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+s.serverKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push dispatcher returned status %d", resp.StatusCode)
	}
	return nil
}
