package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/efebarandurmaz/fraytypes/internal/plugins"
	"github.com/efebarandurmaz/fraytypes/internal/settings"
)

// remoteNotifier forwards panel changes to a running provider, which
// broadcasts them to its host sessions.
type remoteNotifier struct {
	endpoint string
	client   *http.Client
}

func newRemoteNotifier(baseURL string) *remoteNotifier {
	return &remoteNotifier{
		endpoint: strings.TrimRight(baseURL, "/") + "/v1/settings",
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (n *remoteNotifier) Notify(ctx context.Context, change settings.Change) error {
	body, err := json.Marshal(plugins.SettingsUpdate{
		Action:   plugins.ActionReplace,
		Settings: change.Settings.Map(),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting settings: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("posting settings: %s", resp.Status)
	}
	return nil
}
