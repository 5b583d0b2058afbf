package config

import (
	"fmt"

	"github.com/danielpatrickdp/mirror-console/internal/narration"
)

// NewNarrator dials the narration service at addr. An empty addr selects
// the offline narrator. The returned close function is never nil.
func (p Profile) NewNarrator(addr string) (narration.Narrator, func() error, error) {
	if addr == "" {
		offline := narration.DefaultOfflineConfig()
		offline.Gate = p.Gate
		return narration.NewOffline(offline), func() error { return nil }, nil
	}
	client, err := narration.NewClient(addr)
	if err != nil {
		return nil, func() error { return nil }, fmt.Errorf("dial narration %s: %w", addr, err)
	}
	return client, client.Close, nil
}
