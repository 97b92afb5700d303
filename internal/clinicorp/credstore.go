package clinicorp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// credentialRecord is the stored per-clinic integration record. The admin
// surface owns writes; this package only reads through Fetch.
type credentialRecord struct {
	SubscriberID    string `json:"subscriber_id"`
	AccessToken     string `json:"access_token"`
	BaseURL         string `json:"base_url"`
	DefaultLinkCode string `json:"default_link_code"`
	Enabled         bool   `json:"enabled"`
}

// RedisCredentialSource reads per-clinic Clinicorp credentials from Redis.
type RedisCredentialSource struct {
	redis *redis.Client
}

// NewRedisCredentialSource creates a credential source backed by Redis.
func NewRedisCredentialSource(redisClient *redis.Client) *RedisCredentialSource {
	return &RedisCredentialSource{redis: redisClient}
}

func (s *RedisCredentialSource) key(clinicID string) string {
	return fmt.Sprintf("clinicorp:credentials:%s", clinicID)
}

// Fetch returns the active credential for a clinic, or nil when the clinic
// has no enabled integration.
func (s *RedisCredentialSource) Fetch(ctx context.Context, clinicID string) (*Credential, error) {
	clinicID = strings.TrimSpace(clinicID)
	if clinicID == "" {
		return nil, fmt.Errorf("clinicorp: clinic id is required")
	}

	data, err := s.redis.Get(ctx, s.key(clinicID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("clinicorp: get credentials: %w", err)
	}

	var rec credentialRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("clinicorp: unmarshal credentials: %w", err)
	}
	if !rec.Enabled {
		return nil, nil
	}

	return &Credential{
		SubscriberID:    rec.SubscriberID,
		AccessToken:     rec.AccessToken,
		BaseURL:         rec.BaseURL,
		DefaultLinkCode: rec.DefaultLinkCode,
		ClinicID:        clinicID,
	}, nil
}
