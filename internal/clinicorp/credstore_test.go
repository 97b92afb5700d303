package clinicorp

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCredSource(t *testing.T) (*RedisCredentialSource, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCredentialSource(client), mr
}

func TestRedisCredentialSourceFetch(t *testing.T) {
	source, mr := newTestCredSource(t)
	mr.Set("clinicorp:credentials:clinic-1", `{
		"subscriber_id": "sub-9",
		"access_token": "tok-9",
		"base_url": "https://api.example",
		"default_link_code": "LC1",
		"enabled": true
	}`)

	cred, err := source.Fetch(context.Background(), "clinic-1")
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "sub-9", cred.SubscriberID)
	assert.Equal(t, "tok-9", cred.AccessToken)
	assert.Equal(t, "https://api.example", cred.BaseURL)
	assert.Equal(t, "LC1", cred.DefaultLinkCode)
	assert.Equal(t, "clinic-1", cred.ClinicID)
}

func TestRedisCredentialSourceMissingKey(t *testing.T) {
	source, _ := newTestCredSource(t)

	cred, err := source.Fetch(context.Background(), "clinic-unknown")
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestRedisCredentialSourceDisabledRecord(t *testing.T) {
	source, mr := newTestCredSource(t)
	mr.Set("clinicorp:credentials:clinic-1", `{
		"subscriber_id": "sub-9",
		"access_token": "tok-9",
		"enabled": false
	}`)

	cred, err := source.Fetch(context.Background(), "clinic-1")
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestRedisCredentialSourceMalformedRecord(t *testing.T) {
	source, mr := newTestCredSource(t)
	mr.Set("clinicorp:credentials:clinic-1", "not json")

	_, err := source.Fetch(context.Background(), "clinic-1")
	assert.Error(t, err)
}

func TestRedisCredentialSourceRequiresClinicID(t *testing.T) {
	source, _ := newTestCredSource(t)

	_, err := source.Fetch(context.Background(), "  ")
	assert.Error(t, err)
}
