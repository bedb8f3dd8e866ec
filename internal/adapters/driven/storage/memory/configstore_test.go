package memory

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_Seed(t *testing.T) {
	store := NewConfigStore(map[string]any{"llm.provider": "deepseek"}, map[string]any{"ingest.workers": int64(3)})

	assert.Equal(t, "deepseek", store.GetString("llm.provider"))
	assert.Equal(t, 3, store.GetInt("ingest.workers"))
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Getters(t *testing.T) {
	tests := []struct {
		name  string
		value any
		check func(t *testing.T, s *ConfigStore)
	}{
		{"int", 7, func(t *testing.T, s *ConfigStore) { assert.Equal(t, 7, s.GetInt("k")) }},
		{"float", 7.9, func(t *testing.T, s *ConfigStore) { assert.Equal(t, 7, s.GetInt("k")) }},
		{"numeric string", " 42 ", func(t *testing.T, s *ConfigStore) { assert.Equal(t, 42, s.GetInt("k")) }},
		{"bad string", "abc", func(t *testing.T, s *ConfigStore) { assert.Zero(t, s.GetInt("k")) }},
		{"bool", true, func(t *testing.T, s *ConfigStore) { assert.True(t, s.GetBool("k")) }},
		{"bool string", "true", func(t *testing.T, s *ConfigStore) { assert.True(t, s.GetBool("k")) }},
		{"slice", []string{"a"}, func(t *testing.T, s *ConfigStore) { assert.Equal(t, []string{"a"}, s.GetStringSlice("k")) }},
		{"any slice", []any{"a", 1, "b"}, func(t *testing.T, s *ConfigStore) {
			assert.Equal(t, []string{"a", "b"}, s.GetStringSlice("k"))
		}},
		{"comma string", "第, Chapter", func(t *testing.T, s *ConfigStore) {
			assert.Equal(t, []string{"第", "Chapter"}, s.GetStringSlice("k"))
		}},
		{"wrong type", 3, func(t *testing.T, s *ConfigStore) {
			assert.Empty(t, s.GetString("k"))
			assert.False(t, s.GetBool("k"))
			assert.Nil(t, s.GetStringSlice("k"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewConfigStore()
			require.NoError(t, store.Set("k", tt.value))
			tt.check(t, store)
		})
	}
}

func TestConfigStore_MissingKey(t *testing.T) {
	store := NewConfigStore()

	_, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Empty(t, store.GetString("missing"))
	assert.Zero(t, store.GetInt("missing"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_SetErr(t *testing.T) {
	store := NewConfigStore()
	store.SetErr = errors.New("disk full")

	err := store.Set("k", "v")

	assert.EqualError(t, err, "disk full")
	_, ok := store.Get("k")
	assert.False(t, ok)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("n", n)
			_ = store.GetInt("n")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("n")
	assert.True(t, ok)
}
