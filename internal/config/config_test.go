package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestResolve_Defaults(t *testing.T) {
	s, err := Resolve(Overrides{})
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
	assert.Equal(t, 360*time.Second, s.Timeout)
	assert.Equal(t, 0.8, s.Temperature)
	assert.Equal(t, 0.6, s.TopP)
	assert.Equal(t, 10, s.RetryCount)
	assert.Equal(t, 750*time.Millisecond, s.RetryInterval)
}

func TestResolve_Overrides(t *testing.T) {
	s, err := Resolve(Overrides{
		TimeoutSeconds:       ptr(300.0),
		Temperature:          ptr(0.2),
		TopP:                 ptr(1.0),
		RetryCount:           ptr(0),
		RetryIntervalSeconds: ptr(6.0),
		MaxGroupTokens:       ptr(2400),
		Concurrency:          ptr(4),
	})
	require.NoError(t, err)
	assert.Equal(t, 300*time.Second, s.Timeout)
	assert.Equal(t, 0.2, s.Temperature)
	assert.Equal(t, 1.0, s.TopP)
	assert.Equal(t, 0, s.RetryCount)
	assert.Equal(t, 6*time.Second, s.RetryInterval)
	assert.Equal(t, 2400, s.MaxGroupTokens)
	assert.Equal(t, 4, s.Concurrency)
}

func TestResolve_ZeroTemperatureKept(t *testing.T) {
	s, err := Resolve(Overrides{Temperature: ptr(0.0)})
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.Temperature)
}

func TestResolve_RejectsWithoutClamping(t *testing.T) {
	tests := []struct {
		name string
		o    Overrides
		knob string
	}{
		{"timeout", Overrides{TimeoutSeconds: ptr(0.0)}, "timeout"},
		{"temperature", Overrides{Temperature: ptr(2.5)}, "temperature"},
		{"top_p", Overrides{TopP: ptr(0.0)}, "top_p"},
		{"retries", Overrides{RetryCount: ptr(-1)}, "retry count"},
		{"interval", Overrides{RetryIntervalSeconds: ptr(-0.5)}, "retry interval"},
		{"group", Overrides{MaxGroupTokens: ptr(0)}, "max group tokens"},
		{"concurrency", Overrides{Concurrency: ptr(0)}, "concurrency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.o)
			var ke *KnobError
			require.True(t, errors.As(err, &ke), "got %v", err)
			assert.Equal(t, tt.knob, ke.Knob)
		})
	}
}

func TestLoad_OnlyExplicitKeys(t *testing.T) {
	v := viper.New()
	v.Set(KeyTemperature, 0.3)
	v.Set(KeyRetries, 2)

	o, _, err := Load(v)
	require.NoError(t, err)
	require.NotNil(t, o.Temperature)
	assert.Equal(t, 0.3, *o.Temperature)
	require.NotNil(t, o.RetryCount)
	assert.Equal(t, 2, *o.RetryCount)
	assert.Nil(t, o.TopP)
	assert.Nil(t, o.TimeoutSeconds)
	assert.Nil(t, o.Concurrency)
}

func TestNewViper_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "booktran.yaml")
	content := "service: openrouter\nmodel: qwen/qwen2.5-72b-instruct:free\ntop_p: 0.9\nmax_group_tokens: 800\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	v, err := NewViper(path)
	require.NoError(t, err)

	o, svc, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "openrouter", svc.Name)
	assert.Equal(t, "qwen/qwen2.5-72b-instruct:free", svc.Model)
	require.NotNil(t, o.TopP)
	assert.Equal(t, 0.9, *o.TopP)
	require.NotNil(t, o.MaxGroupTokens)
	assert.Equal(t, 800, *o.MaxGroupTokens)
}

func TestNewViper_Env(t *testing.T) {
	t.Setenv("BOOKTRAN_CONCURRENCY", "3")
	t.Setenv("BOOKTRAN_SERVICE", "google")

	v, err := NewViper(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Nil(t, v)

	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0644))
	v, err = NewViper(path)
	require.NoError(t, err)

	o, svc, err := Load(v)
	require.NoError(t, err)
	require.NotNil(t, o.Concurrency)
	assert.Equal(t, 3, *o.Concurrency)
	assert.Equal(t, "google", svc.Name)
}
