package datadog

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestNewDatadogEnv(t *testing.T) {
	actual := NewDatadogEnv()

	assert.NotNil(t, actual)
	assert.IsType(t, &Env{}, actual)
}

func TestPopulate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		description string
		given       map[string]any
		expected    *Env
		error       bool
		message     string
	}{
		{
			"all configuration keys set",
			map[string]any{
				"datadog.api_key": "test",
				"datadog.app_key": "test123",
				"datadog.site":    "datadoghq.eu",
			},
			&Env{APIKey: "test", AppKey: "test123", Site: "datadoghq.eu"},
			false,
			``,
		},
		{
			"site defaults to the US region",
			map[string]any{
				"datadog.api_key": "test",
				"datadog.app_key": "test123",
			},
			&Env{APIKey: "test", AppKey: "test123", Site: "datadoghq.com"},
			false,
			``,
		},
		{
			"API root overridden with trailing slash removed",
			map[string]any{
				"datadog.api_key": "test",
				"datadog.app_key": "test123",
				"datadog.api_url": "http://127.0.0.1:8126/",
			},
			&Env{APIKey: "test", AppKey: "test123", Site: "datadoghq.com", BaseURL: "http://127.0.0.1:8126"},
			false,
			``,
		},
		{
			"missing required API key",
			map[string]any{},
			&Env{},
			true,
			`unable to access configuration key: datadog.api_key`,
		},
		{
			"missing required application key",
			map[string]any{
				"datadog.api_key": "test",
			},
			&Env{APIKey: "test"},
			true,
			`unable to access configuration key: datadog.app_key`,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.description, func(t *testing.T) {
			t.Parallel()

			v := viper.New()
			for key, value := range tc.given {
				v.Set(key, value)
			}

			actual := &Env{}
			err := actual.Populate(v)

			if tc.error {
				assert.NotNil(t, err)
				assert.Contains(t, err.Error(), tc.message)
			} else {
				assert.Nil(t, err)
			}

			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestURLs(t *testing.T) {
	actual := &Env{Site: "datadoghq.eu"}

	assert.Equal(t, "https://api.datadoghq.eu", actual.APIURL())
	assert.Equal(t, "https://app.datadoghq.eu", actual.AppURL())
}

func TestAPIURLOverride(t *testing.T) {
	actual := &Env{Site: "datadoghq.eu", BaseURL: "http://127.0.0.1:8126"}

	assert.Equal(t, "http://127.0.0.1:8126", actual.APIURL())
	assert.Equal(t, "https://app.datadoghq.eu", actual.AppURL())
}
