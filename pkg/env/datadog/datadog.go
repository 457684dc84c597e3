package datadog

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/app-sre/explorer/pkg/env"
)

const DefaultSite = "datadoghq.com"

type Env struct {
	APIKey string
	AppKey string
	Site   string

	// BaseURL overrides the API root derived from Site.
	BaseURL string
}

func NewDatadogEnv() *Env {
	return &Env{}
}

func (d *Env) Populate(v *viper.Viper) error {
	apiKey := v.GetString("datadog.api_key")
	if apiKey == "" {
		return &env.Error{Name: "datadog.api_key"}
	}
	d.APIKey = apiKey

	appKey := v.GetString("datadog.app_key")
	if appKey == "" {
		return &env.Error{Name: "datadog.app_key"}
	}
	d.AppKey = appKey

	d.Site = DefaultSite
	if site := v.GetString("datadog.site"); site != "" {
		d.Site = site
	}

	d.BaseURL = strings.TrimSuffix(v.GetString("datadog.api_url"), "/")

	return nil
}

// APIURL is the REST endpoint root for the configured site.
func (d *Env) APIURL() string {
	if d.BaseURL != "" {
		return d.BaseURL
	}
	return fmt.Sprintf("https://api.%s", d.Site)
}

// AppURL is the web console root for the configured site.
func (d *Env) AppURL() string {
	return fmt.Sprintf("https://app.%s", d.Site)
}
