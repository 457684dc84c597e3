package splunk

import (
	"github.com/spf13/viper"

	"github.com/app-sre/explorer/pkg/env"
)

type Env struct {
	Index    string
	Endpoint string
	Token    string
	Host     string
}

func NewSplunkEnv() *Env {
	return &Env{}
}

// Enabled reports whether a Splunk endpoint has been configured at all.
func (s *Env) Enabled(v *viper.Viper) bool {
	return v.GetString("audit.splunk.endpoint") != ""
}

func (s *Env) Populate(v *viper.Viper) error {
	endpoint := v.GetString("audit.splunk.endpoint")
	if endpoint == "" {
		return &env.Error{Name: "audit.splunk.endpoint"}
	}
	s.Endpoint = endpoint

	token := v.GetString("audit.splunk.token")
	if token == "" {
		return &env.Error{Name: "audit.splunk.token"}
	}
	s.Token = token

	index := v.GetString("audit.splunk.index")
	if index == "" {
		return &env.Error{Name: "audit.splunk.index"}
	}
	s.Index = index

	s.Host = v.GetString("audit.splunk.host")

	return nil
}
