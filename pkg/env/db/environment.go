package db

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const (
	Staging    Environment = "staging"
	Production Environment = "prod"
)

// Environment selects which set of database credentials is used. It
// implements pflag.Value so unknown names are rejected while flags are parsed.
type Environment string

var _ pflag.Value = (*Environment)(nil)

func Environments() []Environment {
	return []Environment{Staging, Production}
}

func (e *Environment) String() string {
	return string(*e)
}

func (e *Environment) Set(s string) error {
	for _, v := range Environments() {
		if s == string(v) {
			*e = v
			return nil
		}
	}

	names := make([]string, 0, len(Environments()))
	for _, v := range Environments() {
		names = append(names, string(v))
	}
	return fmt.Errorf("must be one of: %s", strings.Join(names, ", "))
}

func (e *Environment) Type() string {
	return "environment"
}
