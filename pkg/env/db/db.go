package db

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/spf13/viper"

	"github.com/app-sre/explorer/pkg/env"
)

type Env struct {
	Environment Environment
	Driver      DriverType
	Host        string
	Port        int
	Username    string
	Password    string
	Name        string
	SSLMode     string
}

func NewDBEnv() *Env {
	return &Env{}
}

func (d *Env) Populate(v *viper.Viper, environment Environment) error {
	key := func(name string) string {
		return fmt.Sprintf("database.%s.%s", environment, name)
	}
	d.Environment = environment

	driver := v.GetString(key("driver"))
	if driver == "" {
		driver = driverPostgreSQL
	}
	d.Driver = DriverType(driver)
	if !d.Driver.IsValid() {
		return fmt.Errorf("unable to use driver type: %s", d.Driver)
	}

	host := v.GetString(key("host"))
	if host == "" {
		return &env.Error{Name: key("host")}
	}
	d.Host = host

	d.Port = d.Driver.Port()
	if port := v.GetString(key("port")); port != "" {
		i, err := strconv.Atoi(port)
		if err != nil {
			return &env.TypeError{Name: key("port")}
		}
		d.Port = i
	}

	user := v.GetString(key("user"))
	if user == "" {
		return &env.Error{Name: key("user")}
	}
	d.Username = user

	pass := v.GetString(key("password"))
	if pass == "" {
		return &env.Error{Name: key("password")}
	}
	d.Password = pass

	name := v.GetString(key("name"))
	if name == "" {
		return &env.Error{Name: key("name")}
	}
	d.Name = name

	d.SSLMode = v.GetString(key("sslmode"))

	return nil
}

func (d *Env) ConnectionDSN() string {
	switch d.Driver.Name() {
	case driverPostgreSQL:
		u := &url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(d.Username, d.Password),
			Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
			Path:   d.Name,
		}
		if d.SSLMode != "" {
			u.RawQuery = url.Values{"sslmode": []string{d.SSLMode}}.Encode()
		}
		return u.String()
	default:
		return fmt.Sprintf(d.Driver.Format(),
			d.Username,
			d.Password,
			d.Host,
			d.Port,
			d.Name,
		)
	}
}
