package config

import "time"

var Conf Config

type Config struct {
	Server     Server     `mapstructure:"server" json:"server" yaml:"server"`
	Datasource Datasource `mapstructure:"database" json:"database" yaml:"database"`
	Auth       Auth       `mapstructure:"auth" json:"auth" yaml:"auth"`
	SMS        SMS        `mapstructure:"sms" json:"sms" yaml:"sms"`
}

type Server struct {
	Port string `mapstructure:"port" json:"port" yaml:"port"`
}

type Datasource struct {
	URL string `mapstructure:"url" json:"url" yaml:"url"`
}

type Auth struct {
	Secret     string        `mapstructure:"secret" json:"-" yaml:"secret"`
	Issuer     string        `mapstructure:"issuer" json:"issuer" yaml:"issuer"`
	AccessTTL  time.Duration `mapstructure:"access_ttl" json:"accessTtl" yaml:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl" json:"refreshTtl" yaml:"refresh_ttl"`
}

type SMS struct {
	CodeTTL time.Duration `mapstructure:"code_ttl" json:"codeTtl" yaml:"code_ttl"`
	// ExposeCodes returns the plaintext code in the send response.
	// Development only; must stay off in production.
	ExposeCodes bool `mapstructure:"expose_codes" json:"exposeCodes" yaml:"expose_codes"`
}
