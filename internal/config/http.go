package config

import "time"

type HTTPConfig struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8000"`
	RequestIDHeader string        `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
	MaxBodyBytes    int64         `env:"HTTP_MAX_BODY_BYTES" envDefault:"1048576"`
}
