package retrofit

import "time"

const (
	// DefaultUserAgent identifies retrofit page scrapes.
	DefaultUserAgent = "NewsHub Image Retrofitter 1.0"
	// DefaultLimit caps the articles visited per run.
	DefaultLimit = 30
	// DefaultDelay separates consecutive page scrapes.
	DefaultDelay = time.Second
)

// DefaultPublishers are the feed names whose articles are retrofitted.
var DefaultPublishers = []string{"TechCrunch", "The Verge", "Science Daily", "ESPN", "Hacker News"}

// Config tunes a retrofit run.
type Config struct {
	UserAgent  string        `mapstructure:"user_agent"`
	Limit      int           `mapstructure:"limit"`
	Delay      time.Duration `mapstructure:"delay"`
	Publishers []string      `mapstructure:"publishers"`
}

// WithDefaults returns a copy with unset fields filled in. An explicitly
// empty publisher list stays empty.
func (c Config) WithDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Limit <= 0 {
		c.Limit = DefaultLimit
	}
	if c.Delay <= 0 {
		c.Delay = DefaultDelay
	}
	if c.Publishers == nil {
		c.Publishers = append([]string(nil), DefaultPublishers...)
	}
	return c
}
