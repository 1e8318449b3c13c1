package config

import (
	"fmt"
	"time"

	"github.com/justapithecus/vgmlink/board"
	"github.com/justapithecus/vgmlink/session"
)

// Config represents a vgmlink.yaml configuration file.
// All values are optional and act as defaults for command flags.
// CLI flags always override config values.
type Config struct {
	Port        string        `yaml:"port"`
	Baud        int           `yaml:"baud"`
	Target      string        `yaml:"target"`
	Reduction   string        `yaml:"reduction"`
	Loop        string        `yaml:"loop"`
	Balance     *bool         `yaml:"balance,omitempty"`
	BalanceStep int           `yaml:"balance_step"`
	KeepForeign bool          `yaml:"keep_foreign"`
	LogLevel    string        `yaml:"log_level"`
	Session     SessionConfig `yaml:"session"`
	Boards      []BoardConfig `yaml:"boards"`
	Storage     StorageConfig `yaml:"storage"`
	Adapter     AdapterConfig `yaml:"adapter"`
}

// SessionConfig holds transport timing overrides.
type SessionConfig struct {
	HandshakeAttempts int      `yaml:"handshake_attempts"`
	HandshakeWindow   Duration `yaml:"handshake_window"`
	PollInterval      Duration `yaml:"poll_interval"`
	EndAckWindow      Duration `yaml:"end_ack_window"`
	DrainTimeout      Duration `yaml:"drain_timeout"`
	SettleDelay       Duration `yaml:"settle_delay"`
}

// Apply copies every set field onto cfg.
func (s SessionConfig) Apply(cfg *session.Config) {
	if s.HandshakeAttempts > 0 {
		cfg.HandshakeAttempts = s.HandshakeAttempts
	}
	if s.HandshakeWindow.Duration > 0 {
		cfg.HandshakeWindow = s.HandshakeWindow.Duration
	}
	if s.PollInterval.Duration > 0 {
		cfg.PollInterval = s.PollInterval.Duration
	}
	if s.EndAckWindow.Duration > 0 {
		cfg.EndAckWindow = s.EndAckWindow.Duration
	}
	if s.DrainTimeout.Duration > 0 {
		cfg.DrainTimeout = s.DrainTimeout.Duration
	}
	if s.SettleDelay.Duration > 0 {
		cfg.SettleDelay = s.SettleDelay.Duration
	}
}

// BoardConfig declares an extra board profile, or replaces a shipped one
// with the same id.
type BoardConfig struct {
	ID         int    `yaml:"id"`
	Name       string `yaml:"name"`
	ChunkSize  int    `yaml:"chunk_size"`
	Depth      int    `yaml:"pipeline_depth"`
	AudioRate  int    `yaml:"audio_rate"`
	FlashLimit int    `yaml:"flash_limit"`
}

// Profile converts the entry. Depth and audio rate default to 1.
func (b BoardConfig) Profile() (board.Profile, error) {
	if b.ID < 1 || b.ID > 255 {
		return board.Profile{}, fmt.Errorf("board %q: id %d out of range [1, 255]", b.Name, b.ID)
	}
	if b.Name == "" {
		return board.Profile{}, fmt.Errorf("board %d: name is required", b.ID)
	}
	p := board.Profile{
		ID:         board.ID(b.ID),
		Name:       b.Name,
		ChunkSize:  b.ChunkSize,
		Depth:      b.Depth,
		AudioRate:  b.AudioRate,
		FlashLimit: b.FlashLimit,
	}
	if p.Depth == 0 {
		p.Depth = 1
	}
	if p.AudioRate == 0 {
		p.AudioRate = 1
	}
	return p, p.Validate()
}

// Table returns the shipped board table merged with the configured boards.
func (c *Config) Table() (board.Table, error) {
	if len(c.Boards) == 0 {
		return board.DefaultTable(), nil
	}

	custom := make(map[board.ID]board.Profile, len(c.Boards))
	order := make([]board.ID, 0, len(c.Boards))
	for _, bc := range c.Boards {
		p, err := bc.Profile()
		if err != nil {
			return board.Table{}, err
		}
		if _, dup := custom[p.ID]; dup {
			return board.Table{}, fmt.Errorf("duplicate board id %d in config", p.ID)
		}
		custom[p.ID] = p
		order = append(order, p.ID)
	}

	var profiles []board.Profile
	for _, p := range board.DefaultTable().Profiles() {
		if _, replaced := custom[p.ID]; !replaced {
			profiles = append(profiles, p)
		}
	}
	for _, id := range order {
		profiles = append(profiles, custom[id])
	}
	return board.NewTable(profiles...)
}

// StorageConfig holds session archive defaults from the config file.
type StorageConfig struct {
	Dataset     string `yaml:"dataset"`
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// Enabled reports whether an archive backend is configured.
func (s StorageConfig) Enabled() bool {
	return s.Backend != "" && s.Path != ""
}

// AdapterConfig holds adapter defaults from the config file.
type AdapterConfig struct {
	Type      string            `yaml:"type"`
	URL       string            `yaml:"url"`
	Channel   string            `yaml:"channel,omitempty"`
	RecentKey string            `yaml:"recent_key,omitempty"`
	Headers   map[string]string `yaml:"headers,omitempty"`
	Timeout   Duration          `yaml:"timeout,omitempty"`
	Retries   *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
