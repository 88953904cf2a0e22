// FILE: lixenwraith/asrproxy/log/builder.go
package log

// Builder provides a fluent API for building facility configurations.
type Builder struct {
	cfg *Config
	err error // Accumulate errors for deferred handling
}

// NewBuilder creates a new configuration builder with default values.
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// Build validates the configuration and creates a started Facility.
func (b *Builder) Build() (*Facility, error) {
	if b.err != nil {
		return nil, b.err
	}
	return New(b.cfg)
}

// Config returns a copy of the configuration built so far.
func (b *Builder) Config() (*Config, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.cfg.Clone(), nil
}

// Level sets the minimum level.
func (b *Builder) Level(level Level) *Builder {
	if b.err != nil {
		return b
	}
	if !level.Valid() {
		b.err = fmtErrorf("invalid level: %d", level)
		return b
	}
	b.cfg.Level = level.String()
	return b
}

// LevelString sets the minimum level from a string.
func (b *Builder) LevelString(level string) *Builder {
	if b.err != nil {
		return b
	}
	if _, err := ParseLevel(level); err != nil {
		b.err = err
		return b
	}
	b.cfg.Level = level
	return b
}

// PollIntervalMs sets the dispatch loop poll period.
func (b *Builder) PollIntervalMs(ms int64) *Builder {
	b.cfg.PollIntervalMs = ms
	return b
}

// BlastAvoidance toggles producer throttling.
func (b *Builder) BlastAvoidance(enabled bool) *Builder {
	b.cfg.BlastAvoidance = enabled
	return b
}

// Console enables the console receiver on target ("stdout" or "stderr").
func (b *Builder) Console(target, titlePattern string) *Builder {
	b.cfg.EnableConsole = true
	b.cfg.ConsoleTarget = target
	b.cfg.ConsoleTitle = titlePattern
	return b
}

// Format sets the output format.
func (b *Builder) Format(format string) *Builder {
	b.cfg.Format = format
	return b
}

// TimestampFormat sets the timestamp layout.
func (b *Builder) TimestampFormat(format string) *Builder {
	b.cfg.TimestampFormat = format
	return b
}

// File enables the rotating file receiver.
func (b *Builder) File(path, titlePattern string) *Builder {
	b.cfg.File = path
	b.cfg.FileTitle = titlePattern
	return b
}

// Rotation sets the file rotation limits.
func (b *Builder) Rotation(maxSizeMB, maxBackups, maxAgeDays int64, compress bool) *Builder {
	b.cfg.MaxSizeMB = maxSizeMB
	b.cfg.MaxBackups = maxBackups
	b.cfg.MaxAgeDays = maxAgeDays
	b.cfg.Compress = compress
	return b
}

// HeartbeatIntervalS sets the heartbeat interval in seconds, 0 disables.
func (b *Builder) HeartbeatIntervalS(seconds int64) *Builder {
	b.cfg.HeartbeatIntervalS = seconds
	return b
}

// InternalErrorsToStderr toggles logger diagnostics on stderr.
func (b *Builder) InternalErrorsToStderr(enabled bool) *Builder {
	b.cfg.InternalErrorsToStderr = enabled
	return b
}
