package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	VoiceLanguageChanged bool
	NewVoiceLanguage     string

	VoiceChanged bool
	NewVoice     VoiceConfig

	SimilarityThresholdChanged bool
	NewSimilarityThreshold     float64
}

// Any reports whether the diff contains at least one change.
func (d ConfigDiff) Any() bool {
	return d.LogLevelChanged || d.VoiceLanguageChanged || d.VoiceChanged || d.SimilarityThresholdChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart; provider and
// storage changes require a restart and are not reported here.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Assistant.VoiceLanguage != new.Assistant.VoiceLanguage {
		d.VoiceLanguageChanged = true
		d.NewVoiceLanguage = new.Assistant.VoiceLanguage
	}

	if old.Assistant.Voice != new.Assistant.Voice {
		d.VoiceChanged = true
		d.NewVoice = new.Assistant.Voice
	}

	if old.Training.SimilarityThreshold != new.Training.SimilarityThreshold {
		d.SimilarityThresholdChanged = true
		d.NewSimilarityThreshold = new.Training.SimilarityThreshold
	}

	return d
}
