package storage

// Prefix namespaces every application key. Any key under it is in scope for
// bulk deletion, migration wipes, and the sync snapshot.
const Prefix = "studorama-"

// Well-known keys.
const (
	KeyVersion          = Prefix + "version"
	KeyAPISettings      = Prefix + "api-settings"
	KeyLanguage         = Prefix + "language"
	KeySessions         = Prefix + "sessions"
	KeyTheme            = Prefix + "theme"
	KeyTimerPreferences = Prefix + "timer-preferences"
	KeyLearningDefaults = Prefix + "learning-defaults"
	KeyDropboxConfig    = Prefix + "dropbox-config"
	KeyLastModified     = Prefix + "last-modified"
	KeyMigrationNotice  = Prefix + "migration-notice"
	KeyLLMUsage         = Prefix + "llm-usage"
)

// PreservedKeys is the allow-list of keys that survive a version-triggered
// wipe. It is the single source of truth for what the migration gate keeps:
// everything else under Prefix is deleted on a version mismatch, including
// caches and derived state.
var PreservedKeys = []string{
	KeyVersion,
	KeyAPISettings,
	KeyLanguage,
	KeySessions,
	KeyTheme,
	KeyTimerPreferences,
	KeyDropboxConfig,
}

// IsPreserved reports whether key survives a migration wipe.
func IsPreserved(key string) bool {
	for _, k := range PreservedKeys {
		if k == key {
			return true
		}
	}
	return false
}
