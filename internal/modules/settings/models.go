package settings

// SettingDefaults holds all default values for configurable settings
var SettingDefaults = map[string]interface{}{
	// Budget cycle
	"expected_income_cents": 0.0, // Expected per-period income in cents (0 = not configured)

	// Display
	"display_currency": "AUD", // Currency API responses are re-expressed in

	// Cache freshness windows
	"price_ttl_minutes": 15.0, // Quote cache freshness window (minutes)
	"rate_ttl_minutes":  60.0, // Exchange rate cache freshness window (minutes)

	// Quote refresh
	"quote_refresh_minutes": 5.0, // Quote refresh job cadence (minutes)

	// Anomaly detection thresholds
	"anomaly_baseline_periods":    6.0,    // Prior periods used for category baselines
	"anomaly_runrate_multiplier":  1.5,    // Projected period spend vs historical period average
	"anomaly_large_tx_multiplier": 3.0,    // Single transaction vs historical average transaction
	"anomaly_min_progress_pct":    10.0,   // Run-rate check suppressed before this much of the period has elapsed
	"anomaly_min_spend_cents":     5000.0, // Categories below this current spend are never flagged

	// Cloudflare R2 backup settings
	"r2_account_id":             "",   // Cloudflare R2 account ID
	"r2_access_key_id":          "",   // R2 access key ID
	"r2_secret_access_key":      "",   // R2 secret access key
	"r2_bucket":                 "",   // R2 bucket name
	"r2_backup_retention_days":  30.0, // Days to keep backups (0 = keep forever)
	"snapshot_stale_after_days": 0.0,  // 0 = use one budget period as the staleness window
}

// StringSettings defines which settings should be treated as strings rather than floats
var StringSettings = map[string]bool{
	"display_currency":     true,
	"r2_account_id":        true,
	"r2_access_key_id":     true,
	"r2_secret_access_key": true,
	"r2_bucket":            true,
}

// SettingDescriptions holds human-readable descriptions for settings surfaced in the UI
var SettingDescriptions = map[string]string{
	"expected_income_cents":       "Expected income per pay period, in cents. Seeds new budget periods.",
	"display_currency":            "Currency the dashboard re-expresses aggregate values in (AUD, NZD or USD). Aggregation itself always runs in AUD.",
	"price_ttl_minutes":           "Minutes before a cached quote is considered stale. Stale quotes are still used but flagged.",
	"rate_ttl_minutes":            "Minutes before cached exchange rates are considered stale.",
	"anomaly_baseline_periods":    "How many prior budget periods feed each category's historical baseline (max 6).",
	"anomaly_runrate_multiplier":  "A category is flagged when its projected period-end spend exceeds this multiple of its historical period average.",
	"anomaly_large_tx_multiplier": "A single transaction is flagged when it exceeds this multiple of the category's historical average transaction.",
	"anomaly_min_progress_pct":    "Run-rate projections are skipped until this percentage of the period has elapsed.",
	"anomaly_min_spend_cents":     "Categories whose current spend is below this amount (cents) are never flagged.",
	"r2_backup_retention_days":    "Days to keep cloud backups before rotation (0 = keep forever).",
}

// SettingUpdate represents a setting value update request
type SettingUpdate struct {
	Value interface{} `json:"value"`
}

// IsKnownKey reports whether a key has a registered default
func IsKnownKey(key string) bool {
	_, ok := SettingDefaults[key]
	return ok
}

// DefaultFloat returns the registered default for a numeric key (0 if unknown)
func DefaultFloat(key string) float64 {
	if v, ok := SettingDefaults[key].(float64); ok {
		return v
	}
	return 0
}

// DefaultString returns the registered default for a string key ("" if unknown)
func DefaultString(key string) string {
	if v, ok := SettingDefaults[key].(string); ok {
		return v
	}
	return ""
}
