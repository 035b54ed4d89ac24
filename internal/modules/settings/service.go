package settings

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
)

// Service provides typed access to settings, overlaying stored values on the
// registered defaults. Unknown keys are rejected on write so the settings
// table cannot accumulate typos.
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new settings service
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "settings").Logger(),
	}
}

// Get returns a setting value typed per its registered default:
// string settings come back as string, everything else as float64.
// Unset keys return their default.
func (s *Service) Get(key string) (interface{}, error) {
	if !IsKnownKey(key) {
		return nil, fmt.Errorf("unknown setting: %s", key)
	}

	stored, err := s.repo.Get(key)
	if err != nil {
		return nil, err
	}

	if StringSettings[key] {
		if stored == nil {
			return DefaultString(key), nil
		}
		return *stored, nil
	}

	if stored == nil {
		return DefaultFloat(key), nil
	}
	floatVal, err := strconv.ParseFloat(*stored, 64)
	if err != nil {
		s.log.Warn().Str("key", key).Str("value", *stored).Msg("Stored setting is not numeric, using default")
		return DefaultFloat(key), nil
	}
	return floatVal, nil
}

// Set stores a setting value. Returns true when the value was accepted.
func (s *Service) Set(key string, value interface{}) (bool, error) {
	if !IsKnownKey(key) {
		return false, fmt.Errorf("unknown setting: %s", key)
	}

	var str string
	switch v := value.(type) {
	case string:
		str = v
	case float64:
		str = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		str = strconv.Itoa(v)
	case int64:
		str = strconv.FormatInt(v, 10)
	case bool:
		str = "false"
		if v {
			str = "true"
		}
	default:
		return false, fmt.Errorf("unsupported value type for setting %s: %T", key, value)
	}

	var desc *string
	if d, ok := SettingDescriptions[key]; ok {
		desc = &d
	}
	if err := s.repo.Set(key, str, desc); err != nil {
		return false, err
	}

	s.log.Info().Str("key", key).Msg("Setting updated")
	return true, nil
}

// All returns every known setting, stored values overlaid on defaults
func (s *Service) All() (map[string]interface{}, error) {
	stored, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}

	result := make(map[string]interface{}, len(SettingDefaults))
	for key, def := range SettingDefaults {
		result[key] = def
		raw, ok := stored[key]
		if !ok {
			continue
		}
		if StringSettings[key] {
			result[key] = raw
			continue
		}
		if floatVal, err := strconv.ParseFloat(raw, 64); err == nil {
			result[key] = floatVal
		}
	}
	return result, nil
}
