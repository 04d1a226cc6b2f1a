package models

// Settings holds the user's dashboard preferences.
type Settings struct {
	UserCurrencies []string `json:"user_currencies"`
	UserStocks     []string `json:"user_stocks"`
}

// DefaultSettings returns the settings used when none are stored.
func DefaultSettings() Settings {
	return Settings{
		UserCurrencies: []string{"USD", "EUR"},
		UserStocks:     []string{"AAPL", "GOOGL"},
	}
}

// WithDefaults returns a copy with empty lists replaced by the defaults.
func (s Settings) WithDefaults() Settings {
	def := DefaultSettings()
	if len(s.UserCurrencies) == 0 {
		s.UserCurrencies = def.UserCurrencies
	}
	if len(s.UserStocks) == 0 {
		s.UserStocks = def.UserStocks
	}
	return s
}
