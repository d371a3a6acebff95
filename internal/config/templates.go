package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Sideways Trend Configuration

[analysis]
# Largest allowed spread between high and low close, as a percentage of the low
max_pct_change = 5.0
# Search algorithm: "divide" (O(n log n)) or "naive" (O(n^2) reference)
algorithm = "divide"

[data]
# Header names of the date and closing price columns
date_column = "Date"
close_column = "Close"
# Go time layout of the date column (dd-MMM-yy)
date_format = "02-Jan-06"
# Decimal places kept when converting prices to integer minor units
price_scale = 2

[store]
# Keep imported series and analysis history in SQLite
enabled = true
# Database path (default: <config dir>/sideways.db)
path = ""

[logging]
# Log level: debug, info, warn, error
level = "info"
# Write a rotating log file under <config dir>/logs
file = true
max_size = 10
max_backups = 3
max_age = 30
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
