// Package schema declares the tables the backend persists.
package schema

import "github.com/crackedoura/backend/internal/storage"

// Version is bumped whenever a table or index is added.
const Version = "1.0.0"

// Default returns the backend's table set.
func Default() storage.Schema {
	return storage.Schema{
		Version: Version,
		Tables: []storage.Table{
			{
				// Single row, enforced by the CHECK on id.
				Name: "settings",
				Columns: []string{
					"id INTEGER PRIMARY KEY CHECK (id = 1)",
					"daily_sync_time TEXT NOT NULL DEFAULT '08:00'",
					"email TEXT",
					"updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP",
				},
			},
			{
				Name: "dashboard_layouts",
				Columns: []string{
					"id INTEGER PRIMARY KEY AUTOINCREMENT",
					"name TEXT NOT NULL UNIQUE",
					"layout TEXT NOT NULL",
					"updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP",
				},
			},
			{
				Name: "daily_data",
				Columns: []string{
					"id INTEGER PRIMARY KEY AUTOINCREMENT",
					"day TEXT NOT NULL",
					"metric TEXT NOT NULL",
					"payload TEXT NOT NULL",
					"updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP",
				},
				Indexes: []storage.Index{
					{Name: "idx_daily_data_day_metric", Columns: []string{"day", "metric"}, Unique: true},
					{Name: "idx_daily_data_metric", Columns: []string{"metric"}},
				},
			},
		},
	}
}
