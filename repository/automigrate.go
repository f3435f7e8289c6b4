package repository

import "gorm.io/gorm"

// AutoMigrate creates or updates every table. Production schemas come from the sql migrations.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Entity{},
		&Convention{},
		&Assignment{},
		&Session{},
		&Entry{},
		&Award{},
		&Contest{},
		&Contestant{},
		&Round{},
		&Appearance{},
		&Song{},
		&Panelist{},
		&Score{},
		&Outcome{},
		&StateLog{},
		&RecurringJob{},
	)
}
