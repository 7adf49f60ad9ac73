package metric

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// UpdateTasksCountFromDB seeds the TasksCount gauge from the store at
// startup, before the lifecycle service has loaded its collection. Afterwards
// the service keeps the gauge current itself.
func UpdateTasksCountFromDB(db *sqlx.DB) error {
	var count int
	if err := db.Get(&count, "SELECT count(1) FROM tasks"); err != nil {
		if err == sql.ErrNoRows {
			SetTasksCount(0)
			return nil
		}
		return err
	}
	SetTasksCount(count)
	return nil
}
