package migrations

import (
	"github.com/jmoiron/sqlx"
)

func init() {
	m.addMigration(&migration{
		version: "20260601094000",
		up:      mig_20260601094000_notes_up,
		down:    mig_20260601094000_notes_down,
	})
}

func mig_20260601094000_notes_up(tx *sqlx.Tx) error {
	// Notes are task-scoped; deleting a task removes its notes.
	_, err := tx.Exec(`
        CREATE TABLE IF NOT EXISTS notes (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            content TEXT NOT NULL,
            created_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            task_id UUID NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
        );
    `)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
        CREATE INDEX IF NOT EXISTS idx_notes_task_id ON notes(task_id);
    `)
	return err
}

func mig_20260601094000_notes_down(tx *sqlx.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS notes;`)
	return err
}
