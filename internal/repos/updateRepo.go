package repos

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/wheelibin/homeserver/internal/models"
)

const initSchema = `
  CREATE TABLE IF NOT EXISTS light_update (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    light_id TEXT NOT NULL,
    bridge_id TEXT,
    payload TEXT NOT NULL,
    error TEXT,
    applied_at TIMESTAMP NOT NULL
  );

  CREATE INDEX IF NOT EXISTS light_update_light_id ON light_update (light_id, id);
`

// UpdateRepo is the journal of light updates sent to the bridges.
type UpdateRepo struct {
	logger *log.Logger
	db     *sql.DB
}

func NewUpdateRepo(logger *log.Logger, db *sql.DB) (*UpdateRepo, error) {

	_, err := db.Exec(initSchema)
	if err != nil {
		return nil, fmt.Errorf("Error initialising light update schema: %w", err)
	}

	return &UpdateRepo{logger: logger, db: db}, nil
}

// Record adds rec to the journal and returns its id.
func (r *UpdateRepo) Record(rec models.LightUpdateRecord) (int64, error) {
	payload, err := json.Marshal(rec.Update)
	if err != nil {
		return 0, fmt.Errorf("Error encoding update for light (%s): %w", rec.LightID, err)
	}
	if rec.AppliedAt.IsZero() {
		rec.AppliedAt = time.Now()
	}

	res, err := r.db.Exec(
		`INSERT INTO light_update (light_id, bridge_id, payload, error, applied_at)
     VALUES ($1, $2, $3, $4, $5);`,
		rec.LightID,
		rec.BridgeID,
		string(payload),
		rec.Error,
		rec.AppliedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("Error recording update for light (%s): %w", rec.LightID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("Error reading id of update for light (%s): %w", rec.LightID, err)
	}
	r.logger.Debug("Recorded light update", "light", rec.LightID, "id", id)
	return id, nil
}

// History returns up to limit updates for the light, newest first.
func (r *UpdateRepo) History(lightID string, limit int) ([]models.LightUpdateRecord, error) {
	rows, err := r.db.Query(`
    SELECT id, light_id, bridge_id, payload, error, applied_at
    FROM light_update
    WHERE light_id = $1
    ORDER BY id DESC
    LIMIT $2`, lightID, limit)
	if err != nil {
		return nil, fmt.Errorf("Error reading history for light (%s): %w", lightID, err)
	}
	defer rows.Close()

	records := []models.LightUpdateRecord{}

	for rows.Next() {
		var (
			rec      models.LightUpdateRecord
			bridgeID sql.NullString
			payload  string
			errMsg   sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.LightID, &bridgeID, &payload, &errMsg, &rec.AppliedAt); err != nil {
			return nil, fmt.Errorf("Error reading history for light (%s): %w", lightID, err)
		}
		if err := json.Unmarshal([]byte(payload), &rec.Update); err != nil {
			return nil, fmt.Errorf("Error decoding update (%d) for light (%s): %w", rec.ID, lightID, err)
		}
		rec.BridgeID = bridgeID.String
		rec.Error = errMsg.String

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Error reading history for light (%s): %w", lightID, err)
	}

	return records, nil
}
