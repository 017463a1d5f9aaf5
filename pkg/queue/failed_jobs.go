package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// FailedJobRecord is the row written for every job that exhausted its
// retries, so operators can inspect and replay them.
type FailedJobRecord struct {
	ID       uint      `gorm:"primaryKey;autoIncrement"`
	JobType  string    `gorm:"size:255;not null;index"`
	Payload  string    `gorm:"type:text;not null"`
	Error    string    `gorm:"type:text"`
	Attempts int       `gorm:"not null;default:0"`
	FailedAt time.Time `gorm:"autoCreateTime"`
}

func (FailedJobRecord) TableName() string { return "drivebox_failed_jobs" }

var failedJobDB *gorm.DB

// UseDB enables database persistence for failed jobs. The table itself is
// created by the migrations; call once after the database is connected.
func UseDB(db *gorm.DB) {
	failedJobDB = db
}

// persistFailed appends to the in-memory log and, when configured, writes
// the database record.
func (m *Manager) persistFailed(job Job, typeName string, lastErr error, attempts int) {
	m.mu.Lock()
	m.failed = append(m.failed, FailedJob{
		Job: job, Err: lastErr, FailedAt: time.Now(), Attempts: attempts,
	})
	m.mu.Unlock()

	if failedJobDB == nil {
		return
	}

	payload, err := json.Marshal(job)
	if err != nil {
		payload = []byte(fmt.Sprintf(`{"error": "could not marshal: %v"}`, err))
	}

	record := FailedJobRecord{
		JobType:  typeName,
		Payload:  string(payload),
		Error:    lastErr.Error(),
		Attempts: attempts,
		FailedAt: time.Now(),
	}
	if err := failedJobDB.Create(&record).Error; err != nil {
		// non-fatal: the in-memory log still has the failure
		fmt.Printf("queue: failed to persist failed job %s: %v\n", typeName, err)
	}
}
