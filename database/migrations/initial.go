package migrations

import (
	"gorm.io/gorm"

	"drivebox/app/models"
	"drivebox/pkg/migration"
	"drivebox/pkg/queue"
)

func init() {
	migration.Register("20260301000000_create_users_table", &CreateUsersTable{})
	migration.Register("20260301000001_create_folders_table", &CreateFoldersTable{})
	migration.Register("20260301000002_create_files_table", &CreateFilesTable{})
	migration.Register("20260301000003_create_failed_jobs_table", &CreateFailedJobsTable{})
}

// -------- 0001: users --------

type CreateUsersTable struct{}

func (m *CreateUsersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{})
}

func (m *CreateUsersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("users")
}

// -------- 0002: folders --------

// CreateFoldersTable also adds a partial unique index over live sibling
// names where the dialect supports one (sqlite, postgres). The repository
// checks the same rule inside its transactions; the index is the backstop
// for concurrent commits. Folder names are unique case-insensitively, so
// the index covers LOWER(name).
type CreateFoldersTable struct{}

func (m *CreateFoldersTable) Up(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Folder{}); err != nil {
		return err
	}

	switch db.Dialector.Name() {
	case "sqlite":
		return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uniq_live_folder_names
			ON folders (user_id, COALESCE(parent_id, 0), LOWER(name))
			WHERE is_deleted = 0`).Error
	case "postgres":
		return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uniq_live_folder_names
			ON folders (user_id, COALESCE(parent_id, 0), LOWER(name))
			WHERE NOT is_deleted`).Error
	}
	return nil
}

func (m *CreateFoldersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("folders")
}

// -------- 0003: files --------

// CreateFilesTable mirrors the folder index for live sibling file names,
// which compare case-sensitively. On MySQL the default utf8mb4 collations
// compare case-insensitively, so the name column gets a binary collation
// to keep "Notes.txt" and "notes.txt" distinct.
type CreateFilesTable struct{}

func (m *CreateFilesTable) Up(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.File{}); err != nil {
		return err
	}

	switch db.Dialector.Name() {
	case "sqlite":
		return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uniq_live_file_names
			ON files (user_id, COALESCE(folder_id, 0), name)
			WHERE is_deleted = 0`).Error
	case "postgres":
		return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uniq_live_file_names
			ON files (user_id, COALESCE(folder_id, 0), name)
			WHERE NOT is_deleted`).Error
	case "mysql":
		return db.Exec(`ALTER TABLE files
			MODIFY name VARCHAR(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL`).Error
	}
	return nil
}

func (m *CreateFilesTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("files")
}

// -------- 0004: failed jobs --------

type CreateFailedJobsTable struct{}

func (m *CreateFailedJobsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&queue.FailedJobRecord{})
}

func (m *CreateFailedJobsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("drivebox_failed_jobs")
}
