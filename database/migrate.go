package database

import (
	"fmt"

	"github.com/rpupo63/projecthub-backend/models"
	"gorm.io/gorm"
)

const notifyTriggerSQL = `
CREATE OR REPLACE FUNCTION notify_notifications_changed() RETURNS trigger AS $$
DECLARE
	uid uuid;
BEGIN
	IF TG_OP = 'DELETE' THEN
		uid := OLD.user_id;
	ELSE
		uid := NEW.user_id;
	END IF;
	PERFORM pg_notify('` + NotificationsChannel + `', uid::text);
	RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS notifications_changed ON notifications;
DROP TRIGGER IF EXISTS notifications_updated ON notifications;

CREATE TRIGGER notifications_changed
AFTER INSERT OR DELETE ON notifications
FOR EACH ROW EXECUTE FUNCTION notify_notifications_changed();

CREATE TRIGGER notifications_updated
AFTER UPDATE ON notifications
FOR EACH ROW
WHEN (OLD.* IS DISTINCT FROM NEW.*)
EXECUTE FUNCTION notify_notifications_changed();
`

// Migrate creates or updates every table and installs the notifications NOTIFY trigger.
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		return fmt.Errorf("enable pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec(notifyTriggerSQL).Error; err != nil {
		return fmt.Errorf("install notification trigger: %w", err)
	}
	return nil
}
