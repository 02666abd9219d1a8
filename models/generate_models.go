package models

import (
	"fmt"
	"log"
	"os"
	"reflect"
	"strings"

	"gorm.io/gen"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

/*
Column Mismatch Report Usage:

Set GENERATE_COLUMN_REPORT=true and start the binary. For every table backing a model
the report lists database columns that no struct field maps to, e.g.

	--- Table: projects ---
	Found 1 columns not accounted for in model:
	  - legacy_like_count
*/

// All returns every persisted model, in migration order.
func All() []any {
	return []any{
		&UserProfile{},
		&Credential{},
		&Project{},
		&Comment{},
		&Bookmark{},
		&Notification{},
	}
}

// tables maps table names to the model that owns them.
func tables() map[string]any {
	return map[string]any{
		"users":         UserProfile{},
		"credentials":   Credential{},
		"projects":      Project{},
		"comments":      Comment{},
		"bookmarks":     Bookmark{},
		"notifications": Notification{},
	}
}

// GenerateModels migrates the schema and writes gorm/gen query helpers to outPath.
func GenerateModels(db *gorm.DB, outPath string) error {
	if err := db.Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	verbose := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			LogLevel: logger.Info,
			Colorful: true,
		},
	)
	db = db.Session(&gorm.Session{
		Logger:                 verbose,
		SkipDefaultTransaction: true,
	})

	g := gen.NewGenerator(gen.Config{
		OutPath:           outPath,
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:     true,
		FieldCoverable:    true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})
	g.UseDB(db)
	g.ApplyBasic(UserProfile{}, Credential{}, Project{}, Comment{}, Bookmark{}, Notification{})

	if err := db.AutoMigrate(All()...); err != nil {
		return fmt.Errorf("error during models migration: %w", err)
	}

	GenerateColumnMismatchReport(db)

	g.Execute()
	return nil
}

// GenerateColumnMismatchReport prints database columns that aren't accounted for in Go models
func GenerateColumnMismatchReport(db *gorm.DB) int {
	fmt.Println("=== COLUMN MISMATCH REPORT ===")

	total := 0
	for tableName, model := range tables() {
		fmt.Printf("\n--- Table: %s ---\n", tableName)

		dbColumns, err := getTableColumns(db, tableName)
		if err != nil {
			fmt.Printf("Error getting columns for table %s: %v\n", tableName, err)
			continue
		}

		mismatches := FindColumnMismatches(dbColumns, ModelColumns(db, model))
		if len(mismatches) == 0 {
			fmt.Println("All columns are accounted for in the model.")
			continue
		}
		fmt.Printf("Found %d columns not accounted for in model:\n", len(mismatches))
		for _, col := range mismatches {
			fmt.Printf("  - %s\n", col)
		}
		total += len(mismatches)
	}

	fmt.Printf("\n=== SUMMARY ===\n")
	fmt.Printf("Total mismatched columns across all tables: %d\n", total)
	return total
}

func getTableColumns(db *gorm.DB, tableName string) ([]string, error) {
	var columns []string
	query := `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = ?
		AND table_schema = CURRENT_SCHEMA()
		ORDER BY ordinal_position
	`
	if err := db.Raw(query, tableName).Scan(&columns).Error; err != nil {
		return nil, fmt.Errorf("error querying columns for table %s: %w", tableName, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s does not exist", tableName)
	}
	return columns, nil
}

// ModelColumns lists the column names gorm derives for model's persisted fields.
func ModelColumns(db *gorm.DB, model any) []string {
	var fields []string
	t := reflect.TypeOf(model)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("gorm")
		if field.Anonymous || tag == "-" || strings.Contains(tag, "foreignKey:") {
			continue
		}
		if name := columnFromGormTag(tag); name != "" {
			fields = append(fields, name)
			continue
		}
		fields = append(fields, db.NamingStrategy.ColumnName("", field.Name))
	}
	return fields
}

func columnFromGormTag(gormTag string) string {
	for _, part := range strings.Split(gormTag, ";") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "column:") {
			return strings.TrimPrefix(part, "column:")
		}
	}
	return ""
}

// FindColumnMismatches returns columns that exist in the database but not in the model
func FindColumnMismatches(dbColumns, modelFields []string) []string {
	known := make(map[string]bool, len(modelFields))
	for _, field := range modelFields {
		known[field] = true
	}

	var mismatches []string
	for _, col := range dbColumns {
		if !known[col] {
			mismatches = append(mismatches, col)
		}
	}
	return mismatches
}
