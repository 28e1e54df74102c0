package scripture

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// StoreConfig describes where and how to load a scripture corpus file.
type StoreConfig struct {
	Path   string
	Source Source
}

// candidate table and column names, in preference order. Corpus files in the
// wild vary; the loader inspects what is actually present.
var (
	lineTableNames  = []string{"lines", "gurbani_lines", "line", "shabad_lines"}
	textColumnNames = []string{"gurmukhi", "text", "line", "gurbani", "line_text"}
	idColumnNames   = []string{"id", "line_id"}
	angColumnNames  = []string{"source_page", "ang", "page", "page_number"}
)

// loadLines opens the corpus file read-only and scans every line row,
// tolerating schema variations. Rows missing the required minimum
// (line id and gurmukhi text) are skipped and logged, never fatal.
func loadLines(ctx context.Context, cfg StoreConfig) ([]Line, error) {
	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, &UnavailableError{Path: cfg.Path, Err: err}
	}

	db, err := gorm.Open(sqlite.Open("file:"+cfg.Path+"?mode=ro"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, &UnavailableError{Path: cfg.Path, Err: err}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, &UnavailableError{Path: cfg.Path, Err: err}
	}
	defer sqlDB.Close()

	table, err := findLineTable(db)
	if err != nil {
		return nil, &UnavailableError{Path: cfg.Path, Err: err}
	}

	columns, err := tableColumns(db, table)
	if err != nil {
		return nil, &UnavailableError{Path: cfg.Path, Err: err}
	}
	textCol := firstPresent(columns, textColumnNames)
	idCol := firstPresent(columns, idColumnNames)
	if textCol == "" || idCol == "" {
		return nil, &UnavailableError{
			Path: cfg.Path,
			Err:  fmt.Errorf("table %q lacks required columns (need one of %v and %v)", table, idColumnNames, textColumnNames),
		}
	}

	var rows []map[string]any
	if err := db.WithContext(ctx).Table(table).Find(&rows).Error; err != nil {
		return nil, &UnavailableError{Path: cfg.Path, Err: err}
	}

	lines := make([]Line, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		line, ok := rowToLine(row, idCol, textCol, cfg.Source)
		if !ok {
			skipped++
			continue
		}
		lines = append(lines, line)
	}
	if skipped > 0 {
		slog.WarnContext(ctx, "scripture: skipped corrupt rows",
			slog.String("path", cfg.Path),
			slog.Int("skipped", skipped),
		)
	}
	slog.InfoContext(ctx, "scripture: corpus loaded",
		slog.String("path", cfg.Path),
		slog.String("source", string(cfg.Source)),
		slog.Int("lines", len(lines)),
	)
	return lines, nil
}

func findLineTable(db *gorm.DB) (string, error) {
	var tables []string
	err := db.Raw("SELECT name FROM sqlite_master WHERE type = 'table'").Scan(&tables).Error
	if err != nil {
		return "", err
	}
	present := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		present[t] = struct{}{}
	}
	for _, name := range lineTableNames {
		if _, ok := present[name]; ok {
			return name, nil
		}
	}
	return "", fmt.Errorf("no line table found (tables: %v)", tables)
}

func tableColumns(db *gorm.DB, table string) (map[string]struct{}, error) {
	cols, err := db.Migrator().ColumnTypes(table)
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		out[c.Name()] = struct{}{}
	}
	return out, nil
}

func firstPresent(columns map[string]struct{}, candidates []string) string {
	for _, c := range candidates {
		if _, ok := columns[c]; ok {
			return c
		}
	}
	return ""
}

func rowToLine(row map[string]any, idCol, textCol string, source Source) (Line, bool) {
	id := stringValue(row[idCol])
	gurmukhi := stringValue(row[textCol])
	if id == "" || gurmukhi == "" {
		return Line{}, false
	}

	line := Line{
		ID:       id,
		Source:   source,
		Gurmukhi: gurmukhi,
	}
	for _, key := range angColumnNames {
		if v, ok := row[key]; ok {
			if ang, ok := intValue(v); ok {
				line.Ang = ang
				break
			}
		}
	}
	for _, key := range []string{"roman", "transliteration", "pronunciation"} {
		if v := stringValue(row[key]); v != "" {
			line.Roman = v
			break
		}
	}
	for _, key := range []string{"raag", "raag_name", "section"} {
		if v := stringValue(row[key]); v != "" {
			line.Raag = v
			break
		}
	}
	for _, key := range []string{"author", "writer", "writer_name"} {
		if v := stringValue(row[key]); v != "" {
			line.Author = v
			break
		}
	}
	for _, key := range []string{"shabad_id", "shabad"} {
		if v := stringValue(row[key]); v != "" {
			line.ShabadID = v
			break
		}
	}
	for _, key := range []string{"order_id", "line_position", "position", "line_order"} {
		if v, ok := row[key]; ok {
			if pos, ok := intValue(v); ok {
				line.LinePosition = pos
				break
			}
		}
	}
	return line, true
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatInt(int64(t), 10)
	default:
		return ""
	}
}

func intValue(v any) (int, bool) {
	switch t := v.(type) {
	case int64:
		return int(t), true
	case int:
		return t, true
	case float64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0, false
		}
		return n, true
	case []byte:
		n, err := strconv.Atoi(string(t))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
