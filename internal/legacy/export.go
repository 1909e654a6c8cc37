// ABOUTME: Export and import of the legacy store as a versioned snapshot.
// ABOUTME: Supports JSON, YAML, and Markdown renderings.
package legacy

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harperreed/pump/internal/models"
)

// Export formats.
const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
)

// Export reads all routines with their exercises and photos as a snapshot.
func (s *Store) Export() (*models.Snapshot, error) {
	routines, err := s.Routines()
	if err != nil {
		return nil, err
	}

	snap := models.NewSnapshot()
	for _, r := range routines {
		exercises, err := s.routineExercises(r.ID)
		if err != nil {
			return nil, err
		}

		sr := models.SnapshotRoutine{Date: r.Date, Name: r.Name, Order: r.Order, Exercises: []models.SnapshotExercise{}}
		for _, e := range exercises {
			photos, err := s.queryPhotos(`
				SELECT id, exercise_id, blob, mime_type, timestamp
				FROM exercise_photos WHERE exercise_id = ? ORDER BY id
			`, e.ID)
			if err != nil {
				return nil, err
			}

			se := models.SnapshotExercise{
				Name:          e.Name,
				Repetitions:   e.Repetitions,
				Weight:        e.Weight,
				Sets:          e.Sets,
				SetsCompleted: e.SetsCompleted,
				Time:          e.Time,
				Distance:      e.Distance,
				Order:         e.Order,
			}
			for _, p := range photos {
				se.Photos = append(se.Photos, models.SnapshotPhoto{
					Timestamp: p.Timestamp,
					Base64:    base64.StdEncoding.EncodeToString(p.Data),
					MimeType:  p.MimeType,
				})
			}
			sr.Exercises = append(sr.Exercises, se)
		}
		snap.Routines = append(snap.Routines, sr)
	}
	return snap, nil
}

// Import writes a snapshot in one transaction. Each routine is appended
// after the routines already stored on its date.
func (s *Store) Import(snap *models.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, sr := range snap.Routines {
		var maxOrder int
		if err := tx.QueryRow(`SELECT COALESCE(MAX(sort_order), 0) FROM routines WHERE date = ?`, sr.Date).Scan(&maxOrder); err != nil {
			return fmt.Errorf("import routine order: %w", err)
		}
		routineID, err := addRoutine(tx, models.LegacyRoutine{Date: sr.Date, Name: sr.Name, Order: maxOrder + 1})
		if err != nil {
			return fmt.Errorf("import routine: %w", err)
		}

		for _, se := range sr.Exercises {
			exerciseID, err := addExercise(tx, models.LegacyExercise{
				RoutineID:     routineID,
				Name:          se.Name,
				Repetitions:   se.Repetitions,
				Weight:        se.Weight,
				Sets:          se.Sets,
				SetsCompleted: se.SetsCompleted,
				Time:          se.Time,
				Distance:      se.Distance,
				Order:         se.Order,
			})
			if err != nil {
				return fmt.Errorf("import exercise: %w", err)
			}

			for _, sp := range se.Photos {
				data, err := base64.StdEncoding.DecodeString(sp.Base64)
				if err != nil {
					return fmt.Errorf("import photo %d: %w", sp.Timestamp, err)
				}
				if _, err := addPhoto(tx, exerciseID, data, sp.MimeType, sp.Timestamp); err != nil {
					return fmt.Errorf("import photo: %w", err)
				}
			}
		}
	}
	return tx.Commit()
}

// Encode renders a snapshot in the given format.
func Encode(w io.Writer, snap *models.Snapshot, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(snap))
		return err
	default:
		return fmt.Errorf("unknown export format: %s", format)
	}
}

// Decode parses a JSON or YAML snapshot.
func Decode(r io.Reader, format string) (*models.Snapshot, error) {
	var snap models.Snapshot
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&snap); err != nil {
			return nil, fmt.Errorf("unmarshal JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
			return nil, fmt.Errorf("unmarshal YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown import format: %s", format)
	}
	return &snap, nil
}

// FormatFromPath picks the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return FormatYAML
	case strings.HasSuffix(lower, ".md"):
		return FormatMarkdown
	default:
		return FormatJSON
	}
}

// BackupName is the default file name for an export.
func BackupName(snap *models.Snapshot, format string) string {
	ext := format
	if format == FormatMarkdown {
		ext = "md"
	}
	return fmt.Sprintf("pump-backup-%s.%s", snap.ExportDate, ext)
}

// Markdown renders a snapshot as a training log grouped by date.
func Markdown(snap *models.Snapshot) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Pump Export - %s\n\n", snap.ExportDate))

	lastDate := ""
	for _, r := range snap.Routines {
		if r.Date != lastDate {
			sb.WriteString(fmt.Sprintf("## %s\n\n", r.Date))
			lastDate = r.Date
		}
		sb.WriteString(fmt.Sprintf("### %s\n\n", r.Name))
		if len(r.Exercises) == 0 {
			sb.WriteString("_No exercises._\n\n")
			continue
		}
		sb.WriteString("| Exercise | Sets | Reps | Weight | Time | Distance | Photos |\n")
		sb.WriteString("|----------|------|------|--------|------|----------|--------|\n")
		for _, e := range r.Exercises {
			sb.WriteString(fmt.Sprintf("| %s | %d/%d | %d | %.1f | %s | %.2f | %d |\n",
				e.Name, e.SetsCompleted, e.Sets, e.Repetitions, e.Weight, e.Time, e.Distance, len(e.Photos)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
