package db

import (
	"context"
	"fmt"
	"strings"
)

// SchemaCapabilities records which optional interview_sessions columns the
// deployed schema has. Older deployments lack the richer metadata columns;
// queries select NULL in their place so those fields come back unset.
type SchemaCapabilities struct {
	Title       bool
	Category    bool
	Subcategory bool
	Difficulty  bool
	Transcript  bool
}

// FullCapabilities is the capability set of the bundled schema.
func FullCapabilities() SchemaCapabilities {
	return SchemaCapabilities{Title: true, Category: true, Subcategory: true, Difficulty: true, Transcript: true}
}

// optionalColumn pairs a column name with its capability flag.
type optionalColumn struct {
	name    string
	present bool
	null    string
}

func (c SchemaCapabilities) optional() []optionalColumn {
	return []optionalColumn{
		{"title", c.Title, "NULL::text"},
		{"category", c.Category, "NULL::text"},
		{"subcategory", c.Subcategory, "NULL::text"},
		{"difficulty", c.Difficulty, "NULL::text"},
		{"transcript", c.Transcript, "NULL::jsonb"},
	}
}

// sessionColumns returns the SELECT list for a session row. The order
// matches scanSession.
func (c SchemaCapabilities) sessionColumns() string {
	cols := []string{
		"id", "candidate_id", "interview_type", "status", "started_at", "completed_at",
		"overall_score", "skill_scores", "strengths", "improvements",
	}
	for _, oc := range c.optional() {
		if oc.present {
			cols = append(cols, oc.name)
		} else {
			cols = append(cols, oc.null)
		}
	}
	return strings.Join(cols, ", ")
}

// insertColumns returns the optional metadata columns the schema can store,
// in the order title, category, subcategory, difficulty, transcript.
func (c SchemaCapabilities) insertColumns() []string {
	var cols []string
	for _, oc := range c.optional() {
		if oc.present {
			cols = append(cols, oc.name)
		}
	}
	return cols
}

// detectCapabilities inspects information_schema once at connect time.
func (db *DB) detectCapabilities(ctx context.Context) (SchemaCapabilities, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT column_name FROM information_schema.columns
		 WHERE table_schema = current_schema() AND table_name = 'interview_sessions'`)
	if err != nil {
		return SchemaCapabilities{}, fmt.Errorf("failed to inspect schema: %w", err)
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return SchemaCapabilities{}, fmt.Errorf("failed to scan column name: %w", err)
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return SchemaCapabilities{}, fmt.Errorf("failed to inspect schema: %w", err)
	}

	return SchemaCapabilities{
		Title:       present["title"],
		Category:    present["category"],
		Subcategory: present["subcategory"],
		Difficulty:  present["difficulty"],
		Transcript:  present["transcript"],
	}, nil
}
