package database

import (
	"fmt"

	"github.com/lib/pq"

	"github.com/mediapulse/socimport/app/flattener"
)

// postColumns lists the social_posts columns populated by a bulk load, in
// the order StoreBatch supplies them.
var postColumns = []string{
	"title", "link", "message_id", "published_on", "source_type",
	"author_name", "author_country", "author_state", "author_city",
	"author_birth_year", "author_gender", "influence_score", "followers_count",
	"file_number",
	"topic_name", "topic_id", "topic_rank", "topic_tonality",
	"snippet_id", "snippet_text", "snippet_readability", "snippet_tonality", "snippet_anchor",
	"dimension_id", "dimension_name",
	"created_at",
}

// PostRepository handles database operations for flattened post records
type PostRepository struct {
	db *DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *DB) *PostRepository {
	return &PostRepository{db: db}
}

// StoreBatch commits a record batch in a single transaction using the
// PostgreSQL COPY protocol. Either every record lands or none does; callers
// gate the import log write on this guarantee.
func (r *PostRepository) StoreBatch(records []flattener.FlatRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(pq.CopyIn("social_posts", postColumns...))
	if err != nil {
		return fmt.Errorf("failed to prepare bulk copy: %w", err)
	}

	for i, rec := range records {
		_, err := stmt.Exec(
			rec.Title, rec.Link, rec.MessageID, rec.PublishedOn, rec.SourceType,
			rec.AuthorName, rec.AuthorCountry, rec.AuthorState, rec.AuthorCity,
			nullableInt(rec.AuthorBirthYear), rec.AuthorGender,
			nullableInt(rec.InfluenceScore), nullableInt(rec.FollowersCount),
			rec.FileNumber,
			rec.TopicName, nullableInt(rec.TopicID), rec.TopicRank, rec.TopicTonality,
			nullableInt64(rec.SnippetID), rec.SnippetText, rec.SnippetReadability,
			nullableInt(rec.SnippetTonality), rec.SnippetAnchor,
			nullableInt(rec.DimensionID), rec.DimensionName,
			rec.CreatedAt,
		)
		if err != nil {
			stmt.Close()
			return fmt.Errorf("failed to buffer record %d: %w", i, err)
		}
	}

	// Flush the COPY buffer.
	if _, err := stmt.Exec(); err != nil {
		stmt.Close()
		return fmt.Errorf("failed to flush bulk copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("failed to close bulk copy statement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit record batch: %w", err)
	}

	return nil
}

// Count returns the total number of stored post records
func (r *PostRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM social_posts").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

// CountByFileNumber returns the number of records loaded from one source file
func (r *PostRepository) CountByFileNumber(fileNumber string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM social_posts WHERE file_number = $1", fileNumber).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count posts by file number: %w", err)
	}
	return count, nil
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
