package flattener

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// ParseError reports a value in the export that could not be coerced into the
// expected type. It aborts the import of the file it occurred in.
type ParseError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s value %q: %s", e.Field, e.Value, e.Reason)
}

// fileNumberPattern matches the date_sequence portion of a source filename,
// e.g. "20210501_002" in "ci_20210501_002.zip".
var fileNumberPattern = regexp.MustCompile(`\d{8}_\d{3}`)

// publishedOnLayouts are tried in order after the provider's "UTC" marker has
// been replaced with a "Z" designator.
var publishedOnLayouts = []string{
	"2006-01-02 15:04:05 Z07:00",
	"2006-01-02 15:04:05Z07:00",
	time.RFC3339,
}

// Flattener converts a provider XML export into flat records, one per
// post/topic pair.
type Flattener struct {
	now func() time.Time
}

// NewFlattener creates a new export flattener
func NewFlattener() *Flattener {
	return &Flattener{now: time.Now}
}

// Flatten reads a single XML document and returns the fully materialized
// record batch. The filename is validated once, before any post is decoded;
// a mid-document ParseError returns no records at all, so the loader never
// sees a partial batch.
func (f *Flattener) Flatten(r io.Reader, filename string) ([]FlatRecord, error) {
	fileNumber := fileNumberPattern.FindString(filename)
	if fileNumber == "" {
		return nil, &ParseError{
			Field:  "filename",
			Value:  filename,
			Reason: "expected an 8-digit date and 3-digit sequence (YYYYMMDD_NNN)",
		}
	}

	decoder := xml.NewDecoder(r)
	// Provider exports occasionally contain stray control characters and
	// non-UTF-8 declarations; neither may abort the whole file.
	decoder.Strict = false
	decoder.CharsetReader = charset.NewReaderLabel

	var records []FlatRecord
	var stack []string

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read XML token: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			// A post counts wherever it sits, as long as its direct
			// parent is a posts container.
			if t.Name.Local == "post" && len(stack) > 0 && stack[len(stack)-1] == "posts" {
				var post xmlPost
				if err := decoder.DecodeElement(&post, &t); err != nil {
					return nil, fmt.Errorf("failed to decode post element: %w", err)
				}
				recs, err := f.flattenPost(post, fileNumber)
				if err != nil {
					return nil, err
				}
				records = append(records, recs...)
				// DecodeElement consumed the matching end tag.
				continue
			}
			stack = append(stack, t.Name.Local)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	return records, nil
}

// flattenPost expands one post into one record per topic. A post without
// topics contributes nothing.
func (f *Flattener) flattenPost(post xmlPost, fileNumber string) ([]FlatRecord, error) {
	publishedOn, err := parsePublishedOn(post.PublishedOn)
	if err != nil {
		return nil, err
	}

	birthYear, err := parseOptionalInt("author birth_year", post.Author.BirthYear)
	if err != nil {
		return nil, err
	}
	influence, err := parseOptionalInt("author klout_score", post.Author.KloutScore)
	if err != nil {
		return nil, err
	}
	followers, err := parseOptionalInt("author followers_count", post.Author.FollowersCount)
	if err != nil {
		return nil, err
	}

	base := FlatRecord{
		Title:           post.Title,
		Link:            post.Link,
		MessageID:       post.MessageID,
		PublishedOn:     publishedOn,
		SourceType:      post.SourceType,
		AuthorName:      post.Author.Name,
		AuthorCountry:   post.Author.Country,
		AuthorState:     post.Author.State,
		AuthorCity:      post.Author.City,
		AuthorBirthYear: birthYear,
		AuthorGender:    post.Author.Gender,
		InfluenceScore:  influence,
		FollowersCount:  followers,
		FileNumber:      fileNumber,
	}

	var records []FlatRecord
	for _, topic := range post.Topics {
		rec := base.clone()
		rec.TopicName = topic.Name
		rec.TopicID, err = parseOptionalInt("topic id", topic.ID)
		if err != nil {
			return nil, err
		}
		rec.TopicRank = 0
		rec.TopicTonality = 0.0

		// Snippets and dimensions deliberately overwrite instead of
		// fanning out further: the record keeps the last snippet of the
		// topic and the last dimension of that snippet.
		for _, snippet := range topic.Snippets {
			rec.SnippetID, err = parseOptionalInt64("snippet id", snippet.ID)
			if err != nil {
				return nil, err
			}
			rec.SnippetText = snippet.Text
			rec.SnippetReadability = snippet.Readability
			rec.SnippetTonality, err = parseOptionalInt("snippet tonality", snippet.Tonality)
			if err != nil {
				return nil, err
			}
			rec.SnippetAnchor = snippet.Anchor

			for _, dimension := range snippet.Dimensions {
				rec.DimensionID, err = parseOptionalInt("dimension id", dimension.ID)
				if err != nil {
					return nil, err
				}
				rec.DimensionName = dimension.Name
			}
		}

		rec.CreatedAt = f.now()
		records = append(records, rec)
	}

	return records, nil
}

// parsePublishedOn normalizes the provider's "UTC" timezone marker to an
// ISO-8601 "Z" designator and parses the result as an offset-aware timestamp.
func parsePublishedOn(raw string) (time.Time, error) {
	normalized := strings.Replace(strings.TrimSpace(raw), "UTC", "Z", 1)

	for _, layout := range publishedOnLayouts {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t, nil
		}
	}

	return time.Time{}, &ParseError{
		Field:  "published_on",
		Value:  raw,
		Reason: "not a valid timestamp",
	}
}

// parseOptionalInt maps an absent or empty element to nil and anything else
// to a parsed integer.
func parseOptionalInt(field, raw string) (*int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(trimmed)
	if err != nil {
		return nil, &ParseError{Field: field, Value: raw, Reason: "not an integer"}
	}
	return &v, nil
}

func parseOptionalInt64(field, raw string) (*int64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return nil, &ParseError{Field: field, Value: raw, Reason: "not an integer"}
	}
	return &v, nil
}
