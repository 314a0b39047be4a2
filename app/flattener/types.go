package flattener

import "time"

// FlatRecord is one denormalized row produced from a post/topic pair.
// Snippet and dimension fields hold the last snippet/dimension visited under
// the topic; earlier ones are overwritten during traversal.
type FlatRecord struct {
	Title       string
	Link        string
	MessageID   string
	PublishedOn time.Time
	SourceType  string

	AuthorName      string
	AuthorCountry   string
	AuthorState     string
	AuthorCity      string
	AuthorBirthYear *int
	AuthorGender    string
	InfluenceScore  *int
	FollowersCount  *int

	FileNumber string // date_sequence portion of the source filename

	TopicName     string
	TopicID       *int
	TopicRank     int     // reserved, always 0
	TopicTonality float64 // reserved, always 0.0

	SnippetID          *int64
	SnippetText        string
	SnippetReadability string
	SnippetTonality    *int
	SnippetAnchor      string

	DimensionID   *int
	DimensionName string

	CreatedAt time.Time
}

// clone returns an independent copy of the record. Pointer fields are
// reallocated so that no two topic records share memory.
func (r FlatRecord) clone() FlatRecord {
	c := r
	c.AuthorBirthYear = copyInt(r.AuthorBirthYear)
	c.InfluenceScore = copyInt(r.InfluenceScore)
	c.FollowersCount = copyInt(r.FollowersCount)
	c.TopicID = copyInt(r.TopicID)
	c.SnippetID = copyInt64(r.SnippetID)
	c.SnippetTonality = copyInt(r.SnippetTonality)
	c.DimensionID = copyInt(r.DimensionID)
	return c
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// xmlPost mirrors the provider's export schema. Numeric fields are decoded as
// strings so that empty elements can be distinguished from zero values.
type xmlPost struct {
	Title       string     `xml:"title"`
	Link        string     `xml:"link"`
	MessageID   string     `xml:"message_id"`
	PublishedOn string     `xml:"published_on"`
	SourceType  string     `xml:"source_type"`
	Author      xmlAuthor  `xml:"author"`
	Topics      []xmlTopic `xml:"topics>topic"`
}

type xmlAuthor struct {
	Name           string `xml:"name"`
	Country        string `xml:"country"`
	State          string `xml:"state"`
	City           string `xml:"city"`
	BirthYear      string `xml:"birth_year"`
	Gender         string `xml:"gender"`
	KloutScore     string `xml:"klout_score"`
	FollowersCount string `xml:"followers_count"`
}

type xmlTopic struct {
	Name     string       `xml:"name,attr"`
	ID       string       `xml:"id,attr"`
	Snippets []xmlSnippet `xml:"snippets>snippet"`
}

type xmlSnippet struct {
	ID          string         `xml:"id"`
	Text        string         `xml:"text"`
	Readability string         `xml:"readability"`
	Tonality    string         `xml:"tonality"`
	Anchor      string         `xml:"anchor"`
	Dimensions  []xmlDimension `xml:"dimensions>dimension"`
}

type xmlDimension struct {
	ID   string `xml:"id"`
	Name string `xml:"name"`
}
