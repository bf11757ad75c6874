package catalog

import (
	"encoding/json"
	"strconv"
	"strings"
)

type keyRef struct {
	Key string `json:"key"`
}

// isbnRecord is the /isbn/{isbn}.json payload.
type isbnRecord struct {
	Works []keyRef `json:"works"`
}

// workRecord is the /works/{id}.json payload. Authors come either as
// {"author": {"key": ...}} or as a bare {"key": ...}.
type workRecord struct {
	Authors []workAuthor `json:"authors"`
}

type workAuthor struct {
	Key    string  `json:"key"`
	Author *keyRef `json:"author"`
}

func (a workAuthor) key() string {
	if a.Author != nil {
		return a.Author.Key
	}
	return a.Key
}

type authorRecord struct {
	Name string `json:"name"`
}

type editionsPage struct {
	Entries []editionEntry `json:"entries"`
}

type editionEntry struct {
	Key         string      `json:"key"`
	Title       string      `json:"title"`
	PublishDate flexStrings `json:"publish_date"`
	PublishYear flexYears   `json:"publish_year"`
	ISBN13      []string    `json:"isbn_13"`
	ISBN10      []string    `json:"isbn_10"`
	AuthorName  []string    `json:"author_name"`
}

type searchResponse struct {
	Docs []searchDoc `json:"docs"`
}

type searchDoc struct {
	Key              string      `json:"key"`
	Title            string      `json:"title"`
	AuthorName       []string    `json:"author_name"`
	PublishYear      flexYears   `json:"publish_year"`
	PublishDate      flexStrings `json:"publish_date"`
	ISBN             []string    `json:"isbn"`
	FirstPublishYear flexYears   `json:"first_publish_year"`
}

// flexYears decodes a number, a numeric string, or a list of either.
// Anything else is dropped.
type flexYears []int

func (f *flexYears) UnmarshalJSON(b []byte) error {
	var values []any
	if err := json.Unmarshal(b, &values); err != nil {
		var single any
		if err := json.Unmarshal(b, &single); err != nil {
			return nil
		}
		values = []any{single}
	}

	out := make(flexYears, 0, len(values))
	for _, v := range values {
		switch x := v.(type) {
		case float64:
			out = append(out, int(x))
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
				out = append(out, n)
			}
		}
	}
	*f = out
	return nil
}

// flexStrings decodes a string or a list of strings.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*f = list
		return nil
	}
	var single string
	if err := json.Unmarshal(b, &single); err == nil && single != "" {
		*f = flexStrings{single}
	}
	return nil
}

func (f flexStrings) first() string {
	if len(f) == 0 {
		return ""
	}
	return f[0]
}
