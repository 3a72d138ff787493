package crm

import (
	"net/url"
	"strings"
)

// Query selects records through the search endpoint, either by criteria or
// by a free-text word.
type Query struct {
	Criteria string
	Word     string
}

var criteriaEscaper = strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`, `,`, `\,`)

// Equals matches field exactly.
func Equals(field, value string) Query {
	return Query{Criteria: "(" + field + ":equals:" + criteriaEscaper.Replace(value) + ")"}
}

// StartsWith matches a prefix of field.
func StartsWith(field, value string) Query {
	return Query{Criteria: "(" + field + ":starts_with:" + criteriaEscaper.Replace(value) + ")"}
}

// Word runs a free-text search across the module.
func Word(word string) Query {
	return Query{Word: word}
}

func (q Query) values(fields []string) url.Values {
	v := fieldsQuery(fields)
	if q.Criteria != "" {
		v.Set("criteria", q.Criteria)
	}
	if q.Word != "" {
		v.Set("word", q.Word)
	}
	return v
}
