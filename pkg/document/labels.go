package document

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// typeLabels maps stored document type names to the labels shown in search
// results. Types absent from the table fall back to title-cased passthrough.
var typeLabels = map[string]string{
	"Legislation":               "Legislation",
	"Primary Legislation":       "Primary legislation",
	"Secondary Legislation":     "Secondary legislation",
	"Guidance":                  "Guidance",
	"Standard":                  "British standard",
	"Independent Report":        "Independent report",
	"International Designation": "International designation",
}

var titleCaser = cases.Title(language.BritishEnglish)

// TypeLabel returns the display label for a document type.
func TypeLabel(docType string) string {
	if docType == "" {
		return ""
	}
	if label, ok := typeLabels[docType]; ok {
		return label
	}
	return titleCaser.String(docType)
}
