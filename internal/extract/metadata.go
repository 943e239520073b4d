package extract

import (
	"regexp"
	"strings"
)

// Metadata is the guideline front-matter detected during extraction.
type Metadata struct {
	Title           string `json:"title"`
	Agency          string `json:"agency"`
	DocumentID      string `json:"document_id"`
	Version         string `json:"version"`
	PublicationDate string `json:"publication_date"`
	Checksum        string `json:"file_checksum"`
	SourceFileID    string `json:"source_file_id"`
}

var docIDPattern = regexp.MustCompile(`(EMA/\S+/\d+|CHMP/\S+/\d+|CPMP/\S+/\d+|ICH\s+\S+)`)
var versionPattern = regexp.MustCompile(`(?i)(?:revision|version|rev\.?)\s*(\d+[.\d]*)`)
var datePattern = regexp.MustCompile(`(\d{1,2}\s+\w+\s+\d{4}|\w+\s+\d{4}|\d{4}-\d{2}-\d{2})`)

// detectMetadata scrapes title, agency, document id, version and date from
// the first pages of the document.
func detectMetadata(pages []Page, sourceFileID, checksum string) Metadata {
	n := len(pages)
	if n > 5 {
		n = 5
	}
	var sb strings.Builder
	for _, p := range pages[:n] {
		sb.WriteString(p.Text)
		sb.WriteString("\n")
	}
	front := sb.String()

	meta := Metadata{
		Agency:       "EMA", // default, refined below
		Checksum:     checksum,
		SourceFileID: sourceFileID,
	}

	for _, line := range strings.Split(strings.TrimSpace(front), "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 20 && !strings.HasPrefix(line, "Page") {
			meta.Title = line
			break
		}
	}

	lower := strings.ToLower(front)
	switch {
	case strings.Contains(lower, "ema") || strings.Contains(lower, "european medicines agency"):
		meta.Agency = "EMA"
	case strings.Contains(lower, "fda") || strings.Contains(lower, "food and drug administration"):
		meta.Agency = "FDA"
	case strings.Contains(lower, "ich"):
		meta.Agency = "ICH"
	}

	if m := docIDPattern.FindStringSubmatch(front); m != nil {
		meta.DocumentID = m[1]
	}
	if m := versionPattern.FindStringSubmatch(front); m != nil {
		meta.Version = "Revision " + m[1]
	}
	if m := datePattern.FindStringSubmatch(front); m != nil {
		meta.PublicationDate = m[1]
	}
	return meta
}
