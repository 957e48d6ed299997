package domain

// IngestStatus is the terminal status of an ingest run.
type IngestStatus string

const (
	IngestSuccess IngestStatus = "success"
	IngestError   IngestStatus = "error"
)

// IngestResult is the structured outcome of one ingest run.
type IngestResult struct {
	Status  IngestStatus
	Message string
}

// AnswerResult is the outcome of one answer run: the synthesized answer text
// and the deduplicated citation labels, in first-occurrence order.
type AnswerResult struct {
	Answer  string
	Sources []string
}

// DedupSources deduplicates citation labels while preserving the order of
// first occurrence.
func DedupSources(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	uniq := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		uniq = append(uniq, l)
	}
	return uniq
}
