package answer

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// assemble renders the reranked chunks as numbered context blocks and the
// parallel (pre-dedup) citation list. Block numbering follows rerank order,
// so citation markers in the generated answer refer to this ordering.
func assemble(reranked []domain.ScoredChunk) (string, []string) {
	blocks := make([]string, 0, len(reranked))
	labels := make([]string, 0, len(reranked))
	for i, sc := range reranked {
		label := sc.Chunk.Label()
		labels = append(labels, label)
		blocks = append(blocks, fmt.Sprintf("[#%d] Source: %s\n%s", i+1, label, strings.TrimSpace(sc.Chunk.Text)))
	}
	return strings.Join(blocks, "\n\n"), labels
}
