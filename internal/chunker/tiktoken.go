package chunker

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TiktokenTokenizer adapts a tiktoken BPE encoding to the Tokenizer contract.
// Construction loads the encoding tables and is expensive; build one per
// process and share it (it is safe for concurrent use).
type TiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenTokenizer loads the named encoding, e.g. "cl100k_base".
func NewTiktokenTokenizer(encoding string) (*TiktokenTokenizer, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %q: %w", encoding, err)
	}
	return &TiktokenTokenizer{enc: enc}, nil
}

func (t *TiktokenTokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *TiktokenTokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}
