package document

import "context"

// Extractor turns raw document bytes into plain text. The file name's
// extension selects the format.
type Extractor interface {
	Extract(ctx context.Context, data []byte, fileName string) (string, error)
	ExtractFile(ctx context.Context, path, fileName string) (string, error)
}
