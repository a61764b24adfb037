package dbid

import (
	"bytes"
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

// Write serializes the tree and stores it at URL through the given file
// service. encode, when not nil, converts the text to the target encoding.
func Write(ctx context.Context, fs afs.Service, URL string, t *Tree, encode func(string) ([]byte, error)) error {
	text := Serialize(t)
	var data []byte
	if encode == nil {
		data = []byte(text)
	} else {
		var err error
		if data, err = encode(text); err != nil {
			return fmt.Errorf("failed to encode %v: %w", URL, err)
		}
	}
	if err := fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %v: %w", URL, err)
	}
	return nil
}
