package scan

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

func upload(t *testing.T, fs afs.Service, URL string, data []byte) {
	t.Helper()
	require.NoError(t, fs.Upload(context.Background(), URL, file.DefaultFileOsMode, bytes.NewReader(data)))
}

func TestLoaderGraphicsDir(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	base := "mem://localhost/loader/graphics"
	upload(t, fs, base+"/b.src", []byte("\\TAG2\\\nBACKGROUND\n\\TAG2\\\n"))
	upload(t, fs, base+"/a.src", []byte("\\TAG1\\"))
	upload(t, fs, base+"/notes.txt", []byte("\\IGNORED\\"))

	var mu sync.Mutex
	var files []string
	loader := NewLoader(fs, zerolog.Nop(), WithConcurrency(2), WithFileHook(func(kind string) {
		mu.Lock()
		defer mu.Unlock()
		files = append(files, kind)
	}))
	result, err := loader.LoadGraphicsDir(ctx, base)
	require.NoError(t, err)

	assert.Equal(t, []string{"TAG1", "TAG2"}, kksOf(result.Batches))
	assert.Equal(t, BackgroundIssues{{File: "b.src", Line: 3, Issues: []string{`Definition \TAG2\`}}}, result.Background)
	assert.Equal(t, []string{KindGraphics, KindGraphics}, files)
}

func TestLoaderGraphicsDirFailsOnMalformedFile(t *testing.T) {
	fs := afs.New()
	base := "mem://localhost/loader/broken"
	upload(t, fs, base+"/a.src", []byte("\\TAG ONE\\"))

	_, err := NewLoader(fs, zerolog.Nop()).LoadGraphicsDir(context.Background(), base)
	assert.ErrorIs(t, err, ErrMalformedSource)
}

func TestLoaderLogicAndHistorian(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	upload(t, fs, "mem://localhost/loader/logic/s1.xml", []byte(`<b point="TAG1"/>`))
	upload(t, fs, "mem://localhost/loader/logic/s2.XML", []byte(`<b point="TAG2"/>`))
	upload(t, fs, "mem://localhost/loader/HistorianConfig.xml", []byte(`ScanGroup_Frequency="1" Point_Name="TAG1.PV"`))

	var progress []int
	loader := NewLoader(fs, zerolog.Nop(), WithConcurrency(1), WithProgress(func(kind string, percent int) {
		if kind == KindLogic {
			progress = append(progress, percent)
		}
	}))
	logic, err := loader.LoadLogicDir(ctx, "mem://localhost/loader/logic")
	require.NoError(t, err)
	assert.Equal(t, []string{"TAG1", "TAG2"}, kksOf(logic))
	assert.Equal(t, []int{50, 100}, progress)

	historian, err := loader.LoadHistorianFile(ctx, "mem://localhost/loader/HistorianConfig.xml")
	require.NoError(t, err)
	require.Len(t, historian, 1)
	assert.Equal(t, "TAG1", historian[0].KKS())
}

func TestLoaderDecodesLegacyEncoding(t *testing.T) {
	codec, err := NewCodec("cp1251")
	require.NoError(t, err)
	assert.Equal(t, "windows-1251", codec.Name())

	encoded, err := codec.Encode(`<b point="НАСОС1"/>`)
	require.NoError(t, err)

	fs := afs.New()
	upload(t, fs, "mem://localhost/loader/cp1251/s.xml", encoded)
	logic, err := NewLoader(fs, zerolog.Nop(), WithCodec(codec)).LoadLogicDir(context.Background(), "mem://localhost/loader/cp1251")
	require.NoError(t, err)
	assert.Equal(t, []string{"НАСОС1"}, kksOf(logic))
}

func TestCodec(t *testing.T) {
	utf8, err := NewCodec("")
	require.NoError(t, err)
	text, err := utf8.Decode([]byte("\xef\xbb\xbfTAG"))
	require.NoError(t, err)
	assert.Equal(t, "TAG", text)
	out, err := utf8.Encode("TAG")
	require.NoError(t, err)
	assert.Equal(t, []byte("TAG"), out)

	_, err = NewCodec("ebcdic")
	assert.Error(t, err)
}
