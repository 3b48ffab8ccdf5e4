package image_test

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/garyrob/pyr0/image"
)

type stubLoader struct {
	id image.Identity
}

func (s stubLoader) LoadImage(_ context.Context, elf []byte) (image.Image, error) {
	return image.Image{ID: s.id, Backend: elf}, nil
}

func TestFromELFDelegatesToLoader(t *testing.T) {
	c := qt.New(t)
	b := make([]byte, 32)
	b[0] = 9
	id, err := image.FromTrustedBytes(b)
	c.Assert(err, qt.IsNil)

	loader := stubLoader{id: id}
	img, err := image.FromELF(context.Background(), loader, []byte("elf-bytes"))
	c.Assert(err, qt.IsNil)
	c.Assert(img.ID, qt.Equals, id)
	c.Assert(img.Backend, qt.DeepEquals, []byte("elf-bytes"))
}
