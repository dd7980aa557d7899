package snap

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "github.com/gen2brain/avif"
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
)

type inputKind int

const (
	inputNone inputKind = iota
	inputPath
	inputBytes
	inputImage
)

// Input is a tagged image source: a file path, encoded bytes, or an
// in-memory image. The zero value is invalid and is rejected with
// ErrUnsupportedInput.
type Input struct {
	kind inputKind
	path string
	data []byte
	img  image.Image
}

func FromPath(path string) Input {
	return Input{kind: inputPath, path: path}
}

func FromBytes(data []byte) Input {
	return Input{kind: inputBytes, data: data}
}

func FromImage(img image.Image) Input {
	return Input{kind: inputImage, img: img}
}

// Decode loads the input and normalizes it to RGB pixel data.
func (in Input) Decode() (*image.NRGBA, error) {
	switch in.kind {
	case inputPath:
		f, err := os.Open(in.path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedInput, err)
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedInput, err)
		}
		return imaging.Clone(img), nil
	case inputBytes:
		img, _, err := image.Decode(bytes.NewReader(in.data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedInput, err)
		}
		return imaging.Clone(img), nil
	case inputImage:
		if in.img == nil {
			return nil, ErrUnsupportedInput
		}
		return imaging.Clone(in.img), nil
	default:
		return nil, ErrUnsupportedInput
	}
}
