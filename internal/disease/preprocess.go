package disease

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// InputSize is the square edge length the disease model was trained on.
const InputSize = 224

// Preprocess decodes a JPEG or PNG image, scales it to InputSize×InputSize
// and returns a row-major RGB tensor with values normalized to [0, 1], the
// input layout the remote model expects.
func Preprocess(data []byte) ([]float32, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, InputSize, InputSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	tensor := make([]float32, InputSize*InputSize*3)
	i := 0
	for y := 0; y < InputSize; y++ {
		for x := 0; x < InputSize; x++ {
			o := dst.PixOffset(x, y)
			tensor[i] = float32(dst.Pix[o]) / 255
			tensor[i+1] = float32(dst.Pix[o+1]) / 255
			tensor[i+2] = float32(dst.Pix[o+2]) / 255
			i += 3
		}
	}
	return tensor, nil
}
