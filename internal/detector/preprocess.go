package detector

import (
	"fmt"
	"image"
	"os"

	// Decoders for the supported upload formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// ImageNet normalization constants, matching the model's training pipeline.
var (
	imagenetMean = [3]float32{0.485, 0.456, 0.406}
	imagenetStd  = [3]float32{0.229, 0.224, 0.225}
)

// decodeImage opens and decodes an image file.
func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// preprocessImage decodes the image, scales it to size x size with bilinear
// interpolation and returns a normalized NCHW float32 tensor (1x3xNxN,
// flattened) ready for the model.
func preprocessImage(path string, size int) ([]float32, error) {
	img, err := decodeImage(path)
	if err != nil {
		return nil, err
	}

	scaled := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)

	plane := size * size
	data := make([]float32, 3*plane)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := scaled.At(x, y).RGBA()
			i := y*size + x
			data[i] = (float32(r>>8)/255 - imagenetMean[0]) / imagenetStd[0]
			data[plane+i] = (float32(g>>8)/255 - imagenetMean[1]) / imagenetStd[1]
			data[2*plane+i] = (float32(b>>8)/255 - imagenetMean[2]) / imagenetStd[2]
		}
	}
	return data, nil
}
