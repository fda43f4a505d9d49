package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func createTestJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func TestProcessJPEG(t *testing.T) {
	data, mime, err := Process(bytes.NewReader(createTestJPEG(100, 100)))
	if err != nil {
		t.Fatalf("Process JPEG: %v", err)
	}
	if mime != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", mime)
	}
	if len(data) == 0 {
		t.Error("expected non-empty data")
	}
}

func TestProcessPNG(t *testing.T) {
	_, mime, err := Process(bytes.NewReader(createTestPNG(100, 100)))
	if err != nil {
		t.Fatalf("Process PNG: %v", err)
	}
	if mime != "image/jpeg" {
		t.Errorf("expected image/jpeg (always outputs JPEG), got %s", mime)
	}
}

func TestProcessDownscale(t *testing.T) {
	data, _, err := Process(bytes.NewReader(createTestJPEG(2048, 2048)))
	if err != nil {
		t.Fatalf("Process large image: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() > MaxDimension || bounds.Dy() > MaxDimension {
		t.Errorf("expected max %dx%d, got %dx%d", MaxDimension, MaxDimension, bounds.Dx(), bounds.Dy())
	}
}

func TestProcessSmallImageNotUpscaled(t *testing.T) {
	data, _, err := Process(bytes.NewReader(createTestJPEG(50, 50)))
	if err != nil {
		t.Fatalf("Process small image: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 50 || bounds.Dy() != 50 {
		t.Errorf("small image should not be resized: got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestProcessInvalidFormat(t *testing.T) {
	_, _, err := Process(bytes.NewReader([]byte("not an image")))
	if err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestProcessGIFRejected(t *testing.T) {
	// GIF magic bytes.
	_, _, err := Process(bytes.NewReader([]byte("GIF89a...")))
	if err == nil {
		t.Error("expected error for GIF")
	}
}
