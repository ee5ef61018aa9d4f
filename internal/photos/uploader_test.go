package photos

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = b
	return &s3.PutObjectOutput{}, nil
}

func pngOf(w, h int) *bytes.Buffer {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return &buf
}

func TestFit(t *testing.T) {
	small := image.NewRGBA(image.Rect(0, 0, 100, 50))
	if Fit(small, 512) != image.Image(small) {
		t.Fatal("small image should be returned as is")
	}

	wide := Fit(image.NewRGBA(image.Rect(0, 0, 2048, 1024)), 512).Bounds()
	if wide.Dx() != 512 || wide.Dy() != 256 {
		t.Fatalf("wide = %v", wide)
	}

	tall := Fit(image.NewRGBA(image.Rect(0, 0, 600, 1200)), 512).Bounds()
	if tall.Dx() != 256 || tall.Dy() != 512 {
		t.Fatalf("tall = %v", tall)
	}
}

func TestUploadStoresWebP(t *testing.T) {
	putter := &fakePutter{}
	u := NewUploader(putter, "photos", "https://cdn.example.com/")

	url, err := u.Upload(context.Background(), "b1", pngOf(800, 600))
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(url, "https://cdn.example.com/barbers/b1/") || !strings.HasSuffix(url, ".webp") {
		t.Fatalf("url = %s", url)
	}
	if *putter.input.Bucket != "photos" || *putter.input.ContentType != "image/webp" {
		t.Fatalf("unexpected put %+v", putter.input)
	}
	if len(putter.body) < 12 || string(putter.body[0:4]) != "RIFF" || string(putter.body[8:12]) != "WEBP" {
		t.Fatal("stored object is not webp")
	}
}

func TestUploadRejectsGarbage(t *testing.T) {
	u := NewUploader(&fakePutter{}, "photos", "")

	_, err := u.Upload(context.Background(), "b1", strings.NewReader("not an image"))
	if !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("expected unsupported image, got %v", err)
	}
}
