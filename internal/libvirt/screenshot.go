package libvirt

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strconv"
)

// toPNG converts a screenshot stream to PNG. QEMU answers with either PNG
// or binary PPM (P6) depending on its version.
func toPNG(mime string, data []byte) ([]byte, error) {
	if mime == "image/png" || bytes.HasPrefix(data, []byte("\x89PNG")) {
		return data, nil
	}

	img, err := decodePPM(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s screenshot: %w", mime, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// decodePPM reads a binary PPM image with 8-bit samples.
func decodePPM(r io.Reader) (image.Image, error) {
	br := bufio.NewReader(r)

	magic, err := ppmToken(br)
	if err != nil {
		return nil, err
	}
	if magic != "P6" {
		return nil, fmt.Errorf("unsupported image format %q", magic)
	}

	var header [3]int
	for i := range header {
		tok, err := ppmToken(br)
		if err != nil {
			return nil, err
		}
		header[i], err = strconv.Atoi(tok)
		if err != nil || header[i] <= 0 {
			return nil, fmt.Errorf("invalid PPM header value %q", tok)
		}
	}
	width, height, maxVal := header[0], header[1], header[2]
	if maxVal > 255 {
		return nil, fmt.Errorf("16-bit PPM is not supported")
	}

	pixels := make([]byte, width*height*3)
	if _, err := io.ReadFull(br, pixels); err != nil {
		return nil, fmt.Errorf("truncated PPM data: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 3
			img.SetRGBA(x, y, color.RGBA{
				R: scale(pixels[i], maxVal),
				G: scale(pixels[i+1], maxVal),
				B: scale(pixels[i+2], maxVal),
				A: 0xff,
			})
		}
	}
	return img, nil
}

func scale(v byte, maxVal int) uint8 {
	if maxVal == 255 {
		return v
	}
	return uint8(int(v) * 255 / maxVal)
}

// ppmToken returns the next whitespace separated header token, skipping
// comments. It consumes exactly one whitespace byte after the token.
func ppmToken(br *bufio.Reader) (string, error) {
	var tok []byte
	for {
		b, err := br.ReadByte()
		if err != nil {
			return "", fmt.Errorf("truncated PPM header: %w", err)
		}
		switch {
		case b == '#' && len(tok) == 0:
			if _, err := br.ReadString('\n'); err != nil {
				return "", fmt.Errorf("truncated PPM header: %w", err)
			}
		case b == ' ' || b == '\t' || b == '\n' || b == '\r':
			if len(tok) > 0 {
				return string(tok), nil
			}
		default:
			tok = append(tok, b)
		}
	}
}
