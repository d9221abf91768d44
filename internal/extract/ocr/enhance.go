package ocr

import (
	"image"
	"image/color"
	"math"
)

// minEnhanceHeight is the floor resample height for scanned pages, chosen
// so tesseract has enough resolution on small source renders.
const minEnhanceHeight = 2000

// enhance resamples small renders up to minEnhanceHeight and applies a
// gamma, brightness/saturation, normalization, sharpening, and contrast
// pass intended to make scanned text more legible to tesseract.
func enhance(src image.Image) image.Image {
	img := resizeToHeight(src, minEnhanceHeight)
	img = adjustGamma(img, 1.1)
	img = adjustBrightnessSaturation(img, 1.05, 1.1)
	img = normalize(img)
	img = unsharpMask(img, 1.0)
	img = contrastThreshold(img)
	return img
}

func resizeToHeight(src image.Image, minHeight int) *image.NRGBA {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if h >= minHeight || h == 0 {
		return toNRGBA(src)
	}

	scale := float64(minHeight) / float64(h)
	newW := int(float64(w) * scale)
	newH := minHeight

	dst := image.NewNRGBA(image.Rect(0, 0, newW, newH))
	for y := 0; y < newH; y++ {
		srcY := float64(y) / scale
		for x := 0; x < newW; x++ {
			srcX := float64(x) / scale
			dst.Set(x, y, bilinearAt(src, srcX, srcY))
		}
	}
	return dst
}

func bilinearAt(src image.Image, x, y float64) color.NRGBA {
	bounds := src.Bounds()
	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	x1, y1 := x0+1, y0+1
	clamp := func(v, lo, hi int) int {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	x0 = clamp(x0, bounds.Min.X, bounds.Max.X-1)
	x1 = clamp(x1, bounds.Min.X, bounds.Max.X-1)
	y0 = clamp(y0, bounds.Min.Y, bounds.Max.Y-1)
	y1 = clamp(y1, bounds.Min.Y, bounds.Max.Y-1)

	fx, fy := x-math.Floor(x), y-math.Floor(y)

	c00 := color.NRGBAModel.Convert(src.At(x0, y0)).(color.NRGBA)
	c10 := color.NRGBAModel.Convert(src.At(x1, y0)).(color.NRGBA)
	c01 := color.NRGBAModel.Convert(src.At(x0, y1)).(color.NRGBA)
	c11 := color.NRGBAModel.Convert(src.At(x1, y1)).(color.NRGBA)

	lerp := func(a, b uint8, t float64) uint8 {
		return uint8(float64(a)*(1-t) + float64(b)*t)
	}
	top := color.NRGBA{
		R: lerp(c00.R, c10.R, fx), G: lerp(c00.G, c10.G, fx),
		B: lerp(c00.B, c10.B, fx), A: lerp(c00.A, c10.A, fx),
	}
	bottom := color.NRGBA{
		R: lerp(c01.R, c11.R, fx), G: lerp(c01.G, c11.G, fx),
		B: lerp(c01.B, c11.B, fx), A: lerp(c01.A, c11.A, fx),
	}
	return color.NRGBA{
		R: lerp(top.R, bottom.R, fy), G: lerp(top.G, bottom.G, fy),
		B: lerp(top.B, bottom.B, fy), A: lerp(top.A, bottom.A, fy),
	}
}

func toNRGBA(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dst.Set(x, y, src.At(x, y))
		}
	}
	return dst
}

func adjustGamma(img *image.NRGBA, gamma float64) *image.NRGBA {
	invGamma := 1.0 / gamma
	lut := buildLUT(func(v float64) float64 {
		return math.Pow(v/255, invGamma) * 255
	})
	return mapChannels(img, lut)
}

func adjustBrightnessSaturation(img *image.NRGBA, brightness, saturation float64) *image.NRGBA {
	bounds := img.Bounds()
	dst := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			gray := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
			r := gray + (float64(c.R)-gray)*saturation
			g := gray + (float64(c.G)-gray)*saturation
			b := gray + (float64(c.B)-gray)*saturation
			dst.SetNRGBA(x, y, color.NRGBA{
				R: clampByte(r * brightness),
				G: clampByte(g * brightness),
				B: clampByte(b * brightness),
				A: c.A,
			})
		}
	}
	return dst
}

// normalize stretches the luminance histogram to span the full 0-255 range.
func normalize(img *image.NRGBA) *image.NRGBA {
	bounds := img.Bounds()
	minV, maxV := 255.0, 0.0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			gray := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
			if gray < minV {
				minV = gray
			}
			if gray > maxV {
				maxV = gray
			}
		}
	}
	if maxV-minV < 1 {
		return img
	}
	scale := 255.0 / (maxV - minV)
	lut := buildLUT(func(v float64) float64 {
		return (v - minV) * scale
	})
	return mapChannels(img, lut)
}

// unsharpMask sharpens by subtracting a blurred copy, scaled by amount.
func unsharpMask(img *image.NRGBA, amount float64) *image.NRGBA {
	bounds := img.Bounds()
	blurred := boxBlur3x3(img)
	dst := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			orig := img.NRGBAAt(x, y)
			blur := blurred.NRGBAAt(x, y)
			dst.SetNRGBA(x, y, color.NRGBA{
				R: clampByte(float64(orig.R) + amount*(float64(orig.R)-float64(blur.R))),
				G: clampByte(float64(orig.G) + amount*(float64(orig.G)-float64(blur.G))),
				B: clampByte(float64(orig.B) + amount*(float64(orig.B)-float64(blur.B))),
				A: orig.A,
			})
		}
	}
	return dst
}

func boxBlur3x3(img *image.NRGBA) *image.NRGBA {
	bounds := img.Bounds()
	dst := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var sr, sg, sb, n float64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					px, py := x+dx, y+dy
					if px < bounds.Min.X || px >= bounds.Max.X || py < bounds.Min.Y || py >= bounds.Max.Y {
						continue
					}
					c := img.NRGBAAt(px, py)
					sr += float64(c.R)
					sg += float64(c.G)
					sb += float64(c.B)
					n++
				}
			}
			orig := img.NRGBAAt(x, y)
			dst.SetNRGBA(x, y, color.NRGBA{
				R: clampByte(sr / n), G: clampByte(sg / n), B: clampByte(sb / n), A: orig.A,
			})
		}
	}
	return dst
}

// contrastThreshold pushes mid-gray pixels toward black/white around a
// fixed midpoint to clean up scan noise before OCR.
func contrastThreshold(img *image.NRGBA) *image.NRGBA {
	const midpoint = 128.0
	const strength = 1.6
	lut := buildLUT(func(v float64) float64 {
		return (v-midpoint)*strength + midpoint
	})
	return mapChannels(img, lut)
}

func buildLUT(f func(float64) float64) [256]uint8 {
	var lut [256]uint8
	for i := 0; i < 256; i++ {
		lut[i] = clampByte(f(float64(i)))
	}
	return lut
}

func mapChannels(img *image.NRGBA, lut [256]uint8) *image.NRGBA {
	bounds := img.Bounds()
	dst := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			dst.SetNRGBA(x, y, color.NRGBA{R: lut[c.R], G: lut[c.G], B: lut[c.B], A: c.A})
		}
	}
	return dst
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
