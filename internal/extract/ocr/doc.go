// Package ocr implements the optical-character-recognition fallback
// (C1-a) used by the PDF extractor when native text extraction fails a
// quality test. Pages are rendered to images, lightly enhanced, and run
// through tesseract with a language pack covering English and the
// supported Indian scripts.
package ocr
