// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package suggest

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// maxSourceChars caps the text sent to the extractor. Resumes rarely exceed
// a few thousand characters; anything longer is truncated, not rejected.
const maxSourceChars = 15000

// ErrNoSourceText indicates no usable source text could be resolved.
var ErrNoSourceText = errors.New("no source text provided")

// ExtractText pulls plain text from an uploaded document. PDFs go through
// the pdf reader; everything else is treated as UTF-8 text.
func ExtractText(data []byte, contentType string) (string, error) {
	if isPDF(data, contentType) {
		return extractPDFText(data)
	}
	return string(data), nil
}

func isPDF(data []byte, contentType string) bool {
	if strings.Contains(contentType, "application/pdf") {
		return true
	}
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single broken page should not sink the document.
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return "", errors.New("pdf contains no extractable text")
	}
	return b.String(), nil
}

// ResolveSourceText picks the source text for a suggestion request by
// priority: inline text, then an uploaded document, then the stored resume.
// The result is truncated to the extractor's input cap.
func ResolveSourceText(inline string, uploaded []byte, uploadedType string, resume []byte) (string, error) {
	switch {
	case strings.TrimSpace(inline) != "":
		return truncate(inline), nil
	case len(uploaded) > 0:
		text, err := ExtractText(uploaded, uploadedType)
		if err != nil {
			return "", err
		}
		return truncate(text), nil
	case len(resume) > 0:
		text, err := ExtractText(resume, "application/pdf")
		if err != nil {
			return "", err
		}
		return truncate(text), nil
	}
	return "", ErrNoSourceText
}

func truncate(s string) string {
	if len(s) <= maxSourceChars {
		return s
	}
	return s[:maxSourceChars]
}
