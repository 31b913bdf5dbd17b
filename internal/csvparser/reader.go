// =============================================================================
// Sales Analytics - Input Reader
// =============================================================================
//
// This file loads the whole transaction log into memory as raw lines.
//
// READING PROCESS:
//   1. Read the file fully (the pipeline is not streaming)
//   2. Decode it, trying each configured encoding in order
//   3. Drop the header rows
//   4. Trim each line and drop blank ones
//   5. Apply the optional record cap
//
// ENCODINGS:
//   Legacy exports are not always UTF-8. The default order is
//   utf-8, latin-1, cp1252. Latin-1 maps every byte, so in practice it
//   catches anything UTF-8 rejects.
//
// =============================================================================

package csvparser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/sales-analytics/internal/config"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// utf8BOM is stripped from the start of UTF-8 input.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// RawLine is one non-blank data line of the input, before parsing.
type RawLine struct {
	// Number is the 1-based physical line number in the file.
	Number int

	// Text is the trimmed line content.
	Text string
}

// RawData is the loaded input file.
type RawData struct {
	// Lines holds the data lines (headers and blank lines removed).
	Lines []RawLine

	// SourceFile is the path the data was read from, if any.
	SourceFile string

	// Encoding is the name of the encoding that decoded the file.
	Encoding string

	// Truncated is the number of data lines dropped by MaxRecords.
	Truncated int
}

// ReadLines reads and decodes an input file.
//
// PARAMETERS:
//   - filePath: The path to the transaction log.
//   - settings: The input settings from the main configuration.
//
// RETURNS:
//   - The loaded lines.
//   - An error if the file cannot be read or decoded.
func ReadLines(filePath string, settings config.InputSettings) (*RawData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	data, err := ReadLinesFrom(file, settings)
	if err != nil {
		return nil, err
	}
	data.SourceFile = filePath
	return data, nil
}

// ReadLinesFrom is ReadLines over an arbitrary reader.
func ReadLinesFrom(r io.Reader, settings config.InputSettings) (*RawData, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	text, encodingName, err := decode(content, settings.Encodings)
	if err != nil {
		return nil, err
	}

	physical := strings.Split(text, "\n")
	data := &RawData{Encoding: encodingName}

	for i, line := range physical {
		if i < settings.SkipRows() {
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		data.Lines = append(data.Lines, RawLine{Number: i + 1, Text: line})
	}

	if settings.MaxRecords > 0 && len(data.Lines) > settings.MaxRecords {
		data.Truncated = len(data.Lines) - settings.MaxRecords
		data.Lines = data.Lines[:settings.MaxRecords]
	}

	return data, nil
}

// decode converts raw bytes to text using the first encoding that accepts them.
func decode(content []byte, encodings []string) (string, string, error) {
	if len(encodings) == 0 {
		encodings = config.DefaultEncodings
	}

	var tried []string
	for _, name := range encodings {
		normalized := strings.ToLower(strings.TrimSpace(name))

		if normalized == "utf-8" || normalized == "utf8" {
			if utf8.Valid(content) {
				return string(bytes.TrimPrefix(content, utf8BOM)), name, nil
			}
			tried = append(tried, name)
			continue
		}

		decoder := lookupEncoding(normalized)
		if decoder == nil {
			tried = append(tried, name+" (unsupported)")
			continue
		}

		decoded, err := decoder.NewDecoder().Bytes(content)
		if err != nil {
			tried = append(tried, name)
			continue
		}
		return string(decoded), name, nil
	}

	return "", "", fmt.Errorf("unable to decode input with encodings: %s", strings.Join(tried, ", "))
}

// lookupEncoding maps a lower-cased encoding name to a decoder.
func lookupEncoding(name string) encoding.Encoding {
	switch name {
	case "latin-1", "latin1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1
	case "cp1252", "windows-1252":
		return charmap.Windows1252
	default:
		return nil
	}
}
