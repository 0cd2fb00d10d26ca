package ingest

import (
	"math"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/metocean-tools/logscreen/frame"
)

// decodeParams tune the shared delimited reader per format.
type decodeParams struct {
	delimiter  string // "" = any whitespace
	headerRows int
	channelRow int // 1-based within header, 0 = none
	unitsRow   int

	// skipUntilNumeric treats every leading row whose first field is not
	// numeric (and not a timestamp) as header, regardless of headerRows.
	skipUntilNumeric bool

	// commentPrefix marks header/comment lines to drop anywhere in the file.
	commentPrefix string
}

// decodeDelimited is the shared decode path of every adapter: split the
// file into rows, recover channel metadata from the header, select the
// requested columns and normalize the index column.
//
// Per-cell failures become missing values (NaN); only a whole-file problem
// (unreadable, undecodable encoding, no data rows) is a hard error.
func decodeDelimited(path string, d Descriptor, p decodeParams) (*frame.Frame, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Reason: "unable to read file", Err: err}
	}
	if !utf8.Valid(raw) {
		return nil, &ParseError{Path: path, Reason: "undecodable encoding"}
	}

	lines := splitLines(string(raw), p.commentPrefix)
	if len(lines) == 0 {
		return nil, &ParseError{Path: path, Reason: "empty file"}
	}

	header, data := splitHeader(lines, p)
	if len(data) == 0 {
		return nil, &ParseError{Path: path, Reason: "no data rows"}
	}

	names, units := channelMetadata(d, p, header)

	f, err := frame.New(names, units)
	if err != nil {
		return nil, &ParseError{Path: path, Reason: "invalid channel metadata", Err: err}
	}
	f.Path = path

	// Start time for time-step files comes from the filename when the
	// logger encodes one there.
	var start time.Time
	hasStart := false
	if d.FilenameTimestamp != "" {
		if t, err := ParseFilenameTimestamp(path, d.FilenameTimestamp); err == nil {
			start = t
			hasStart = true
		}
	}

	var firstStamp time.Time
	haveFirstStamp := false

	values := make([]float64, len(d.Columns))

	for _, line := range data {
		fields := splitFields(line, p.delimiter)
		if len(fields) == 0 {
			continue
		}

		// Index column: embedded timestamp or numeric time step. Unparseable
		// values become missing, never an error.
		elapsed := math.NaN()
		var ts time.Time

		if stamp, ok := parseRowTimestamp(fields[0]); ok {
			ts = stamp
			if !haveFirstStamp {
				firstStamp = stamp
				haveFirstStamp = true
			}
			elapsed = stamp.Sub(firstStamp).Seconds()
		} else if step, err := strconv.ParseFloat(fields[0], 64); err == nil {
			elapsed = step
			if d.SampleInterval > 0 {
				elapsed = step * d.SampleInterval
			}
			if hasStart {
				ts = start.Add(time.Duration(elapsed * float64(time.Second)))
			}
		}

		for i, col := range d.Columns {
			values[i] = math.NaN()

			idx := col - 1
			if idx < 0 || idx >= len(fields) {
				continue // requested column missing from this file
			}
			if v, err := strconv.ParseFloat(strings.TrimSpace(fields[idx]), 64); err == nil {
				if i < len(d.UnitFactors) && d.UnitFactors[i] != 0 {
					v *= d.UnitFactors[i]
				}
				values[i] = v
			}
		}

		f.AppendRow(elapsed, ts, values)
	}

	if f.NumRows() == 0 {
		return nil, &ParseError{Path: path, Reason: "no data rows"}
	}

	return f, nil
}

// splitLines drops blank lines and, when configured, comment lines.
func splitLines(content, commentPrefix string) []string {
	rawLines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	lines := make([]string, 0, len(rawLines))
	for _, line := range rawLines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if commentPrefix != "" && strings.HasPrefix(trimmed, commentPrefix) {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// splitHeader separates header rows from data rows.
func splitHeader(lines []string, p decodeParams) (header, data []string) {
	if p.skipUntilNumeric {
		for i, line := range lines {
			fields := splitFields(line, p.delimiter)
			if len(fields) == 0 {
				continue
			}
			if _, err := strconv.ParseFloat(fields[0], 64); err == nil {
				return lines[:i], lines[i:]
			}
			if _, ok := parseRowTimestamp(fields[0]); ok {
				return lines[:i], lines[i:]
			}
		}
		return lines, nil
	}

	n := p.headerRows
	if n > len(lines) {
		n = len(lines)
	}
	return lines[:n], lines[n:]
}

// channelMetadata recovers channel names and units for the requested
// columns, applying descriptor overrides.
func channelMetadata(d Descriptor, p decodeParams, header []string) ([]string, []string) {
	names := make([]string, len(d.Columns))
	units := make([]string, len(d.Columns))

	var nameFields, unitFields []string
	if p.channelRow > 0 && p.channelRow <= len(header) {
		nameFields = splitFields(header[p.channelRow-1], p.delimiter)
	}
	if p.unitsRow > 0 && p.unitsRow <= len(header) {
		unitFields = splitFields(header[p.unitsRow-1], p.delimiter)
	}

	for i, col := range d.Columns {
		names[i] = "Column " + strconv.Itoa(col)
		units[i] = "-"

		if idx := col - 1; idx >= 0 && idx < len(nameFields) {
			if n := strings.TrimSpace(nameFields[idx]); n != "" {
				names[i] = n
			}
		}
		if idx := col - 1; idx >= 0 && idx < len(unitFields) {
			if u := strings.TrimSpace(unitFields[idx]); u != "" {
				units[i] = u
			}
		}

		if i < len(d.ChannelNames) && d.ChannelNames[i] != "" {
			names[i] = d.ChannelNames[i]
		}
		if i < len(d.ChannelUnits) && d.ChannelUnits[i] != "" {
			units[i] = d.ChannelUnits[i]
		}
	}

	return names, units
}

// splitFields splits one row into raw columns.
func splitFields(line, delimiter string) []string {
	if delimiter == "" {
		return strings.Fields(line)
	}

	fields := strings.Split(line, delimiter)
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}
