package ingest

import (
	"github.com/metocean-tools/logscreen/frame"
)

// customAdapter decodes the general delimited format entirely from the
// descriptor: delimiter, header-row count and the header rows carrying
// channel names and units.
type customAdapter struct {
	desc Descriptor
}

func (a *customAdapter) Format() Format { return FormatCustom }

func (a *customAdapter) Decode(path string) (*frame.Frame, error) {
	return decodeDelimited(path, a.desc, decodeParams{
		delimiter:  a.desc.Delimiter,
		headerRows: a.desc.HeaderRows,
		channelRow: a.desc.ChannelRow,
		unitsRow:   a.desc.UnitsRow,
	})
}

// fugroAdapter decodes Fugro CSV output: three header rows (title, channel
// names, units) and comma-separated data rows with an embedded timestamp in
// the first column.
type fugroAdapter struct {
	desc Descriptor
}

func (a *fugroAdapter) Format() Format { return FormatFugroCSV }

func (a *fugroAdapter) Decode(path string) (*frame.Frame, error) {
	p := decodeParams{
		delimiter:  ",",
		headerRows: 3,
		channelRow: 2,
		unitsRow:   3,
	}
	if a.desc.HeaderRows > 0 {
		p.headerRows = a.desc.HeaderRows
	}
	if a.desc.ChannelRow > 0 {
		p.channelRow = a.desc.ChannelRow
	}
	if a.desc.UnitsRow > 0 {
		p.unitsRow = a.desc.UnitsRow
	}

	return decodeDelimited(path, a.desc, p)
}

// pulseAdapter decodes Pulse acceleration output: a metadata header block of
// variable length followed by whitespace-delimited rows whose first column
// is a time step. Absolute timestamps are reconstructed from the
// filename-encoded start time.
type pulseAdapter struct {
	desc Descriptor
}

func (a *pulseAdapter) Format() Format { return FormatPulseAcc }

func (a *pulseAdapter) Decode(path string) (*frame.Frame, error) {
	return decodeDelimited(path, a.desc, decodeParams{
		delimiter:        "",
		skipUntilNumeric: true,
	})
}

// hps2Adapter decodes 2H PS2 acceleration output: "%"-prefixed header lines
// followed by whitespace-delimited rows indexed by time step, with the start
// time encoded in the filename.
type hps2Adapter struct {
	desc Descriptor
}

func (a *hps2Adapter) Format() Format { return Format2HPS2Acc }

func (a *hps2Adapter) Decode(path string) (*frame.Frame, error) {
	return decodeDelimited(path, a.desc, decodeParams{
		delimiter:        "",
		commentPrefix:    "%",
		skipUntilNumeric: true,
	})
}
