// Command mausalign converts field-linguistics transcripts between Toolbox,
// BAS Partitur, ELAN and Praat TextGrid around an external forced-alignment
// step: it writes the aligner's input, and folds the aligner's output back
// into the original transcript formats with reconstructed times.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/lingtools/mausalign/core/align"
	"github.com/lingtools/mausalign/core/elan"
	"github.com/lingtools/mausalign/core/inventory"
	"github.com/lingtools/mausalign/core/partitur"
	"github.com/lingtools/mausalign/core/textgrid"
	"github.com/lingtools/mausalign/core/toolbox"
	"github.com/lingtools/mausalign/core/translit"
	"github.com/lingtools/mausalign/core/wave"
	"github.com/lingtools/mausalign/internal/fileutil"
	"github.com/lingtools/mausalign/internal/logging"
	"github.com/lingtools/mausalign/internal/report"
	"github.com/lingtools/mausalign/internal/validation"
)

const version = "0.2.0"

// CLI defines the command-line interface for mausalign.
var CLI struct {
	// Global flags
	LogLevel string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log level"`
	LogJSON  bool   `name:"log-json" help:"Log in JSON format"`
	Journal  string `name:"journal" type:"path" help:"SQLite journal file for anomaly reports"`

	// Command groups (noun-first organization)
	Partitur PartiturGroup `cmd:"" help:"BAS Partitur operations (write, check)"`
	Toolbox  ToolboxGroup  `cmd:"" help:"Toolbox operations (import aligned times)"`
	Elan     ElanGroup     `cmd:"" help:"ELAN annotation graph operations"`
	Textgrid TextgridGroup `cmd:"" help:"Praat TextGrid export"`
	Version  VersionCmd    `cmd:"" help:"Print version information"`
}

// PartiturGroup contains BAS Partitur operations.
type PartiturGroup struct {
	Write PartiturWriteCmd `cmd:"" help:"Convert a Toolbox file to a BAS Partitur aligner input file"`
	Check PartiturCheckCmd `cmd:"" help:"Check a Partitur file's phonemes against an inventory"`
}

// ToolboxGroup contains Toolbox operations.
type ToolboxGroup struct {
	Import ToolboxImportCmd `cmd:"" help:"Fold aligned times back into a Toolbox file"`
}

// ElanGroup contains ELAN operations.
type ElanGroup struct {
	Flexibilize ElanFlexibilizeCmd `cmd:"" help:"Give word annotations their own time slots"`
	ImportTimes ElanImportTimesCmd `cmd:"" help:"Import word and utterance times from Toolbox tiers"`
}

// TextgridGroup contains TextGrid operations.
type TextgridGroup struct {
	Export TextgridExportCmd `cmd:"" help:"Export aligned tiers as a Praat TextGrid"`
}

// markerFlags are the Toolbox structural markers shared by several commands.
type markerFlags struct {
	RecordMarker        string `name:"record-marker" default:"ref" help:"Record/reference marker"`
	TranscriptionMarker string `name:"transcription-marker" default:"t" help:"Transcription tier marker"`
}

func (m markerFlags) validate() error {
	if err := validation.ValidateMarkerName(m.RecordMarker); err != nil {
		return err
	}
	return validation.ValidateMarkerName(m.TranscriptionMarker)
}

// tierFlags name the time tiers written to or read from Toolbox files.
type tierFlags struct {
	UtteranceBeginTier string `name:"utterance-begin-tier" default:"ELANBegin" help:"Utterance start time tier"`
	UtteranceEndTier   string `name:"utterance-end-tier" default:"ELANEnd" help:"Utterance end time tier"`
	WordBeginTier      string `name:"word-begin-tier" default:"WordBegin" help:"Word start times tier"`
	WordEndTier        string `name:"word-end-tier" default:"WordEnd" help:"Word end times tier"`
}

func (t tierFlags) names() (toolbox.TierNames, error) {
	for _, name := range []string{t.UtteranceBeginTier, t.UtteranceEndTier, t.WordBeginTier, t.WordEndTier} {
		if err := validation.ValidateMarkerName(name); err != nil {
			return toolbox.TierNames{}, err
		}
	}
	return toolbox.TierNames{
		UtteranceBegin: t.UtteranceBeginTier,
		UtteranceEnd:   t.UtteranceEndTier,
		WordBegin:      t.WordBeginTier,
		WordEnd:        t.WordEndTier,
	}, nil
}

// audioFlags select the audio parameters of the Partitur header, either from
// a wav file or explicitly.
type audioFlags struct {
	Wave       string `name:"wave" type:"existingfile" help:"Wav file to read audio parameters from"`
	SampleRate int    `name:"sample-rate" default:"44100" help:"Sample rate in Hz (ignored with --wave)"`
	Channels   int    `name:"channels" default:"1" help:"Channel count (ignored with --wave)"`
	BitDepth   int    `name:"bit-depth" default:"16" help:"Bits per sample (ignored with --wave)"`
}

// header resolves the flags into a Partitur header. With --wave the header
// also records the file name and the transcribed sample range.
func (a audioFlags) header() (partitur.Header, error) {
	if a.Wave == "" {
		return partitur.DefaultHeader(a.SampleRate, a.Channels, a.BitDepth), nil
	}
	info, err := wave.Probe(a.Wave)
	if err != nil {
		return partitur.Header{}, err
	}
	hdr := partitur.DefaultHeader(info.SampleRate, info.Channels, info.BitDepth)
	hdr.SRC = filepath.Base(a.Wave)
	begin := 0
	end := int(info.Duration * float64(info.SampleRate))
	hdr.BEG = &begin
	hdr.END = &end
	return hdr, nil
}

// finish prints the anomaly summary and appends it to the journal when one
// is configured.
func finish(c *report.Collector) error {
	c.WriteSummary(os.Stderr)
	if CLI.Journal == "" {
		return nil
	}
	return c.Journal(CLI.Journal)
}

// PartiturWriteCmd converts a Toolbox file into the aligner's input format.
type PartiturWriteCmd struct {
	Toolbox string `arg:"" help:"Input Toolbox file" type:"existingfile"`
	Out     string `arg:"" help:"Output Partitur file" type:"path"`
	Table   string `arg:"" help:"Transliteration table file" type:"existingfile"`

	markerFlags
	StartTimeMarker string `name:"start-time-marker" help:"Tier with prior utterance start times"`
	EndTimeMarker   string `name:"end-time-marker" help:"Tier with prior utterance end times"`

	Start   int    `name:"start" help:"First record to convert (1-based ordinal)"`
	End     int    `name:"end" help:"Last record to convert (1-based ordinal)"`
	StartID string `name:"start-id" help:"First record to convert (record ID)"`
	EndID   string `name:"end-id" help:"Last record to convert (record ID)"`

	audioFlags
}

func (c *PartiturWriteCmd) Run() error {
	if err := c.markerFlags.validate(); err != nil {
		return err
	}
	if err := validation.ValidateDistinct(c.Toolbox, c.Out); err != nil {
		return err
	}
	rep := report.New("partitur write")

	tableData, err := fileutil.ReadFile(c.Table)
	if err != nil {
		return err
	}
	table, err := translit.ParseTable(tableData)
	if err != nil {
		return fmt.Errorf("loading transliteration table: %w", err)
	}
	for _, s := range table.Lint() {
		rep.Addf(report.KindShadowedRule, "",
			"rule %q (line %d) can never fire: rule %q (line %d) matches first",
			s.Later.Pattern, s.Later.Line, s.Earlier.Pattern, s.Earlier.Line)
		logging.Warn("shadowed transliteration rule",
			"pattern", s.Later.Pattern, "line", s.Later.Line, "shadowed_by", s.Earlier.Pattern)
	}

	data, err := fileutil.ReadFile(c.Toolbox)
	if err != nil {
		return err
	}
	doc, err := toolbox.ReadDocument(data, c.Toolbox, toolbox.ReadOptions{
		RecordMarker:        c.RecordMarker,
		TranscriptionMarker: c.TranscriptionMarker,
		StartTimeMarker:     c.StartTimeMarker,
		EndTimeMarker:       c.EndTimeMarker,
	})
	if err != nil {
		return err
	}

	switch {
	case c.StartID != "" || c.EndID != "":
		if doc, err = doc.SliceByID(c.StartID, c.EndID); err != nil {
			return err
		}
	case c.Start != 0 || c.End != 0:
		if doc, err = doc.SliceByOrdinal(c.Start, c.End); err != nil {
			return err
		}
	}
	if len(doc.Records) == 0 {
		return fmt.Errorf("no records to convert in %s", c.Toolbox)
	}

	hdr, err := c.audioFlags.header()
	if err != nil {
		return err
	}
	hdr.DBN = filepath.Base(c.Toolbox)

	utterances := make([]partitur.Utterance, 0, len(doc.Records))
	for i := range doc.Records {
		rec := &doc.Records[i]
		utterances = append(utterances, partitur.Utterance{
			ID:    rec.ID,
			Words: rec.Words(),
			Start: rec.Start,
			End:   rec.End,
		})
	}

	out, anomalies, err := partitur.Build(utterances, translit.New(table), hdr)
	if err != nil {
		return err
	}
	for _, a := range anomalies {
		rep.Add(report.Kind(a.Kind), a.RecordID, a.Message)
	}

	if err := fileutil.WriteFile(c.Out, partitur.Format(out)); err != nil {
		return err
	}
	logging.Info("wrote aligner input",
		"path", c.Out,
		"records", len(out.Records),
		"words", len(out.Words),
		"slots", len(out.Slots),
		"fingerprint", partitur.Fingerprint(out))
	return finish(rep)
}

// PartiturCheckCmd checks every phoneme of a Partitur file against an
// inventory file.
type PartiturCheckCmd struct {
	Partitur  string `arg:"" help:"Partitur file to check" type:"existingfile"`
	Inventory string `arg:"" help:"Inventory file, one symbol per line" type:"existingfile"`
}

func (c *PartiturCheckCmd) Run() error {
	rep := report.New("partitur check")

	data, err := fileutil.ReadFile(c.Partitur)
	if err != nil {
		return err
	}
	doc, err := partitur.Parse(data, c.Partitur)
	if err != nil {
		return err
	}
	invData, err := fileutil.ReadFile(c.Inventory)
	if err != nil {
		return err
	}
	inv := inventory.Parse(invData)
	if inv.Len() == 0 {
		return fmt.Errorf("inventory %s contains no symbols", c.Inventory)
	}

	findings := inventory.Check(doc, inv)
	for _, f := range findings {
		rep.Addf(report.KindInventory, "",
			"word %d %q: symbol %q is not in the inventory", f.WordIndex, f.Surface, f.Symbol)
	}
	if err := finish(rep); err != nil {
		return err
	}
	if len(findings) > 0 {
		return fmt.Errorf("%d symbols outside the inventory", len(findings))
	}
	logging.Info("inventory check passed", "words", len(doc.Words), "symbols", inv.Len())
	return nil
}

// ToolboxImportCmd folds the aligner's output times back into a Toolbox file.
type ToolboxImportCmd struct {
	MAU      string `arg:"" help:"Aligned Partitur file (with MAU tier)" type:"existingfile"`
	Original string `arg:"" help:"Original Toolbox file" type:"existingfile"`
	Out      string `arg:"" help:"Output Toolbox file" type:"path"`

	Partitur string `name:"partitur" type:"existingfile" help:"Pre-alignment Partitur file, to verify both files belong together"`

	NewFile bool   `name:"new-file" help:"Write a new Toolbox file instead of annotating the original"`
	Type    string `name:"type" default:"Text" help:"Database type for the new file header (with --new-file)"`

	WordTimes          bool `name:"word-times" help:"Also write per-word time tiers"`
	KeepUtteranceTimes bool `name:"keep-utterance-times" help:"Keep the prior utterance times instead of the reconstructed ones"`

	markerFlags
	tierFlags
}

func (c *ToolboxImportCmd) Run() error {
	if err := c.markerFlags.validate(); err != nil {
		return err
	}
	tiers, err := c.tierFlags.names()
	if err != nil {
		return err
	}
	if err := validation.ValidateDistinct(c.Original, c.Out); err != nil {
		return err
	}
	if c.NewFile && c.KeepUtteranceTimes {
		return fmt.Errorf("--keep-utterance-times requires annotating the original file, not --new-file")
	}
	rep := report.New("toolbox import")

	mauData, err := fileutil.ReadFile(c.MAU)
	if err != nil {
		return err
	}
	doc, err := partitur.Parse(mauData, c.MAU)
	if err != nil {
		return err
	}
	segments, err := partitur.ReadMAU(mauData, c.MAU)
	if err != nil {
		return err
	}

	if c.Partitur != "" {
		preData, err := fileutil.ReadFile(c.Partitur)
		if err != nil {
			return err
		}
		pre, err := partitur.Parse(preData, c.Partitur)
		if err != nil {
			return err
		}
		if partitur.Fingerprint(pre) != partitur.Fingerprint(doc) {
			return fmt.Errorf("%s and %s carry different transcriptions: the aligned file does not originate from this aligner input", c.Partitur, c.MAU)
		}
	}

	times, warnings, err := align.Reconstruct(doc, segments, align.Options{
		KeepUtteranceTimes: c.KeepUtteranceTimes,
	})
	if err != nil {
		return err
	}
	for _, w := range warnings {
		rep.Add(report.KindFailedSegment, w.RecordID, w.Message)
	}

	original, err := fileutil.ReadFile(c.Original)
	if err != nil {
		return err
	}

	var output []byte
	var tierWarnings []toolbox.Warning
	if c.NewFile {
		if err := validation.ValidateMarkerName(c.Type); err != nil {
			return err
		}
		tbDoc, err := toolbox.ReadDocument(original, c.Original, toolbox.ReadOptions{
			RecordMarker:        c.RecordMarker,
			TranscriptionMarker: c.TranscriptionMarker,
		})
		if err != nil {
			return err
		}
		output, tierWarnings = toolbox.Write(tbDoc, times, toolbox.WriteOptions{
			RecordMarker:        c.RecordMarker,
			TranscriptionMarker: c.TranscriptionMarker,
			Type:                c.Type,
			Tiers:               tiers,
			WordTimes:           c.WordTimes,
		})
	} else {
		output, tierWarnings, err = toolbox.AnnotateTimes(original, times, toolbox.AnnotateOptions{
			RecordMarker:       c.RecordMarker,
			Tiers:              tiers,
			WordTimes:          c.WordTimes,
			KeepUtteranceTimes: c.KeepUtteranceTimes,
		})
		if err != nil {
			return err
		}
	}
	for _, w := range tierWarnings {
		rep.Add(report.KindTimeFallback, w.RecordID, w.Message)
	}

	if err := fileutil.WriteFile(c.Out, output); err != nil {
		return err
	}
	logging.Info("wrote Toolbox file", "path", c.Out, "records", len(times))
	return finish(rep)
}

// ElanFlexibilizeCmd restructures an EAF file's time slot graph.
type ElanFlexibilizeCmd struct {
	In  string `arg:"" help:"Input EAF file" type:"existingfile"`
	Out string `arg:"" help:"Output EAF file" type:"path"`
}

func (c *ElanFlexibilizeCmd) Run() error {
	if err := validation.ValidateDistinct(c.In, c.Out); err != nil {
		return err
	}
	data, err := fileutil.ReadFile(c.In)
	if err != nil {
		return err
	}
	g, err := elan.Read(data, c.In)
	if err != nil {
		return err
	}
	n, err := elan.Flexibilize(g)
	if err != nil {
		return err
	}
	if n == 0 {
		logging.Info("no symbolic-association tiers found, file is already flexibilized")
	} else {
		logging.Info("flexibilized tiers", "count", n)
	}
	return fileutil.WriteFile(c.Out, elan.Write(g))
}

// ElanImportTimesCmd anchors a flexibilized EAF file with the times carried
// by a Toolbox file's time tiers.
type ElanImportTimesCmd struct {
	Elan    string `arg:"" help:"Flexibilized EAF file" type:"existingfile"`
	Toolbox string `arg:"" help:"Toolbox file with time tiers" type:"existingfile"`
	Out     string `arg:"" help:"Output EAF file" type:"path"`

	UtteranceTier string `name:"utterance-tier" default:"ref" help:"EAF utterance tier ID"`
	WordTier      string `name:"word-tier" default:"t" help:"EAF word tier ID"`

	markerFlags
	tierFlags
}

func (c *ElanImportTimesCmd) Run() error {
	if err := c.markerFlags.validate(); err != nil {
		return err
	}
	tiers, err := c.tierFlags.names()
	if err != nil {
		return err
	}
	if err := validation.ValidateDistinct(c.Elan, c.Out); err != nil {
		return err
	}
	rep := report.New("elan import-times")

	tbData, err := fileutil.ReadFile(c.Toolbox)
	if err != nil {
		return err
	}
	tbDoc, err := toolbox.ReadDocument(tbData, c.Toolbox, toolbox.ReadOptions{
		RecordMarker:        c.RecordMarker,
		TranscriptionMarker: c.TranscriptionMarker,
		StartTimeMarker:     tiers.UtteranceBegin,
		EndTimeMarker:       tiers.UtteranceEnd,
		// Annotated files carry untimed records when alignment failed for a
		// whole utterance; those records are skipped during import.
		OptionalTimes: true,
	})
	if err != nil {
		return err
	}
	times, err := toolbox.RecordTimesFromTiers(tbDoc, tiers)
	if err != nil {
		return err
	}

	eafData, err := fileutil.ReadFile(c.Elan)
	if err != nil {
		return err
	}
	g, err := elan.Read(eafData, c.Elan)
	if err != nil {
		return err
	}

	conflicts, warnings, err := elan.ImportTimes(g, c.UtteranceTier, c.WordTier, times)
	if err != nil {
		return err
	}
	for _, conflict := range conflicts {
		rep.Add(report.KindTimeConflict, conflict.RecordID, conflict.String())
	}
	for _, w := range warnings {
		rep.Add(report.KindAdjusted, w.RecordID, w.Message)
	}

	if err := fileutil.WriteFile(c.Out, elan.Write(g)); err != nil {
		return err
	}
	logging.Info("imported times", "path", c.Out,
		"records", len(times), "conflicts", len(conflicts))
	return finish(rep)
}

// TextgridExportCmd exports the aligned tiers as a Praat TextGrid.
type TextgridExportCmd struct {
	MAU string `arg:"" help:"Aligned Partitur file (with MAU tier)" type:"existingfile"`
	Out string `arg:"" help:"Output TextGrid file" type:"path"`

	Wave               string `name:"wave" type:"existingfile" help:"Wav file, to set the grid's full time range"`
	KeepUtteranceTimes bool   `name:"keep-utterance-times" help:"Keep the prior utterance times instead of the reconstructed ones"`
}

func (c *TextgridExportCmd) Run() error {
	rep := report.New("textgrid export")

	data, err := fileutil.ReadFile(c.MAU)
	if err != nil {
		return err
	}
	doc, err := partitur.Parse(data, c.MAU)
	if err != nil {
		return err
	}
	segments, err := partitur.ReadMAU(data, c.MAU)
	if err != nil {
		return err
	}
	times, warnings, err := align.Reconstruct(doc, segments, align.Options{
		KeepUtteranceTimes: c.KeepUtteranceTimes,
	})
	if err != nil {
		return err
	}
	for _, w := range warnings {
		rep.Add(report.KindFailedSegment, w.RecordID, w.Message)
	}

	xmax := 0.0
	rate := float64(doc.Header.SAM)
	for _, seg := range segments {
		if seg.Failed {
			continue
		}
		if end := float64(seg.Start+seg.Duration) / rate; end > xmax {
			xmax = end
		}
	}
	if c.Wave != "" {
		info, err := wave.Probe(c.Wave)
		if err != nil {
			return err
		}
		if info.Duration > xmax {
			xmax = info.Duration
		}
	}

	grid, err := textgrid.Render(0, xmax, textgrid.FromAlignment(doc, segments, times))
	if err != nil {
		return err
	}
	if err := fileutil.WriteFile(c.Out, grid); err != nil {
		return err
	}
	logging.Info("wrote TextGrid", "path", c.Out, "records", len(times))
	return finish(rep)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("mausalign %s\n", version)
	return nil
}

func initLogging() {
	level := logging.LevelInfo
	switch CLI.LogLevel {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	format := logging.FormatText
	if CLI.LogJSON {
		format = logging.FormatJSON
	}
	logging.InitLogger(level, format)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("mausalign"),
		kong.Description("Transcript converters around the MAUS forced aligner"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	initLogging()
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
