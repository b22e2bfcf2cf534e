package main

import (
	"fmt"

	"github.com/yamaru/welllog-tool/internal/config"
	"github.com/yamaru/welllog-tool/internal/dlis"
	"github.com/yamaru/welllog-tool/internal/lis"
	"github.com/yamaru/welllog-tool/internal/reader"
)

// sulSize is the length of the RP66 storage unit label.
const sulSize = 80

func loadDlisEntries(cfg *config.Config) ([]recordEntry, error) {
	tapeimage := cfg.TapeImage
	if !tapeimage {
		src, err := reader.Open(cfg.File, cfg.Offset)
		if err != nil {
			return nil, err
		}
		probe := reader.NewStream(src)
		if tm, err := dlis.HasTapeMark(probe); err == nil && tm {
			tapeimage = true
		}
		probe.Close()
	}

	src, err := reader.Open(cfg.File, cfg.Offset)
	if err != nil {
		return nil, err
	}
	var base reader.ByteSource = src
	if tapeimage {
		base, err = reader.WrapTapeImage(src)
		if err != nil {
			src.Close()
			return nil, err
		}
	}

	outer := reader.NewStream(base)
	sulOffset, err := dlis.FindSUL(outer)
	if err != nil {
		outer.Close()
		return nil, err
	}
	if err := outer.Seek(sulOffset + sulSize); err != nil {
		outer.Close()
		return nil, err
	}
	framed, err := reader.WrapRP66(base)
	if err != nil {
		outer.Close()
		return nil, err
	}
	stream := reader.NewStream(framed)
	defer stream.Close()

	offsets, err := dlis.FindOffsets(stream)
	if err != nil {
		return nil, err
	}

	var entries []recordEntry
	for _, tell := range offsets.Explicits {
		rec, err := dlis.Extract(stream, tell)
		if err != nil {
			return nil, err
		}
		if rec.IsEncrypted() {
			entries = append(entries, recordEntry{
				Title: fmt.Sprintf("EFLR type %d (encrypted)", rec.Type),
				Details: indent([]string{
					fmt.Sprintf("[yellow]Tell:[white]  %d", tell),
					fmt.Sprintf("[yellow]Type:[white]  %d", rec.Type),
					"[yellow]Encrypted record; contents not parsed[white]",
				}),
			})
			continue
		}
		set, err := dlis.NewObjectSet(rec)
		if err != nil {
			return nil, err
		}
		objs, err := set.Objects()
		if err != nil {
			return nil, err
		}

		lines := []string{
			fmt.Sprintf("[yellow]Tell:[white]    %d", tell),
			fmt.Sprintf("[yellow]Set:[white]     %s", set.Type),
			fmt.Sprintf("[yellow]Name:[white]    %s", set.Name),
			fmt.Sprintf("[yellow]Role:[white]    %s", dlis.RoleName(set.Role)),
			fmt.Sprintf("[yellow]Objects:[white] %d", len(objs)),
			"",
		}
		for _, obj := range objs {
			lines = append(lines, fmt.Sprintf("[green]%s[white]", obj.Fingerprint()))
			for _, attr := range obj.Attributes {
				lines = append(lines, fmt.Sprintf("  %-16s %-8s count %-4d %v",
					attr.Label, attr.Reprc, attr.Count, attr.Value))
			}
		}
		entries = append(entries, recordEntry{
			Title:   fmt.Sprintf("%s %s", set.Type, set.Name),
			Details: indent(lines),
		})
	}

	fdata, err := dlis.FindFdata(stream, offsets.Implicits)
	if err != nil {
		return nil, err
	}
	for frame, tells := range fdata {
		entries = append(entries, recordEntry{
			Title: fmt.Sprintf("FDATA %s", frame),
			Details: indent([]string{
				fmt.Sprintf("[yellow]Frame:[white]   %s", frame),
				fmt.Sprintf("[yellow]Records:[white] %d", len(tells)),
			}),
		})
	}
	return entries, nil
}

func loadLisEntries(cfg *config.Config) ([]recordEntry, error) {
	dev, err := lis.Open(cfg.File, cfg.Offset, cfg.TapeImage)
	if err != nil {
		return nil, err
	}
	defer dev.Close()

	index := dev.IndexRecords()

	var entries []recordEntry
	for _, info := range index.Explicits() {
		lines := []string{
			fmt.Sprintf("[yellow]Tell:[white] %d", info.LTell),
			fmt.Sprintf("[yellow]Type:[white] %d", info.LRH.Type),
			fmt.Sprintf("[yellow]Size:[white] %d", info.Size),
		}
		title := fmt.Sprintf("record type %d", info.LRH.Type)

		if info.Type() == lis.TypeFormatSpec {
			rec, err := dev.ReadRecord(info)
			if err != nil {
				return nil, err
			}
			dfs, err := lis.ParseDFSR(&rec)
			if err != nil {
				return nil, err
			}
			title = fmt.Sprintf("DFSR (%d channels)", len(dfs.Specs))
			lines = append(lines, "")
			for _, spec := range dfs.Specs {
				lines = append(lines, fmt.Sprintf("  channel %-4s units %-4s "+
					"reprc %3d size %d samples %d",
					spec.Mnemonic, spec.Units, uint8(spec.Reprc),
					spec.Size, spec.Samples))
			}
			if fmtstr, err := lis.FmtStr(&dfs); err == nil {
				lines = append(lines, "", fmt.Sprintf("[yellow]Format:[white] %q", fmtstr))
			}
		}

		entries = append(entries, recordEntry{Title: title, Details: indent(lines)})
	}

	implicits := index.Implicits()
	if len(implicits) > 0 {
		entries = append(entries, recordEntry{
			Title: fmt.Sprintf("frame data (%d records)", len(implicits)),
			Details: indent([]string{
				fmt.Sprintf("[yellow]Implicit records:[white] %d", len(implicits)),
				fmt.Sprintf("[yellow]First tell:[white]       %d", implicits[0].LTell),
			}),
		})
	}
	return entries, nil
}
