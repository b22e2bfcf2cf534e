package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/yamaru/welllog-tool/internal/config"
	"github.com/yamaru/welllog-tool/internal/diag"
	"github.com/yamaru/welllog-tool/internal/dlis"
	"github.com/yamaru/welllog-tool/internal/lis"
	"github.com/yamaru/welllog-tool/internal/reader"
)

// sulSize is the length of the RP66 storage unit label.
const sulSize = 80

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.File == "" {
		fmt.Printf("Usage: %s -file <well log file> [-format dlis|lis]\n", os.Args[0])
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		fmt.Printf("Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	diag.SetSink(diag.NewZapSink(logger))

	level, err := diag.ParseSeverity(cfg.EscapeLevel)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	diag.SetEscapeLevel(level)

	switch cfg.Format {
	case "lis":
		err = dumpLis(cfg)
	default:
		err = dumpDlis(cfg)
	}
	if err != nil {
		fmt.Printf("Error reading %s: %v\n", cfg.File, err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func dumpDlis(cfg *config.Config) error {
	stream, err := openDlis(cfg)
	if err != nil {
		return err
	}
	defer stream.Close()

	offsets, err := dlis.FindOffsets(stream)
	if err != nil {
		return err
	}
	fmt.Printf("Explicit records:  %d\n", len(offsets.Explicits))
	fmt.Printf("Implicit records:  %d\n", len(offsets.Implicits))
	fmt.Printf("Broken records:    %d\n", len(offsets.Broken))

	for _, tell := range offsets.Explicits {
		rec, err := dlis.Extract(stream, tell)
		if err != nil {
			return err
		}
		if rec.IsEncrypted() {
			fmt.Printf("  %8d  encrypted EFLR type %d\n", tell, rec.Type)
			continue
		}
		set, err := dlis.NewObjectSet(rec)
		if err != nil {
			return err
		}
		objs, err := set.Objects()
		if err != nil {
			return err
		}
		fmt.Printf("  %8d  set %-16s name %-12s objects %d\n",
			tell, set.Type, set.Name, len(objs))
		if cfg.Verbose {
			for _, obj := range objs {
				fmt.Printf("            object %s (%d attributes)\n",
					obj.Fingerprint(), obj.Len())
			}
		}
	}

	fdata, err := dlis.FindFdata(stream, offsets.Implicits)
	if err != nil {
		return err
	}
	for frame, tells := range fdata {
		fmt.Printf("  frame %-40s fdata records %d\n", frame, len(tells))
	}
	return nil
}

// openDlis opens the file, detects tape-image framing, skips the storage
// unit label and applies the visible-record framing.
func openDlis(cfg *config.Config) (*reader.Stream, error) {
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
	return reader.NewStream(framed), nil
}

func dumpLis(cfg *config.Config) error {
	dev, err := lis.Open(cfg.File, cfg.Offset, cfg.TapeImage)
	if err != nil {
		return err
	}
	defer dev.Close()

	index := dev.IndexRecords()
	fmt.Printf("Explicit records:  %d\n", len(index.Explicits()))
	fmt.Printf("Implicit records:  %d\n", len(index.Implicits()))
	if truncated, err := dev.Truncated(); err == nil && truncated {
		fmt.Printf("File is truncated; index covers the readable part\n")
	}

	for _, info := range index.Explicits() {
		if info.Type() != lis.TypeFormatSpec {
			if cfg.Verbose {
				fmt.Printf("  %8d  record type %3d size %d\n",
					info.LTell, info.LRH.Type, info.Size)
			}
			continue
		}

		rec, err := dev.ReadRecord(info)
		if err != nil {
			return err
		}
		dfs, err := lis.ParseDFSR(&rec)
		if err != nil {
			return err
		}
		fmtstr, err := lis.FmtStr(&dfs)
		if err != nil {
			return err
		}
		fmt.Printf("  %8d  DFSR subtype %d channels %d format %q\n",
			info.LTell, dfs.Subtype, len(dfs.Specs), fmtstr)
		for _, spec := range dfs.Specs {
			fmt.Printf("            channel %-4s units %-4s reprc %3d size %d\n",
				spec.Mnemonic, spec.Units, uint8(spec.Reprc), spec.Size)
		}

		if cfg.Verbose {
			_, dstSize, err := lis.PackFLen(fmtstr)
			if err != nil {
				return err
			}
			buf := lis.NewSliceBuffer(dstSize)
			rows, err := lis.ReadFData(fmtstr, dev, index, info, dstSize, buf)
			if err != nil {
				return err
			}
			fmt.Printf("            frames %d (%d bytes)\n", rows, len(buf.Bytes()))
		}
	}
	return nil
}
