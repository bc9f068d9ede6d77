package pipeline

import (
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

type traceParquetRow struct {
	OffsetSec          int64   `parquet:"name=offset_sec, type=INT64"`
	DistanceM          float64 `parquet:"name=distance_m, type=DOUBLE"`
	DurationSec        int64   `parquet:"name=duration_sec, type=INT64"`
	PaceSecPerKm       float64 `parquet:"name=pace_sec_per_km, type=DOUBLE"`
	TargetPaceSecPerKm float64 `parquet:"name=target_pace_sec_per_km, type=DOUBLE"`
	PaceDifference     float64 `parquet:"name=pace_difference_sec_per_km, type=DOUBLE"`
	Zone               string  `parquet:"name=zone, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	ProgressPct        float64 `parquet:"name=progress_pct, type=DOUBLE"`
}

func writeTraceParquet(path string, rows []TraceRow) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	if err := encodeTraceParquet(fw, rows); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

func marshalTraceParquet(rows []TraceRow) ([]byte, error) {
	fw := buffer.NewBufferFile()
	if err := encodeTraceParquet(fw, rows); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}

func encodeTraceParquet(fw source.ParquetFile, rows []TraceRow) error {
	pw, err := writer.NewParquetWriter(fw, new(traceParquetRow), 4)
	if err != nil {
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, r := range rows {
		row := traceParquetRow{
			OffsetSec:          r.OffsetSec,
			DistanceM:          r.DistanceM,
			DurationSec:        r.DurationSec,
			PaceSecPerKm:       r.PaceSecPerKm,
			TargetPaceSecPerKm: r.TargetPaceSecPerKm,
			PaceDifference:     r.PaceDifference,
			Zone:               r.Zone,
			ProgressPct:        r.ProgressPct,
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return err
		}
	}
	return pw.WriteStop()
}
