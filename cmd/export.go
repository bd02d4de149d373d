package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/worldnewsmap/newsgeo/internal/geospatial"
	"github.com/worldnewsmap/newsgeo/internal/model"
	"github.com/worldnewsmap/newsgeo/internal/store"
)

var (
	exportDate string
	exportOut  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export resolved records of a date as GeoJSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("export"); err != nil {
			return err
		}

		records, err := store.NewRecordStore(cfg.Records.Dir).Read(exportDate)
		if err != nil {
			return err
		}

		var n int
		if exportOut == "" {
			n, err = geospatial.Write(cmd.OutOrStdout(), records)
		} else {
			var f *os.File
			f, err = os.Create(exportOut)
			if err != nil {
				return eris.Wrapf(err, "export: create %s", exportOut)
			}
			n, err = writeAndClose(f, records)
		}
		if err != nil {
			return err
		}
		zap.L().Info("export: wrote features",
			zap.String("date", exportDate),
			zap.Int("features", n),
			zap.Int("records", len(records)),
		)
		return nil
	},
}

// writeAndClose writes the GeoJSON document to wc and closes it. A close
// error is returned since it can mean buffered data never reached disk.
func writeAndClose(wc io.WriteCloser, records []model.Record) (int, error) {
	n, err := geospatial.Write(wc, records)
	if cerr := wc.Close(); cerr != nil && err == nil {
		err = eris.Wrap(cerr, "export: close output")
	}
	return n, err
}

func init() {
	exportCmd.Flags().StringVar(&exportDate, "date", "", "date to export (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default stdout)")
	_ = exportCmd.MarkFlagRequired("date")
	rootCmd.AddCommand(exportCmd)
}
