// Comando report gera a planilha de NFS-e a partir de XMLs já baixados.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	appreport "github.com/Xeyco/Downloader-NFS-NACIONAL/internal/application/report"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/bootstrap"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/pkg/config"
)

func main() {
	fs := pflag.NewFlagSet("report", pflag.ExitOnError)
	dirFlag := fs.String("direction", "issued", "issued (tomador) ou received (prestador)")
	source := fs.String("dir", "", "pasta varrida recursivamente em busca de XML")
	output := fs.StringP("output", "o", "", "arquivo .xlsx de saída")
	fs.Bool("report-pdf-summary", false, "gerar resumo em PDF junto da planilha")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "uso: report [--dir PASTA | arquivo.xml ...] -o relatorio.xlsx")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuração:", err)
		os.Exit(2)
	}
	lg, err := bootstrap.NewLogger(cfg, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "log:", err)
		os.Exit(1)
	}
	defer lg.Close()

	files := fs.Args()
	if *source != "" {
		found, err := appreport.ScanXML(*source)
		if err != nil {
			lg.Error().Err(err).Str("dir", *source).Msg("varrer pasta")
			os.Exit(1)
		}
		files = append(files, found...)
	}
	if *output == "" && *source != "" {
		*output = filepath.Join(*source, "relatorio_nfse.xlsx")
	}

	dir := entity.ParseDirections(*dirFlag)[0]
	out, err := bootstrap.NewReports(cfg, lg.Zerolog()).Manual(files, dir, *output)
	if err != nil {
		lg.Error().Err(err).Msg("gerar relatório")
		fs.Usage()
		os.Exit(1)
	}
	fmt.Printf("Relatório: %s (%d de %d XML)\n", out.ReportPath, out.Records, out.Files)
	if out.SummaryPath != "" {
		fmt.Println("Resumo:", out.SummaryPath)
	}
}
