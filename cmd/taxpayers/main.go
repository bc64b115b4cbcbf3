// Comando taxpayers administra o cadastro de empresas (empresas.json).
package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/bootstrap"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain/entity"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/infrastructure/store"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/pkg/config"
	pkgnfse "github.com/Xeyco/Downloader-NFS-NACIONAL/pkg/nfse"
)

const usage = `uso:
  taxpayers list
  taxpayers add --name NOME --cnpj CNPJ (--password SENHA | --cert ARQUIVO.pfx --cert-password SENHA)
  taxpayers remove CNPJ
  taxpayers folder PASTA`

func main() {
	fs := pflag.NewFlagSet("taxpayers", pflag.ExitOnError)
	name := fs.String("name", "", "razão social")
	cnpj := fs.String("cnpj", "", "CNPJ (com ou sem máscara)")
	password := fs.String("password", "", "senha do portal")
	cert := fs.String("cert", "", "certificado .pfx/.p12")
	certPassword := fs.String("cert-password", "", "senha do certificado")
	fs.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(nil)
	if err != nil {
		fail(err)
	}
	lg, err := bootstrap.NewLogger(cfg, os.Stderr)
	if err != nil {
		fail(err)
	}
	defer lg.Close()

	repo, err := bootstrap.OpenTaxpayers(cfg, lg.Zerolog())
	if err != nil {
		fail(err)
	}

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		os.Exit(2)
	}
	switch args[0] {
	case "list":
		list(repo)
	case "add":
		t := entity.Taxpayer{
			TaxID:    pkgnfse.Digits(*cnpj),
			Name:     *name,
			AuthMode: entity.AuthModePassword,
			Password: *password,
		}
		if *cert != "" {
			t.AuthMode = entity.AuthModeCertificate
			t.Password = ""
			t.CertificatePath = *cert
			t.CertificatePassword = *certPassword
		}
		if err := pkgnfse.ValidateCNPJCheckDigits(t.TaxID); err != nil {
			lg.Warn().Err(err).Str("cnpj", t.TaxID).Msg("dígitos verificadores não conferem")
		}
		if err := repo.Create(t); err != nil {
			fail(err)
		}
		fmt.Println("cadastrado:", pkgnfse.FormatCNPJ(t.TaxID), t.Name)
	case "remove":
		if len(args) < 2 {
			fs.Usage()
			os.Exit(2)
		}
		if err := repo.Delete(pkgnfse.Digits(args[1])); err != nil {
			fail(err)
		}
		fmt.Println("removido:", args[1])
	case "folder":
		if len(args) < 2 {
			fmt.Println(repo.DefaultFolder())
			return
		}
		if err := repo.SetDefaultFolder(args[1]); err != nil {
			fail(err)
		}
	default:
		fs.Usage()
		os.Exit(2)
	}
}

func list(repo *store.TaxpayerStore) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CNPJ\tNOME\tACESSO")
	for _, t := range repo.List() {
		mode := "senha"
		if t.UsesCertificate() {
			mode = "certificado"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", pkgnfse.FormatCNPJ(t.TaxID), t.Name, mode)
	}
	_ = w.Flush()
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "erro:", err)
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrAlreadyExists):
		os.Exit(2)
	default:
		os.Exit(1)
	}
}
