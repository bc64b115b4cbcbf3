// Comando certcheck confere se um certificado A1 abre com a senha informada.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/infrastructure/certificate"
)

func main() {
	fs := pflag.NewFlagSet("certcheck", pflag.ExitOnError)
	path := fs.String("cert", "", "arquivo .pfx/.p12")
	password := fs.String("password", "", "senha do certificado")
	_ = fs.Parse(os.Args[1:])

	fmt.Println("DIAGNÓSTICO DE CERTIFICADO")
	fmt.Println("--------------------------")
	fmt.Printf("Arquivo: %s\n", *path)

	info, err := certificate.Load(*path, *password)
	switch {
	case errors.Is(err, domain.ErrCertificateNotFound):
		color.Red("\nERRO DE ARQUIVO: %v", err)
		os.Exit(1)
	case errors.Is(err, domain.ErrCertificateInvalid):
		color.Red("\nERRO DE SENHA OU FORMATO: %v", err)
		os.Exit(1)
	case err != nil:
		color.Red("\nERRO: %v", err)
		os.Exit(1)
	}

	fmt.Printf("Titular:  %s\n", info.Subject)
	fmt.Printf("Emissor:  %s\n", info.Issuer)
	fmt.Printf("Série:    %s\n", info.SerialHex)
	fmt.Printf("Validade: %s a %s\n", info.NotBefore.Format("02/01/2006"), info.NotAfter.Format("02/01/2006"))
	fmt.Printf("SHA-256:  %s\n", info.SHA256)

	if info.Expired(time.Now()) {
		color.Yellow("\nCertificado vencido: o portal vai recusar o acesso.")
		os.Exit(1)
	}
	color.Green("\nCertificado e senha corretos.")
}
