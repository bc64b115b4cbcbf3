// Carga do certificado A1 (.pfx/.p12) usado no login do portal.

package certificate

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/pkcs12"

	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain"
)

// Info dados do certificado folha, para diagnóstico.
type Info struct {
	Subject   string    `json:"subject"`
	Issuer    string    `json:"issuer"`
	SerialHex string    `json:"serial"`
	NotBefore time.Time `json:"not_before"`
	NotAfter  time.Time `json:"not_after"`
	SHA256    string    `json:"sha256"`
}

// Expired indica validade vencida em "at".
func (i Info) Expired(at time.Time) bool {
	return at.After(i.NotAfter)
}

// Checker valida arquivo e senha antes de abrir o navegador. Implementa fetch.CertificateChecker.
type Checker struct {
	now func() time.Time
}

// NewChecker now nil usa time.Now.
func NewChecker(now func() time.Time) *Checker {
	if now == nil {
		now = time.Now
	}
	return &Checker{now: now}
}

// Check devolve domain.ErrCertificateNotFound ou domain.ErrCertificateInvalid embrulhados.
func (c *Checker) Check(path, password string) error {
	info, err := Load(path, password)
	if err != nil {
		return err
	}
	if info.Expired(c.now()) {
		return fmt.Errorf("%w: vencido em %s", domain.ErrCertificateInvalid, info.NotAfter.Format("02/01/2006"))
	}
	return nil
}

// Load lê o .p12/.pfx e devolve os dados do certificado folha.
// O password pode ser vazio se o arquivo não estiver protegido.
func Load(path, password string) (*Info, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: caminho não informado", domain.ErrCertificateNotFound)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrCertificateNotFound, path)
		}
		return nil, fmt.Errorf("certificate: ler %s: %w", path, err)
	}
	cert, err := leafCertificate(data, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCertificateInvalid, err)
	}
	return Describe(cert), nil
}

// leafCertificate decodifica o PFX inteiro (folha, cadeia da AC e chave) e escolhe o certificado
// que compartilha o localKeyId da chave. Sem essa marca, vale o primeiro que não é AC.
func leafCertificate(data []byte, password string) (*x509.Certificate, error) {
	blocks, err := pkcs12.ToPEM(data, password)
	if err != nil {
		return nil, err
	}
	keyID := ""
	hasKey := false
	var certs []*x509.Certificate
	ids := map[*x509.Certificate]string{}
	for _, b := range blocks {
		switch b.Type {
		case "PRIVATE KEY":
			hasKey = true
			keyID = b.Headers["localKeyId"]
		case "CERTIFICATE":
			c, err := x509.ParseCertificate(b.Bytes)
			if err != nil {
				return nil, fmt.Errorf("certificado do arquivo: %w", err)
			}
			certs = append(certs, c)
			ids[c] = b.Headers["localKeyId"]
		}
	}
	if !hasKey {
		return nil, errors.New("arquivo sem chave privada")
	}
	if len(certs) == 0 {
		return nil, errors.New("arquivo sem certificado")
	}
	if keyID != "" {
		for _, c := range certs {
			if ids[c] == keyID {
				return c, nil
			}
		}
	}
	for _, c := range certs {
		if !c.IsCA {
			return c, nil
		}
	}
	return certs[0], nil
}

// Describe resume o certificado x509.
func Describe(cert *x509.Certificate) *Info {
	sum := sha256.Sum256(cert.Raw)
	return &Info{
		Subject:   cert.Subject.String(),
		Issuer:    cert.Issuer.String(),
		SerialHex: cert.SerialNumber.Text(16),
		NotBefore: cert.NotBefore,
		NotAfter:  cert.NotAfter,
		SHA256:    hex.EncodeToString(sum[:]),
	}
}
