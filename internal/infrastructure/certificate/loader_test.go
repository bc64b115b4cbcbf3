package certificate_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/domain"
	"github.com/Xeyco/Downloader-NFS-NACIONAL/internal/infrastructure/certificate"
)

func TestCheck_ArquivoAusente(t *testing.T) {
	c := certificate.NewChecker(nil)
	assert.ErrorIs(t, c.Check(filepath.Join(t.TempDir(), "acme.pfx"), "123"), domain.ErrCertificateNotFound)
	assert.ErrorIs(t, c.Check("  ", ""), domain.ErrCertificateNotFound)
}

func TestCheck_ArquivoIlegivel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acme.pfx")
	require.NoError(t, os.WriteFile(path, []byte("não é pkcs12"), 0o600))

	err := certificate.NewChecker(nil).Check(path, "123")
	assert.ErrorIs(t, err, domain.ErrCertificateInvalid)
}

// testdata/chain.pfx: folha "ACME LTDA" emitida por "AC Teste", com a AC embutida, senha "senha".
func TestLoad_PFXComCadeiaEscolheFolha(t *testing.T) {
	path := filepath.Join("testdata", "chain.pfx")

	info, err := certificate.Load(path, "senha")
	require.NoError(t, err)
	assert.Contains(t, info.Subject, "ACME LTDA")
	assert.Contains(t, info.Issuer, "AC Teste")
	assert.Equal(t, "5bfc15036f1c14a84141d58c0b315e507aac4545", info.SerialHex)

	now := func() time.Time { return time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC) }
	assert.NoError(t, certificate.NewChecker(now).Check(path, "senha"))
}

func TestLoad_PFXComCadeiaSenhaErrada(t *testing.T) {
	_, err := certificate.Load(filepath.Join("testdata", "chain.pfx"), "errada")
	assert.ErrorIs(t, err, domain.ErrCertificateInvalid)
}

func TestDescribe(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tpl := &x509.Certificate{
		SerialNumber: big.NewInt(0xBEEF),
		Subject:      pkix.Name{CommonName: "ACME LTDA:11222333000181"},
		NotBefore:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	der, err := x509.CreateCertificate(rand.Reader, tpl, tpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	info := certificate.Describe(cert)
	assert.Equal(t, "beef", info.SerialHex)
	assert.Contains(t, info.Subject, "ACME LTDA")
	assert.Len(t, info.SHA256, 64)
	assert.True(t, info.Expired(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, info.Expired(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
}
