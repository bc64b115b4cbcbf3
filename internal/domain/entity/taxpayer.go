package entity

// Modos de autenticação no portal nacional.
const (
	AuthModePassword    = "password"
	AuthModeCertificate = "certificate"
)

// Taxpayer representa um contribuinte cadastrado (empresa) cujas notas são baixadas.
// As senhas chegam aqui já descriptografadas pelo store; o núcleo só lê a estrutura.
type Taxpayer struct {
	TaxID               string // CNPJ somente dígitos
	Name                string
	AuthMode            string // ver constantes AuthMode*
	Password            string // senha do portal (modo password)
	CertificatePath     string // caminho do .pfx/.p12 (modo certificate)
	CertificatePassword string
}

// UsesCertificate indica se o login é feito com certificado digital.
func (t Taxpayer) UsesCertificate() bool {
	return t.AuthMode == AuthModeCertificate
}
